package search

import (
	"time"

	"go.uber.org/zap"
)

// WithDebounce sets how long input must be idle before a search runs.
func WithDebounce(d time.Duration) Option {
	return func(s *Searcher) {
		s.debounce = d
	}
}

// WithPageSize sets the maximum number of results delivered. Searches scan
// five pages worth of documents.
func WithPageSize(n int) Option {
	return func(s *Searcher) {
		s.pageSize = n
	}
}

// WithLogger sets the logger that records failed searches.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Searcher) {
		s.logger = l
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*Searcher)
