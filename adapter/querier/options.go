package querier

import "github.com/vinicius-lino-figueiredo/dbexplorer/domain"

// WithMatcher sets the matcher implementation for querier evaluations.
func WithMatcher(m domain.Matcher) Option {
	return func(q *Querier) {
		q.mtchr = m
	}
}

// WithComparer sets the comparer implementation for sorting operations and
// index keys.
func WithComparer(c domain.Comparer) Option {
	return func(q *Querier) {
		q.cmpr = c
	}
}

// WithProjector sets the projector applied to the returned page.
func WithProjector(p domain.Projector) Option {
	return func(q *Querier) {
		q.proj = p
	}
}

// WithIndexFactory sets the function used to build the index that narrows
// candidates.
func WithIndexFactory(f domain.IndexFactory) Option {
	return func(q *Querier) {
		q.idxFac = f
	}
}

// WithIndexes enables or disables the index lookup. Results are the same
// either way.
func WithIndexes(b bool) Option {
	return func(q *Querier) {
		q.useIndex = b
	}
}

// Option configures querier behavior through the functional options
// pattern.
type Option func(*Querier)
