// Package search implements search-as-you-type over the documents of a
// collection.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"github.com/vinicius-lino-figueiredo/dbexplorer/pkg/ctxsync"
	"go.uber.org/zap"
)

// Defaults used by [NewSearcher].
const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultPageSize = 50
	scanPages       = 5
)

// Result is what a search delivers.
type Result struct {
	Collection string
	Term       string
	Views      []domain.DocumentView
	Err        error
}

// Searcher runs at most one search at a time. A new term cancels the
// pending or running search, whose results are then never delivered.
type Searcher struct {
	lister   domain.DocumentLister
	debounce time.Duration
	pageSize int
	logger   *zap.SugaredLogger

	mu     sync.Mutex
	wg     ctxsync.WaitGroup
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// NewSearcher returns a Searcher reading documents from lister.
func NewSearcher(lister domain.DocumentLister, options ...Option) *Searcher {
	s := &Searcher{
		lister:   lister,
		debounce: DefaultDebounce,
		pageSize: DefaultPageSize,
		logger:   zap.NewNop().Sugar(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Search schedules a search for term once the debounce delay passes
// without another call. An empty term delivers the first page unfiltered.
// deliver runs on another goroutine and must not call back into the
// Searcher.
func (s *Searcher) Search(ctx context.Context, collection, term string, deliver func(Result)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSearcherClosed
	}
	s.stop()

	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	s.timer = time.AfterFunc(s.debounce, func() {
		defer s.wg.Done()
		defer cancel()
		res := s.run(ctx, collection, term)
		s.deliver(ctx, seq, res, deliver)
	})
	return nil
}

// Cancel drops the pending or running search.
func (s *Searcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
}

// Close cancels any search and waits for running ones to return. Later
// calls to Search fail with [domain.ErrSearcherClosed].
func (s *Searcher) Close() error {
	s.mu.Lock()
	s.closed = true
	s.stop()
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// stop must be called with mu held.
func (s *Searcher) stop() {
	if s.timer != nil && s.timer.Stop() {
		// the callback will never run
		s.wg.Done()
	}
	s.timer = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
}

func (s *Searcher) run(ctx context.Context, collection, term string) Result {
	res := Result{Collection: collection, Term: term}
	needle := strings.ToLower(strings.TrimSpace(term))

	if needle == "" {
		res.Views, res.Err = s.lister.ListDocuments(ctx, collection, 0, s.pageSize)
		return res
	}

	views, err := s.lister.ListDocuments(ctx, collection, 0, s.pageSize*scanPages)
	if err != nil {
		res.Err = err
		return res
	}
	res.Views = make([]domain.DocumentView, 0, min(len(views), s.pageSize))
	for _, v := range views {
		if len(res.Views) == s.pageSize {
			break
		}
		if strings.Contains(strings.ToLower(v.JSONString()), needle) {
			res.Views = append(res.Views, v)
		}
	}
	return res
}

func (s *Searcher) deliver(ctx context.Context, seq uint64, res Result, fn func(Result)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil || seq != s.seq {
		return
	}
	if res.Err != nil {
		s.logger.Warnw("search failed", "collection", res.Collection, "term", res.Term, "error", res.Err)
	}
	fn(res)
}
