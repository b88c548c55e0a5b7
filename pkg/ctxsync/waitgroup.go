package ctxsync

import (
	"context"
	"sync"
)

// A WaitGroup waits for a collection of goroutines to finish. Unlike
// [sync.WaitGroup], a waiter can give up when its context ends.
type WaitGroup struct {
	mu   sync.Mutex
	n    int
	done chan struct{}
}

// Add adds delta, which may be negative, to the counter. Waiters are released
// when it reaches zero. Add panics if the counter goes negative.
func (wg *WaitGroup) Add(delta int) {
	wg.mu.Lock()
	defer wg.mu.Unlock()
	wg.n += delta
	if wg.n < 0 {
		panic("ctxsync: negative WaitGroup counter")
	}
	if wg.n == 0 && wg.done != nil {
		close(wg.done)
		wg.done = nil
	}
}

// Done decrements the counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Go runs fn in a new goroutine tracked by wg.
func (wg *WaitGroup) Go(fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn()
	}()
}

// Wait blocks until the counter is zero.
func (wg *WaitGroup) Wait() {
	_ = wg.WaitWithContext(context.Background())
}

// WaitWithContext blocks until the counter is zero or ctx is done.
func (wg *WaitGroup) WaitWithContext(ctx context.Context) error {
	wg.mu.Lock()
	if wg.n == 0 {
		wg.mu.Unlock()
		return nil
	}
	if wg.done == nil {
		wg.done = make(chan struct{})
	}
	done := wg.done
	wg.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
