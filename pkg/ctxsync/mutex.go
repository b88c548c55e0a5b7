// Package ctxsync provides synchronization primitives whose blocking calls
// can be abandoned through a context.
package ctxsync

import (
	"context"
)

// NewMutex creates a new instance of Mutex. The zero Mutex is not usable.
func NewMutex() *Mutex {
	return &Mutex{
		sem: make(chan struct{}, 1),
	}
}

// A Mutex is a mutual exclusion lock.
type Mutex struct {
	sem chan struct{}
}

// Lock locks m, waiting as long as needed.
func (m *Mutex) Lock() {
	m.sem <- struct{}{}
}

// LockWithContext locks m unless ctx ends first, in which case m is left
// untouched and the context error is returned.
func (m *Mutex) LockWithContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case m.sem <- struct{}{}:
		return nil
	}
}

// TryLock tries to lock m and reports whether it succeeded.
func (m *Mutex) TryLock() bool {
	select {
	case m.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Unlock unlocks m.
func (m *Mutex) Unlock() {
	select {
	case <-m.sem:
	default:
		panic("ctxsync: unlock of unlocked mutex")
	}
}
