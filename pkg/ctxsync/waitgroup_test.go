package ctxsync_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vinicius-lino-figueiredo/dbexplorer/pkg/ctxsync"
)

func TestWaitGroup(t *testing.T) {
	var wg ctxsync.WaitGroup
	var n atomic.Int32

	for range 50 {
		wg.Go(func() {
			time.Sleep(time.Millisecond)
			n.Add(1)
		})
	}
	wg.Wait()
	assert.Equal(t, int32(50), n.Load())

	// reusable once the counter is back to zero
	wg.Go(func() { n.Add(1) })
	assert.NoError(t, wg.WaitWithContext(context.Background()))
	assert.Equal(t, int32(51), n.Load())
}

func TestWaitGroupEmpty(t *testing.T) {
	var wg ctxsync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, wg.WaitWithContext(ctx))
}

func TestWaitGroupTimeout(t *testing.T) {
	var wg ctxsync.WaitGroup
	release := make(chan struct{})
	wg.Go(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, wg.WaitWithContext(ctx), context.DeadlineExceeded)

	close(release)
	wg.Wait()
}

func TestWaitGroupNegative(t *testing.T) {
	var wg ctxsync.WaitGroup
	assert.Panics(t, wg.Done)
}
