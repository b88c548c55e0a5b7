// Package cursor contains the default [domain.Cursor] implementation.
package cursor

import (
	"context"

	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/decoder"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

// Cursor implements domain.Cursor.
type Cursor struct {
	data   []domain.DocumentView
	ctx    context.Context
	cancel context.CancelCauseFunc
	dec    domain.Decoder
	index  int64
}

// NewCursor returns a new implementation of Cursor.
func NewCursor(ctx context.Context, dt []domain.DocumentView, options ...domain.CursorOption) (domain.Cursor, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	opts := domain.CursorOptions{
		Decoder: decoder.NewDecoder(),
	}

	for _, option := range options {
		option(&opts)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	cur := &Cursor{
		ctx:    ctx,
		cancel: cancel,
		index:  -1,
		dec:    opts.Decoder,
		data:   dt,
	}

	return cur, nil
}

// Err implements domain.Cursor.
func (c *Cursor) Err() error {
	return context.Cause(c.ctx)
}

// Len implements domain.Cursor.
func (c *Cursor) Len() int {
	return len(c.data)
}

// View implements domain.Cursor.
func (c *Cursor) View() (domain.DocumentView, error) {
	select {
	case <-c.ctx.Done():
		return nil, context.Cause(c.ctx)
	default:
	}
	if c.index < 0 {
		return nil, domain.ErrScanBeforeNext
	}
	return c.data[c.index], nil
}

// Scan implements domain.Cursor.
func (c *Cursor) Scan(ctx context.Context, target any) error {
	select {
	case <-c.ctx.Done():
		return context.Cause(c.ctx)
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if c.index < 0 {
		return domain.ErrScanBeforeNext
	}
	return c.dec.Decode(c.data[c.index].Document(), target)
}

// Close implements domain.Cursor.
func (c *Cursor) Close() error {
	select {
	case <-c.ctx.Done():
		return context.Cause(c.ctx)
	default:
	}
	c.cancel(domain.ErrCursorClosed)
	c.data = nil
	return nil
}

// Next implements domain.Cursor.
func (c *Cursor) Next() bool {
	select {
	case <-c.ctx.Done():
		return false
	default:
	}
	if c.index+1 < int64(len(c.data)) {
		c.index++
		return true
	}
	return false
}
