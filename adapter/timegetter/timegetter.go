// Package timegetter contains the default [domain.TimeGetter] implementation.
package timegetter

import (
	"time"

	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

// TimeGetter implements [domain.TimeGetter].
type TimeGetter struct {
	fixed time.Time
}

// NewTimeGetter returns a new implementation of domain.TimeGetter.
func NewTimeGetter() domain.TimeGetter {
	return &TimeGetter{}
}

// NewFixedTimeGetter returns a domain.TimeGetter that always reports t.
func NewFixedTimeGetter(t time.Time) domain.TimeGetter {
	return &TimeGetter{fixed: t}
}

// GetTime implements [domain.TimeGetter].
func (t *TimeGetter) GetTime() time.Time {
	if !t.fixed.IsZero() {
		return t.fixed
	}
	return time.Now()
}
