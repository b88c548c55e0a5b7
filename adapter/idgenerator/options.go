package idgenerator

import (
	"io"

	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

// WithReader sets the reader that will provide random bytes.
func WithReader(r io.Reader) Option {
	return func(igo *IDGenerator) {
		igo.reader = r
	}
}

// WithTimeGetter sets the clock used for the timestamp part of the ids.
func WithTimeGetter(t domain.TimeGetter) Option {
	return func(igo *IDGenerator) {
		igo.timeGetter = t
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*IDGenerator)
