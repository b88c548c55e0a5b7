package view

import "github.com/vinicius-lino-figueiredo/dbexplorer/domain"

// WithConverter sets the converter used to build the JSON text.
func WithConverter(c domain.Converter) Option {
	return func(v *DocumentView) {
		v.conv = c
	}
}

// WithDecoder sets the decoder used by Decode.
func WithDecoder(d domain.Decoder) Option {
	return func(v *DocumentView) {
		v.dec = d
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*DocumentView)
