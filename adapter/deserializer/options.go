package deserializer

import "github.com/vinicius-lino-figueiredo/dbexplorer/domain"

// WithCipher opens every stored document with c before decoding it.
func WithCipher(c domain.Cipher) Option {
	return func(d *Deserializer) {
		d.cipher = c
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*Deserializer)
