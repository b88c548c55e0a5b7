package serializer

import "github.com/vinicius-lino-figueiredo/dbexplorer/domain"

// WithCipher seals every serialized document with c.
func WithCipher(c domain.Cipher) Option {
	return func(s *Serializer) {
		s.cipher = c
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*Serializer)
