package cipher

import (
	"crypto/rand"
	"io"
)

type config struct {
	reader io.Reader
	params Params
}

func newConfig(options []Option) config {
	cfg := config{reader: rand.Reader, params: DefaultParams()}
	for _, option := range options {
		option(&cfg)
	}
	return cfg
}

// WithReader sets the source of salts and nonces.
func WithReader(r io.Reader) Option {
	return func(c *config) {
		c.reader = r
	}
}

// WithParams sets the Argon2id cost used by [Protect]. The salt is always
// generated.
func WithParams(p Params) Option {
	return func(c *config) {
		c.params = p
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*config)
