package converter

import "go.uber.org/zap"

// WithLogger sets the logger used to report fallback parses.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Converter) {
		c.logger = l
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*Converter)
