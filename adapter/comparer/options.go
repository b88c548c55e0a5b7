package comparer

// WithNumericFamily makes numbers of different kinds compare by numeric
// value, so Int32(5) equals Double(5). Identifier lookups keep the strict
// ordering; queries use this one.
func WithNumericFamily(n bool) Option {
	return func(c *Comparer) {
		c.numeric = n
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*Comparer)
