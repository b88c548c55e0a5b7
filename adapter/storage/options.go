package storage

// WithTempDir sets the directory for snapshot copies. Empty means the system
// default.
func WithTempDir(dir string) Option {
	return func(s *Storage) {
		s.tmpDir = dir
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*Storage)
