package diagnostics

import (
	"runtime/debug"
	"time"

	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

// WithStorage sets the file operations used to inspect the file.
func WithStorage(s domain.Storage) Option {
	return func(d *Diagnostics) {
		d.storage = s
	}
}

// WithEngineFactory sets the function used for the trial read-only open.
func WithEngineFactory(f domain.EngineFactory) Option {
	return func(d *Diagnostics) {
		d.engineFactory = f
	}
}

// WithLockTimeout bounds the wait for the file lock of the trial open.
func WithLockTimeout(t time.Duration) Option {
	return func(d *Diagnostics) {
		d.lockTimeout = t
	}
}

// WithBuildInfo replaces the source of module versions.
func WithBuildInfo(f func() (*debug.BuildInfo, bool)) Option {
	return func(d *Diagnostics) {
		d.buildInfo = f
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*Diagnostics)
