package session

import (
	"time"

	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/cipher"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.uber.org/zap"
)

// WithLogger sets the logger that records open attempts and skipped
// documents.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithStorage sets the file operations used around the engine.
func WithStorage(st domain.Storage) Option {
	return func(s *Session) {
		s.storage = st
	}
}

// WithEngineFactory sets the function that opens database files.
func WithEngineFactory(f domain.EngineFactory) Option {
	return func(s *Session) {
		s.engineFactory = f
	}
}

// WithLockTimeout bounds the wait for the file lock on every open attempt.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.lockTimeout = d
	}
}

// WithConverter sets the converter used to parse and print JSON text.
func WithConverter(c domain.Converter) Option {
	return func(s *Session) {
		s.converter = c
	}
}

// WithDecoder sets the decoder handed to views and cursors.
func WithDecoder(d domain.Decoder) Option {
	return func(s *Session) {
		s.decoder = d
	}
}

// WithViewFactory sets the function that wraps documents into views.
func WithViewFactory(f domain.DocumentViewFactory) Option {
	return func(s *Session) {
		s.viewFactory = f
	}
}

// WithCursorFactory sets the cursor factory for query results.
func WithCursorFactory(f domain.CursorFactory) Option {
	return func(s *Session) {
		s.cursorFactory = f
	}
}

// WithQuerier sets the querier used by ExecuteQuery.
func WithQuerier(q domain.Querier) Option {
	return func(s *Session) {
		s.querier = q
	}
}

// WithModifier sets the modifier used by UpdateFields.
func WithModifier(m domain.Modifier) Option {
	return func(s *Session) {
		s.modifier = m
	}
}

// WithIDGenerator sets the generator of ids for documents inserted without
// one.
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(s *Session) {
		s.idGenerator = g
	}
}

// WithCipherOptions sets the options used to protect and unlock databases.
func WithCipherOptions(o ...cipher.Option) Option {
	return func(s *Session) {
		s.cipherOptions = o
	}
}

// Option configures session behavior through the functional options
// pattern.
type Option func(*Session)
