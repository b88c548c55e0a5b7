// Package session contains the default [domain.Session] implementation. A
// session owns at most one engine handle and serializes every operation on
// it.
package session

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/cipher"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/converter"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/cursor"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/decoder"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/deserializer"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/engine"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/modifier"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/querier"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/serializer"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/storage"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/view"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"github.com/vinicius-lino-figueiredo/dbexplorer/pkg/ctxsync"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Session implements domain.Session.
type Session struct {
	executor      *ctxsync.Mutex
	logger        *zap.SugaredLogger
	storage       domain.Storage
	engineFactory domain.EngineFactory
	lockTimeout   time.Duration
	converter     domain.Converter
	decoder       domain.Decoder
	viewFactory   domain.DocumentViewFactory
	cursorFactory domain.CursorFactory
	querier       domain.Querier
	modifier      domain.Modifier
	idGenerator   domain.IDGenerator
	cipherOptions []cipher.Option

	h *handle
}

// handle is the state of one open database.
type handle struct {
	engine domain.Engine
	info   domain.OpenInfo
	// snapshot is the private copy the engine reads in snapshot mode.
	snapshot string
	ser      domain.Serializer
	des      domain.Deserializer
}

// NewSession returns a new implementation of domain.Session with no
// database open.
func NewSession(options ...Option) domain.Session {
	s := &Session{
		executor:      ctxsync.NewMutex(),
		logger:        zap.NewNop().Sugar(),
		storage:       storage.NewStorage(),
		engineFactory: engine.Open,
		lockTimeout:   engine.DefaultLockTimeout,
		decoder:       decoder.NewDecoder(),
		cursorFactory: cursor.NewCursor,
		querier:       querier.NewQuerier(),
		modifier:      modifier.NewModifier(),
		idGenerator:   idgenerator.NewIDGenerator(),
	}
	for _, option := range options {
		option(s)
	}
	if s.converter == nil {
		s.converter = converter.NewConverter(converter.WithLogger(s.logger))
	}
	if s.viewFactory == nil {
		s.viewFactory = view.NewFactory(
			view.WithConverter(s.converter),
			view.WithDecoder(s.decoder),
		)
	}
	return s
}

// Open implements domain.Session. Opening the path already open releases
// the current handle first. Opening another path keeps the current database
// until the new one is ready, so a failed open changes nothing.
func (s *Session) Open(ctx context.Context, path string, options ...domain.OpenOption) (domain.OpenInfo, error) {
	var opts domain.OpenOptions
	for _, option := range options {
		option(&opts)
	}

	if err := s.executor.LockWithContext(ctx); err != nil {
		return domain.OpenInfo{}, err
	}
	defer s.executor.Unlock()

	return s.open(ctx, path, opts)
}

func (s *Session) open(ctx context.Context, path string, opts domain.OpenOptions) (domain.OpenInfo, error) {
	st, err := s.storage.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.OpenInfo{}, domain.ErrFileNotFound{Path: path}
		}
		return domain.OpenInfo{}, domain.ErrOpen{Path: path, Err: err}
	}
	if st.Size() == 0 {
		return domain.OpenInfo{}, domain.ErrEmptyFile{Path: path}
	}

	if s.h != nil && samePath(s.h.info.Path, path) {
		if err := s.release(s.h); err != nil {
			s.logger.Warnw("closing previous handle", "path", path, "error", err)
		}
		s.h = nil
	}

	locked, err := s.storage.ProbeLock(path)
	if err != nil {
		s.logger.Debugw("lock probe failed", "path", path, "error", err)
		locked = false
	}

	h, err := s.ladder(ctx, path, locked, opts.ReadOnly)
	if err != nil {
		return domain.OpenInfo{}, err
	}

	if _, err := h.engine.CollectionNames(ctx); err != nil {
		err = multierr.Append(err, s.release(h))
		return domain.OpenInfo{}, domain.ErrCorrupt{Path: path, Err: err}
	}

	c, err := cipher.Unlock(ctx, h.engine, opts.Password, s.cipherOptions...)
	if err != nil {
		if errors.Is(err, domain.ErrWrongPassword) {
			err = domain.ErrEngine{Code: domain.CodeWrongPassword, Op: "unlock", Err: err}
		}
		err = multierr.Append(err, s.release(h))
		return domain.OpenInfo{}, domain.ErrOpen{Path: path, Err: err}
	}
	h.ser = serializer.NewSerializer(serializer.WithCipher(c))
	h.des = deserializer.NewDeserializer(deserializer.WithCipher(c))

	if s.h != nil {
		if err := s.release(s.h); err != nil {
			s.logger.Warnw("closing previous handle", "path", s.h.info.Path, "error", err)
		}
	}
	s.h = h
	s.logger.Infow("database opened",
		"path", path,
		"mode", h.info.Mode,
		"locked", locked,
		"protected", c != nil,
	)
	return h.info, nil
}

// ladder tries the open modes in order. A locked file or an explicit
// read-only request skips the read-write attempt.
func (s *Session) ladder(ctx context.Context, path string, locked, readOnly bool) (*handle, error) {
	modes := []domain.OpenMode{domain.ModeReadWrite, domain.ModeReadOnly, domain.ModeSnapshot}
	if locked || readOnly {
		modes = modes[1:]
	}

	var first error
	for _, mode := range modes {
		h, err := s.attempt(ctx, path, mode)
		if err == nil {
			h.info = domain.OpenInfo{
				Path:     path,
				Mode:     mode,
				ReadOnly: mode.ReadOnly(),
				Locked:   locked,
			}
			return h, nil
		}
		s.logger.Debugw("open attempt failed", "path", path, "mode", mode, "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if first == nil {
			first = err
		}
	}

	if locked {
		return nil, domain.ErrReadOnlyOpen{Path: path, Err: first}
	}
	return nil, domain.ErrOpen{Path: path, Err: first}
}

func (s *Session) attempt(ctx context.Context, path string, mode domain.OpenMode) (*handle, error) {
	opts := domain.EngineOptions{
		ReadOnly:    mode.ReadOnly(),
		LockTimeout: s.lockTimeout,
	}
	if mode != domain.ModeSnapshot {
		e, err := s.engineFactory(ctx, path, opts)
		if err != nil {
			return nil, err
		}
		return &handle{engine: e}, nil
	}

	snap, err := s.storage.Snapshot(path)
	if err != nil {
		return nil, err
	}
	e, err := s.engineFactory(ctx, snap, opts)
	if err != nil {
		return nil, multierr.Append(err, s.storage.Remove(snap))
	}
	return &handle{engine: e, snapshot: snap}, nil
}

func (s *Session) release(h *handle) error {
	err := h.engine.Close()
	if h.snapshot != "" {
		err = multierr.Append(err, s.storage.Remove(h.snapshot))
	}
	return err
}

// CreateDatabase implements domain.Session. The new file is opened through
// the same path as [Session.Open].
func (s *Session) CreateDatabase(ctx context.Context, path string, options ...domain.CreateOption) (domain.OpenInfo, error) {
	var opts domain.CreateOptions
	for _, option := range options {
		option(&opts)
	}

	if err := s.executor.LockWithContext(ctx); err != nil {
		return domain.OpenInfo{}, err
	}
	defer s.executor.Unlock()

	exists, err := s.storage.Exists(path)
	if err != nil {
		return domain.OpenInfo{}, err
	}
	if exists {
		return domain.OpenInfo{}, domain.ErrFileExists{Path: path}
	}

	e, err := s.engineFactory(ctx, path, domain.EngineOptions{LockTimeout: s.lockTimeout})
	if err != nil {
		return domain.OpenInfo{}, err
	}
	if opts.Password != "" {
		if _, err := cipher.Protect(ctx, e, opts.Password, s.cipherOptions...); err != nil {
			err = multierr.Combine(err, e.Close(), s.storage.Remove(path))
			return domain.OpenInfo{}, err
		}
	}
	if err := e.Close(); err != nil {
		return domain.OpenInfo{}, err
	}
	s.logger.Infow("database created", "path", path, "protected", opts.Password != "")

	return s.open(ctx, path, domain.OpenOptions{Password: opts.Password})
}

// Close implements domain.Session.
func (s *Session) Close() error {
	s.executor.Lock()
	defer s.executor.Unlock()

	if s.h == nil {
		return nil
	}
	err := s.release(s.h)
	s.logger.Infow("database closed", "path", s.h.info.Path)
	s.h = nil
	return err
}

// IsOpen implements domain.Session.
func (s *Session) IsOpen() bool {
	s.executor.Lock()
	defer s.executor.Unlock()
	return s.h != nil
}

// IsReadOnly implements domain.Session.
func (s *Session) IsReadOnly() bool {
	s.executor.Lock()
	defer s.executor.Unlock()
	return s.h != nil && s.h.info.ReadOnly
}

// Path implements domain.Session.
func (s *Session) Path() string {
	info, _ := s.Info()
	return info.Path
}

// Info implements domain.Session.
func (s *Session) Info() (domain.OpenInfo, bool) {
	s.executor.Lock()
	defer s.executor.Unlock()
	if s.h == nil {
		return domain.OpenInfo{}, false
	}
	return s.h.info, true
}

// current locks the executor and returns the open handle, which is nil when
// no database is open. The caller must unlock the executor.
func (s *Session) current(ctx context.Context) (*handle, error) {
	if err := s.executor.LockWithContext(ctx); err != nil {
		return nil, err
	}
	return s.h, nil
}

// writable is like current but refuses read-only handles.
func (s *Session) writable(ctx context.Context) (*handle, error) {
	h, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	if h != nil && h.info.ReadOnly {
		s.executor.Unlock()
		return nil, domain.ErrReadOnly
	}
	return h, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
