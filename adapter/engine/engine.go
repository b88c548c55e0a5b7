// Package engine contains the default [domain.Engine] implementation, backed
// by a bbolt file. Every collection is a top level bucket holding serialized
// documents under their encoded _id.
package engine

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	bolt "go.etcd.io/bbolt"
)

// DefaultLockTimeout bounds the wait for the file lock when the options do
// not set one. bbolt would wait forever otherwise.
const DefaultLockTimeout = time.Second

// ReservedPrefix starts the names of buckets used for metadata. They are
// never listed as collections.
const ReservedPrefix = "$"

const metaBucket = ReservedPrefix + "meta"

// ctxCheckInterval is how many entries are visited between context checks
// in long iterations.
const ctxCheckInterval = 256

// Engine implements domain.Engine.
type Engine struct {
	db       *bolt.DB
	readOnly bool
}

// Open opens the bbolt file at path. It satisfies [domain.EngineFactory].
func Open(ctx context.Context, path string, opts domain.EngineOptions) (domain.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := opts.LockTimeout
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout:  timeout,
		ReadOnly: opts.ReadOnly,
	})
	if err != nil {
		return nil, mapError("open", err)
	}
	return &Engine{db: db, readOnly: opts.ReadOnly}, nil
}

// ValidateName checks that name can be used as a collection.
func ValidateName(name string) error {
	switch {
	case name == "":
		return domain.ErrCollectionName{Name: name, Reason: "name is empty"}
	case strings.HasPrefix(name, ReservedPrefix):
		return domain.ErrCollectionName{Name: name, Reason: "names starting with " + ReservedPrefix + " are reserved"}
	case len(name) > bolt.MaxKeySize:
		return domain.ErrCollectionName{Name: name, Reason: "name is too long"}
	default:
		return nil
	}
}

// Path implements domain.Engine.
func (e *Engine) Path() string {
	return e.db.Path()
}

// ReadOnly implements domain.Engine.
func (e *Engine) ReadOnly() bool {
	return e.readOnly
}

// CollectionNames implements domain.Engine.
func (e *Engine) CollectionNames(ctx context.Context) ([]string, error) {
	names := []string{}
	err := e.view(ctx, "list collections", func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			if !bytes.HasPrefix(name, []byte(ReservedPrefix)) {
				names = append(names, string(name))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// CreateCollection implements domain.Engine.
func (e *Engine) CreateCollection(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return e.update(ctx, "create collection", func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
}

// DropCollection implements domain.Engine.
func (e *Engine) DropCollection(ctx context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	dropped := false
	err := e.update(ctx, "drop collection", func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(name))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		dropped = err == nil
		return err
	})
	return dropped, err
}

// Count implements domain.Engine.
func (e *Engine) Count(ctx context.Context, collection string) (int64, error) {
	var n int64
	err := e.view(ctx, "count", func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(collection)); b != nil {
			n = int64(b.Stats().KeyN)
		}
		return nil
	})
	return n, err
}

// Size implements domain.Engine. It reports the bytes of the pages in use by
// the collection.
func (e *Engine) Size(ctx context.Context, collection string) (int64, error) {
	var n int64
	err := e.view(ctx, "size", func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(collection)); b != nil {
			s := b.Stats()
			n = int64(s.BranchInuse + s.LeafInuse + s.InlineBucketInuse)
		}
		return nil
	})
	return n, err
}

// Scan implements domain.Engine.
func (e *Engine) Scan(ctx context.Context, collection string, skip, limit int) ([][]byte, error) {
	values := [][]byte{}
	if limit == 0 {
		return values, nil
	}
	err := e.view(ctx, "scan", func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		n := 0
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if n%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			n++
			if n <= skip {
				continue
			}
			values = append(values, bytes.Clone(v))
			if limit > 0 && len(values) == limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Get implements domain.Engine.
func (e *Engine) Get(ctx context.Context, collection string, id domain.Value) ([]byte, error) {
	key, err := EncodeKey(id)
	if err != nil {
		return nil, err
	}
	var value []byte
	err = e.view(ctx, "get", func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(collection)); b != nil {
			value = bytes.Clone(b.Get(key))
		}
		return nil
	})
	return value, err
}

// Insert implements domain.Engine. Nothing is written if any entry fails.
func (e *Engine) Insert(ctx context.Context, collection string, entries ...domain.Entry) error {
	if err := ValidateName(collection); err != nil {
		return err
	}
	keys := make([][]byte, len(entries))
	for n, entry := range entries {
		key, err := EncodeKey(entry.ID)
		if err != nil {
			return err
		}
		keys[n] = key
	}
	return e.update(ctx, "insert", func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		for n, entry := range entries {
			if n%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if b.Get(keys[n]) != nil {
				return domain.ErrDuplicateID{Collection: collection, ID: entry.ID}
			}
			if err := b.Put(keys[n], entry.Data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Replace implements domain.Engine.
func (e *Engine) Replace(ctx context.Context, collection string, id domain.Value, data []byte) (bool, error) {
	key, err := EncodeKey(id)
	if err != nil {
		return false, err
	}
	replaced := false
	err = e.update(ctx, "replace", func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil || b.Get(key) == nil {
			return nil
		}
		replaced = true
		return b.Put(key, data)
	})
	return replaced && err == nil, err
}

// Delete implements domain.Engine.
func (e *Engine) Delete(ctx context.Context, collection string, id domain.Value) (bool, error) {
	key, err := EncodeKey(id)
	if err != nil {
		return false, err
	}
	deleted := false
	err = e.update(ctx, "delete", func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil || b.Get(key) == nil {
			return nil
		}
		deleted = true
		return b.Delete(key)
	})
	return deleted && err == nil, err
}

// Meta implements domain.Engine.
func (e *Engine) Meta(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := e.view(ctx, "read metadata", func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(metaBucket)); b != nil {
			value = bytes.Clone(b.Get([]byte(key)))
		}
		return nil
	})
	return value, err
}

// SetMeta implements domain.Engine.
func (e *Engine) SetMeta(ctx context.Context, key string, value []byte) error {
	return e.update(ctx, "write metadata", func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
}

// Close implements domain.Engine.
func (e *Engine) Close() error {
	if err := e.db.Close(); err != nil {
		return mapError("close", err)
	}
	return nil
}

func (e *Engine) view(ctx context.Context, op string, fn func(*bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapError(op, e.db.View(fn))
}

func (e *Engine) update(ctx context.Context, op string, fn func(*bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.readOnly {
		return domain.ErrReadOnly
	}
	return mapError(op, e.db.Update(fn))
}

// mapError attaches an engine code to bbolt failures. Errors that already
// belong to the domain, and context errors, are returned unchanged.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		dup  domain.ErrDuplicateID
		id   domain.ErrInvalidID
		name domain.ErrCollectionName
	)
	switch {
	case errors.As(err, &dup), errors.As(err, &id), errors.As(err, &name),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, domain.ErrReadOnly):
		return err
	case errors.Is(err, bolt.ErrDatabaseReadOnly):
		return domain.ErrReadOnly
	}
	return domain.ErrEngine{Code: Code(err), Op: op, Err: err}
}

// Code returns the engine code for a bbolt error, or 0.
func Code(err error) int {
	switch {
	case errors.Is(err, bolt.ErrTimeout):
		return domain.CodeLocked
	case errors.Is(err, bolt.ErrInvalid), errors.Is(err, bolt.ErrChecksum):
		return domain.CodeInvalidFormat
	case errors.Is(err, bolt.ErrVersionMismatch):
		return domain.CodeUnsupportedVersion
	case errors.Is(err, bolt.ErrBucketNotFound):
		return domain.CodeIndexNotFound
	case errors.Is(err, domain.ErrWrongPassword):
		return domain.CodeWrongPassword
	case errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrNotExist):
		return 0
	case strings.Contains(err.Error(), "file size too small"):
		// bbolt has no sentinel for a file shorter than two pages
		return domain.CodeInvalidFormat
	default:
		return 0
	}
}
