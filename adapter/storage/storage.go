// Package storage contains the default [domain.Storage] implementation.
package storage

import (
	"errors"
	"io"
	"os"

	"github.com/natefinch/atomic"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.uber.org/multierr"
)

// SnapshotPattern is the name pattern of the temporary copies made by
// [Storage.Snapshot].
const SnapshotPattern = "dbexplorer-snapshot-*.db"

// Storage implements domain.Storage.
type Storage struct {
	os     osOps
	tmpDir string
}

// NewStorage returns a new implementation of domain.Storage.
func NewStorage(options ...Option) domain.Storage {
	s := Storage{os: &osImpl{}}
	for _, option := range options {
		option(&s)
	}
	return &s
}

// Stat implements domain.Storage.
func (s *Storage) Stat(filename string) (os.FileInfo, error) {
	return s.os.Stat(filename)
}

// Exists implements domain.Storage.
func (s *Storage) Exists(filename string) (bool, error) {
	_, err := s.os.Stat(filename)
	if err != nil {
		if s.os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ProbeLock implements domain.Storage.
func (s *Storage) ProbeLock(filename string) (bool, error) {
	f, err := s.os.OpenFile(filename, os.O_RDWR, 0)
	if err != nil {
		if isLockedOpenErr(err) {
			return true, nil
		}
		// a read-only file can still be locked through a read handle
		if f, err = s.os.OpenFile(filename, os.O_RDONLY, 0); err != nil {
			if isLockedOpenErr(err) {
				return true, nil
			}
			return false, err
		}
	}
	defer f.Close()
	return tryLock(f)
}

// ProbeAccess implements domain.Storage.
func (s *Storage) ProbeAccess(filename string) (domain.AccessReport, error) {
	var r domain.AccessReport
	if _, err := s.os.Stat(filename); err != nil {
		return r, err
	}
	r.ReadWrite, r.WriteErr = s.probe(filename, os.O_RDWR)
	r.ReadOnly, r.ReadErr = s.probe(filename, os.O_RDONLY)
	return r, nil
}

func (s *Storage) probe(filename string, flag int) (bool, error) {
	f, err := s.os.OpenFile(filename, flag, 0)
	if err != nil {
		return false, err
	}
	return true, f.Close()
}

// ReadHeader implements domain.Storage. Files shorter than n return what
// they have.
func (s *Storage) ReadHeader(filename string, n int) ([]byte, error) {
	f, err := s.os.OpenFile(filename, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:read], nil
}

// Snapshot implements domain.Storage. The caller owns the copy and must
// remove it.
func (s *Storage) Snapshot(filename string) (path string, err error) {
	src, err := s.os.OpenFile(filename, os.O_RDONLY, 0)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := s.os.CreateTemp(s.tmpDir, SnapshotPattern)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, s.os.Remove(dst.Name()))
			path = ""
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return "", multierr.Append(err, dst.Close())
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return dst.Name(), nil
}

// WriteFileAtomic implements domain.Storage.
func (s *Storage) WriteFileAtomic(filename string, r io.Reader) error {
	return atomic.WriteFile(filename, r)
}

// ReadFileStream implements domain.Storage.
func (s *Storage) ReadFileStream(filename string) (io.ReadCloser, error) {
	f, err := s.os.OpenFile(filename, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Remove implements domain.Storage.
func (s *Storage) Remove(filename string) error {
	return s.os.Remove(filename)
}
