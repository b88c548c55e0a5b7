package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type osOpsMock struct {
	mock.Mock
}

// CreateTemp implements osOps.
func (o *osOpsMock) CreateTemp(dir string, pattern string) (*os.File, error) {
	call := o.Called(dir, pattern)
	f, _ := call.Get(0).(*os.File)
	return f, call.Error(1)
}

// IsNotExist implements osOps.
func (o *osOpsMock) IsNotExist(err error) bool {
	return o.Called(err).Bool(0)
}

// OpenFile implements osOps.
func (o *osOpsMock) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	call := o.Called(name, flag, perm)
	f, _ := call.Get(0).(*os.File)
	return f, call.Error(1)
}

// Remove implements osOps.
func (o *osOpsMock) Remove(name string) error {
	return o.Called(name).Error(0)
}

// Stat implements osOps.
func (o *osOpsMock) Stat(name string) (os.FileInfo, error) {
	call := o.Called(name)
	fi, _ := call.Get(0).(os.FileInfo)
	return fi, call.Error(1)
}

type StorageTestSuite struct {
	suite.Suite
	store *Storage
	dir   string
}

func (s *StorageTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.store = NewStorage(WithTempDir(s.dir)).(*Storage)
}

func (s *StorageTestSuite) file(name string, content []byte) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, content, 0o600))
	return path
}

func (s *StorageTestSuite) TestExists() {
	path := s.file("a.db", []byte("x"))

	ok, err := s.store.Exists(path)
	s.NoError(err)
	s.True(ok)

	ok, err = s.store.Exists(filepath.Join(s.dir, "missing.db"))
	s.NoError(err)
	s.False(ok)

	fi, err := s.store.Stat(path)
	s.NoError(err)
	s.Equal(int64(1), fi.Size())
}

func (s *StorageTestSuite) TestExistsStatError() {
	m := new(osOpsMock)
	statErr := errors.New("permission denied")
	m.On("Stat", "f").Return(nil, statErr).Once()
	m.On("IsNotExist", statErr).Return(false).Once()
	s.store.os = m

	ok, err := s.store.Exists("f")
	s.ErrorIs(err, statErr)
	s.False(ok)
	m.AssertExpectations(s.T())
}

func (s *StorageTestSuite) TestProbeLockFree() {
	path := s.file("a.db", []byte("x"))
	locked, err := s.store.ProbeLock(path)
	s.NoError(err)
	s.False(locked)

	// the probe released its lock
	locked, err = s.store.ProbeLock(path)
	s.NoError(err)
	s.False(locked)

	_, err = s.store.ProbeLock(filepath.Join(s.dir, "missing.db"))
	s.ErrorIs(err, os.ErrNotExist)
}

func (s *StorageTestSuite) TestProbeAccess() {
	path := s.file("a.db", []byte("x"))
	r, err := s.store.ProbeAccess(path)
	s.NoError(err)
	s.True(r.ReadWrite)
	s.True(r.ReadOnly)
	s.NoError(r.WriteErr)
	s.NoError(r.ReadErr)

	_, err = s.store.ProbeAccess(filepath.Join(s.dir, "missing.db"))
	s.ErrorIs(err, os.ErrNotExist)
}

func (s *StorageTestSuite) TestProbeAccessWriteDenied() {
	m := new(osOpsMock)
	denied := errors.New("denied")
	f, err := os.Open(s.file("a.db", []byte("x")))
	s.Require().NoError(err)

	m.On("Stat", "f").Return(nil, nil).Once()
	m.On("OpenFile", "f", os.O_RDWR, os.FileMode(0)).Return(nil, denied).Once()
	m.On("OpenFile", "f", os.O_RDONLY, os.FileMode(0)).Return(f, nil).Once()
	s.store.os = m

	r, err := s.store.ProbeAccess("f")
	s.NoError(err)
	s.False(r.ReadWrite)
	s.ErrorIs(r.WriteErr, denied)
	s.True(r.ReadOnly)
	m.AssertExpectations(s.T())
}

func (s *StorageTestSuite) TestReadHeader() {
	path := s.file("a.db", []byte("0123456789"))

	b, err := s.store.ReadHeader(path, 4)
	s.NoError(err)
	s.Equal([]byte("0123"), b)

	b, err = s.store.ReadHeader(path, 32)
	s.NoError(err)
	s.Equal([]byte("0123456789"), b)

	b, err = s.store.ReadHeader(s.file("empty.db", nil), 32)
	s.NoError(err)
	s.Empty(b)
}

func (s *StorageTestSuite) TestSnapshot() {
	content := bytes.Repeat([]byte("page"), 4096)
	path := s.file("a.db", content)

	snap, err := s.store.Snapshot(path)
	s.Require().NoError(err)
	s.NotEqual(path, snap)
	s.Equal(s.dir, filepath.Dir(snap))
	s.True(strings.HasPrefix(filepath.Base(snap), "dbexplorer-snapshot-"))

	got, err := os.ReadFile(snap)
	s.NoError(err)
	s.Equal(content, got)

	s.NoError(s.store.Remove(snap))
	s.NoFileExists(snap)
}

func (s *StorageTestSuite) TestSnapshotErrors() {
	_, err := s.store.Snapshot(filepath.Join(s.dir, "missing.db"))
	s.ErrorIs(err, os.ErrNotExist)

	m := new(osOpsMock)
	src, err := os.Open(s.file("a.db", []byte("x")))
	s.Require().NoError(err)
	tempErr := errors.New("no space left")
	m.On("OpenFile", "f", os.O_RDONLY, os.FileMode(0)).Return(src, nil).Once()
	m.On("CreateTemp", s.dir, SnapshotPattern).Return(nil, tempErr).Once()
	s.store.os = m

	path, err := s.store.Snapshot("f")
	s.ErrorIs(err, tempErr)
	s.Empty(path)
	m.AssertExpectations(s.T())
}

func (s *StorageTestSuite) TestWriteFileAtomic() {
	path := s.file("export.json", []byte("old content that is longer"))
	s.NoError(s.store.WriteFileAtomic(path, strings.NewReader("[]")))

	r, err := s.store.ReadFileStream(path)
	s.Require().NoError(err)
	defer r.Close()
	b, err := io.ReadAll(r)
	s.NoError(err)
	s.Equal("[]", string(b))

	_, err = s.store.ReadFileStream(filepath.Join(s.dir, "missing.json"))
	s.ErrorIs(err, os.ErrNotExist)
}

func TestStorageTestSuite(t *testing.T) {
	suite.Run(t, new(StorageTestSuite))
}
