package engine

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	bolt "go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EngineTestSuite struct {
	suite.Suite
	ctx  context.Context
	path string
	e    domain.Engine
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.path = filepath.Join(s.T().TempDir(), "test.db")
	var err error
	s.e, err = Open(s.ctx, s.path, domain.EngineOptions{})
	s.Require().NoError(err)
}

func (s *EngineTestSuite) TearDownTest() {
	if s.e != nil {
		s.NoError(s.e.Close())
	}
}

func (s *EngineTestSuite) entry(id domain.Value, data string) domain.Entry {
	return domain.Entry{ID: id, Data: []byte(data)}
}

func (s *EngineTestSuite) reopen(opts domain.EngineOptions) {
	s.Require().NoError(s.e.Close())
	var err error
	s.e, err = Open(s.ctx, s.path, opts)
	s.Require().NoError(err)
}

func (s *EngineTestSuite) TestKeyOrder() {
	ordered := [][]domain.Value{
		{domain.Int32Value(math.MinInt32), domain.Int32Value(-5), domain.Int32Value(0), domain.Int32Value(7), domain.Int32Value(math.MaxInt32)},
		{domain.Int64Value(math.MinInt64), domain.Int64Value(-1), domain.Int64Value(0), domain.Int64Value(1 << 40)},
		{domain.DoubleValue(math.Inf(-1)), domain.DoubleValue(-1.5), domain.DoubleValue(-0.5), domain.DoubleValue(0), domain.DoubleValue(0.25), domain.DoubleValue(2), domain.DoubleValue(math.Inf(1))},
		{domain.DateTimeMillis(-1000), domain.DateTimeMillis(0), domain.DateTimeMillis(1000)},
		{domain.StringValue(""), domain.StringValue("a"), domain.StringValue("ab"), domain.StringValue("b")},
		{domain.BooleanValue(false), domain.BooleanValue(true)},
	}
	for _, values := range ordered {
		for n := 1; n < len(values); n++ {
			a, err := EncodeKey(values[n-1])
			s.Require().NoError(err)
			b, err := EncodeKey(values[n])
			s.Require().NoError(err)
			s.Equal(-1, bytes.Compare(a, b), "%s < %s", values[n-1], values[n])
		}
	}

	neg, err := EncodeKey(domain.DoubleValue(math.Copysign(0, -1)))
	s.NoError(err)
	pos, err := EncodeKey(domain.DoubleValue(0))
	s.NoError(err)
	s.Equal(pos, neg)

	// kinds never collide
	i32, _ := EncodeKey(domain.Int32Value(1))
	i64, _ := EncodeKey(domain.Int64Value(1))
	s.NotEqual(i32, i64)
}

func (s *EngineTestSuite) TestKeyKinds() {
	for _, id := range []domain.Value{
		domain.ObjectIDValue(primitive.NewObjectID()),
		domain.GUIDValue(uuid.New()),
		domain.BinaryValue([]byte{1, 2}),
	} {
		_, err := EncodeKey(id)
		s.NoError(err, id.Kind().String())
	}

	for _, id := range []domain.Value{
		domain.NullValue(),
		domain.ArrayValue(domain.Int32Value(1)),
		domain.DocumentValue(domain.NewDocument()),
	} {
		_, err := EncodeKey(id)
		s.ErrorAs(err, new(domain.ErrInvalidID))
	}
}

func (s *EngineTestSuite) TestCRUD() {
	s.Require().NoError(s.e.Insert(s.ctx, "people",
		s.entry(domain.Int32Value(2), "two"),
		s.entry(domain.Int32Value(1), "one"),
	))

	count, err := s.e.Count(s.ctx, "people")
	s.NoError(err)
	s.Equal(int64(2), count)

	got, err := s.e.Get(s.ctx, "people", domain.Int32Value(1))
	s.NoError(err)
	s.Equal([]byte("one"), got)

	ok, err := s.e.Replace(s.ctx, "people", domain.Int32Value(1), []byte("uno"))
	s.NoError(err)
	s.True(ok)

	ok, err = s.e.Replace(s.ctx, "people", domain.Int32Value(9), []byte("nine"))
	s.NoError(err)
	s.False(ok)

	all, err := s.e.Scan(s.ctx, "people", 0, -1)
	s.NoError(err)
	s.Equal([][]byte{[]byte("uno"), []byte("two")}, all)

	ok, err = s.e.Delete(s.ctx, "people", domain.Int32Value(2))
	s.NoError(err)
	s.True(ok)

	ok, err = s.e.Delete(s.ctx, "people", domain.Int32Value(2))
	s.NoError(err)
	s.False(ok)

	got, err = s.e.Get(s.ctx, "people", domain.Int32Value(2))
	s.NoError(err)
	s.Nil(got)

	size, err := s.e.Size(s.ctx, "people")
	s.NoError(err)
	s.Positive(size)
}

func (s *EngineTestSuite) TestMissingCollection() {
	count, err := s.e.Count(s.ctx, "nope")
	s.NoError(err)
	s.Zero(count)

	values, err := s.e.Scan(s.ctx, "nope", 0, -1)
	s.NoError(err)
	s.Empty(values)

	got, err := s.e.Get(s.ctx, "nope", domain.Int32Value(1))
	s.NoError(err)
	s.Nil(got)

	ok, err := s.e.Delete(s.ctx, "nope", domain.Int32Value(1))
	s.NoError(err)
	s.False(ok)

	ok, err = s.e.DropCollection(s.ctx, "nope")
	s.NoError(err)
	s.False(ok)
}

func (s *EngineTestSuite) TestScanPaging() {
	for n := range 10 {
		s.Require().NoError(s.e.Insert(s.ctx, "c", s.entry(domain.Int32Value(int32(n)), string(rune('a'+n)))))
	}

	page, err := s.e.Scan(s.ctx, "c", 3, 4)
	s.NoError(err)
	s.Equal([][]byte{[]byte("d"), []byte("e"), []byte("f"), []byte("g")}, page)

	page, err = s.e.Scan(s.ctx, "c", 8, 4)
	s.NoError(err)
	s.Len(page, 2)

	page, err = s.e.Scan(s.ctx, "c", 20, 4)
	s.NoError(err)
	s.Empty(page)

	page, err = s.e.Scan(s.ctx, "c", 0, 0)
	s.NoError(err)
	s.Empty(page)
}

func (s *EngineTestSuite) TestDuplicateRollsBack() {
	s.Require().NoError(s.e.Insert(s.ctx, "c", s.entry(domain.StringValue("a"), "a")))

	err := s.e.Insert(s.ctx, "c",
		s.entry(domain.StringValue("b"), "b"),
		s.entry(domain.StringValue("a"), "again"),
	)
	var dup domain.ErrDuplicateID
	s.Require().ErrorAs(err, &dup)
	s.Equal("c", dup.Collection)

	count, err := s.e.Count(s.ctx, "c")
	s.NoError(err)
	s.Equal(int64(1), count)

	err = s.e.Insert(s.ctx, "c", s.entry(domain.NullValue(), "x"))
	s.ErrorAs(err, new(domain.ErrInvalidID))
}

func (s *EngineTestSuite) TestCollections() {
	s.NoError(s.e.CreateCollection(s.ctx, "b"))
	s.NoError(s.e.CreateCollection(s.ctx, "a"))
	s.NoError(s.e.CreateCollection(s.ctx, "a"))
	s.NoError(s.e.SetMeta(s.ctx, "k", []byte("v")))

	names, err := s.e.CollectionNames(s.ctx)
	s.NoError(err)
	s.Equal([]string{"a", "b"}, names)

	ok, err := s.e.DropCollection(s.ctx, "a")
	s.NoError(err)
	s.True(ok)

	names, err = s.e.CollectionNames(s.ctx)
	s.NoError(err)
	s.Equal([]string{"b"}, names)

	s.ErrorAs(s.e.CreateCollection(s.ctx, ""), new(domain.ErrCollectionName))
	s.ErrorAs(s.e.CreateCollection(s.ctx, "$meta"), new(domain.ErrCollectionName))
	_, err = s.e.DropCollection(s.ctx, "$meta")
	s.ErrorAs(err, new(domain.ErrCollectionName))
}

func (s *EngineTestSuite) TestMeta() {
	v, err := s.e.Meta(s.ctx, "k")
	s.NoError(err)
	s.Nil(v)

	s.NoError(s.e.SetMeta(s.ctx, "k", []byte("v")))
	v, err = s.e.Meta(s.ctx, "k")
	s.NoError(err)
	s.Equal([]byte("v"), v)
}

func (s *EngineTestSuite) TestReadOnly() {
	s.Require().NoError(s.e.Insert(s.ctx, "c", s.entry(domain.Int32Value(1), "one")))
	s.reopen(domain.EngineOptions{ReadOnly: true})
	s.True(s.e.ReadOnly())
	s.Equal(s.path, s.e.Path())

	got, err := s.e.Get(s.ctx, "c", domain.Int32Value(1))
	s.NoError(err)
	s.Equal([]byte("one"), got)

	s.ErrorIs(s.e.Insert(s.ctx, "c", s.entry(domain.Int32Value(2), "two")), domain.ErrReadOnly)
	s.ErrorIs(s.e.CreateCollection(s.ctx, "d"), domain.ErrReadOnly)
	s.ErrorIs(s.e.SetMeta(s.ctx, "k", nil), domain.ErrReadOnly)
	_, err = s.e.Delete(s.ctx, "c", domain.Int32Value(1))
	s.ErrorIs(err, domain.ErrReadOnly)
}

func (s *EngineTestSuite) TestLockTimeout() {
	_, err := Open(s.ctx, s.path, domain.EngineOptions{LockTimeout: 50 * time.Millisecond})
	code, ok := domain.EngineCode(err)
	s.True(ok)
	s.Equal(domain.CodeLocked, code)
}

func (s *EngineTestSuite) TestInvalidFile() {
	garbage := filepath.Join(s.T().TempDir(), "garbage.db")
	s.Require().NoError(os.WriteFile(garbage, bytes.Repeat([]byte("not a database "), 1024), 0o600))

	_, err := Open(s.ctx, garbage, domain.EngineOptions{ReadOnly: true})
	code, ok := domain.EngineCode(err)
	s.True(ok)
	s.Equal(domain.CodeInvalidFormat, code)
}

func (s *EngineTestSuite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.e.Count(ctx, "c")
	s.ErrorIs(err, context.Canceled)
	s.ErrorIs(s.e.Insert(ctx, "c", s.entry(domain.Int32Value(1), "x")), context.Canceled)
	_, err = Open(ctx, s.path, domain.EngineOptions{})
	s.ErrorIs(err, context.Canceled)
}

func (s *EngineTestSuite) TestCode() {
	s.Equal(domain.CodeLocked, Code(bolt.ErrTimeout))
	s.Equal(domain.CodeInvalidFormat, Code(bolt.ErrInvalid))
	s.Equal(domain.CodeInvalidFormat, Code(bolt.ErrChecksum))
	s.Equal(domain.CodeUnsupportedVersion, Code(bolt.ErrVersionMismatch))
	s.Equal(domain.CodeIndexNotFound, Code(bolt.ErrBucketNotFound))
	s.Equal(domain.CodeWrongPassword, Code(domain.ErrWrongPassword))
	s.Equal(domain.CodeInvalidFormat, Code(errors.New("file size too small")))
	s.Zero(Code(os.ErrPermission))
	s.Zero(Code(errors.New("something else")))
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
