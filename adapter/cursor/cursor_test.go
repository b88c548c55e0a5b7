package cursor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/view"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

type decoderMock struct{ mock.Mock }

// Decode implements [domain.Decoder].
func (d *decoderMock) Decode(src any, tgt any) error {
	return d.Called(src, tgt).Error(0)
}

type Obj struct {
	A int
}

type CursorTestSuite struct {
	suite.Suite
	data []domain.DocumentView
}

func (s *CursorTestSuite) SetupSuite() {
	s.data = make([]domain.DocumentView, 200)
	for n := range s.data {
		s.data[n] = view.NewDocumentView(domain.NewDocument(
			domain.Field{Key: "_id", Value: domain.Int32Value(int32(n))},
			domain.Field{Key: "a", Value: domain.Int32Value(int32(n))},
		))
	}
}

func (s *CursorTestSuite) TestNilData() {
	cur, err := NewCursor(context.Background(), nil)
	s.NoError(err)
	s.False(cur.Next())
	s.Zero(cur.Len())
	s.NoError(cur.Err())
}

func (s *CursorTestSuite) TestStructs() {
	cur, err := NewCursor(context.Background(), s.data)
	s.NoError(err)
	s.Equal(200, cur.Len())

	count := 0
	for cur.Next() {
		var obj Obj
		s.NoError(cur.Scan(context.Background(), &obj))
		s.Equal(count, obj.A)

		v, err := cur.View()
		s.NoError(err)
		s.Equal(s.data[count], v)
		count++
	}
	s.Equal(200, count)
	s.NoError(cur.Err())
}

func (s *CursorTestSuite) TestReadClosed() {
	cur, err := NewCursor(context.Background(), s.data)
	s.NoError(err)
	s.True(cur.Next())
	s.NoError(cur.Close())

	s.False(cur.Next())
	_, err = cur.View()
	s.ErrorIs(err, domain.ErrCursorClosed)
	s.ErrorIs(cur.Err(), domain.ErrCursorClosed)
	s.ErrorIs(cur.Close(), domain.ErrCursorClosed)
}

func (s *CursorTestSuite) TestCreateClosedContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cur, err := NewCursor(ctx, s.data)
	s.ErrorIs(err, context.Canceled)
	s.Nil(cur)
}

func (s *CursorTestSuite) TestParentCanceled() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cur, err := NewCursor(ctx, s.data)
	s.Require().NoError(err)

	count := 0
	for cur.Next() {
		cancel()
		s.ErrorIs(cur.Scan(context.Background(), new(Obj)), context.Canceled)
		count++
	}
	s.Equal(1, count)
	s.ErrorIs(cur.Err(), context.Canceled)
}

func (s *CursorTestSuite) TestScanClosedContext() {
	cur, err := NewCursor(context.Background(), s.data)
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.True(cur.Next())
	s.ErrorIs(cur.Scan(ctx, new(Obj)), context.Canceled)
}

func (s *CursorTestSuite) TestScanWithoutNext() {
	cur, err := NewCursor(context.Background(), s.data)
	s.Require().NoError(err)

	s.ErrorIs(cur.Scan(context.Background(), new(Obj)), domain.ErrScanBeforeNext)
	_, err = cur.View()
	s.ErrorIs(err, domain.ErrScanBeforeNext)
}

func (s *CursorTestSuite) TestCustomDecoder() {
	dec := new(decoderMock)
	dec.On("Decode", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args[1].(*Obj).A = -1
		}).
		Return(nil)

	cur, err := NewCursor(context.Background(), s.data[:3], domain.WithCursorDecoder(dec))
	s.Require().NoError(err)

	for cur.Next() {
		var obj Obj
		s.NoError(cur.Scan(context.Background(), &obj))
		s.Equal(-1, obj.A)
	}
	dec.AssertNumberOfCalls(s.T(), "Decode", 3)
}

func TestCursorTestSuite(t *testing.T) {
	suite.Run(t, new(CursorTestSuite))
}
