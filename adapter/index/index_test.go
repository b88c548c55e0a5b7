package index

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

type IndexTestSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *IndexTestSuite) SetupTest() {
	s.ctx = context.Background()
}

func doc(fields ...domain.Field) *domain.Document {
	return domain.NewDocument(fields...)
}

func field(k string, v domain.Value) domain.Field {
	return domain.Field{Key: k, Value: v}
}

func (s *IndexTestSuite) newIndex(fieldName string) domain.Index {
	i, err := NewIndex(domain.WithIndexFieldName(fieldName))
	s.Require().NoError(err)
	return i
}

func (s *IndexTestSuite) TestFieldName() {
	_, err := NewIndex()
	s.ErrorIs(err, ErrFieldName)

	s.Equal("a.b", s.newIndex("a.b").FieldName())
}

func (s *IndexTestSuite) TestMatching() {
	i := s.newIndex("age")
	ana := doc(field("name", domain.StringValue("ana")), field("age", domain.Int32Value(30)))
	bia := doc(field("name", domain.StringValue("bia")), field("age", domain.Int64Value(25)))
	caio := doc(field("name", domain.StringValue("caio")), field("age", domain.DoubleValue(30)))
	none := doc(field("name", domain.StringValue("none")))
	s.Require().NoError(i.Insert(s.ctx, ana, bia, caio, none))

	s.Equal(3, i.GetNumberOfKeys())

	found, err := i.GetMatching(domain.Int32Value(30))
	s.NoError(err)
	s.ElementsMatch([]*domain.Document{ana, caio}, found)

	found, err = i.GetMatching(domain.Int32Value(25), domain.Int64Value(30), domain.Int32Value(99))
	s.NoError(err)
	s.Len(found, 3)
	s.Same(bia, found[0])

	found, err = i.GetMatching(domain.NullValue())
	s.NoError(err)
	s.Equal([]*domain.Document{none}, found)
}

func (s *IndexTestSuite) TestArrays() {
	i := s.newIndex("tags")
	a := doc(field("tags", domain.ArrayValue(domain.StringValue("x"), domain.StringValue("y"), domain.StringValue("x"))))
	b := doc(field("tags", domain.ArrayValue(domain.StringValue("y"))))
	s.Require().NoError(i.Insert(s.ctx, a, b))

	found, err := i.GetMatching(domain.StringValue("y"))
	s.NoError(err)
	s.ElementsMatch([]*domain.Document{a, b}, found)

	// a holds both keys but is returned once
	found, err = i.GetMatching(domain.StringValue("x"), domain.StringValue("y"))
	s.NoError(err)
	s.Len(found, 2)
}

func (s *IndexTestSuite) TestNested() {
	i := s.newIndex("address.city")
	rec := doc(field("address", domain.DocumentValue(doc(field("city", domain.StringValue("Recife"))))))
	sp := doc(field("address", domain.DocumentValue(doc(field("city", domain.StringValue("SP"))))))
	s.Require().NoError(i.Insert(s.ctx, rec, sp))

	found, err := i.GetMatching(domain.StringValue("SP"))
	s.NoError(err)
	s.Equal([]*domain.Document{sp}, found)
}

func (s *IndexTestSuite) TestBounds() {
	i := s.newIndex("n")
	docs := make([]*domain.Document, 0, 10)
	for n := range 10 {
		docs = append(docs, doc(field("n", domain.Int32Value(int32(n)))))
	}
	s.Require().NoError(i.Insert(s.ctx, docs...))

	seq, err := i.GetBetweenBounds(s.ctx, domain.Bounds{
		GreaterThan: &domain.Bound{Value: domain.DoubleValue(2.5)},
		LowerThan:   &domain.Bound{Value: domain.Int64Value(6), IncludeEqual: true},
	})
	s.Require().NoError(err)
	var got []*domain.Document
	for d, err := range seq {
		s.NoError(err)
		got = append(got, d)
	}
	s.Equal(docs[3:7], got)

	seq, err = i.GetBetweenBounds(s.ctx, domain.Bounds{
		GreaterThan: &domain.Bound{Value: domain.Int32Value(8), IncludeEqual: true},
	})
	s.Require().NoError(err)
	got = got[:0]
	for d, err := range seq {
		s.NoError(err)
		got = append(got, d)
	}
	s.Equal(docs[8:], got)

	s.Equal(docs, slices.Collect(i.GetAll()))
}

func (s *IndexTestSuite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	i := s.newIndex("n")
	s.ErrorIs(i.Insert(ctx, doc()), context.Canceled)
	_, err := i.GetBetweenBounds(ctx, domain.Bounds{})
	s.ErrorIs(err, context.Canceled)
}

func TestIndexTestSuite(t *testing.T) {
	suite.Run(t, new(IndexTestSuite))
}
