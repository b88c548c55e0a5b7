package data

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DocumentTestSuite struct {
	suite.Suite
}

type address struct {
	City string `dbexplorer:"city"`
	Zip  *string `dbexplorer:"zip,omitempty"`
}

type person struct {
	ID       primitive.ObjectID `dbexplorer:"_id"`
	Name     string             `dbexplorer:"name"`
	Age      int                `dbexplorer:"age,omitzero"`
	Tags     []string           `dbexplorer:"tags"`
	Address  address            `dbexplorer:"address"`
	Ignored  string             `dbexplorer:"-"`
	Born     time.Time          `dbexplorer:"born"`
	internal string
}

func (s *DocumentTestSuite) TestNil() {
	doc, err := NewDocument(nil)
	s.NoError(err)
	s.Zero(doc.Len())

	var p *person
	doc, err = NewDocument(p)
	s.NoError(err)
	s.Zero(doc.Len())
}

func (s *DocumentTestSuite) TestStruct() {
	oid := primitive.NewObjectID()
	born := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	doc, err := NewDocument(person{
		ID:       oid,
		Name:     "Ana",
		Tags:     []string{"a", "b"},
		Address:  address{City: "Recife"},
		Ignored:  "x",
		Born:     born,
		internal: "y",
	})
	s.NoError(err)

	expected := domain.NewDocument(
		domain.Field{Key: "_id", Value: domain.ObjectIDValue(oid)},
		domain.Field{Key: "name", Value: domain.StringValue("Ana")},
		domain.Field{Key: "tags", Value: domain.ArrayValue(domain.StringValue("a"), domain.StringValue("b"))},
		domain.Field{Key: "address", Value: domain.DocumentValue(domain.NewDocument(
			domain.Field{Key: "city", Value: domain.StringValue("Recife")},
		))},
		domain.Field{Key: "born", Value: domain.DateTimeValue(born)},
	)
	s.Empty(cmp.Diff(expected, doc))
}

func (s *DocumentTestSuite) TestMapKeysAreSorted() {
	doc, err := NewDocument(map[string]any{"b": 1, "a": int32(2), "c": nil})
	s.NoError(err)
	s.Equal([]string{"a", "b", "c"}, doc.Keys())

	a, _ := doc.Get("a")
	s.Equal(domain.KindInt32, a.Kind())
	b, _ := doc.Get("b")
	s.Equal(domain.KindInt64, b.Kind())
	c, _ := doc.Get("c")
	s.True(c.IsNull())
}

func (s *DocumentTestSuite) TestScalars() {
	id := uuid.New()
	dec, err := primitive.ParseDecimal128("1.25")
	s.Require().NoError(err)

	cases := []struct {
		in   any
		kind domain.Kind
	}{
		{in: "x", kind: domain.KindString},
		{in: true, kind: domain.KindBoolean},
		{in: int16(1), kind: domain.KindInt32},
		{in: uint64(1), kind: domain.KindInt64},
		{in: float32(1.5), kind: domain.KindDouble},
		{in: []byte{1}, kind: domain.KindBinary},
		{in: id, kind: domain.KindGUID},
		{in: dec, kind: domain.KindDecimal},
		{in: [2]int{1, 2}, kind: domain.KindArray},
		{in: primitive.DateTime(0), kind: domain.KindDateTime},
	}
	for _, c := range cases {
		v, err := ValueOf(c.in)
		s.NoError(err)
		s.Equal(c.kind, v.Kind(), "%T", c.in)
	}
}

func (s *DocumentTestSuite) TestUnsupported() {
	_, err := NewDocument(map[int]string{1: "a"})
	s.ErrorAs(err, new(ErrDocumentType))

	_, err = NewDocument(map[string]any{"f": func() {}})
	s.ErrorAs(err, new(ErrDocumentType))

	_, err = NewDocument("not a document")
	s.ErrorAs(err, new(ErrDocumentType))

	_, err = ValueOf(uint64(1 << 63))
	s.ErrorAs(err, new(ErrDocumentType))
}

func (s *DocumentTestSuite) TestDocumentInputIsCopied() {
	src := domain.NewDocument(domain.Field{Key: "a", Value: domain.Int32Value(1)})
	doc, err := NewDocument(src)
	s.NoError(err)
	src.Set("a", domain.Int32Value(2))

	a, _ := doc.Get("a")
	s.True(a.Equal(domain.Int32Value(1)))
}

func TestDocumentTestSuite(t *testing.T) {
	suite.Run(t, new(DocumentTestSuite))
}
