package converter

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/data"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type ConverterTestSuite struct {
	suite.Suite
	c domain.Converter
}

func (s *ConverterTestSuite) SetupTest() {
	s.c = NewConverter()
}

func (s *ConverterTestSuite) values() map[string]domain.Value {
	dec, err := primitive.ParseDecimal128("12345678901234567890.125")
	s.Require().NoError(err)
	oid, err := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
	s.Require().NoError(err)
	return map[string]domain.Value{
		"null":    domain.NullValue(),
		"string":  domain.StringValue("Sample <Document> & co"),
		"int32":   domain.Int32Value(-7),
		"int64":   domain.Int64Value(math.MaxInt64),
		"double":  domain.DoubleValue(1.25),
		"whole":   domain.DoubleValue(3),
		"negZero": domain.DoubleValue(math.Copysign(0, -1)),
		"badUTF8": domain.StringValue("a\xffb"),
		"nan":     domain.DoubleValue(math.NaN()),
		"inf":     domain.DoubleValue(math.Inf(-1)),
		"decimal": domain.DecimalValue(dec),
		"bool":    domain.BooleanValue(false),
		"date":    domain.DateTimeValue(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)),
		"dateMs":  domain.DateTimeValue(time.Date(2024, 1, 15, 10, 30, 0, 5e6, time.UTC)),
		"binary":  domain.BinaryValue([]byte("hello")),
		"oid":     domain.ObjectIDValue(oid),
		"guid":    domain.GUIDValue(uuid.MustParse("12345678-1234-1234-1234-123456789abc")),
		"array":   domain.ArrayValue(domain.Int32Value(1), domain.ArrayValue(), domain.StringValue("x")),
		"doc": domain.DocumentValue(domain.NewDocument(
			domain.Field{Key: "z", Value: domain.NullValue()},
			domain.Field{Key: "a", Value: domain.BooleanValue(true)},
		)),
	}
}

func (s *ConverterTestSuite) TestForwardTable() {
	vals := s.values()
	expected := map[string]any{
		"null":    nil,
		"string":  "Sample <Document> & co",
		"int32":   int64(-7),
		"int64":   int64(math.MaxInt64),
		"double":  1.25,
		"whole":   3.0,
		"negZero": 0.0,
		"badUTF8": "a\uFFFDb",
		"nan":     "NaN",
		"inf":     "-Infinity",
		"decimal": "12345678901234567890.125",
		"bool":    false,
		"date":    "2024-01-15T10:30:00",
		"dateMs":  "2024-01-15T10:30:00.005",
		"binary":  "aGVsbG8=",
		"oid":     "507f1f77bcf86cd799439011",
		"guid":    "12345678-1234-1234-1234-123456789abc",
		"array":   []any{int64(1), []any{}, "x"},
		"doc": domain.JSONObject{
			{Key: "z", Value: nil},
			{Key: "a", Value: true},
		},
	}
	for name, v := range vals {
		s.Equal(expected[name], s.c.ToJSON(v), name)
	}
}

func (s *ConverterTestSuite) TestFormatIsIdempotent() {
	for name, v := range s.values() {
		doc := domain.NewDocument(domain.Field{Key: "v", Value: v})
		first, err := s.c.Marshal(doc, false)
		s.Require().NoError(err, name)

		parsed, err := s.c.Parse(first)
		s.Require().NoError(err, name)
		second, err := s.c.Marshal(parsed, false)
		s.Require().NoError(err, name)
		s.Equal(first, second, name)
	}
}

func (s *ConverterTestSuite) TestInvalidUTF8Keys() {
	doc := domain.NewDocument(domain.Field{Key: "k\xff", Value: domain.StringValue("v\xfe")})
	first, err := s.c.Marshal(doc, false)
	s.Require().NoError(err)
	s.Equal("{\"k\uFFFD\":\"v\uFFFD\"}", first)

	parsed, err := s.c.Parse(first)
	s.Require().NoError(err)
	second, err := s.c.Marshal(parsed, false)
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *ConverterTestSuite) TestMarshalKeepsOrderAndHTML() {
	doc := domain.NewDocument(
		domain.Field{Key: "z", Value: domain.Int32Value(1)},
		domain.Field{Key: "a", Value: domain.StringValue("<b>")},
	)
	text, err := s.c.Marshal(doc, false)
	s.NoError(err)
	s.Equal(`{"z":1,"a":"<b>"}`, text)

	text, err = s.c.Marshal(doc, true)
	s.NoError(err)
	s.Equal("{\n  \"z\": 1,\n  \"a\": \"<b>\"\n}", text)
}

func (s *ConverterTestSuite) TestMarshalArray() {
	docs := []*domain.Document{
		domain.NewDocument(domain.Field{Key: "a", Value: domain.Int32Value(1)}),
		domain.NewDocument(),
	}
	text, err := s.c.MarshalArray(docs, false)
	s.NoError(err)
	s.Equal(`[{"a":1},{}]`, text)

	text, err = s.c.MarshalArray(nil, true)
	s.NoError(err)
	s.Equal(`[]`, text)
}

func (s *ConverterTestSuite) TestParseExtendedJSON() {
	doc, err := s.c.Parse(`{
		// comments and trailing commas are accepted
		"_id": {"$oid": "507f1f77bcf86cd799439011"},
		"when": {"$date": "2024-01-15T10:30:00Z"},
		"price": {"$numberDecimal": "9.99"},
		"key": {"$uuid": "12345678-1234-1234-1234-123456789abc"},
		"small": 5,
		"big": 5000000000,
		"ratio": 0.5,
	}`)
	s.Require().NoError(err)
	s.Equal([]string{"_id", "when", "price", "key", "small", "big", "ratio"}, doc.Keys())

	kinds := map[string]domain.Kind{
		"_id":   domain.KindObjectID,
		"when":  domain.KindDateTime,
		"price": domain.KindDecimal,
		"key":   domain.KindGUID,
		"small": domain.KindInt32,
		"big":   domain.KindInt64,
		"ratio": domain.KindDouble,
	}
	for k, kind := range kinds {
		v, _ := doc.Get(k)
		s.Equal(kind, v.Kind(), k)
	}
}

func (s *ConverterTestSuite) TestParsePlainID() {
	doc, err := s.c.Parse(`{"_id": "507f1f77bcf86cd799439011", "name": "Sample Document"}`)
	s.Require().NoError(err)
	id, _ := doc.ID()
	s.Equal(domain.KindObjectID, id.Kind())

	doc, err = s.c.Parse(`{"_id": "user-1"}`)
	s.Require().NoError(err)
	id, _ = doc.ID()
	s.True(id.Equal(domain.StringValue("user-1")))
}

func (s *ConverterTestSuite) TestParseFallback() {
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewConverter(WithLogger(zap.New(core).Sugar()))

	// not a valid Extended JSON wrapper, kept as a plain object
	doc, err := c.Parse(`{"ref": {"$oid": "not-hex"}, "n": 2}`)
	s.Require().NoError(err)
	ref, _ := doc.Get("ref")
	s.Equal(domain.KindDocument, ref.Kind())
	n, _ := doc.Get("n")
	s.True(n.Equal(domain.Int64Value(2)))
	s.Equal(1, logs.FilterMessage("using fallback JSON parser").Len())
}

func (s *ConverterTestSuite) TestParseErrors() {
	_, err := s.c.Parse(`{"name": "Sample Document", "broken": tru}`)
	var perr domain.ErrParse
	s.Require().ErrorAs(err, &perr)
	s.Contains(perr.Fragment, "tru")

	_, err = s.c.Parse(`[1, 2]`)
	s.ErrorIs(err, data.ErrExpectedObject)

	_, err = s.c.Parse(``)
	s.ErrorAs(err, new(domain.ErrParse))
}

func (s *ConverterTestSuite) TestParseArray() {
	docs, err := s.c.ParseArray(`[{"_id": {"$oid": "507f1f77bcf86cd799439011"}}, {"_id": "507f1f77bcf86cd799439012"}, {"a": [1, {"b": 2}]},]`)
	s.Require().NoError(err)
	s.Require().Len(docs, 3)
	for _, doc := range docs[:2] {
		id, _ := doc.ID()
		s.Equal(domain.KindObjectID, id.Kind())
	}

	_, err = s.c.ParseArray(`{"a": 1}`)
	s.ErrorIs(err, data.ErrExpectedArray)

	_, err = s.c.ParseArray(`[{"a": 1}, 2]`)
	s.ErrorIs(err, data.ErrExpectedObject)

	_, err = s.c.ParseArray(`[{"a": 1}`)
	s.ErrorAs(err, new(domain.ErrParse))
}

func (s *ConverterTestSuite) TestOutputIsValidJSON() {
	doc := domain.NewDocument()
	for name, v := range s.values() {
		doc.Set(name, v)
	}
	text, err := s.c.Marshal(doc, true)
	s.NoError(err)
	s.True(json.Valid([]byte(text)))
}

func TestConverterTestSuite(t *testing.T) {
	suite.Run(t, new(ConverterTestSuite))
}
