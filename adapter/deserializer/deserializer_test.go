package deserializer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type failingCipher struct{}

func (failingCipher) Seal([]byte) ([]byte, error) { return nil, errors.New("seal failed") }
func (failingCipher) Open([]byte) ([]byte, error) { return nil, errors.New("open failed") }

type DeserializerTestSuite struct {
	suite.Suite
	ctx context.Context
	d   domain.Deserializer
}

func (s *DeserializerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.d = NewDeserializer()
}

func (s *DeserializerTestSuite) marshal(v any) []byte {
	b, err := bson.Marshal(v)
	s.Require().NoError(err)
	return b
}

func (s *DeserializerTestSuite) TestKeepsOrder() {
	b := s.marshal(bson.D{{Key: "z", Value: 1}, {Key: "a", Value: 2}, {Key: "m", Value: 3}})
	doc, err := s.d.Deserialize(s.ctx, b)
	s.NoError(err)
	s.Equal([]string{"z", "a", "m"}, doc.Keys())
}

func (s *DeserializerTestSuite) TestForeignTypes() {
	b := s.marshal(bson.D{
		{Key: "undef", Value: primitive.Undefined{}},
		{Key: "min", Value: primitive.MinKey{}},
		{Key: "max", Value: primitive.MaxKey{}},
		{Key: "sym", Value: primitive.Symbol("sym")},
		{Key: "js", Value: primitive.JavaScript("return 1")},
		{Key: "re", Value: primitive.Regex{Pattern: "^a", Options: "i"}},
		{Key: "ts", Value: primitive.Timestamp{T: 1, I: 2}},
		{Key: "bin", Value: primitive.Binary{Subtype: bson.TypeBinaryUUID, Data: []byte{1, 2}}},
	})
	doc, err := s.d.Deserialize(s.ctx, b)
	s.Require().NoError(err)

	expected := map[string]domain.Value{
		"undef": domain.NullValue(),
		"min":   domain.NullValue(),
		"max":   domain.NullValue(),
		"sym":   domain.StringValue("sym"),
		"js":    domain.StringValue("return 1"),
		"re":    domain.StringValue("/^a/i"),
		"ts":    domain.Int64Value(1<<32 | 2),
		// a UUID subtype with a wrong length is kept as plain binary
		"bin": domain.BinaryValue([]byte{1, 2}),
	}
	for k, want := range expected {
		got, ok := doc.Get(k)
		s.True(ok, k)
		s.True(want.Equal(got), "%s: %s", k, got)
	}
}

func (s *DeserializerTestSuite) TestBinaryIsCopied() {
	b := s.marshal(bson.D{{Key: "bin", Value: []byte{9, 9}}})
	doc, err := FromRaw(b)
	s.Require().NoError(err)
	for n := range b {
		b[n] = 0
	}
	v, _ := doc.Get("bin")
	data, _ := v.AsBinary()
	s.Equal([]byte{9, 9}, data)
}

func (s *DeserializerTestSuite) TestInvalid() {
	_, err := s.d.Deserialize(s.ctx, []byte{1, 2, 3})
	s.Error(err)

	_, err = NewDeserializer(WithCipher(failingCipher{})).Deserialize(s.ctx, s.marshal(bson.D{}))
	s.EqualError(err, "open failed")

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err = s.d.Deserialize(ctx, s.marshal(bson.D{}))
	s.ErrorIs(err, context.Canceled)
}

func TestDeserializerTestSuite(t *testing.T) {
	suite.Run(t, new(DeserializerTestSuite))
}
