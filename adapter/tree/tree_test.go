package tree

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TreeTestSuite struct {
	suite.Suite
	doc *domain.Document
}

func (s *TreeTestSuite) SetupTest() {
	oid, err := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
	s.Require().NoError(err)
	s.doc = domain.NewDocument(
		domain.Field{Key: "_id", Value: domain.ObjectIDValue(oid)},
		domain.Field{Key: "name", Value: domain.StringValue("Ana")},
		domain.Field{Key: "age", Value: domain.Int32Value(31)},
		domain.Field{Key: "score", Value: domain.DoubleValue(9.5)},
		domain.Field{Key: "active", Value: domain.BooleanValue(true)},
		domain.Field{Key: "manager", Value: domain.NullValue()},
		domain.Field{Key: "since", Value: domain.DateTimeValue(time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC))},
		domain.Field{Key: "tags", Value: domain.ArrayValue(
			domain.StringValue("a"),
			domain.DocumentValue(domain.NewDocument(
				domain.Field{Key: "_id", Value: domain.Int32Value(7)},
			)),
		)},
		domain.Field{Key: "address", Value: domain.DocumentValue(domain.NewDocument(
			domain.Field{Key: "city", Value: domain.StringValue("Recife")},
		))},
		domain.Field{Key: "blob", Value: domain.BinaryValue([]byte{1, 2, 3})},
	)
}

type flat struct {
	Key, Value, Path string
	Kind             Kind
	Editable         bool
}

func flatten(n *Node) []flat {
	res := []flat{{Key: n.Key, Value: n.Value, Path: n.Path, Kind: n.Kind, Editable: n.Editable}}
	for _, c := range n.Children {
		res = append(res, flatten(c)...)
	}
	return res
}

func (s *TreeTestSuite) TestBuild() {
	root := Build(s.doc)
	expected := []flat{
		{Key: "", Value: "{ 10 fields }", Kind: KindObject},
		{Key: "_id", Value: "507f1f77bcf86cd799439011", Path: "_id", Kind: KindOther},
		{Key: "name", Value: `"Ana"`, Path: "name", Kind: KindString, Editable: true},
		{Key: "age", Value: "31", Path: "age", Kind: KindNumber, Editable: true},
		{Key: "score", Value: "9.5", Path: "score", Kind: KindNumber, Editable: true},
		{Key: "active", Value: "true", Path: "active", Kind: KindBoolean, Editable: true},
		{Key: "manager", Value: "null", Path: "manager", Kind: KindNull, Editable: true},
		{Key: "since", Value: "2024-03-01 12:30:00", Path: "since", Kind: KindDate, Editable: true},
		{Key: "tags", Value: "[ 2 items ]", Path: "tags", Kind: KindArray},
		{Key: "[0]", Value: `"a"`, Path: "tags[0]", Kind: KindString, Editable: true},
		{Key: "[1]", Value: "{ 1 field }", Path: "tags[1]", Kind: KindObject},
		{Key: "_id", Value: "7", Path: "tags[1]._id", Kind: KindNumber, Editable: true},
		{Key: "address", Value: "{ 1 field }", Path: "address", Kind: KindObject},
		{Key: "city", Value: `"Recife"`, Path: "address.city", Kind: KindString, Editable: true},
		{Key: "blob", Value: "<binary " + domain.FormatBytes(3) + ">", Path: "blob", Kind: KindOther},
	}
	if diff := cmp.Diff(expected, flatten(root)); diff != "" {
		s.FailNow("unexpected tree", diff)
	}
}

func (s *TreeTestSuite) TestRootIDIsNeverEditable() {
	doc := domain.NewDocument(domain.Field{Key: "_id", Value: domain.StringValue("x")})
	root := Build(doc)
	s.Require().Len(root.Children, 1)
	s.Equal(KindString, root.Children[0].Kind)
	s.False(root.Children[0].Editable)
}

func (s *TreeTestSuite) TestEmptyDocument() {
	root := Build(nil)
	s.Equal("{ 0 fields }", root.Value)
	s.Empty(root.Children)
}

func (s *TreeTestSuite) TestFind() {
	root := Build(s.doc)
	n := root.Find("tags[1]._id")
	s.Require().NotNil(n)
	s.Equal("7", n.Value)
	s.Nil(root.Find("tags[2]"))
}

func (s *TreeTestSuite) TestRender() {
	doc := domain.NewDocument(
		domain.Field{Key: "name", Value: domain.StringValue("Ana")},
		domain.Field{Key: "tags", Value: domain.ArrayValue(domain.Int32Value(1))},
	)
	expected := "{ 2 fields }\n" +
		"name: \"Ana\"\n" +
		"tags: [ 1 item ]\n" +
		"  [0]: 1\n"
	s.Equal(expected, Render(Build(doc)))
}

func (s *TreeTestSuite) TestKindString() {
	s.Equal("object", KindObject.String())
	s.Equal("kind(42)", Kind(42).String())
}

func TestTreeTestSuite(t *testing.T) {
	suite.Run(t, new(TreeTestSuite))
}
