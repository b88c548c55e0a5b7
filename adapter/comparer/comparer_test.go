package comparer

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ComparerTestSuite struct {
	suite.Suite
	c *Comparer
}

func (s *ComparerTestSuite) SetupTest() {
	s.c = NewComparer().(*Comparer)
}

func (s *ComparerTestSuite) decimal(text string) domain.Value {
	d, err := primitive.ParseDecimal128(text)
	s.Require().NoError(err)
	return domain.DecimalValue(d)
}

// One value of each kind, in kind order.
func (s *ComparerTestSuite) ladder() []domain.Value {
	return []domain.Value{
		domain.NullValue(),
		domain.StringValue(""),
		domain.Int32Value(100),
		domain.Int64Value(-100),
		domain.DoubleValue(-1e9),
		s.decimal("-5"),
		domain.BooleanValue(false),
		domain.DateTimeValue(time.UnixMilli(0)),
		domain.BinaryValue(nil),
		domain.ObjectIDValue(primitive.NilObjectID),
		domain.GUIDValue(uuid.Nil),
		domain.ArrayValue(),
		domain.DocumentValue(nil),
	}
}

func (s *ComparerTestSuite) TestKindOrder() {
	values := s.ladder()
	for i := range values {
		for j := range values {
			s.Equal(cmpInt(i, j), s.c.Compare(values[i], values[j]), "%s vs %s", values[i], values[j])
		}
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (s *ComparerTestSuite) TestStrictIdentity() {
	s.False(s.c.Equal(domain.Int32Value(5), domain.Int64Value(5)))
	s.False(s.c.Equal(domain.StringValue("5"), domain.Int32Value(5)))
	s.False(s.c.Equal(domain.DoubleValue(5), s.decimal("5")))
	s.True(s.c.Equal(domain.Int64Value(5), domain.Int64Value(5)))
	s.True(s.c.Equal(domain.DoubleValue(math.NaN()), domain.DoubleValue(math.NaN())))
}

func (s *ComparerTestSuite) TestNumericFamily() {
	c := NewComparer(WithNumericFamily(true))
	s.True(c.Equal(domain.Int32Value(5), domain.Int64Value(5)))
	s.True(c.Equal(domain.DoubleValue(5), s.decimal("5.0")))
	s.Equal(-1, c.Compare(domain.Int64Value(math.MaxInt64-1), domain.Int64Value(math.MaxInt64)))
	s.Equal(1, c.Compare(domain.DoubleValue(2.5), domain.Int32Value(2)))
	s.Equal(-1, c.Compare(domain.DoubleValue(math.NaN()), domain.Int32Value(-1000)))
	s.Equal(0, c.Compare(domain.DoubleValue(math.NaN()), domain.DoubleValue(math.NaN())))
	// other kinds keep the strict ordering
	s.Equal(-1, c.Compare(domain.StringValue("9"), domain.Int32Value(1)))
}

func (s *ComparerTestSuite) TestPayloads() {
	oid1 := primitive.NewObjectIDFromTimestamp(time.Unix(100, 0))
	oid2 := primitive.NewObjectIDFromTimestamp(time.Unix(200, 0))
	cases := []struct {
		a, b domain.Value
	}{
		{a: domain.StringValue("a"), b: domain.StringValue("b")},
		{a: domain.Int32Value(-1), b: domain.Int32Value(1)},
		{a: domain.Int64Value(1), b: domain.Int64Value(2)},
		{a: domain.DoubleValue(math.NaN()), b: domain.DoubleValue(math.Inf(-1))},
		{a: s.decimal("1.5"), b: s.decimal("10")},
		{a: domain.BooleanValue(false), b: domain.BooleanValue(true)},
		{a: domain.DateTimeValue(time.UnixMilli(1)), b: domain.DateTimeValue(time.UnixMilli(2))},
		{a: domain.BinaryValue([]byte{1}), b: domain.BinaryValue([]byte{1, 0})},
		{a: domain.ObjectIDValue(oid1), b: domain.ObjectIDValue(oid2)},
		{a: domain.ArrayValue(domain.Int32Value(1)), b: domain.ArrayValue(domain.Int32Value(1), domain.NullValue())},
		{a: domain.ArrayValue(domain.Int32Value(1)), b: domain.ArrayValue(domain.Int32Value(2))},
		{
			a: domain.DocumentValue(domain.NewDocument(domain.Field{Key: "a", Value: domain.Int32Value(9)})),
			b: domain.DocumentValue(domain.NewDocument(domain.Field{Key: "b", Value: domain.Int32Value(1)})),
		},
		{
			a: domain.DocumentValue(domain.NewDocument(domain.Field{Key: "a", Value: domain.Int32Value(1)})),
			b: domain.DocumentValue(domain.NewDocument(domain.Field{Key: "a", Value: domain.Int32Value(2)})),
		},
	}
	for _, tc := range cases {
		s.Equal(-1, s.c.Compare(tc.a, tc.b), "%s < %s", tc.a, tc.b)
		s.Equal(1, s.c.Compare(tc.b, tc.a), "%s > %s", tc.b, tc.a)
		s.Zero(s.c.Compare(tc.a, tc.a.Clone()))
	}
}

func (s *ComparerTestSuite) TestSortsMixedIDs() {
	ids := []domain.Value{
		domain.StringValue("b"),
		domain.Int32Value(2),
		domain.NullValue(),
		domain.StringValue("a"),
		domain.Int32Value(1),
	}
	slices.SortFunc(ids, s.c.Compare)
	expected := []domain.Value{
		domain.NullValue(),
		domain.StringValue("a"),
		domain.StringValue("b"),
		domain.Int32Value(1),
		domain.Int32Value(2),
	}
	s.Equal(expected, ids)
}

func TestComparerTestSuite(t *testing.T) {
	suite.Run(t, new(ComparerTestSuite))
}
