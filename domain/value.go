package domain

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind identifies which variant a [Value] holds.
type Kind uint8

// Value variants. The declaration order is also the order used by the default
// comparer when two values of different kinds are compared.
const (
	KindNull Kind = iota
	KindString
	KindInt32
	KindInt64
	KindDouble
	KindDecimal
	KindBoolean
	KindDateTime
	KindBinary
	KindObjectID
	KindGUID
	KindArray
	KindDocument
)

var kindNames = [...]string{
	KindNull:     "Null",
	KindString:   "String",
	KindInt32:    "Int32",
	KindInt64:    "Int64",
	KindDouble:   "Double",
	KindDecimal:  "Decimal",
	KindBoolean:  "Boolean",
	KindDateTime: "DateTime",
	KindBinary:   "Binary",
	KindObjectID: "ObjectId",
	KindGUID:     "Guid",
	KindArray:    "Array",
	KindDocument: "Document",
}

// String implements [fmt.Stringer].
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsNumber reports whether the kind holds a numeric payload.
func (k Kind) IsNumber() bool {
	switch k {
	case KindInt32, KindInt64, KindDouble, KindDecimal:
		return true
	default:
		return false
	}
}

// Value is a closed tagged union over the types a document field can hold.
// The zero Value is Null. Values are immutable, except for the nested
// [Document] of a Document value, which is shared by reference.
type Value struct {
	kind Kind
	data any
}

// NullValue returns a Null value.
func NullValue() Value { return Value{} }

// StringValue returns a String value.
func StringValue(s string) Value { return Value{kind: KindString, data: s} }

// Int32Value returns an Int32 value.
func Int32Value(i int32) Value { return Value{kind: KindInt32, data: i} }

// Int64Value returns an Int64 value.
func Int64Value(i int64) Value { return Value{kind: KindInt64, data: i} }

// DoubleValue returns a Double value.
func DoubleValue(f float64) Value { return Value{kind: KindDouble, data: f} }

// DecimalValue returns a Decimal value.
func DecimalValue(d primitive.Decimal128) Value { return Value{kind: KindDecimal, data: d} }

// BooleanValue returns a Boolean value.
func BooleanValue(b bool) Value { return Value{kind: KindBoolean, data: b} }

// DateTimeValue returns a DateTime value. Precision is truncated to
// milliseconds, which is what the storage format keeps.
func DateTimeValue(t time.Time) Value {
	return DateTimeMillis(t.UnixMilli())
}

// DateTimeMillis returns a DateTime value from milliseconds since the Unix
// epoch.
func DateTimeMillis(ms int64) Value { return Value{kind: KindDateTime, data: ms} }

// BinaryValue returns a Binary value. The slice is not copied.
func BinaryValue(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{kind: KindBinary, data: b}
}

// ObjectIDValue returns an ObjectId value.
func ObjectIDValue(id primitive.ObjectID) Value { return Value{kind: KindObjectID, data: id} }

// GUIDValue returns a Guid value.
func GUIDValue(id uuid.UUID) Value { return Value{kind: KindGUID, data: id} }

// ArrayValue returns an Array value holding the given elements.
func ArrayValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, data: items}
}

// DocumentValue returns a Document value. A nil document is stored as an
// empty one.
func DocumentValue(d *Document) Value {
	if d == nil {
		d = NewDocument()
	}
	return Value{kind: KindDocument, data: d}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the payload of a String value.
func (v Value) AsString() (string, bool) {
	s, ok := v.data.(string)
	return s, ok && v.kind == KindString
}

// AsInt32 returns the payload of an Int32 value.
func (v Value) AsInt32() (int32, bool) {
	i, ok := v.data.(int32)
	return i, ok
}

// AsInt64 returns the payload of an Int64 value.
func (v Value) AsInt64() (int64, bool) {
	if v.kind != KindInt64 {
		return 0, false
	}
	return v.data.(int64), true
}

// AsDouble returns the payload of a Double value.
func (v Value) AsDouble() (float64, bool) {
	f, ok := v.data.(float64)
	return f, ok
}

// AsDecimal returns the payload of a Decimal value.
func (v Value) AsDecimal() (primitive.Decimal128, bool) {
	d, ok := v.data.(primitive.Decimal128)
	return d, ok
}

// AsBoolean returns the payload of a Boolean value.
func (v Value) AsBoolean() (bool, bool) {
	b, ok := v.data.(bool)
	return b, ok
}

// AsDateTime returns the payload of a DateTime value, in UTC.
func (v Value) AsDateTime() (time.Time, bool) {
	if v.kind != KindDateTime {
		return time.Time{}, false
	}
	return time.UnixMilli(v.data.(int64)).UTC(), true
}

// AsBinary returns the payload of a Binary value.
func (v Value) AsBinary() ([]byte, bool) {
	b, ok := v.data.([]byte)
	return b, ok
}

// AsObjectID returns the payload of an ObjectId value.
func (v Value) AsObjectID() (primitive.ObjectID, bool) {
	id, ok := v.data.(primitive.ObjectID)
	return id, ok
}

// AsGUID returns the payload of a Guid value.
func (v Value) AsGUID() (uuid.UUID, bool) {
	id, ok := v.data.(uuid.UUID)
	return id, ok
}

// AsArray returns the elements of an Array value.
func (v Value) AsArray() ([]Value, bool) {
	a, ok := v.data.([]Value)
	return a, ok
}

// AsDocument returns the payload of a Document value.
func (v Value) AsDocument() (*Document, bool) {
	d, ok := v.data.(*Document)
	return d, ok
}

// Float returns the numeric payload of v as a float64. The second result is
// false for non-numeric kinds.
func (v Value) Float() (float64, bool) {
	switch t := v.data.(type) {
	case int32:
		return float64(t), true
	case int64:
		if v.kind == KindDateTime {
			return 0, false
		}
		return float64(t), true
	case float64:
		return t, true
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch t := v.data.(type) {
	case []byte:
		return BinaryValue(append([]byte{}, t...))
	case []Value:
		items := make([]Value, len(t))
		for n, item := range t {
			items[n] = item.Clone()
		}
		return ArrayValue(items...)
	case *Document:
		return DocumentValue(t.Clone())
	default:
		return v
	}
}

// Equal reports whether v and o hold the same variant with the same payload.
// Values of different kinds are never equal, even when numerically the same.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch a := v.data.(type) {
	case nil:
		return true
	case float64:
		b := o.data.(float64)
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	case []byte:
		return string(a) == string(o.data.([]byte))
	case []Value:
		b := o.data.([]Value)
		if len(a) != len(b) {
			return false
		}
		for n := range a {
			if !a[n].Equal(b[n]) {
				return false
			}
		}
		return true
	case *Document:
		return a.Equal(o.data.(*Document))
	default:
		return v.data == o.data
	}
}

// String returns the native debug representation of v, in a shell-like
// notation that keeps the type visible (ObjectId("..."), ISODate("...")).
func (v Value) String() string {
	var sb strings.Builder
	v.writeDebug(&sb)
	return sb.String()
}

func (v Value) writeDebug(sb *strings.Builder) {
	switch t := v.data.(type) {
	case nil:
		sb.WriteString("null")
	case string:
		sb.WriteString(strconv.Quote(t))
	case int32:
		sb.WriteString(strconv.FormatInt(int64(t), 10))
	case int64:
		if v.kind == KindDateTime {
			tm, _ := v.AsDateTime()
			fmt.Fprintf(sb, "ISODate(%q)", tm.Format("2006-01-02T15:04:05.000Z07:00"))
			return
		}
		fmt.Fprintf(sb, "NumberLong(%d)", t)
	case float64:
		sb.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	case primitive.Decimal128:
		fmt.Fprintf(sb, "NumberDecimal(%q)", t.String())
	case bool:
		sb.WriteString(strconv.FormatBool(t))
	case []byte:
		fmt.Fprintf(sb, "BinData(0, %q)", base64.StdEncoding.EncodeToString(t))
	case primitive.ObjectID:
		fmt.Fprintf(sb, "ObjectId(%q)", t.Hex())
	case uuid.UUID:
		fmt.Fprintf(sb, "UUID(%q)", t.String())
	case []Value:
		sb.WriteByte('[')
		for n, item := range t {
			if n > 0 {
				sb.WriteString(", ")
			}
			item.writeDebug(sb)
		}
		sb.WriteByte(']')
	case *Document:
		t.writeDebug(sb)
	}
}
