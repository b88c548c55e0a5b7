// Package data builds [domain.Document] values from JSON text and from Go
// values.
package data

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	goreflect "github.com/goccy/go-reflect"
	"github.com/google/uuid"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TagName is the struct tag read when converting structs to documents.
const TagName = "dbexplorer"

// ErrDocumentType is returned when a Go value, or one of its sub values, has
// no document representation.
type ErrDocumentType struct {
	Type string
}

// Error implements [error].
func (e ErrDocumentType) Error() string {
	return fmt.Sprintf("cannot convert %s to a document value", e.Type)
}

// NewDocument converts a struct, a map with string keys or a document into a
// new [domain.Document]. Nil returns an empty document. Map keys are sorted,
// struct fields keep their declaration order.
func NewDocument(in any) (*domain.Document, error) {
	if in == nil {
		return domain.NewDocument(), nil
	}
	v, err := ValueOf(in)
	if err != nil {
		return nil, err
	}
	switch v.Kind() {
	case domain.KindDocument:
		doc, _ := v.AsDocument()
		return doc, nil
	case domain.KindNull:
		return domain.NewDocument(), nil
	default:
		return nil, ErrDocumentType{Type: fmt.Sprintf("%T", in)}
	}
}

// ValueOf converts a Go value into a [domain.Value].
func ValueOf(in any) (domain.Value, error) {
	if v, ok := simpleValue(in); ok {
		return v, nil
	}
	return reflectValue(goreflect.ValueNoEscapeOf(in))
}

func simpleValue(in any) (domain.Value, bool) {
	switch t := in.(type) {
	case nil:
		return domain.NullValue(), true
	case domain.Value:
		return t, true
	case *domain.Document:
		if t == nil {
			return domain.NullValue(), true
		}
		return domain.DocumentValue(t.Clone()), true
	case string:
		return domain.StringValue(t), true
	case bool:
		return domain.BooleanValue(t), true
	case int8:
		return domain.Int32Value(int32(t)), true
	case int16:
		return domain.Int32Value(int32(t)), true
	case int32:
		return domain.Int32Value(t), true
	case uint8:
		return domain.Int32Value(int32(t)), true
	case uint16:
		return domain.Int32Value(int32(t)), true
	case int:
		return domain.Int64Value(int64(t)), true
	case int64:
		return domain.Int64Value(t), true
	case uint32:
		return domain.Int64Value(int64(t)), true
	case float32:
		return domain.DoubleValue(float64(t)), true
	case float64:
		return domain.DoubleValue(t), true
	case time.Time:
		return domain.DateTimeValue(t), true
	case time.Duration:
		return domain.Int64Value(int64(t)), true
	case []byte:
		return domain.BinaryValue(slices.Clone(t)), true
	case primitive.ObjectID:
		return domain.ObjectIDValue(t), true
	case primitive.Decimal128:
		return domain.DecimalValue(t), true
	case primitive.DateTime:
		return domain.DateTimeMillis(int64(t)), true
	case uuid.UUID:
		return domain.GUIDValue(t), true
	default:
		return domain.Value{}, false
	}
}

func reflectValue(r goreflect.Value) (domain.Value, error) {
	for r.Kind() == goreflect.Ptr || r.Kind() == goreflect.Interface {
		if r.IsNil() {
			return domain.NullValue(), nil
		}
		r = r.Elem()
	}
	if !r.IsValid() {
		return domain.NullValue(), nil
	}
	if r.CanInterface() {
		if v, ok := simpleValue(r.Interface()); ok {
			return v, nil
		}
	}
	switch r.Kind() {
	case goreflect.String:
		return domain.StringValue(r.String()), nil
	case goreflect.Bool:
		return domain.BooleanValue(r.Bool()), nil
	case goreflect.Int8, goreflect.Int16, goreflect.Int32:
		return domain.Int32Value(int32(r.Int())), nil
	case goreflect.Int, goreflect.Int64:
		return domain.Int64Value(r.Int()), nil
	case goreflect.Uint8, goreflect.Uint16:
		return domain.Int32Value(int32(r.Uint())), nil
	case goreflect.Uint, goreflect.Uint32, goreflect.Uint64, goreflect.Uintptr:
		u := r.Uint()
		if u > math.MaxInt64 {
			return domain.Value{}, ErrDocumentType{Type: r.Type().String()}
		}
		return domain.Int64Value(int64(u)), nil
	case goreflect.Float32, goreflect.Float64:
		return domain.DoubleValue(r.Float()), nil
	case goreflect.Slice:
		if r.IsNil() {
			return domain.NullValue(), nil
		}
		fallthrough
	case goreflect.Array:
		return reflectList(r)
	case goreflect.Map:
		if r.IsNil() {
			return domain.NullValue(), nil
		}
		return reflectMap(r)
	case goreflect.Struct:
		return reflectStruct(r)
	default:
		return domain.Value{}, ErrDocumentType{Type: r.Type().String()}
	}
}

func reflectList(r goreflect.Value) (domain.Value, error) {
	items := make([]domain.Value, r.Len())
	for i := range items {
		v, err := reflectValue(r.Index(i))
		if err != nil {
			return domain.Value{}, err
		}
		items[i] = v
	}
	return domain.ArrayValue(items...), nil
}

func reflectMap(r goreflect.Value) (domain.Value, error) {
	if r.Type().Key().Kind() != goreflect.String {
		return domain.Value{}, ErrDocumentType{Type: r.Type().String()}
	}
	keys := r.MapKeys()
	slices.SortFunc(keys, func(a, b goreflect.Value) int {
		return strings.Compare(a.String(), b.String())
	})
	doc := domain.NewDocument()
	for _, k := range keys {
		v, err := reflectValue(r.MapIndex(k))
		if err != nil {
			return domain.Value{}, err
		}
		doc.Set(k.String(), v)
	}
	return domain.DocumentValue(doc), nil
}

func reflectStruct(r goreflect.Value) (domain.Value, error) {
	typ := r.Type()
	doc := domain.NewDocument()
	for n := range r.NumField() {
		field := typ.Field(n)
		if field.PkgPath != "" {
			continue
		}
		name, ok := fieldName(r.Field(n), field)
		if !ok {
			continue
		}
		v, err := reflectValue(r.Field(n))
		if err != nil {
			return domain.Value{}, err
		}
		doc.Set(name, v)
	}
	return domain.DocumentValue(doc), nil
}

// fieldName reads the struct tag of a field, returning false for skipped
// fields.
func fieldName(r goreflect.Value, typ goreflect.StructField) (string, bool) {
	name := typ.Name
	tag, ok := typ.Tag.Lookup(TagName)
	if !ok {
		return name, true
	}
	if tag == "-" {
		return "", false
	}
	segments := strings.Split(tag, ",")
	if segments[0] != "" {
		name = segments[0]
	}
	segments = segments[1:]
	if slices.Contains(segments, "omitempty") && isNullable(typ.Type) && r.IsNil() {
		return "", false
	}
	if slices.Contains(segments, "omitzero") && r.IsZero() {
		return "", false
	}
	return name, true
}

func isNullable(t goreflect.Type) bool {
	switch t.Kind() {
	case goreflect.Ptr, goreflect.Slice, goreflect.Map, goreflect.Interface:
		return true
	default:
		return false
	}
}
