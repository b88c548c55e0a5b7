// Package serializer contains the default [domain.Serializer] implementation,
// which stores documents as BSON.
package serializer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrFieldName is returned for field names that BSON cannot store.
var ErrFieldName = errors.New("field names cannot contain a NUL character")

// Serializer implements domain.Serializer.
type Serializer struct {
	cipher domain.Cipher
}

// NewSerializer returns a new implementation of domain.Serializer.
func NewSerializer(options ...Option) domain.Serializer {
	var s Serializer
	for _, option := range options {
		option(&s)
	}
	return &s
}

// Serialize implements domain.Serializer.
func (s *Serializer) Serialize(ctx context.Context, doc *domain.Document) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	d, err := ToD(doc)
	if err != nil {
		return nil, err
	}
	b, err := bson.Marshal(d)
	if err != nil {
		return nil, err
	}
	if s.cipher == nil {
		return b, nil
	}
	return s.cipher.Seal(b)
}

// ToD converts a document into the driver representation, keeping field
// order.
func ToD(doc *domain.Document) (primitive.D, error) {
	d := make(primitive.D, 0, doc.Len())
	for k, v := range doc.Iter() {
		if strings.IndexByte(k, 0) >= 0 {
			return nil, fmt.Errorf("%w: %q", ErrFieldName, k)
		}
		val, err := toPrimitive(v)
		if err != nil {
			return nil, err
		}
		d = append(d, primitive.E{Key: k, Value: val})
	}
	return d, nil
}

func toPrimitive(v domain.Value) (any, error) {
	switch v.Kind() {
	case domain.KindNull:
		return primitive.Null{}, nil
	case domain.KindString:
		s, _ := v.AsString()
		return s, nil
	case domain.KindInt32:
		i, _ := v.AsInt32()
		return i, nil
	case domain.KindInt64:
		i, _ := v.AsInt64()
		return i, nil
	case domain.KindDouble:
		f, _ := v.AsDouble()
		return f, nil
	case domain.KindDecimal:
		d, _ := v.AsDecimal()
		return d, nil
	case domain.KindBoolean:
		b, _ := v.AsBoolean()
		return b, nil
	case domain.KindDateTime:
		t, _ := v.AsDateTime()
		return primitive.NewDateTimeFromTime(t), nil
	case domain.KindBinary:
		b, _ := v.AsBinary()
		return primitive.Binary{Subtype: bson.TypeBinaryGeneric, Data: b}, nil
	case domain.KindObjectID:
		id, _ := v.AsObjectID()
		return id, nil
	case domain.KindGUID:
		id, _ := v.AsGUID()
		return primitive.Binary{Subtype: bson.TypeBinaryUUID, Data: id[:]}, nil
	case domain.KindArray:
		items, _ := v.AsArray()
		a := make(primitive.A, len(items))
		for n, item := range items {
			p, err := toPrimitive(item)
			if err != nil {
				return nil, err
			}
			a[n] = p
		}
		return a, nil
	case domain.KindDocument:
		sub, _ := v.AsDocument()
		return ToD(sub)
	default:
		return nil, fmt.Errorf("unknown value kind %s", v.Kind())
	}
}
