// Package deserializer contains the default [domain.Deserializer]
// implementation, which reads BSON documents.
package deserializer

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.mongodb.org/mongo-driver/bson"
)

// NewDeserializer returns a new instance of domain.Deserializer.
func NewDeserializer(options ...Option) domain.Deserializer {
	var d Deserializer
	for _, option := range options {
		option(&d)
	}
	return &d
}

// Deserializer implements [domain.Deserializer].
type Deserializer struct {
	cipher domain.Cipher
}

// Deserialize implements [domain.Deserializer].
func (d *Deserializer) Deserialize(ctx context.Context, b []byte) (*domain.Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if d.cipher != nil {
		var err error
		if b, err = d.cipher.Open(b); err != nil {
			return nil, err
		}
	}
	raw := bson.Raw(b)
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	return FromRaw(raw)
}

// FromRaw converts a BSON document into a [domain.Document], keeping field
// order. Binary payloads are copied, so raw may be reused afterwards.
func FromRaw(raw bson.Raw) (*domain.Document, error) {
	elems, err := raw.Elements()
	if err != nil {
		return nil, err
	}
	doc := domain.NewDocument()
	for _, elem := range elems {
		key, err := elem.KeyErr()
		if err != nil {
			return nil, err
		}
		v, err := FromRawValue(elem.Value())
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		doc.Set(key, v)
	}
	return doc, nil
}

// FromRawValue converts one BSON value. Types the value model has no variant
// for are mapped to the closest one.
func FromRawValue(rv bson.RawValue) (domain.Value, error) {
	switch rv.Type {
	case bson.TypeDouble:
		return domain.DoubleValue(rv.Double()), nil
	case bson.TypeString:
		return domain.StringValue(rv.StringValue()), nil
	case bson.TypeEmbeddedDocument:
		sub, err := FromRaw(rv.Document())
		if err != nil {
			return domain.Value{}, err
		}
		return domain.DocumentValue(sub), nil
	case bson.TypeArray:
		values, err := rv.Array().Values()
		if err != nil {
			return domain.Value{}, err
		}
		items := make([]domain.Value, len(values))
		for n, item := range values {
			if items[n], err = FromRawValue(item); err != nil {
				return domain.Value{}, err
			}
		}
		return domain.ArrayValue(items...), nil
	case bson.TypeBinary:
		subtype, data := rv.Binary()
		if subtype == bson.TypeBinaryUUID && len(data) == 16 {
			id, err := uuid.FromBytes(data)
			if err != nil {
				return domain.Value{}, err
			}
			return domain.GUIDValue(id), nil
		}
		return domain.BinaryValue(slices.Clone(data)), nil
	case bson.TypeObjectID:
		return domain.ObjectIDValue(rv.ObjectID()), nil
	case bson.TypeBoolean:
		return domain.BooleanValue(rv.Boolean()), nil
	case bson.TypeDateTime:
		return domain.DateTimeMillis(rv.DateTime()), nil
	case bson.TypeNull, bson.TypeUndefined, bson.TypeMinKey, bson.TypeMaxKey:
		return domain.NullValue(), nil
	case bson.TypeRegex:
		pattern, options := rv.Regex()
		return domain.StringValue("/" + pattern + "/" + options), nil
	case bson.TypeJavaScript:
		return domain.StringValue(rv.JavaScript()), nil
	case bson.TypeSymbol:
		return domain.StringValue(rv.Symbol()), nil
	case bson.TypeDBPointer, bson.TypeCodeWithScope:
		return domain.StringValue(rv.String()), nil
	case bson.TypeInt32:
		return domain.Int32Value(rv.Int32()), nil
	case bson.TypeTimestamp:
		t, i := rv.Timestamp()
		return domain.Int64Value(int64(t)<<32 | int64(i)), nil
	case bson.TypeInt64:
		return domain.Int64Value(rv.Int64()), nil
	case bson.TypeDecimal128:
		return domain.DecimalValue(rv.Decimal128()), nil
	default:
		return domain.Value{}, fmt.Errorf("unsupported BSON type %s", rv.Type)
	}
}
