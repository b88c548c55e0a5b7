// Package decoder contains the default [domain.Decoder] implementation.
package decoder

import (
	"fmt"

	"github.com/goccy/go-reflect"
	"github.com/mitchellh/mapstructure"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/data"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

// Decoder implements domain.Decoder.
type Decoder struct{}

// NewDecoder returns a new implementation of domain.Decoder.
func NewDecoder() domain.Decoder {
	return &Decoder{}
}

// Decode implements domain.Decoder. Source is usually a [*domain.Document] or
// a [domain.Value]; both are turned into plain Go values (maps, slices and
// the driver scalar types) before being decoded into target.
func (d *Decoder) Decode(source any, target any) error {
	if target == nil {
		return domain.ErrTargetNil{}
	}

	value := reflect.ValueNoEscapeOf(target)
	if value.Kind() != reflect.Ptr {
		return domain.ErrNonPointer
	}

	if doc, ok := target.(*domain.Document); ok {
		if src, ok := source.(*domain.Document); ok {
			*doc = *src.Clone()
			return nil
		}
	}

	source = d.plain(source)

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: data.TagName,
		Result:  target,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(source); err != nil {
		errDec := domain.ErrDecode{Source: source, Target: target}
		return fmt.Errorf("%w: %w", errDec, err)
	}
	return nil
}

func (d *Decoder) plain(value any) any {
	switch t := value.(type) {
	case *domain.Document:
		if t == nil {
			return nil
		}
		doc := make(map[string]any, t.Len())
		for k, v := range t.Iter() {
			doc[k] = d.plainValue(v)
		}
		return doc
	case domain.Value:
		return d.plainValue(t)
	case []domain.Value:
		lst := make([]any, len(t))
		for n, v := range t {
			lst[n] = d.plainValue(v)
		}
		return lst
	default:
		return value
	}
}

func (d *Decoder) plainValue(v domain.Value) any {
	switch v.Kind() {
	case domain.KindString:
		s, _ := v.AsString()
		return s
	case domain.KindInt32:
		i, _ := v.AsInt32()
		return i
	case domain.KindInt64:
		i, _ := v.AsInt64()
		return i
	case domain.KindDouble:
		f, _ := v.AsDouble()
		return f
	case domain.KindDecimal:
		dec, _ := v.AsDecimal()
		return dec
	case domain.KindBoolean:
		b, _ := v.AsBoolean()
		return b
	case domain.KindDateTime:
		t, _ := v.AsDateTime()
		return t
	case domain.KindBinary:
		b, _ := v.AsBinary()
		return b
	case domain.KindObjectID:
		id, _ := v.AsObjectID()
		return id
	case domain.KindGUID:
		id, _ := v.AsGUID()
		return id
	case domain.KindArray:
		items, _ := v.AsArray()
		return d.plain(items)
	case domain.KindDocument:
		doc, _ := v.AsDocument()
		return d.plain(doc)
	default:
		return nil
	}
}
