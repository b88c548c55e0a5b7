// Package view contains the default [domain.DocumentView] implementation.
package view

import (
	"strconv"
	"time"

	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/converter"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/decoder"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identifier sentinels returned by [DocumentView.ID].
const (
	NoID      = "No ID"
	InvalidID = "Invalid ID"
)

// DocumentView implements [domain.DocumentView].
type DocumentView struct {
	conv domain.Converter
	dec  domain.Decoder
	doc  *domain.Document
	json string
	id   string
}

// NewDocumentView wraps doc, computing its JSON text and identifier.
func NewDocumentView(doc *domain.Document, options ...Option) domain.DocumentView {
	v := DocumentView{
		conv: converter.NewConverter(),
		dec:  decoder.NewDecoder(),
	}
	for _, option := range options {
		option(&v)
	}
	v.SetDocument(doc)
	return &v
}

// NewFactory returns a [domain.DocumentViewFactory] that applies options to
// every view it builds.
func NewFactory(options ...Option) domain.DocumentViewFactory {
	return func(doc *domain.Document) domain.DocumentView {
		return NewDocumentView(doc, options...)
	}
}

// Document implements [domain.DocumentView].
func (v *DocumentView) Document() *domain.Document {
	return v.doc
}

// SetDocument implements [domain.DocumentView]. When the document cannot be
// converted to JSON its debug representation is cached instead.
func (v *DocumentView) SetDocument(doc *domain.Document) {
	if doc == nil {
		doc = domain.NewDocument()
	}
	v.doc = doc
	v.id = identifier(doc)
	text, err := v.conv.Marshal(doc, true)
	if err != nil || text == "" {
		text = doc.String()
	}
	v.json = text
}

// ID implements [domain.DocumentView].
func (v *DocumentView) ID() string {
	return v.id
}

// IDValue implements [domain.DocumentView].
func (v *DocumentView) IDValue() (domain.Value, bool) {
	return v.doc.ID()
}

// ObjectID implements [domain.DocumentView].
func (v *DocumentView) ObjectID() (primitive.ObjectID, bool) {
	id, ok := v.doc.ID()
	if !ok {
		return primitive.NilObjectID, false
	}
	return id.AsObjectID()
}

// JSONString implements [domain.DocumentView].
func (v *DocumentView) JSONString() string {
	return v.json
}

// Decode implements [domain.DocumentView].
func (v *DocumentView) Decode(target any) error {
	return v.dec.Decode(v.doc, target)
}

// String implements [fmt.Stringer].
func (v *DocumentView) String() string {
	return v.json
}

func identifier(doc *domain.Document) (s string) {
	defer func() {
		if recover() != nil {
			s = InvalidID
		}
	}()
	id, ok := doc.ID()
	if !ok {
		return NoID
	}
	return formatID(id)
}

var formatID = IDString

// IDString returns the text form of an identifier value.
func IDString(id domain.Value) string {
	switch id.Kind() {
	case domain.KindObjectID:
		oid, _ := id.AsObjectID()
		return oid.Hex()
	case domain.KindString:
		s, _ := id.AsString()
		return s
	case domain.KindInt32:
		i, _ := id.AsInt32()
		return strconv.FormatInt(int64(i), 10)
	case domain.KindInt64:
		i, _ := id.AsInt64()
		return strconv.FormatInt(i, 10)
	case domain.KindDouble:
		f, _ := id.AsDouble()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case domain.KindDecimal:
		d, _ := id.AsDecimal()
		return d.String()
	case domain.KindBoolean:
		b, _ := id.AsBoolean()
		return strconv.FormatBool(b)
	case domain.KindDateTime:
		t, _ := id.AsDateTime()
		return t.Format(time.RFC3339Nano)
	default:
		return id.String()
	}
}
