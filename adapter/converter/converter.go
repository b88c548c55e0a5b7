// Package converter maps document values to JSON text and back.
package converter

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"strings"

	"github.com/tailscale/hujson"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/data"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/deserializer"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// DateTimeLayout is the layout used for DateTime values without
// milliseconds.
const DateTimeLayout = "2006-01-02T15:04:05"

const dateTimeMillisLayout = DateTimeLayout + ".000"

const indentation = "  "

// Converter implements [domain.Converter].
type Converter struct {
	logger *zap.SugaredLogger
}

// NewConverter returns a new implementation of domain.Converter.
func NewConverter(options ...Option) domain.Converter {
	c := Converter{logger: zap.NewNop().Sugar()}
	for _, option := range options {
		option(&c)
	}
	return &c
}

// ToJSON implements [domain.Converter].
func (c *Converter) ToJSON(v domain.Value) any {
	switch v.Kind() {
	case domain.KindNull:
		return nil
	case domain.KindString:
		s, _ := v.AsString()
		return validUTF8(s)
	case domain.KindInt32:
		i, _ := v.AsInt32()
		return int64(i)
	case domain.KindInt64:
		i, _ := v.AsInt64()
		return i
	case domain.KindDouble:
		f, _ := v.AsDouble()
		return jsonFloat(f)
	case domain.KindDecimal:
		d, _ := v.AsDecimal()
		return d.String()
	case domain.KindBoolean:
		b, _ := v.AsBoolean()
		return b
	case domain.KindDateTime:
		t, _ := v.AsDateTime()
		if t.Nanosecond() != 0 {
			return t.Format(dateTimeMillisLayout)
		}
		return t.Format(DateTimeLayout)
	case domain.KindBinary:
		b, _ := v.AsBinary()
		return base64.StdEncoding.EncodeToString(b)
	case domain.KindObjectID:
		id, _ := v.AsObjectID()
		return id.Hex()
	case domain.KindGUID:
		id, _ := v.AsGUID()
		return id.String()
	case domain.KindArray:
		items, _ := v.AsArray()
		nodes := make([]any, len(items))
		for n, item := range items {
			nodes[n] = c.ToJSON(item)
		}
		return nodes
	case domain.KindDocument:
		doc, _ := v.AsDocument()
		return c.object(doc)
	default:
		return v.String()
	}
}

func jsonFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		// -0 would read back as the integer 0
		return 0.0
	default:
		return f
	}
}

// validUTF8 replaces invalid bytes up front so that the text written is the
// same before and after a round trip.
func validUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

func (c *Converter) object(doc *domain.Document) domain.JSONObject {
	obj := make(domain.JSONObject, 0, doc.Len())
	for k, v := range doc.Iter() {
		obj = append(obj, domain.JSONMember{Key: validUTF8(k), Value: c.ToJSON(v)})
	}
	return obj
}

// Marshal implements [domain.Converter].
func (c *Converter) Marshal(doc *domain.Document, indent bool) (string, error) {
	return c.marshal(c.object(doc), indent)
}

// MarshalArray implements [domain.Converter].
func (c *Converter) MarshalArray(docs []*domain.Document, indent bool) (string, error) {
	nodes := make([]any, len(docs))
	for n, doc := range docs {
		nodes[n] = c.object(doc)
	}
	return c.marshal(nodes, indent)
}

func (c *Converter) marshal(node any, indent bool) (string, error) {
	b, err := domain.MarshalJSONValue(node)
	if err != nil {
		return "", err
	}
	if !indent {
		return string(b), nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", indentation); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Parse implements [domain.Converter]. Extended JSON wrappers such as
// {"$oid": ...} or {"$date": ...} are understood; plain JSON that the
// Extended JSON reader refuses is read by the fallback parser.
func (c *Converter) Parse(text string) (*domain.Document, error) {
	std, err := hujson.Standardize([]byte(text))
	if err != nil {
		return data.ParseDocument([]byte(text))
	}

	var raw bson.Raw
	if err := bson.UnmarshalExtJSON(std, false, &raw); err == nil {
		doc, err := deserializer.FromRaw(raw)
		if err == nil {
			data.CoerceID(doc)
			return doc, nil
		}
		c.logger.Debugw("cannot read extended JSON document", "error", err)
	} else {
		c.logger.Debugw("using fallback JSON parser", "error", err)
	}
	return data.ParseDocument(std)
}

// ParseArray implements [domain.Converter].
func (c *Converter) ParseArray(text string) ([]*domain.Document, error) {
	std, err := hujson.Standardize([]byte(text))
	if err != nil {
		return data.ParseDocuments([]byte(text))
	}
	docs, err := c.parseExtArray(std)
	if err == nil {
		return docs, nil
	}
	c.logger.Debugw("using fallback JSON parser", "error", err)
	return data.ParseDocuments(std)
}

func (c *Converter) parseExtArray(text []byte) ([]*domain.Document, error) {
	// the Extended JSON reader only accepts documents at the top level
	wrapped := make([]byte, 0, len(text)+7)
	wrapped = append(wrapped, `{"d":`...)
	wrapped = append(wrapped, text...)
	wrapped = append(wrapped, '}')

	var raw bson.Raw
	if err := bson.UnmarshalExtJSON(wrapped, false, &raw); err != nil {
		return nil, err
	}
	arr, ok := raw.Lookup("d").ArrayOK()
	if !ok {
		return nil, data.ErrExpectedArray
	}
	values, err := arr.Values()
	if err != nil {
		return nil, err
	}
	docs := make([]*domain.Document, len(values))
	for n, item := range values {
		sub, ok := item.DocumentOK()
		if !ok {
			return nil, data.ErrExpectedObject
		}
		doc, err := deserializer.FromRaw(sub)
		if err != nil {
			return nil, err
		}
		data.CoerceID(doc)
		docs[n] = doc
	}
	return docs, nil
}
