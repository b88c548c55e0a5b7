package domain

import (
	"iter"
	"strconv"
	"strings"
)

// IDField is the reserved field used as primary key inside a collection.
const IDField = "_id"

// Field is a single key/value pair of a [Document].
type Field struct {
	Key   string
	Value Value
}

// Document is an ordered mapping of unique field names to values. Insertion
// order is preserved and is the order used when the document is serialized.
// A nil *Document behaves as an empty, read-only document.
type Document struct {
	fields []Field
}

// NewDocument returns a document with the given fields. When a key repeats,
// the last value wins but the first position is kept.
func NewDocument(fields ...Field) *Document {
	d := &Document{fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		d.Set(f.Key, f.Value)
	}
	return d
}

// Len returns the number of fields.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.fields)
}

func (d *Document) index(key string) int {
	if d == nil {
		return -1
	}
	for n, f := range d.fields {
		if f.Key == key {
			return n
		}
	}
	return -1
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (Value, bool) {
	if i := d.index(key); i >= 0 {
		return d.fields[i].Value, true
	}
	return Value{}, false
}

// Has reports whether key is set.
func (d *Document) Has(key string) bool {
	return d.index(key) >= 0
}

// Set replaces the value under key, or appends a new field.
func (d *Document) Set(key string, v Value) {
	if i := d.index(key); i >= 0 {
		d.fields[i].Value = v
		return
	}
	d.fields = append(d.fields, Field{Key: key, Value: v})
}

// Delete removes key, reporting whether it was present.
func (d *Document) Delete(key string) bool {
	i := d.index(key)
	if i < 0 {
		return false
	}
	d.fields = append(d.fields[:i], d.fields[i+1:]...)
	return true
}

// ID returns the value of the _id field.
func (d *Document) ID() (Value, bool) {
	return d.Get(IDField)
}

// SetID sets the _id field. A new _id is placed first.
func (d *Document) SetID(v Value) {
	if i := d.index(IDField); i >= 0 {
		d.fields[i].Value = v
		return
	}
	d.fields = append([]Field{{Key: IDField, Value: v}}, d.fields...)
}

// Keys returns the field names in order.
func (d *Document) Keys() []string {
	keys := make([]string, d.Len())
	for n := range keys {
		keys[n] = d.fields[n].Key
	}
	return keys
}

// Fields returns a copy of the fields in order.
func (d *Document) Fields() []Field {
	if d == nil {
		return nil
	}
	return append([]Field(nil), d.fields...)
}

// Iter iterates over the fields in order.
func (d *Document) Iter() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if d == nil {
			return
		}
		for _, f := range d.fields {
			if !yield(f.Key, f.Value) {
				return
			}
		}
	}
}

// Lookup follows a path of field names into nested documents. Numeric parts
// index into arrays.
func (d *Document) Lookup(path ...string) (Value, bool) {
	if len(path) == 0 {
		return Value{}, false
	}
	v, ok := d.Get(path[0])
	for _, part := range path[1:] {
		if !ok {
			return Value{}, false
		}
		switch v.Kind() {
		case KindDocument:
			sub, _ := v.AsDocument()
			v, ok = sub.Get(part)
		case KindArray:
			items, _ := v.AsArray()
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(items) {
				return Value{}, false
			}
			v = items[i]
		default:
			return Value{}, false
		}
	}
	return v, ok
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := &Document{fields: make([]Field, d.Len())}
	for n := range c.fields {
		c.fields[n] = Field{Key: d.fields[n].Key, Value: d.fields[n].Value.Clone()}
	}
	return c
}

// Equal reports whether both documents have the same fields, in the same
// order, with equal values.
func (d *Document) Equal(o *Document) bool {
	if d.Len() != o.Len() {
		return false
	}
	for n := range d.Len() {
		a, b := d.fields[n], o.fields[n]
		if a.Key != b.Key || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// String returns the native debug representation of the document.
func (d *Document) String() string {
	var sb strings.Builder
	d.writeDebug(&sb)
	return sb.String()
}

func (d *Document) writeDebug(sb *strings.Builder) {
	sb.WriteByte('{')
	for n, f := range d.Fields() {
		if n > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(f.Key))
		sb.WriteString(": ")
		f.Value.writeDebug(sb)
	}
	sb.WriteByte('}')
}
