package domain

import (
	"bytes"
	"encoding/json"
)

// JSONMember is one key/value pair of a [JSONObject].
type JSONMember struct {
	Key   string
	Value any
}

// JSONObject is a JSON object node that keeps its key order when marshaled.
type JSONObject []JSONMember

// Get returns the value under key.
func (o JSONObject) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// MarshalJSON implements [json.Marshaler].
func (o JSONObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for n, m := range o {
		if n > 0 {
			buf.WriteByte(',')
		}
		k, err := MarshalJSONValue(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := MarshalJSONValue(m.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSONValue marshals v like [json.Marshal] but without escaping HTML
// characters, so that document text is shown as stored.
func MarshalJSONValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
