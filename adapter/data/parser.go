package data

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrTrailingData is returned when there are unskippable bytes after
	// the JSON data structure in the content ends.
	ErrTrailingData = errors.New("trailing data after JSON")
	// ErrInvalidUTF8Char is returned when the parser finds an incomplete or
	// invalid UTF-8 character.
	ErrInvalidUTF8Char = errors.New("invalid utf8 char")
	// ErrExpectedString is returned when a JSON object is started, but no
	// string is found for the key.
	ErrExpectedString = errors.New("expected string")
	// ErrUnterminatedString is returned when a string starts but is not
	// terminated before end of bytes.
	ErrUnterminatedString = errors.New("unterminated string")
	// ErrNoComma is returned when there is no comma between segments of
	// data in objects or arrays.
	ErrNoComma = errors.New("expected comma")
	// ErrNoColon is returned when there is no colon after the definition of
	// a key in a JSON object.
	ErrNoColon = errors.New("expected colon")
	// ErrInvalidNumber is returned when a non-null non-bool literal could
	// not be correctly read as a number.
	ErrInvalidNumber = errors.New("invalid JSON number")
	// ErrExpectedObject is returned when a document was expected but the
	// text holds another JSON type.
	ErrExpectedObject = errors.New("expected JSON object")
	// ErrExpectedArray is returned when an array of documents was expected
	// but the text holds another JSON type.
	ErrExpectedArray = errors.New("expected JSON array")
)

// ErrInvalidLiteral when a known token (either true, false or null) starts but
// is not correctly finished.
type ErrInvalidLiteral struct {
	Value string
}

// Error implements [error].
func (e ErrInvalidLiteral) Error() string {
	return fmt.Sprintf("invalid literal %q", e.Value)
}

// ErrUnknownEscapeChar is returned when the escape character (\) does not
// precede a valid escapable char (any of "\/'bfnrtu).
type ErrUnknownEscapeChar struct {
	Char byte
}

// Error implements [error].
func (e ErrUnknownEscapeChar) Error() string {
	return fmt.Sprintf("unknown escape char, %q", e.Char)
}

// ErrInvalidControlChar indicates an invalid control character was found during
// JSON conversion.
type ErrInvalidControlChar struct {
	Char byte
}

// Error implements [error].
func (e ErrInvalidControlChar) Error() string {
	return fmt.Sprintf("invalid control char, %q", e.Char)
}

const fragmentRadius = 16

// ParseValue reads any JSON value.
func ParseValue(text []byte) (domain.Value, error) {
	p := parser{data: text, n: len(text)}
	return p.parse()
}

// ParseDocument reads a JSON object into a document. A top level _id holding
// a 24 character hex string becomes an ObjectId.
func ParseDocument(text []byte) (*domain.Document, error) {
	v, err := ParseValue(text)
	if err != nil {
		return nil, err
	}
	doc, ok := v.AsDocument()
	if !ok {
		return nil, newParseErr(text, 0, ErrExpectedObject)
	}
	CoerceID(doc)
	return doc, nil
}

// ParseDocuments reads a JSON array of objects.
func ParseDocuments(text []byte) ([]*domain.Document, error) {
	v, err := ParseValue(text)
	if err != nil {
		return nil, err
	}
	items, ok := v.AsArray()
	if !ok {
		return nil, newParseErr(text, 0, ErrExpectedArray)
	}
	docs := make([]*domain.Document, len(items))
	for n, item := range items {
		doc, ok := item.AsDocument()
		if !ok {
			return nil, newParseErr(text, 0, fmt.Errorf("item %d: %w", n, ErrExpectedObject))
		}
		CoerceID(doc)
		docs[n] = doc
	}
	return docs, nil
}

// CoerceID replaces a string _id holding 24 hex characters with the
// matching ObjectId. Other ids are left untouched.
func CoerceID(doc *domain.Document) {
	id, ok := doc.ID()
	if !ok {
		return
	}
	s, ok := id.AsString()
	if !ok || len(s) != 24 {
		return
	}
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		doc.SetID(domain.ObjectIDValue(oid))
	}
}

func newParseErr(data []byte, at int, err error) domain.ErrParse {
	start := max(0, at-fragmentRadius)
	end := min(len(data), at+fragmentRadius)
	start = min(start, end)
	return domain.ErrParse{
		Fragment: strings.ToValidUTF8(string(data[start:end]), ""),
		Offset:   at,
		Err:      err,
	}
}

type parser struct {
	data []byte
	i    int
	n    int
}

func (p *parser) parse() (domain.Value, error) {
	p.skip()
	val, err := p.value()
	if err != nil {
		return domain.Value{}, newParseErr(p.data, p.i, err)
	}
	p.skip()
	if p.i != p.n {
		return domain.Value{}, newParseErr(p.data, p.i, ErrTrailingData)
	}
	return val, nil
}

func (p *parser) skip() {
	for p.i < p.n {
		switch p.data[p.i] {
		case ' ', '\t', '\n', '\r':
			p.i++
		default:
			return
		}
	}
}

func (p *parser) value() (domain.Value, error) {
	if p.i >= p.n {
		return domain.Value{}, io.ErrUnexpectedEOF
	}
	switch p.data[p.i] {
	case '{':
		return p.obj()
	case '[':
		return p.arr()
	case '"':
		s, err := p.str()
		if err != nil {
			return domain.Value{}, err
		}
		return domain.StringValue(s), nil
	case 't':
		return p.expect("true", domain.BooleanValue(true))
	case 'f':
		return p.expect("false", domain.BooleanValue(false))
	case 'n':
		return p.expect("null", domain.NullValue())
	default:
		return p.num()
	}
}

func (p *parser) obj() (domain.Value, error) {
	p.i++ // skip '{'
	p.skip()
	doc := domain.NewDocument()
	if p.i < p.n && p.data[p.i] == '}' {
		p.i++
		return domain.DocumentValue(doc), nil
	}
	for {
		p.skip()
		if p.i >= p.n {
			return domain.Value{}, io.ErrUnexpectedEOF
		}
		key, err := p.str()
		if err != nil {
			return domain.Value{}, err
		}
		p.skip()
		if p.i >= p.n || p.data[p.i] != ':' {
			return domain.Value{}, ErrNoColon
		}
		p.i++
		p.skip()
		val, err := p.value()
		if err != nil {
			return domain.Value{}, err
		}
		doc.Set(key, val)
		p.skip()
		if p.i >= p.n {
			return domain.Value{}, io.ErrUnexpectedEOF
		}
		if p.data[p.i] == '}' {
			p.i++
			break
		}
		if p.data[p.i] != ',' {
			return domain.Value{}, ErrNoComma
		}
		p.i++
	}
	return domain.DocumentValue(doc), nil
}

func (p *parser) arr() (domain.Value, error) {
	p.i++ // skip '['
	p.skip()
	out := []domain.Value{}
	if p.i < p.n && p.data[p.i] == ']' {
		p.i++
		return domain.ArrayValue(out...), nil
	}
	for {
		val, err := p.value()
		if err != nil {
			return domain.Value{}, err
		}
		out = append(out, val)
		p.skip()
		if p.i >= p.n {
			return domain.Value{}, io.ErrUnexpectedEOF
		}
		if p.data[p.i] == ']' {
			p.i++
			break
		}
		if p.data[p.i] != ',' {
			return domain.Value{}, ErrNoComma
		}
		p.i++
		p.skip()
	}
	return domain.ArrayValue(out...), nil
}

func (p *parser) str() (string, error) {
	if p.data[p.i] != '"' {
		return "", ErrExpectedString
	}
	for i := p.i + 1; i < p.n; i++ {
		switch p.data[i] {
		case '\\':
			i++
		case '"':
			s, err := p.decodeString(p.data[p.i+1 : i])
			if err != nil {
				return "", err
			}
			p.i = i + 1
			return s, nil
		}
	}
	return "", ErrUnterminatedString
}

func (p *parser) decodeString(b []byte) (string, error) {
	var sb strings.Builder
	sb.Grow(len(b))

	i := 0
	for i < len(b) {
		switch c := b[i]; {
		case c == '\\':
			i++
			if i >= len(b) {
				return "", ErrUnterminatedString
			}
			switch b[i] {
			case '"', '\\', '/', '\'':
				sb.WriteByte(b[i])
				i++
			case 'b':
				sb.WriteByte('\b')
				i++
			case 'f':
				sb.WriteByte('\f')
				i++
			case 'n':
				sb.WriteByte('\n')
				i++
			case 'r':
				sb.WriteByte('\r')
				i++
			case 't':
				sb.WriteByte('\t')
				i++
			case 'u':
				r, size, err := p.slashU(b[i-1:])
				if err != nil {
					return "", err
				}
				sb.WriteRune(r)
				i += size - 1
			default:
				return "", ErrUnknownEscapeChar{Char: b[i]}
			}

		case c < ' ':
			return "", ErrInvalidControlChar{Char: c}

		case c < utf8.RuneSelf:
			sb.WriteByte(c)
			i++

		default:
			r, size := utf8.DecodeRune(b[i:])
			if r == utf8.RuneError && size == 1 {
				return "", ErrInvalidUTF8Char
			}
			sb.WriteRune(r)
			i += size
		}
	}
	return sb.String(), nil
}

// slashU decodes a \uXXXX sequence, joining surrogate pairs. It returns the
// rune and the number of bytes consumed.
func (p *parser) slashU(b []byte) (rune, int, error) {
	r := p.getUTF(b)
	if r < 0 {
		return 0, 0, ErrInvalidUTF8Char
	}
	if utf16.IsSurrogate(r) {
		r1 := p.getUTF(b[6:])
		if dec := utf16.DecodeRune(r, r1); dec != unicode.ReplacementChar {
			return dec, 12, nil
		}
		return unicode.ReplacementChar, 6, nil
	}
	return r, 6, nil
}

func (p *parser) getUTF(b []byte) rune {
	if len(b) < 6 || b[0] != '\\' || b[1] != 'u' {
		return -1
	}
	r, err := strconv.ParseUint(string(b[2:6]), 16, 16)
	if err != nil {
		return -1
	}
	return rune(r)
}

func (p *parser) num() (domain.Value, error) {
	start := p.i
	integral := true
scan:
	for p.i < p.n {
		switch c := p.data[p.i]; {
		case c >= '0' && c <= '9', c == '-', c == '+':
		case c == '.', c == 'e', c == 'E':
			integral = false
		default:
			break scan
		}
		p.i++
	}
	s := string(p.data[start:p.i])
	if s == "" {
		return domain.Value{}, ErrInvalidNumber
	}
	if integral {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return domain.Int64Value(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Value{}, fmt.Errorf("%w: %w", ErrInvalidNumber, err)
	}
	return domain.DoubleValue(f), nil
}

func (p *parser) expect(lit string, val domain.Value) (domain.Value, error) {
	end := p.i + len(lit)
	if end > p.n || string(p.data[p.i:end]) != lit {
		limit := min(p.n, end)
		return domain.Value{}, ErrInvalidLiteral{Value: string(p.data[p.i:limit])}
	}
	p.i = end
	return val, nil
}
