// Package modifier contains a [domain.Modifier] implementation to apply changes
// to a doc based on a mongo-like API.
package modifier

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

var (
	// ErrNoModifiers is returned for an update without any operator.
	ErrNoModifiers = errors.New("update must contain at least one modifier")
	// ErrNonObject is returned when a modifier value passed by user is not
	// an object.
	ErrNonObject = errors.New("modifier value must be an object")
)

// ErrModFieldType is returned when a modification function runs on a document
// field of a type that is not accepted.
type ErrModFieldType struct {
	Mod    string
	Path   string
	Want   string
	Actual domain.Kind
}

// Error implements [error].
func (e ErrModFieldType) Error() string {
	return fmt.Sprintf("%s on %q expects %s field, got %s", e.Mod, e.Path, e.Want, e.Actual)
}

// ErrModArgType is returned when a modification function is called with an
// argument of a type that is not accepted.
type ErrModArgType struct {
	Mod    string
	Want   string
	Actual domain.Kind
}

// Error implements [error].
func (e ErrModArgType) Error() string {
	return fmt.Sprintf("%s expects %s arg, got %s", e.Mod, e.Want, e.Actual)
}

// ErrUnknownModifier is returned when the user specifies a modification query
// with a modification procedure that is not known by the current implementation
// of [Modifier].
type ErrUnknownModifier struct {
	Name string
}

// Error implements [error].
func (e ErrUnknownModifier) Error() string {
	return fmt.Sprintf("unknown modifier %q", e.Name)
}

// ErrPath is returned for a field path that cannot be followed.
type ErrPath struct {
	Path   string
	Reason string
}

// Error implements [error].
func (e ErrPath) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

type modFunc func(root domain.Value, path string, arg domain.Value) error

// Modifier implements [domain.Modifier].
type Modifier struct {
	mods map[string]modFunc
}

// NewModifier returns a new implementation of [domain.Modifier] supporting
// $set, $unset and $inc.
func NewModifier() domain.Modifier {
	m := &Modifier{}
	m.mods = map[string]modFunc{
		"$set":   m.set,
		"$unset": m.unset,
		"$inc":   m.inc,
	}
	return m
}

// Modify implements [domain.Modifier]. Every top level key of mod must be a
// modifier holding an object of path/argument pairs.
func (m *Modifier) Modify(doc *domain.Document, mod *domain.Document) (*domain.Document, error) {
	if mod.Len() == 0 {
		return nil, ErrNoModifiers
	}
	res := doc.Clone()
	root := domain.DocumentValue(res)

	for name, v := range mod.Iter() {
		fn, ok := m.mods[name]
		if !ok {
			return nil, ErrUnknownModifier{Name: name}
		}
		args, ok := v.AsDocument()
		if !ok {
			return nil, ErrNonObject
		}
		for path, arg := range args.Iter() {
			parts, err := ParsePath(path)
			if err != nil {
				return nil, err
			}
			if parts[0] == domain.IDField {
				return nil, domain.ErrCannotModifyID
			}
			if err := fn(root, path, arg); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

func (m *Modifier) set(root domain.Value, path string, arg domain.Value) error {
	parts, _ := ParsePath(path)
	_, err := setPath(root, parts, path, arg)
	return err
}

func (m *Modifier) unset(root domain.Value, path string, _ domain.Value) error {
	parts, _ := ParsePath(path)
	parent, ok := lookup(root, parts[:len(parts)-1])
	if !ok {
		return nil
	}
	last := parts[len(parts)-1]
	switch parent.Kind() {
	case domain.KindDocument:
		d, _ := parent.AsDocument()
		d.Delete(last)
	case domain.KindArray:
		// array items keep their position
		items, _ := parent.AsArray()
		if i, err := strconv.Atoi(last); err == nil && i >= 0 && i < len(items) {
			items[i] = domain.NullValue()
		}
	}
	return nil
}

func (m *Modifier) inc(root domain.Value, path string, arg domain.Value) error {
	if !arg.Kind().IsNumber() {
		return ErrModArgType{Mod: "$inc", Want: "number", Actual: arg.Kind()}
	}
	parts, _ := ParsePath(path)
	cur, ok := lookup(root, parts)
	if !ok || cur.IsNull() {
		_, err := setPath(root, parts, path, arg)
		return err
	}
	sum, ok := add(cur, arg)
	if !ok {
		return ErrModFieldType{Mod: "$inc", Path: path, Want: "number", Actual: cur.Kind()}
	}
	_, err := setPath(root, parts, path, sum)
	return err
}

// add sums two numbers, keeping integer kinds while the result fits.
func add(a, b domain.Value) (domain.Value, bool) {
	if a.Kind() == domain.KindDecimal || b.Kind() == domain.KindDecimal {
		return domain.Value{}, false
	}
	x, okX := integer(a)
	y, okY := integer(b)
	if okX && okY {
		s := x + y
		if (s > x) == (y > 0) {
			if a.Kind() == domain.KindInt32 && b.Kind() == domain.KindInt32 && s >= math.MinInt32 && s <= math.MaxInt32 {
				return domain.Int32Value(int32(s)), true
			}
			return domain.Int64Value(s), true
		}
	}
	fa, okA := a.Float()
	fb, okB := b.Float()
	if !okA || !okB {
		return domain.Value{}, false
	}
	return domain.DoubleValue(fa + fb), true
}

func integer(v domain.Value) (int64, bool) {
	switch v.Kind() {
	case domain.KindInt32:
		i, _ := v.AsInt32()
		return int64(i), true
	case domain.KindInt64:
		return v.AsInt64()
	default:
		return 0, false
	}
}

// setPath stores v under parts inside cur and returns the updated container.
// Missing documents along the way are created.
func setPath(cur domain.Value, parts []string, path string, v domain.Value) (domain.Value, error) {
	if len(parts) == 0 {
		return v, nil
	}
	key, rest := parts[0], parts[1:]

	switch cur.Kind() {
	case domain.KindNull:
		cur = domain.DocumentValue(domain.NewDocument())
		fallthrough
	case domain.KindDocument:
		d, _ := cur.AsDocument()
		child, _ := d.Get(key)
		nv, err := setPath(child, rest, path, v)
		if err != nil {
			return cur, err
		}
		d.Set(key, nv)
		return cur, nil
	case domain.KindArray:
		items, _ := cur.AsArray()
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i > len(items) {
			return cur, ErrPath{Path: path, Reason: fmt.Sprintf("no index %s in array of %d items", key, len(items))}
		}
		if i == len(items) {
			items = append(items, domain.NullValue())
		}
		nv, err := setPath(items[i], rest, path, v)
		if err != nil {
			return cur, err
		}
		items[i] = nv
		return domain.ArrayValue(items...), nil
	default:
		return cur, ErrModFieldType{Mod: "$set", Path: path, Want: "document or array", Actual: cur.Kind()}
	}
}

func lookup(cur domain.Value, parts []string) (domain.Value, bool) {
	for _, key := range parts {
		switch cur.Kind() {
		case domain.KindDocument:
			d, _ := cur.AsDocument()
			v, ok := d.Get(key)
			if !ok {
				return domain.Value{}, false
			}
			cur = v
		case domain.KindArray:
			items, _ := cur.AsArray()
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(items) {
				return domain.Value{}, false
			}
			cur = items[i]
		default:
			return domain.Value{}, false
		}
	}
	return cur, true
}

// ParsePath splits a field path. Both "tags.0.name" and "tags[0].name" are
// accepted.
func ParsePath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrPath{Path: path, Reason: "empty path"}
	}
	var parts []string
	for _, seg := range strings.Split(path, ".") {
		name, idx, hasIdx := strings.Cut(seg, "[")
		if name == "" && !hasIdx {
			return nil, ErrPath{Path: path, Reason: "empty field name"}
		}
		if name != "" {
			parts = append(parts, name)
		}
		for hasIdx {
			var n string
			n, idx, hasIdx = strings.Cut(idx, "[")
			n, ok := strings.CutSuffix(n, "]")
			if _, err := strconv.Atoi(n); !ok || err != nil {
				return nil, ErrPath{Path: path, Reason: "bad array index in " + seg}
			}
			parts = append(parts, n)
		}
	}
	return parts, nil
}
