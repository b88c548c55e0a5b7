// Package comparer contains the default [domain.Comparer] implementation.
package comparer

import (
	"bytes"
	"cmp"
	"math"
	"math/big"

	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

// Comparer implements domain.Comparer. Values are ordered by kind first, in
// the order the kinds are declared, and then by payload.
type Comparer struct {
	numeric bool
}

// NewComparer returns a new implementation of domain.Comparer.
func NewComparer(options ...Option) domain.Comparer {
	var c Comparer
	for _, option := range options {
		option(&c)
	}
	return &c
}

// Equal implements domain.Comparer.
func (c *Comparer) Equal(a, b domain.Value) bool {
	return c.Compare(a, b) == 0
}

// Compare implements domain.Comparer.
func (c *Comparer) Compare(a, b domain.Value) int {
	if c.numeric {
		if comp, ok := c.checkNumbers(a, b); ok {
			return comp
		}
	}

	if a.Kind() != b.Kind() {
		return cmp.Compare(a.Kind(), b.Kind())
	}

	switch a.Kind() {
	case domain.KindString:
		x, _ := a.AsString()
		y, _ := b.AsString()
		return cmp.Compare(x, y)
	case domain.KindInt32:
		x, _ := a.AsInt32()
		y, _ := b.AsInt32()
		return cmp.Compare(x, y)
	case domain.KindInt64:
		x, _ := a.AsInt64()
		y, _ := b.AsInt64()
		return cmp.Compare(x, y)
	case domain.KindDouble:
		x, _ := a.AsDouble()
		y, _ := b.AsDouble()
		return cmp.Compare(x, y)
	case domain.KindDecimal:
		return c.compareDecimal(a, b)
	case domain.KindBoolean:
		x, _ := a.AsBoolean()
		y, _ := b.AsBoolean()
		return c.compareBool(x, y)
	case domain.KindDateTime:
		x, _ := a.AsDateTime()
		y, _ := b.AsDateTime()
		return x.Compare(y)
	case domain.KindBinary:
		x, _ := a.AsBinary()
		y, _ := b.AsBinary()
		return bytes.Compare(x, y)
	case domain.KindObjectID:
		x, _ := a.AsObjectID()
		y, _ := b.AsObjectID()
		return bytes.Compare(x[:], y[:])
	case domain.KindGUID:
		x, _ := a.AsGUID()
		y, _ := b.AsGUID()
		return bytes.Compare(x[:], y[:])
	case domain.KindArray:
		x, _ := a.AsArray()
		y, _ := b.AsArray()
		return c.compareArray(x, y)
	case domain.KindDocument:
		x, _ := a.AsDocument()
		y, _ := b.AsDocument()
		return c.compareDoc(x, y)
	default:
		return 0
	}
}

// checkNumbers compares two numbers of any numeric kind by value. NaN is
// smaller than every other number.
func (c *Comparer) checkNumbers(a, b domain.Value) (int, bool) {
	if !a.Kind().IsNumber() || !b.Kind().IsNumber() {
		return 0, false
	}
	x, xok := c.asNumber(a)
	y, yok := c.asNumber(b)
	switch {
	case !xok && !yok:
		return 0, true
	case !xok:
		return -1, true
	case !yok:
		return 1, true
	}
	return x.Cmp(y), true
}

func (c *Comparer) asNumber(v domain.Value) (*big.Float, bool) {
	r := new(big.Float)
	switch v.Kind() {
	case domain.KindInt32:
		i, _ := v.AsInt32()
		r.SetInt64(int64(i))
	case domain.KindInt64:
		i, _ := v.AsInt64()
		r.SetInt64(i)
	case domain.KindDouble:
		f, _ := v.AsDouble()
		if math.IsNaN(f) {
			return nil, false
		}
		r.SetFloat64(f)
	case domain.KindDecimal:
		d, _ := v.AsDecimal()
		if _, ok := r.SetString(d.String()); !ok {
			return nil, false
		}
	default:
		return nil, false
	}
	return r, true
}

func (c *Comparer) compareDecimal(a, b domain.Value) int {
	if comp, ok := c.checkNumbers(a, b); ok {
		return comp
	}
	x, _ := a.AsDecimal()
	y, _ := b.AsDecimal()
	return cmp.Compare(x.String(), y.String())
}

func (c *Comparer) compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return 1
	}
	return -1
}

func (c *Comparer) compareArray(a, b []domain.Value) int {
	for i := range min(len(a), len(b)) {
		if comp := c.Compare(a[i], b[i]); comp != 0 {
			return comp
		}
	}
	// Common section was identical, longest one wins
	return cmp.Compare(len(a), len(b))
}

// compareDoc compares fields pairwise in document order, names first.
func (c *Comparer) compareDoc(a, b *domain.Document) int {
	af, bf := a.Fields(), b.Fields()
	for i := range min(len(af), len(bf)) {
		if comp := cmp.Compare(af[i].Key, bf[i].Key); comp != 0 {
			return comp
		}
		if comp := c.Compare(af[i].Value, bf[i].Value); comp != 0 {
			return comp
		}
	}
	return cmp.Compare(len(af), len(bf))
}
