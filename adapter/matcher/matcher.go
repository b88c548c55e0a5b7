// Package matcher contains the default implementation of [domain.Matcher]
// using a basic mongo-like filter syntax.
package matcher

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

var (
	// ErrMixedOperators is returned when user provides a filter with mixed
	// use of normal fields and operators.
	ErrMixedOperators = errors.New("cannot mix operators and normal fields")
)

// ErrUnknownOperator is returned when user provides an unknown dollar field
// at the top of a filter.
type ErrUnknownOperator struct {
	Operator string
}

// Error implements [error].
func (e ErrUnknownOperator) Error() string {
	return fmt.Sprintf("unknown operator %q", e.Operator)
}

// ErrUnknownComparison is returned when an unknown compare field is provided.
type ErrUnknownComparison struct {
	Comparison string
}

// Error implements [error].
func (e ErrUnknownComparison) Error() string {
	return fmt.Sprintf("unknown comparison %q", e.Comparison)
}

// ErrCompArgType is returned when a comparison operator is called with an
// argument of invalid type.
type ErrCompArgType struct {
	Comp   string
	Want   string
	Actual domain.Kind
}

// Error implements [error].
func (e ErrCompArgType) Error() string {
	return fmt.Sprintf("%s value should be of type %s, got %s", e.Comp, e.Want, e.Actual)
}

// Matcher implements [domain.Matcher].
type Matcher struct {
	comparer domain.Comparer
	query    Query
}

// NewMatcher returns a new implementation of domain.Matcher.
func NewMatcher(options ...Option) domain.Matcher {
	m := &Matcher{
		comparer: comparer.NewComparer(comparer.WithNumericFamily(true)),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// SetQuery implements [domain.Matcher]. The previous filter is kept if the
// new one is invalid.
func (m *Matcher) SetQuery(filter *domain.Document) error {
	lo, err := m.makeLogicOp(And, filter)
	if err != nil {
		return err
	}
	m.query = Query{Lo: lo}
	return nil
}

// Match implements [domain.Matcher].
func (m *Matcher) Match(doc *domain.Document) (bool, error) {
	return m.matchLogic(m.query.Lo, doc), nil
}

func (m *Matcher) makeLogicOp(typ uint8, filter *domain.Document) (LogicOp, error) {
	lo := LogicOp{Type: typ}
	if filter == nil {
		return lo, nil
	}
	for key, value := range filter.Iter() {
		if !strings.HasPrefix(key, "$") {
			rule, err := m.makeFieldRule(key, value)
			if err != nil {
				return lo, err
			}
			lo.Rules = append(lo.Rules, rule)
			continue
		}
		sub, err := m.dollarLogic(key, value)
		if err != nil {
			return lo, err
		}
		lo.Sub = append(lo.Sub, sub)
	}
	return lo, nil
}

func (m *Matcher) dollarLogic(key string, value domain.Value) (LogicOp, error) {
	switch key {
	case "$and", "$or":
		typ := And
		if key == "$or" {
			typ = Or
		}
		items, ok := value.AsArray()
		if !ok {
			return LogicOp{}, ErrCompArgType{Comp: key, Want: "array", Actual: value.Kind()}
		}
		lo := LogicOp{Type: typ, Sub: make([]LogicOp, 0, len(items))}
		for _, item := range items {
			doc, ok := item.AsDocument()
			if !ok {
				return lo, ErrCompArgType{Comp: key, Want: "array of documents", Actual: item.Kind()}
			}
			sub, err := m.makeLogicOp(And, doc)
			if err != nil {
				return lo, err
			}
			lo.Sub = append(lo.Sub, sub)
		}
		return lo, nil
	case "$not":
		doc, ok := value.AsDocument()
		if !ok {
			return LogicOp{}, ErrCompArgType{Comp: key, Want: "document", Actual: value.Kind()}
		}
		sub, err := m.makeLogicOp(And, doc)
		if err != nil {
			return LogicOp{}, err
		}
		return LogicOp{Type: Not, Sub: []LogicOp{sub}}, nil
	default:
		return LogicOp{}, ErrUnknownOperator{Operator: key}
	}
}

func (m *Matcher) makeFieldRule(field string, value domain.Value) (FieldRule, error) {
	addr := strings.Split(field, ".")

	doc, ok := value.AsDocument()
	if !ok || doc.Len() == 0 {
		return FieldRule{Addr: addr, Conds: []Cond{{Op: Eq, Val: value}}}, nil
	}

	dollar := 0
	for _, k := range doc.Keys() {
		if strings.HasPrefix(k, "$") {
			dollar++
		}
	}
	switch dollar {
	case 0:
		return FieldRule{Addr: addr, Conds: []Cond{{Op: Eq, Val: value}}}, nil
	case doc.Len():
	default:
		return FieldRule{}, ErrMixedOperators
	}

	rule := FieldRule{Addr: addr, Conds: make([]Cond, 0, doc.Len())}
	for k, v := range doc.Iter() {
		cond, err := m.makeCond(k, v)
		if err != nil {
			return FieldRule{}, err
		}
		rule.Conds = append(rule.Conds, cond)
	}
	return rule, nil
}

func (m *Matcher) makeCond(k string, v domain.Value) (Cond, error) {
	switch k {
	case "$lt":
		return Cond{Op: Lt, Val: v}, nil
	case "$lte":
		return Cond{Op: Lte, Val: v}, nil
	case "$gt":
		return Cond{Op: Gt, Val: v}, nil
	case "$gte":
		return Cond{Op: Gte, Val: v}, nil
	case "$ne":
		return Cond{Op: Ne, Val: v}, nil
	case "$in", "$nin":
		items, ok := v.AsArray()
		if !ok {
			return Cond{}, ErrCompArgType{Comp: k, Want: "array", Actual: v.Kind()}
		}
		if k == "$in" {
			return Cond{Op: In, Val: items}, nil
		}
		return Cond{Op: Nin, Val: items}, nil
	case "$exists":
		b, ok := v.AsBoolean()
		if !ok {
			return Cond{}, ErrCompArgType{Comp: k, Want: "boolean", Actual: v.Kind()}
		}
		return Cond{Op: Exists, Val: b}, nil
	case "$regex":
		s, ok := v.AsString()
		if !ok {
			return Cond{}, ErrCompArgType{Comp: k, Want: "string", Actual: v.Kind()}
		}
		re, err := regexp.Compile(s)
		if err != nil {
			return Cond{}, fmt.Errorf("%w: %w", ErrCompArgType{Comp: k, Want: "regular expression", Actual: v.Kind()}, err)
		}
		return Cond{Op: Regex, Val: re}, nil
	default:
		return Cond{}, ErrUnknownComparison{Comparison: k}
	}
}

func (m *Matcher) matchLogic(lo LogicOp, doc *domain.Document) bool {
	switch lo.Type {
	case Or:
		for _, sub := range lo.Sub {
			if m.matchLogic(sub, doc) {
				return true
			}
		}
		return false
	case Not:
		for _, sub := range lo.Sub {
			if !m.matchLogic(sub, doc) {
				return true
			}
		}
		return false
	default:
		for _, rule := range lo.Rules {
			if !m.matchRule(rule, doc) {
				return false
			}
		}
		for _, sub := range lo.Sub {
			if !m.matchLogic(sub, doc) {
				return false
			}
		}
		return true
	}
}

func (m *Matcher) matchRule(rule FieldRule, doc *domain.Document) bool {
	v, found := doc.Lookup(rule.Addr...)
	for _, cond := range rule.Conds {
		if !m.matchCond(cond, v, found) {
			return false
		}
	}
	return true
}

func (m *Matcher) matchCond(cond Cond, v domain.Value, found bool) bool {
	switch cond.Op {
	case Exists:
		return found == cond.Val.(bool)
	case Eq:
		return m.equal(v, found, cond.Val.(domain.Value))
	case Ne:
		return !m.equal(v, found, cond.Val.(domain.Value))
	case In:
		return m.in(v, found, cond.Val.([]domain.Value))
	case Nin:
		return !m.in(v, found, cond.Val.([]domain.Value))
	case Regex:
		re := cond.Val.(*regexp.Regexp)
		return found && m.anyItem(v, func(item domain.Value) bool {
			s, ok := item.AsString()
			return ok && re.MatchString(s)
		})
	default:
		ref := cond.Val.(domain.Value)
		return found && m.anyItem(v, func(item domain.Value) bool {
			if !m.comparable(item, ref) {
				return false
			}
			c := m.comparer.Compare(item, ref)
			switch cond.Op {
			case Lt:
				return c < 0
			case Lte:
				return c <= 0
			case Gt:
				return c > 0
			default:
				return c >= 0
			}
		})
	}
}

// equal treats a missing field as Null and matches arrays that contain the
// wanted value.
func (m *Matcher) equal(v domain.Value, found bool, want domain.Value) bool {
	if !found {
		return want.IsNull()
	}
	if m.comparer.Equal(v, want) {
		return true
	}
	if want.Kind() == domain.KindArray {
		return false
	}
	items, ok := v.AsArray()
	if !ok {
		return false
	}
	for _, item := range items {
		if m.comparer.Equal(item, want) {
			return true
		}
	}
	return false
}

func (m *Matcher) in(v domain.Value, found bool, wanted []domain.Value) bool {
	for _, want := range wanted {
		if m.equal(v, found, want) {
			return true
		}
	}
	return false
}

func (m *Matcher) anyItem(v domain.Value, fn func(domain.Value) bool) bool {
	items, ok := v.AsArray()
	if !ok {
		return fn(v)
	}
	for _, item := range items {
		if fn(item) {
			return true
		}
	}
	return false
}

// comparable reports whether ordering operators apply to the pair. Numbers
// compare with each other, other kinds only with themselves.
func (m *Matcher) comparable(a, b domain.Value) bool {
	if a.Kind().IsNumber() && b.Kind().IsNumber() {
		return true
	}
	switch a.Kind() {
	case domain.KindNull, domain.KindArray, domain.KindDocument:
		return false
	default:
		return a.Kind() == b.Kind()
	}
}
