// Package projector contains the default [domain.Projector] implementation.
package projector

import (
	"errors"
	"strings"

	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

var (
	// ErrMixOmitType is returned when user provides a projection object
	// with mixed "omit" and "show" operators.
	ErrMixOmitType = errors.New("can't both keep and omit fields except for _id")
	// ErrEmptyField is returned for a projection with an empty field path.
	ErrEmptyField = errors.New("projection field cannot be empty")
)

// Projector implements [domain.Projector].
type Projector struct{}

// NewProjector returns a new implementation of [domain.Projector].
func NewProjector() domain.Projector {
	return &Projector{}
}

// fieldTree holds projected paths by segment. A nil subtree selects the whole
// value.
type fieldTree map[string]fieldTree

func (t fieldTree) add(path []string) {
	cur := t
	for n, key := range path {
		sub, ok := cur[key]
		if ok && sub == nil {
			// a shorter path already selects everything below
			return
		}
		if n == len(path)-1 {
			cur[key] = nil
			return
		}
		if !ok {
			sub = fieldTree{}
			cur[key] = sub
		}
		cur = sub
	}
}

// Project implements [domain.Projector]. Kept fields follow the order of the
// source document. _id is kept unless the projection sets it to 0.
func (q *Projector) Project(docs []*domain.Document, proj map[string]uint8) ([]*domain.Document, error) {
	if len(proj) == 0 {
		return docs, nil
	}

	id, idMentioned := proj[domain.IDField]
	keepID := !idMentioned || id != 0

	tree := fieldTree{}
	fields, oneFields := 0, 0
	for field, value := range proj {
		if field == domain.IDField {
			continue
		}
		if field == "" {
			return nil, ErrEmptyField
		}
		fields++
		if value > 0 {
			oneFields++
		}
		if oneFields > 0 && oneFields != fields {
			return nil, ErrMixOmitType
		}
		tree.add(strings.Split(field, "."))
	}

	res := make([]*domain.Document, len(docs))
	for n, doc := range docs {
		var projected *domain.Document
		if oneFields > 0 {
			projected = q.positiveProject(doc, tree)
		} else {
			projected = q.negativeProject(doc.Clone(), tree)
		}

		if keepID {
			if v, ok := doc.ID(); ok {
				projected.SetID(v)
			}
		} else {
			projected.Delete(domain.IDField)
		}
		res[n] = projected
	}

	return res, nil
}

func (q *Projector) positiveProject(doc *domain.Document, tree fieldTree) *domain.Document {
	res := domain.NewDocument()
	for key, value := range doc.Iter() {
		sub, ok := tree[key]
		if !ok {
			continue
		}
		if sub == nil {
			res.Set(key, value.Clone())
			continue
		}
		if v, ok := q.positiveValue(value, sub); ok {
			res.Set(key, v)
		}
	}
	return res
}

// positiveValue projects below a document or an array of documents. Scalars
// have nothing to select and are dropped.
func (q *Projector) positiveValue(value domain.Value, tree fieldTree) (domain.Value, bool) {
	switch value.Kind() {
	case domain.KindDocument:
		d, _ := value.AsDocument()
		return domain.DocumentValue(q.positiveProject(d, tree)), true
	case domain.KindArray:
		items, _ := value.AsArray()
		res := make([]domain.Value, 0, len(items))
		for _, item := range items {
			if v, ok := q.positiveValue(item, tree); ok {
				res = append(res, v)
			}
		}
		return domain.ArrayValue(res...), true
	default:
		return domain.Value{}, false
	}
}

func (q *Projector) negativeProject(doc *domain.Document, tree fieldTree) *domain.Document {
	for key, sub := range tree {
		if sub == nil {
			doc.Delete(key)
			continue
		}
		if v, ok := doc.Get(key); ok {
			q.negativeValue(v, sub)
		}
	}
	return doc
}

func (q *Projector) negativeValue(value domain.Value, tree fieldTree) {
	switch value.Kind() {
	case domain.KindDocument:
		d, _ := value.AsDocument()
		q.negativeProject(d, tree)
	case domain.KindArray:
		items, _ := value.AsArray()
		for _, item := range items {
			q.negativeValue(item, tree)
		}
	}
}
