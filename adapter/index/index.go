// Package index contains the default [domain.Index] implementation.
package index

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strings"

	"github.com/vinicius-lino-figueiredo/bst"
	"github.com/vinicius-lino-figueiredo/bst/adapter/avl"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

// ErrFieldName is returned by [NewIndex] when no field is given.
var ErrFieldName = errors.New("index field name is empty")

// Index implements [domain.Index].
type Index struct {
	fieldName string
	path      []string
	// Exported to allow testing. Should not be a problem because Index is
	// used as interface.
	Tree     bst.BST[domain.Value, *domain.Document]
	comparer domain.Comparer
}

// NewIndex returns a new implementation of domain.Index.
func NewIndex(options ...domain.IndexOption) (domain.Index, error) {
	opts := domain.IndexOptions{
		Comparer: comparer.NewComparer(comparer.WithNumericFamily(true)),
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.FieldName == "" {
		return nil, ErrFieldName
	}

	return &Index{
		fieldName: opts.FieldName,
		path:      strings.Split(opts.FieldName, "."),
		Tree:      avl.NewBST(false, 8, NewBSTComparer(opts.Comparer)),
		comparer:  opts.Comparer,
	}, nil
}

// FieldName implements [domain.Index].
func (i *Index) FieldName() string {
	return i.fieldName
}

// getKeys returns the distinct keys of doc. Each element of an array field
// is a key of its own.
func (i *Index) getKeys(doc *domain.Document) []domain.Value {
	v, ok := doc.Lookup(i.path...)
	if !ok {
		return []domain.Value{domain.NullValue()}
	}
	items, isArray := v.AsArray()
	if !isArray || len(items) == 0 {
		return []domain.Value{v}
	}
	keys := slices.Clone(items)
	slices.SortFunc(keys, i.comparer.Compare)
	return slices.CompactFunc(keys, i.comparer.Equal)
}

// Insert implements [domain.Index]. If any document fails, the ones already
// added are removed.
func (i *Index) Insert(ctx context.Context, docs ...*domain.Document) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	type kv struct {
		key domain.Value
		doc *domain.Document
	}
	inserted := make([]kv, 0, len(docs))

	var err error
DocInsertion:
	for _, d := range docs {
		for _, k := range i.getKeys(d) {
			if err = i.Tree.Insert(k, d); err != nil {
				break DocInsertion
			}
			inserted = append(inserted, kv{key: k, doc: d})
		}
	}
	if err != nil {
		errs := []error{err}
		for _, v := range inserted {
			if err := i.Tree.Delete(v.key, &v.doc); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return nil
}

// GetMatching implements [domain.Index]. Results are ordered by key and a
// document is returned once even if several of its keys match.
func (i *Index) GetMatching(values ...domain.Value) ([]*domain.Document, error) {
	keys := slices.Clone(values)
	slices.SortFunc(keys, i.comparer.Compare)
	keys = slices.CompactFunc(keys, i.comparer.Equal)

	seen := make(map[*domain.Document]struct{})
	res := make([]*domain.Document, 0)
	for _, k := range keys {
		found, err := i.Tree.Search(k)
		if err != nil {
			return nil, err
		}
		if found == nil {
			continue
		}
		for _, doc := range found.Values() {
			if _, ok := seen[doc]; ok {
				continue
			}
			seen[doc] = struct{}{}
			res = append(res, doc)
		}
	}
	return res, nil
}

// GetBetweenBounds implements [domain.Index].
func (i *Index) GetBetweenBounds(ctx context.Context, bounds domain.Bounds) (iter.Seq2[*domain.Document, error], error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var qry bst.Query[domain.Value]
	if b := bounds.GreaterThan; b != nil {
		qry.GreaterThan = &bst.Bound[domain.Value]{Value: b.Value, IncludeEqual: b.IncludeEqual}
	}
	if b := bounds.LowerThan; b != nil {
		qry.LowerThan = &bst.Bound[domain.Value]{Value: b.Value, IncludeEqual: b.IncludeEqual}
	}
	return i.Tree.Query(qry), nil
}

// GetAll implements [domain.Index].
func (i *Index) GetAll() iter.Seq[*domain.Document] {
	return i.Tree.GetAll()
}

// GetNumberOfKeys implements [domain.Index].
func (i *Index) GetNumberOfKeys() int {
	return i.Tree.GetNumberOfKeys()
}
