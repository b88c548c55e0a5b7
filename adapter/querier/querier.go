// Package querier contains the default [domain.Querier] implementation.
package querier

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/index"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/matcher"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/projector"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

// Querier implements [domain.Querier].
type Querier struct {
	mu       sync.Mutex
	mtchr    domain.Matcher
	cmpr     domain.Comparer
	proj     domain.Projector
	idxFac   domain.IndexFactory
	useIndex bool
}

// NewQuerier returns a new implementation of [domain.Querier].
func NewQuerier(opts ...Option) domain.Querier {
	q := Querier{
		cmpr:     comparer.NewComparer(comparer.WithNumericFamily(true)),
		proj:     projector.NewProjector(),
		idxFac:   index.NewIndex,
		useIndex: true,
	}
	for _, opt := range opts {
		opt(&q)
	}
	if q.mtchr == nil {
		q.mtchr = matcher.NewMatcher(matcher.WithComparer(q.cmpr))
	}
	return &q
}

// Query implements [domain.Querier]. The first field of filter that an index
// can answer narrows the candidates, then every candidate is matched against
// the whole filter. Unsorted results keep the order of docs.
func (q *Querier) Query(ctx context.Context, docs []*domain.Document, filter *domain.Document, opts domain.FindOptions) ([]*domain.Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.mtchr.SetQuery(filter); err != nil {
		return nil, err
	}

	candidates, err := q.candidates(ctx, docs, filter)
	if err != nil {
		return nil, err
	}

	res := make([]*domain.Document, 0, min(len(docs), 256))
	for n, doc := range docs {
		if n%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if candidates != nil {
			if _, ok := candidates[doc]; !ok {
				continue
			}
		}
		ok, err := q.mtchr.Match(doc)
		if err != nil {
			return nil, fmt.Errorf("matching document: %w", err)
		}
		if ok {
			res = append(res, doc)
		}
	}

	if len(opts.Sort) > 0 {
		res = q.sort(res, opts.Sort)
	}
	res = q.skipAndLimit(res, opts.Skip, opts.Limit)
	return q.proj.Project(res, opts.Projection)
}

// candidates returns the documents an index selects for the first indexable
// field of filter, or nil when no field can use one.
func (q *Querier) candidates(ctx context.Context, docs []*domain.Document, filter *domain.Document) (map[*domain.Document]struct{}, error) {
	if !q.useIndex || filter == nil {
		return nil, nil
	}
	for key, value := range filter.Iter() {
		if strings.HasPrefix(key, "$") {
			continue
		}
		lookup, ok := q.indexLookup(value)
		if !ok {
			continue
		}
		idx, err := q.idxFac(
			domain.WithIndexFieldName(key),
			domain.WithIndexComparer(q.cmpr),
		)
		if err != nil {
			return nil, err
		}
		if err := idx.Insert(ctx, docs...); err != nil {
			return nil, err
		}
		found, err := lookup(ctx, idx)
		if err != nil {
			return nil, err
		}
		set := make(map[*domain.Document]struct{}, len(found))
		for _, doc := range found {
			set[doc] = struct{}{}
		}
		return set, nil
	}
	return nil, nil
}

type indexLookup func(context.Context, domain.Index) ([]*domain.Document, error)

// indexLookup tells how an index answers a field condition. Equality on
// scalars, $in and the range operators qualify. Array and document values
// are left to the matcher since they can match whole arrays.
func (q *Querier) indexLookup(value domain.Value) (indexLookup, bool) {
	switch value.Kind() {
	case domain.KindArray:
		return nil, false
	case domain.KindDocument:
	default:
		return func(_ context.Context, idx domain.Index) ([]*domain.Document, error) {
			return idx.GetMatching(value)
		}, true
	}

	ops, _ := value.AsDocument()
	if ops.Len() == 0 {
		return nil, false
	}
	var bounds domain.Bounds
	var in []domain.Value
	for op, v := range ops.Iter() {
		switch op {
		case "$gt", "$gte":
			bounds.GreaterThan = &domain.Bound{Value: v, IncludeEqual: op == "$gte"}
		case "$lt", "$lte":
			bounds.LowerThan = &domain.Bound{Value: v, IncludeEqual: op == "$lte"}
		case "$in":
			items, ok := v.AsArray()
			if !ok {
				return nil, false
			}
			in = items
		default:
			if !strings.HasPrefix(op, "$") {
				return nil, false
			}
		}
	}

	switch {
	case in != nil:
		for _, v := range in {
			if v.Kind() == domain.KindArray || v.Kind() == domain.KindDocument {
				return nil, false
			}
		}
		return func(_ context.Context, idx domain.Index) ([]*domain.Document, error) {
			return idx.GetMatching(in...)
		}, true
	case bounds.GreaterThan != nil || bounds.LowerThan != nil:
		return func(ctx context.Context, idx domain.Index) ([]*domain.Document, error) {
			seq, err := idx.GetBetweenBounds(ctx, bounds)
			if err != nil {
				return nil, err
			}
			var res []*domain.Document
			for doc, err := range seq {
				if err != nil {
					return nil, err
				}
				res = append(res, doc)
			}
			return res, nil
		}, true
	default:
		return nil, false
	}
}

func (q *Querier) sort(data []*domain.Document, sort domain.Sort) []*domain.Document {
	res := slices.Clone(data)
	slices.SortStableFunc(res, func(a, b *domain.Document) int {
		for _, crit := range sort {
			if comp := q.compareByCriterion(a, b, crit); comp != 0 {
				return comp
			}
		}
		return 0
	})
	return res
}

func (q *Querier) compareByCriterion(a, b *domain.Document, crit domain.SortName) int {
	path := strings.Split(crit.Key, ".")
	critA, _ := a.Lookup(path...)
	critB, _ := b.Lookup(path...)
	comp := q.cmpr.Compare(critA, critB)
	if crit.Order < 0 {
		return -comp
	}
	return comp
}

func (q *Querier) skipAndLimit(data []*domain.Document, skip, limit int64) []*domain.Document {
	length := int64(len(data))

	skip = max(skip, 0)      // skip cannot be negative
	skip = min(skip, length) // cannot skip more than length

	end := length
	if limit > 0 {
		end = min(skip+limit, length)
	}
	return data[skip:end]
}
