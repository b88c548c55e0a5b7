package index

import (
	"github.com/vinicius-lino-figueiredo/bst"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

type bstComparer struct {
	comparer domain.Comparer
}

// NewBSTComparer adapts a [domain.Comparer] to the tree. Keys are ordered by
// the comparer and two entries hold the same document only when they point
// to the same one.
func NewBSTComparer(comparer domain.Comparer) bst.Comparer[domain.Value, *domain.Document] {
	return &bstComparer{
		comparer: comparer,
	}
}

// CompareKeys implements bst.Comparer.
func (bc *bstComparer) CompareKeys(a, b domain.Value) (int, error) {
	return bc.comparer.Compare(a, b), nil
}

// CompareValues implements bst.Comparer.
func (bc *bstComparer) CompareValues(a, b *domain.Document) (bool, error) {
	return a == b, nil
}
