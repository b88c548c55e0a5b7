package session

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/dolmen-go/contextio"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

// ExportCollectionToJSON implements domain.Session. The result is an
// indented JSON array using the extended forms of the converter. With no
// database open the result is empty.
func (s *Session) ExportCollectionToJSON(ctx context.Context, collection string) (string, error) {
	h, err := s.current(ctx)
	if err != nil {
		return "", err
	}
	defer s.executor.Unlock()

	if h == nil {
		return "", nil
	}
	return s.export(ctx, h, collection)
}

func (s *Session) export(ctx context.Context, h *handle, collection string) (string, error) {
	docs, err := s.load(ctx, h, collection, 0, -1)
	if err != nil {
		return "", err
	}
	return s.converter.MarshalArray(docs, true)
}

// ExportCollectionTo implements domain.Session. Writing stops when ctx is
// done.
func (s *Session) ExportCollectionTo(ctx context.Context, collection string, w io.Writer) error {
	text, err := s.ExportCollectionToJSON(ctx, collection)
	if err != nil || text == "" {
		return err
	}
	_, err = io.Copy(contextio.NewWriter(ctx, w), strings.NewReader(text))
	return err
}

// ExportCollectionToFile implements domain.Session. The file is replaced
// atomically, so readers never see a partial export.
func (s *Session) ExportCollectionToFile(ctx context.Context, collection, path string) error {
	text, err := s.ExportCollectionToJSON(ctx, collection)
	if err != nil || text == "" {
		return err
	}
	return s.storage.WriteFileAtomic(path, contextio.NewReader(ctx, strings.NewReader(text)))
}

// ImportCollectionFromJSON implements domain.Session. text must be a JSON
// array of objects. Documents without _id get a new ObjectId. The import is
// atomic: if any document fails nothing is inserted and the error is an
// [domain.ErrImport] naming the failing position.
func (s *Session) ImportCollectionFromJSON(ctx context.Context, collection, text string) (domain.ImportResult, error) {
	h, err := s.writable(ctx)
	if err != nil {
		return domain.ImportResult{}, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return domain.ImportResult{}, nil
	}
	return s.importJSON(ctx, h, collection, text)
}

func (s *Session) importJSON(ctx context.Context, h *handle, collection, text string) (domain.ImportResult, error) {
	docs, err := s.converter.ParseArray(text)
	if err != nil {
		return domain.ImportResult{}, err
	}

	entries := make([]domain.Entry, len(docs))
	positions := make(map[string]int, len(docs))
	for n, doc := range docs {
		if err := s.ensureID(doc); err != nil {
			return domain.ImportResult{}, domain.ErrImport{Index: n, Err: err}
		}
		id, _ := doc.ID()
		if !validID(id) {
			return domain.ImportResult{}, domain.ErrImport{Index: n, Err: domain.ErrInvalidID{Kind: id.Kind()}}
		}
		key := idKey(id)
		if _, dup := positions[key]; dup {
			return domain.ImportResult{}, domain.ErrImport{
				Index: n,
				Err:   domain.ErrDuplicateID{Collection: collection, ID: id},
			}
		}
		positions[key] = n

		b, err := h.ser.Serialize(ctx, doc)
		if err != nil {
			return domain.ImportResult{}, domain.ErrImport{Index: n, Err: err}
		}
		entries[n] = domain.Entry{ID: id, Data: b}
	}

	if err := h.engine.Insert(ctx, collection, entries...); err != nil {
		var dup domain.ErrDuplicateID
		if errors.As(err, &dup) {
			return domain.ImportResult{}, domain.ErrImport{Index: positions[idKey(dup.ID)], Err: err}
		}
		return domain.ImportResult{}, err
	}

	s.logger.Infow("collection imported", "collection", collection, "inserted", len(entries))
	return domain.ImportResult{Inserted: len(entries)}, nil
}

// ImportCollectionFromFile implements domain.Session.
func (s *Session) ImportCollectionFromFile(ctx context.Context, collection, path string) (domain.ImportResult, error) {
	h, err := s.writable(ctx)
	if err != nil {
		return domain.ImportResult{}, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return domain.ImportResult{}, nil
	}
	r, err := s.storage.ReadFileStream(path)
	if err != nil {
		return domain.ImportResult{}, err
	}
	defer r.Close()

	b, err := io.ReadAll(contextio.NewReader(ctx, r))
	if err != nil {
		return domain.ImportResult{}, err
	}
	return s.importJSON(ctx, h, collection, string(b))
}

// idKey identifies an _id by kind and payload.
func idKey(id domain.Value) string {
	return id.Kind().String() + ":" + id.String()
}
