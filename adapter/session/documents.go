package session

import (
	"context"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/data"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/view"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

// ListDocuments implements domain.Session. Entries that cannot be decoded
// are logged and left out of the page. A negative limit lists every
// document after skip.
func (s *Session) ListDocuments(ctx context.Context, collection string, skip, limit int) ([]domain.DocumentView, error) {
	h, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	defer s.executor.Unlock()

	if h == nil || limit == 0 {
		return []domain.DocumentView{}, nil
	}
	docs, err := s.load(ctx, h, collection, max(skip, 0), limit)
	if err != nil {
		return nil, err
	}
	return s.views(docs), nil
}

// load scans a collection and decodes its entries.
func (s *Session) load(ctx context.Context, h *handle, collection string, skip, limit int) ([]*domain.Document, error) {
	values, err := h.engine.Scan(ctx, collection, skip, limit)
	if err != nil {
		return nil, err
	}
	docs := make([]*domain.Document, 0, len(values))
	for n, b := range values {
		doc, err := h.des.Deserialize(ctx, b)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Warnw("skipping undecodable document",
				"collection", collection,
				"position", skip+n,
				"error", err,
			)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Session) views(docs []*domain.Document) []domain.DocumentView {
	res := make([]domain.DocumentView, len(docs))
	for n, doc := range docs {
		res[n] = s.viewFactory(doc)
	}
	return res
}

// GetDocumentByID implements domain.Session. A missing document returns a
// nil view and no error.
func (s *Session) GetDocumentByID(ctx context.Context, collection string, id any) (domain.DocumentView, error) {
	h, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return nil, nil
	}
	_, b, err := s.resolve(ctx, h, collection, id)
	if err != nil || b == nil {
		return nil, err
	}
	doc, err := h.des.Deserialize(ctx, b)
	if err != nil {
		return nil, err
	}
	return s.viewFactory(doc), nil
}

// DocumentExists implements domain.Session.
func (s *Session) DocumentExists(ctx context.Context, collection string, id any) (bool, error) {
	h, err := s.current(ctx)
	if err != nil {
		return false, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return false, nil
	}
	_, b, err := s.resolve(ctx, h, collection, id)
	return b != nil, err
}

// Insert implements domain.Session. A document without _id gets a new
// ObjectId.
func (s *Session) Insert(ctx context.Context, collection, text string) (domain.DocumentView, error) {
	h, err := s.writable(ctx)
	if err != nil {
		return nil, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return nil, nil
	}
	doc, err := s.converter.Parse(text)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, h, collection, doc)
}

// InsertValue implements domain.Session. v can be a struct, a map with
// string keys or a [domain.Document].
func (s *Session) InsertValue(ctx context.Context, collection string, v any) (domain.DocumentView, error) {
	h, err := s.writable(ctx)
	if err != nil {
		return nil, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return nil, nil
	}
	doc, err := data.NewDocument(v)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, h, collection, doc)
}

func (s *Session) insert(ctx context.Context, h *handle, collection string, doc *domain.Document) (domain.DocumentView, error) {
	if err := s.ensureID(doc); err != nil {
		return nil, err
	}
	id, _ := doc.ID()
	b, err := h.ser.Serialize(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := h.engine.Insert(ctx, collection, domain.Entry{ID: id, Data: b}); err != nil {
		return nil, err
	}
	return s.viewFactory(doc), nil
}

func (s *Session) ensureID(doc *domain.Document) error {
	if doc.Has(domain.IDField) {
		return nil
	}
	oid, err := s.idGenerator.GenerateID()
	if err != nil {
		return err
	}
	doc.SetID(domain.ObjectIDValue(oid))
	return nil
}

// UpdateByID implements domain.Session. The stored _id is kept, whatever
// text says about it.
func (s *Session) UpdateByID(ctx context.Context, collection string, id any, text string) (bool, error) {
	h, err := s.writable(ctx)
	if err != nil {
		return false, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return false, nil
	}
	doc, err := s.converter.Parse(text)
	if err != nil {
		return false, err
	}
	stored, b, err := s.resolve(ctx, h, collection, id)
	if err != nil || b == nil {
		return false, err
	}
	doc.Delete(domain.IDField)
	doc.SetID(stored)
	nb, err := h.ser.Serialize(ctx, doc)
	if err != nil {
		return false, err
	}
	return h.engine.Replace(ctx, collection, stored, nb)
}

// UpdateFields implements domain.Session.
func (s *Session) UpdateFields(ctx context.Context, collection string, id any, text string) (bool, error) {
	h, err := s.writable(ctx)
	if err != nil {
		return false, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return false, nil
	}
	mod, err := s.converter.Parse(text)
	if err != nil {
		return false, err
	}
	stored, b, err := s.resolve(ctx, h, collection, id)
	if err != nil || b == nil {
		return false, err
	}
	doc, err := h.des.Deserialize(ctx, b)
	if err != nil {
		return false, err
	}
	doc, err = s.modifier.Modify(doc, mod)
	if err != nil {
		return false, err
	}
	nb, err := h.ser.Serialize(ctx, doc)
	if err != nil {
		return false, err
	}
	return h.engine.Replace(ctx, collection, stored, nb)
}

// Delete implements domain.Session.
func (s *Session) Delete(ctx context.Context, collection string, id any) (bool, error) {
	h, err := s.writable(ctx)
	if err != nil {
		return false, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return false, nil
	}
	return s.delete(ctx, h, collection, id)
}

func (s *Session) delete(ctx context.Context, h *handle, collection string, id any) (bool, error) {
	stored, b, err := s.resolve(ctx, h, collection, id)
	if err != nil || b == nil {
		return false, err
	}
	return h.engine.Delete(ctx, collection, stored)
}

// DeleteMany implements domain.Session. Every id is attempted even after a
// failure, and the failures are returned together.
func (s *Session) DeleteMany(ctx context.Context, collection string, ids ...any) (int, bool, error) {
	h, err := s.writable(ctx)
	if err != nil {
		return 0, false, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return 0, false, nil
	}
	var errs error
	deleted := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return deleted, false, multierr.Append(errs, err)
		}
		ok, err := s.delete(ctx, h, collection, id)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if ok {
			deleted++
		}
	}
	return deleted, deleted == len(ids), errs
}

// DeleteAll implements domain.Session. It returns the number of documents
// deleted. Entries that cannot be decoded have no readable _id and stay.
func (s *Session) DeleteAll(ctx context.Context, collection string) (int, error) {
	h, err := s.writable(ctx)
	if err != nil {
		return 0, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return 0, nil
	}
	docs, err := s.load(ctx, h, collection, 0, -1)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, doc := range docs {
		id, ok := doc.ID()
		if !ok {
			continue
		}
		ok, err := h.engine.Delete(ctx, collection, id)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}
	s.logger.Infow("collection emptied", "collection", collection, "deleted", deleted)
	return deleted, nil
}

// resolve finds the stored _id a caller identifier refers to, returning it
// together with the stored entry. A nil entry means no document matched.
//
// Typed identifiers are looked up as they are, then an integer under the
// other integer kind. Strings are tried as an ObjectId, as
// themselves, as a GUID and as numbers. As a last resort the collection is
// scanned for an _id whose text form equals the string, which is how ids
// shown to users come back.
func (s *Session) resolve(ctx context.Context, h *handle, collection string, id any) (domain.Value, []byte, error) {
	text, isText := id.(string)
	var candidates []domain.Value
	if isText {
		candidates = stringCandidates(text)
	} else {
		v, err := data.ValueOf(id)
		if err != nil {
			return domain.Value{}, nil, err
		}
		candidates = append([]domain.Value{v}, numericAlternates(v)...)
	}

	for _, c := range candidates {
		if !validID(c) {
			continue
		}
		b, err := h.engine.Get(ctx, collection, c)
		if err != nil {
			return domain.Value{}, nil, err
		}
		if b != nil {
			return c, b, nil
		}
	}
	if !isText {
		return domain.Value{}, nil, nil
	}
	return s.scanForID(ctx, h, collection, text)
}

func (s *Session) scanForID(ctx context.Context, h *handle, collection, text string) (domain.Value, []byte, error) {
	values, err := h.engine.Scan(ctx, collection, 0, -1)
	if err != nil {
		return domain.Value{}, nil, err
	}
	for _, b := range values {
		doc, err := h.des.Deserialize(ctx, b)
		if err != nil {
			continue
		}
		stored, ok := doc.ID()
		if ok && view.IDString(stored) == text {
			return stored, b, nil
		}
	}
	return domain.Value{}, nil, ctx.Err()
}

func stringCandidates(text string) []domain.Value {
	var res []domain.Value
	if oid, err := primitive.ObjectIDFromHex(text); err == nil {
		res = append(res, domain.ObjectIDValue(oid))
	}
	res = append(res, domain.StringValue(text))
	if g, err := uuid.Parse(text); err == nil {
		res = append(res, domain.GUIDValue(g))
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			res = append(res, domain.Int32Value(int32(i)))
		}
		res = append(res, domain.Int64Value(i), domain.DoubleValue(float64(i)))
	} else if f, err := strconv.ParseFloat(text, 64); err == nil {
		res = append(res, domain.DoubleValue(f))
	}
	return res
}

// numericAlternates widens or narrows an integer id to the other integer
// kind. Go ints come in as Int64 while JSON stores small numbers as Int32.
// Doubles never match integers.
func numericAlternates(v domain.Value) []domain.Value {
	switch v.Kind() {
	case domain.KindInt32:
		n, _ := v.AsInt32()
		return []domain.Value{domain.Int64Value(int64(n))}
	case domain.KindInt64:
		i, _ := v.AsInt64()
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return []domain.Value{domain.Int32Value(int32(i))}
		}
		return nil
	default:
		return nil
	}
}

// validID reports whether v can be a stored _id at all. Looking up other
// kinds would only get an error back from the engine.
func validID(v domain.Value) bool {
	switch v.Kind() {
	case domain.KindNull, domain.KindArray, domain.KindDocument:
		return false
	default:
		return true
	}
}
