package session

import (
	"context"
	"strings"

	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
)

// ListCollections implements domain.Session. Collections are sorted by
// name. A count that cannot be read is logged and reported as 0.
func (s *Session) ListCollections(ctx context.Context) ([]domain.CollectionMetadata, error) {
	h, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return []domain.CollectionMetadata{}, nil
	}
	names, err := h.engine.CollectionNames(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]domain.CollectionMetadata, 0, len(names))
	for _, name := range names {
		count, err := h.engine.Count(ctx, name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Warnw("counting documents", "collection", name, "error", err)
		}
		res = append(res, domain.CollectionMetadata{Name: name, DocumentCount: count})
	}
	s.logger.Debugw("collections listed", "path", h.info.Path, "count", len(res))
	return res, nil
}

// CreateCollection implements domain.Session. Creating an existing
// collection succeeds.
func (s *Session) CreateCollection(ctx context.Context, name string) (bool, error) {
	h, err := s.writable(ctx)
	if err != nil {
		return false, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return false, nil
	}
	if err := h.engine.CreateCollection(ctx, name); err != nil {
		return false, err
	}
	return true, nil
}

// DropCollection implements domain.Session. Dropping a missing collection
// returns false.
func (s *Session) DropCollection(ctx context.Context, name string) (bool, error) {
	h, err := s.writable(ctx)
	if err != nil {
		return false, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return false, nil
	}
	return h.engine.DropCollection(ctx, name)
}

// CountDocuments implements domain.Session.
func (s *Session) CountDocuments(ctx context.Context, collection string) (int64, error) {
	h, err := s.current(ctx)
	if err != nil {
		return 0, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return 0, nil
	}
	return h.engine.Count(ctx, collection)
}

// ExecuteQuery implements domain.Session. filter is a JSON object in the
// matcher syntax; a blank filter selects every document.
func (s *Session) ExecuteQuery(ctx context.Context, collection, filter string, options ...domain.FindOption) (domain.Cursor, error) {
	h, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return s.cursorFactory(ctx, nil, domain.WithCursorDecoder(s.decoder))
	}

	var f *domain.Document
	if strings.TrimSpace(filter) != "" {
		if f, err = s.converter.Parse(filter); err != nil {
			return nil, err
		}
	}
	var opts domain.FindOptions
	for _, option := range options {
		option(&opts)
	}

	docs, err := s.load(ctx, h, collection, 0, -1)
	if err != nil {
		return nil, err
	}
	found, err := s.querier.Query(ctx, docs, f, opts)
	if err != nil {
		return nil, err
	}
	return s.cursorFactory(ctx, s.views(found), domain.WithCursorDecoder(s.decoder))
}

// DatabaseStats implements domain.Session. Sizes are best-effort; a
// collection whose size cannot be read adds nothing.
func (s *Session) DatabaseStats(ctx context.Context) (domain.DatabaseStats, error) {
	h, err := s.current(ctx)
	if err != nil {
		return domain.DatabaseStats{}, err
	}
	defer s.executor.Unlock()

	if h == nil {
		return domain.DatabaseStats{}, nil
	}
	stats := domain.DatabaseStats{
		Path:     h.info.Path,
		ReadOnly: h.info.ReadOnly,
	}
	if st, err := s.storage.Stat(h.info.Path); err == nil {
		stats.FileSize = st.Size()
		stats.LastModified = st.ModTime()
	} else {
		s.logger.Warnw("reading file information", "path", h.info.Path, "error", err)
	}

	names, err := h.engine.CollectionNames(ctx)
	if err != nil {
		return domain.DatabaseStats{}, err
	}
	stats.TotalCollections = len(names)
	for _, name := range names {
		count, err := h.engine.Count(ctx, name)
		if err != nil {
			return domain.DatabaseStats{}, err
		}
		stats.TotalDocuments += count
		if size, err := h.engine.Size(ctx, name); err == nil {
			stats.TotalSize += size
		}
	}
	return stats, nil
}
