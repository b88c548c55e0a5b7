package domain

// WithFindSkip sets the number of documents to skip in query results.
func WithFindSkip(s int64) FindOption {
	return func(fo *FindOptions) {
		fo.Skip = s
	}
}

// WithFindLimit sets the maximum number of documents to return.
func WithFindLimit(l int64) FindOption {
	return func(fo *FindOptions) {
		fo.Limit = l
	}
}

// WithFindSort specifies the sort order for query results.
func WithFindSort(s Sort) FindOption {
	return func(fo *FindOptions) {
		fo.Sort = s
	}
}

// WithFindProjection sets the fields kept (1) or omitted (0) from results.
func WithFindProjection(p map[string]uint8) FindOption {
	return func(fo *FindOptions) {
		fo.Projection = p
	}
}

// FindOption configures query behavior through the functional options pattern.
type FindOption func(*FindOptions)

// FindOptions contains parameters for customizing query execution.
type FindOptions struct {
	// Skip specifies the number of documents to skip.
	Skip int64
	// Limit specifies the maximum number of documents to return. Zero
	// means no limit.
	Limit int64
	// Sort specifies the sort order for results.
	Sort Sort
	// Projection selects the fields of each result.
	Projection map[string]uint8
}

// WithOpenPassword sets the password used to open a protected database.
func WithOpenPassword(p string) OpenOption {
	return func(oo *OpenOptions) {
		oo.Password = p
	}
}

// WithOpenReadOnly skips the read-write attempt and opens the database in
// read-only mode.
func WithOpenReadOnly(r bool) OpenOption {
	return func(oo *OpenOptions) {
		oo.ReadOnly = r
	}
}

// OpenOption configures how a database is opened through the functional
// options pattern.
type OpenOption func(*OpenOptions)

// OpenOptions contains parameters for opening a database.
type OpenOptions struct {
	// Password unlocks databases created with a password.
	Password string
	// ReadOnly forces a read-only handle.
	ReadOnly bool
}

// WithCreatePassword protects a new database with a password.
func WithCreatePassword(p string) CreateOption {
	return func(co *CreateOptions) {
		co.Password = p
	}
}

// CreateOption configures database creation through the functional options
// pattern.
type CreateOption func(*CreateOptions)

// CreateOptions contains parameters for creating a database.
type CreateOptions struct {
	Password string
}

// WithCursorDecoder sets the [Decoder] used by [Cursor.Scan].
func WithCursorDecoder(d Decoder) CursorOption {
	return func(co *CursorOptions) {
		co.Decoder = d
	}
}

// CursorOption configures cursor behavior through the functional options
// pattern.
type CursorOption func(*CursorOptions)

// CursorOptions contains parameters for customizing cursor behavior.
type CursorOptions struct {
	Decoder Decoder
}

// WithIndexFieldName sets the dot path that will be indexed.
func WithIndexFieldName(f string) IndexOption {
	return func(io *IndexOptions) {
		io.FieldName = f
	}
}

// WithIndexComparer sets the [Comparer] used to order keys.
func WithIndexComparer(c Comparer) IndexOption {
	return func(io *IndexOptions) {
		io.Comparer = c
	}
}

// IndexOption configures index behavior through the functional options
// pattern.
type IndexOption func(*IndexOptions)

// IndexOptions contains parameters for customizing index behavior.
type IndexOptions struct {
	// FieldName is the dot path of the indexed field.
	FieldName string
	// Comparer orders the keys.
	Comparer Comparer
}
