// Package domain contains domain-specific interfaces, entities and option
// types for dbexplorer.
//
// This package defines the value model ([Value], [Document]), the interfaces
// that must be implemented by adapters, and functional options for
// configuring queries, cursors, indexes and database opening.
package domain

import (
	"context"
	"io"
	"iter"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Serializer converts documents to bytes for storage.
type Serializer interface {
	// Serialize converts a document to bytes for persistence.
	Serialize(context.Context, *Document) ([]byte, error)
}

// Deserializer converts bytes back to documents.
type Deserializer interface {
	// Deserialize converts bytes back to a document.
	Deserialize(context.Context, []byte) (*Document, error)
}

// Cipher seals and opens stored documents of password protected databases.
type Cipher interface {
	// Seal encrypts and authenticates plaintext.
	Seal([]byte) ([]byte, error)
	// Open reverses Seal. It fails if the data was sealed with another
	// key or was modified.
	Open([]byte) ([]byte, error)
}

// Converter maps values to JSON and back.
type Converter interface {
	// ToJSON converts a value to a generic JSON node. Objects are returned
	// as [JSONObject] so that key order is kept.
	ToJSON(Value) any
	// Marshal returns the JSON text of a document.
	Marshal(doc *Document, indent bool) (string, error)
	// MarshalArray returns the JSON text of an array of documents.
	MarshalArray(docs []*Document, indent bool) (string, error)
	// Parse reads a JSON object into a document.
	Parse(text string) (*Document, error)
	// ParseArray reads a JSON array of objects.
	ParseArray(text string) ([]*Document, error)
}

// Storage provides the file operations needed around the engine.
type Storage interface {
	// Stat returns file information.
	Stat(string) (os.FileInfo, error)
	// Exists checks if a file exists.
	Exists(string) (bool, error)
	// ProbeLock briefly tries to acquire an exclusive lock on the file and
	// reports whether another process holds it. The probe handle is always
	// released before returning.
	ProbeLock(string) (bool, error)
	// ProbeAccess reports whether the file can be opened for writing and
	// for reading.
	ProbeAccess(string) (AccessReport, error)
	// ReadHeader reads up to n bytes from the start of the file.
	ReadHeader(string, int) ([]byte, error)
	// Snapshot copies the file to a private temporary location and returns
	// the copy's path.
	Snapshot(string) (string, error)
	// WriteFileAtomic replaces the file content without ever exposing a
	// partially written file.
	WriteFileAtomic(string, io.Reader) error
	// ReadFileStream opens a file for streaming reads.
	ReadFileStream(string) (io.ReadCloser, error)
	// Remove deletes a file.
	Remove(string) error
}

// Engine is the embedded storage engine holding one database file.
// Collections are created implicitly by writes. Values are opaque bytes
// produced by a [Serializer].
type Engine interface {
	// Path returns the file the engine has open.
	Path() string
	// ReadOnly reports whether the handle refuses writes.
	ReadOnly() bool
	// CollectionNames lists the collections, sorted by name.
	CollectionNames(context.Context) ([]string, error)
	// CreateCollection creates a collection if it does not exist.
	CreateCollection(context.Context, string) error
	// DropCollection removes a collection and all its entries.
	DropCollection(context.Context, string) (bool, error)
	// Count returns the number of entries of a collection.
	Count(context.Context, string) (int64, error)
	// Size returns a best-effort number of bytes used by a collection.
	Size(context.Context, string) (int64, error)
	// Scan returns up to limit values starting at offset skip, in key
	// order. A negative limit means no limit.
	Scan(ctx context.Context, collection string, skip, limit int) ([][]byte, error)
	// Get returns the value stored under id, or nil.
	Get(ctx context.Context, collection string, id Value) ([]byte, error)
	// Insert adds every entry in a single transaction, failing with
	// [ErrDuplicateID] if any id already exists.
	Insert(ctx context.Context, collection string, entries ...Entry) error
	// Replace overwrites an existing entry, reporting whether it existed.
	Replace(ctx context.Context, collection string, id Value, data []byte) (bool, error)
	// Delete removes an entry, reporting whether it existed.
	Delete(ctx context.Context, collection string, id Value) (bool, error)
	// Meta reads a value from the reserved metadata area.
	Meta(context.Context, string) ([]byte, error)
	// SetMeta writes a value to the reserved metadata area.
	SetMeta(context.Context, string, []byte) error
	// Close releases the handle.
	Close() error
}

// Comparer orders values by (kind, payload).
type Comparer interface {
	// Compare returns -1, 0, or 1.
	Compare(Value, Value) int
	// Equal reports whether both values have the same kind and payload.
	Equal(Value, Value) bool
}

// Decoder converts between different data representations.
type Decoder interface {
	// Decode converts from one data format to another.
	Decode(any, any) error
}

// TimeGetter provides current time for timestamping operations.
type TimeGetter interface {
	// GetTime returns the current time.
	GetTime() time.Time
}

// IDGenerator creates identifiers for documents inserted without _id.
type IDGenerator interface {
	// GenerateID returns a new ObjectId.
	GenerateID() (primitive.ObjectID, error)
}

// DocumentView wraps one document together with its cached JSON text and
// normalized identifier.
type DocumentView interface {
	// Document returns the wrapped document.
	Document() *Document
	// SetDocument replaces the wrapped document and refreshes the cached
	// JSON text.
	SetDocument(*Document)
	// ID returns the normalized identifier. It never panics.
	ID() string
	// IDValue returns the raw _id value.
	IDValue() (Value, bool)
	// ObjectID returns the _id only if it is an ObjectId.
	ObjectID() (primitive.ObjectID, bool)
	// JSONString returns the cached JSON text.
	JSONString() string
	// Decode decodes the document into target.
	Decode(target any) error
}

// DocumentLister lists a page of documents of a collection.
type DocumentLister interface {
	ListDocuments(ctx context.Context, collection string, skip, limit int) ([]DocumentView, error)
}

// Cursor iterates over query results.
type Cursor interface {
	// Next advances the cursor, returning false when there are no more
	// results.
	Next() bool
	// View returns the current result.
	View() (DocumentView, error)
	// Scan decodes the current result into target.
	Scan(ctx context.Context, target any) error
	// Len returns the number of results.
	Len() int
	// Err returns the reason the cursor stopped, if any.
	Err() error
	// Close releases the results.
	Close() error
}

// Index keeps documents ordered by the value of one field.
type Index interface {
	// FieldName returns the indexed dot path.
	FieldName() string
	// Insert indexes documents. Documents missing the field are indexed
	// under Null.
	Insert(context.Context, ...*Document) error
	// GetMatching returns the documents whose field equals any of the
	// values.
	GetMatching(...Value) ([]*Document, error)
	// GetBetweenBounds returns the documents within the bounds, ordered by
	// the indexed field.
	GetBetweenBounds(context.Context, Bounds) (iter.Seq2[*Document, error], error)
	// GetAll returns every indexed document, ordered by the indexed field.
	GetAll() iter.Seq[*Document]
	// GetNumberOfKeys returns the number of distinct keys.
	GetNumberOfKeys() int
}

// Matcher checks documents against a filter.
type Matcher interface {
	// SetQuery compiles filter. A nil filter matches everything.
	SetQuery(filter *Document) error
	// Match reports whether doc satisfies the current filter.
	Match(doc *Document) (bool, error)
}

// Modifier applies update operators such as $set to a document.
type Modifier interface {
	// Modify returns a modified copy of doc. doc itself is not changed.
	Modify(doc *Document, mod *Document) (*Document, error)
}

// Projector keeps or omits fields of query results.
type Projector interface {
	// Project returns projected copies of docs. A projection maps dot
	// paths to 1 (keep) or 0 (omit); only _id may mix both.
	Project(docs []*Document, proj map[string]uint8) ([]*Document, error)
}

// Querier filters, sorts and pages documents.
type Querier interface {
	// Query returns the documents matching filter.
	Query(ctx context.Context, docs []*Document, filter *Document, opts FindOptions) ([]*Document, error)
}

// Session holds at most one open database and exposes everything a browser
// needs on it. Reads on a session without a database return empty results
// and mutations report false, both without an error.
type Session interface {
	DocumentLister
	// Open opens the database at path, falling back to read-only modes
	// when the file is locked or cannot be written.
	Open(ctx context.Context, path string, options ...OpenOption) (OpenInfo, error)
	// CreateDatabase creates a new database file and opens it.
	CreateDatabase(ctx context.Context, path string, options ...CreateOption) (OpenInfo, error)
	// Close releases the open database, if any.
	Close() error
	// IsOpen reports whether a database is open.
	IsOpen() bool
	// IsReadOnly reports whether the open database refuses writes.
	IsReadOnly() bool
	// Path returns the file of the open database, or "".
	Path() string
	// Info describes the open database.
	Info() (OpenInfo, bool)

	ListCollections(ctx context.Context) ([]CollectionMetadata, error)
	CreateCollection(ctx context.Context, name string) (bool, error)
	DropCollection(ctx context.Context, name string) (bool, error)
	CountDocuments(ctx context.Context, collection string) (int64, error)

	GetDocumentByID(ctx context.Context, collection string, id any) (DocumentView, error)
	DocumentExists(ctx context.Context, collection string, id any) (bool, error)
	Insert(ctx context.Context, collection, text string) (DocumentView, error)
	InsertValue(ctx context.Context, collection string, v any) (DocumentView, error)
	UpdateByID(ctx context.Context, collection string, id any, text string) (bool, error)
	// UpdateFields applies the update operators in text ({"$set": ...})
	// to the document with id.
	UpdateFields(ctx context.Context, collection string, id any, text string) (bool, error)
	Delete(ctx context.Context, collection string, id any) (bool, error)
	// DeleteMany deletes each id, returning how many were deleted and
	// whether all of them were.
	DeleteMany(ctx context.Context, collection string, ids ...any) (int, bool, error)
	DeleteAll(ctx context.Context, collection string) (int, error)
	ExecuteQuery(ctx context.Context, collection, filter string, options ...FindOption) (Cursor, error)

	ExportCollectionToJSON(ctx context.Context, collection string) (string, error)
	ExportCollectionTo(ctx context.Context, collection string, w io.Writer) error
	ExportCollectionToFile(ctx context.Context, collection, path string) error
	ImportCollectionFromJSON(ctx context.Context, collection, text string) (ImportResult, error)
	ImportCollectionFromFile(ctx context.Context, collection, path string) (ImportResult, error)

	DatabaseStats(ctx context.Context) (DatabaseStats, error)
}
