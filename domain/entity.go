package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OpenMode describes how the database handle of a session was obtained.
type OpenMode string

const (
	// ModeReadWrite is a regular read-write handle.
	ModeReadWrite OpenMode = "read-write"
	// ModeReadOnly is a read-only handle on the database file itself.
	ModeReadOnly OpenMode = "read-only"
	// ModeSnapshot is a read-only handle on a private copy of the database
	// file, used when the file is locked by another writer.
	ModeSnapshot OpenMode = "snapshot"
)

// ReadOnly reports whether handles opened in this mode refuse writes.
func (m OpenMode) ReadOnly() bool {
	return m != ModeReadWrite
}

// OpenInfo describes the database currently open in a session.
type OpenInfo struct {
	Path     string
	Mode     OpenMode
	ReadOnly bool
	// Locked is true when the lock probe found the file in use by another
	// process.
	Locked bool
}

// CollectionMetadata holds a collection name and its document count at the
// time it was listed. Size is not tracked by the engine and is usually 0.
type CollectionMetadata struct {
	Name          string
	DocumentCount int64
	Size          int64
}

// FormattedCount returns the document count with thousands separators.
func (c CollectionMetadata) FormattedCount() string {
	return GroupThousands(c.DocumentCount)
}

// FormattedSize returns the size in a human readable unit.
func (c CollectionMetadata) FormattedSize() string {
	return FormatBytes(c.Size)
}

// String implements [fmt.Stringer].
func (c CollectionMetadata) String() string {
	return fmt.Sprintf("%s (%s documents)", c.Name, c.FormattedCount())
}

// DatabaseStats summarizes the open database.
type DatabaseStats struct {
	Path             string
	FileSize         int64
	LastModified     time.Time
	TotalCollections int
	TotalDocuments   int64
	// TotalSize is best-effort, see [CollectionMetadata.Size].
	TotalSize int64
	ReadOnly  bool
}

// ImportResult reports the outcome of an import. Imports are atomic, so
// Inserted is either the number of documents in the input or zero.
type ImportResult struct {
	Inserted int
}

// GroupThousands formats n with comma separators ("1,234,567").
func GroupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

var byteUnits = [...]string{"B", "KB", "MB", "GB"}

// FormatBytes formats a byte count using at most two decimals ("1.5 KB").
func FormatBytes(b int64) string {
	l := float64(b)
	order := 0
	for l >= 1024 && order < len(byteUnits)-1 {
		order++
		l /= 1024
	}
	s := strconv.FormatFloat(l, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + " " + byteUnits[order]
}

// AccessReport is the result of [Storage.ProbeAccess].
type AccessReport struct {
	ReadWrite bool
	ReadOnly  bool
	// WriteErr is the reason a read-write open failed, if it did.
	WriteErr error
	// ReadErr is the reason a read-only open failed, if it did.
	ReadErr error
}

// Entry is a serialized document ready to be written by an [Engine].
type Entry struct {
	ID   Value
	Data []byte
}

// Bound is one side of a range query.
type Bound struct {
	Value        Value
	IncludeEqual bool
}

// Bounds limits a range query on an [Index]. Nil sides are open.
type Bounds struct {
	GreaterThan *Bound
	LowerThan   *Bound
}

// Sort represents an ordered list of fields which should be used to sort query
// results, applied in sequence.
type Sort = []SortName

// SortName represents a single field and the order which should be used to sort
// it. A positive Order value means ascending order and a negative value means
// descending order.
type SortName struct {
	Key   string
	Order int64
}

// EngineOptions holds the parameters an [EngineFactory] opens a file with.
type EngineOptions struct {
	ReadOnly bool
	// LockTimeout bounds the wait for the file lock. Zero means the
	// factory default.
	LockTimeout time.Duration
}

// EngineFactory opens an [Engine] on a file that must already exist.
type EngineFactory = func(ctx context.Context, path string, opts EngineOptions) (Engine, error)

// DocumentViewFactory wraps a document into a [DocumentView].
type DocumentViewFactory = func(*Document) DocumentView

// CursorFactory represents a function that constructs [Cursor] instances from
// a set of views with configurable options.
type CursorFactory = func(context.Context, []DocumentView, ...CursorOption) (Cursor, error)

// IndexFactory represents a function that constructs [Index] instances with
// configurable options.
type IndexFactory = func(...IndexOption) (Index, error)
