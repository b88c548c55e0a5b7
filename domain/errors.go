package domain

import (
	"errors"
	"fmt"
)

// Engine error codes. They follow the numbering used by embedded document
// databases so that remediation hints can be keyed by code.
const (
	CodeInvalidFormat      = 103
	CodeWrongPassword      = 104
	CodeLocked             = 105
	CodeUnsupportedVersion = 106
	CodeIndexNotFound      = 200
)

var (
	// ErrNotOpen is returned by lower layers when no database handle is
	// available. The session turns it into an empty result.
	ErrNotOpen = errors.New("no database is open")
	// ErrReadOnly is returned when a mutation is attempted on a database
	// opened in read-only mode. The engine is not contacted.
	ErrReadOnly = errors.New("database is open in read-only mode")
	// ErrWrongPassword is wrapped by [ErrEngine] with
	// [CodeWrongPassword].
	ErrWrongPassword = errors.New("wrong password or password required")
	// ErrCursorClosed is returned when using a closed [Cursor].
	ErrCursorClosed = errors.New("cursor is closed")
	// ErrScanBeforeNext is returned when calling [Cursor.Scan] before
	// calling [Cursor.Next].
	ErrScanBeforeNext = errors.New("called Scan before Next")
	// ErrNonPointer is returned by [Decoder.Decode] when the target is not
	// a pointer.
	ErrNonPointer = errors.New("target is not a pointer")
	// ErrCannotModifyID is returned when an update operator targets _id.
	ErrCannotModifyID = errors.New("cannot modify _id")
	// ErrSearcherClosed is returned by a searcher after Close.
	ErrSearcherClosed = errors.New("searcher is closed")
)

// ErrTargetNil is returned when the passed target, which should be a pointer,
// is passed as a nil value.
type ErrTargetNil struct{}

func (e ErrTargetNil) Error() string { return "target interface is nil" }

// ErrDecode wraps third party decoding errors.
type ErrDecode struct {
	Source any
	Target any
}

func (e ErrDecode) Error() string {
	return fmt.Sprintf("cannot decode %T into %T", e.Source, e.Target)
}

// ErrFileNotFound is returned by Open when the path does not exist.
type ErrFileNotFound struct {
	Path string
}

func (e ErrFileNotFound) Error() string {
	return fmt.Sprintf("database file %q not found", e.Path)
}

// ErrEmptyFile is returned by Open for a zero-length file. No engine call is
// made for such a file.
type ErrEmptyFile struct {
	Path string
}

func (e ErrEmptyFile) Error() string {
	return fmt.Sprintf("database file %q is empty", e.Path)
}

// ErrEngine is a failure reported by the embedded engine, with a numeric
// code when one is known (0 otherwise).
type ErrEngine struct {
	Code int
	Op   string
	Err  error
}

func (e ErrEngine) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("engine error (%s): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("engine error %d (%s): %v", e.Code, e.Op, e.Err)
}

func (e ErrEngine) Unwrap() error { return e.Err }

// ErrOpen is returned when no handle could be obtained. Err is the error of
// the first (read-write) attempt, which is the most diagnostic one.
type ErrOpen struct {
	Path string
	Err  error
}

func (e ErrOpen) Error() string {
	return fmt.Sprintf("cannot open database %q: %v", e.Path, e.Err)
}

func (e ErrOpen) Unwrap() error { return e.Err }

// ErrReadOnlyOpen is returned when a locked file could not be opened in
// read-only mode either.
type ErrReadOnlyOpen struct {
	Path string
	Err  error
}

func (e ErrReadOnlyOpen) Error() string {
	return fmt.Sprintf("cannot open database %q in read-only mode, the file may be corrupted or in use: %v", e.Path, e.Err)
}

func (e ErrReadOnlyOpen) Unwrap() error { return e.Err }

// ErrCorrupt is returned when a handle was obtained but the database could
// not be read.
type ErrCorrupt struct {
	Path string
	Err  error
}

func (e ErrCorrupt) Error() string {
	return fmt.Sprintf("database %q opened but is unreadable or corrupted: %v", e.Path, e.Err)
}

func (e ErrCorrupt) Unwrap() error { return e.Err }

// ErrParse is returned for malformed JSON text. Fragment holds the text
// around the failing offset.
type ErrParse struct {
	Fragment string
	Offset   int
	Err      error
}

func (e ErrParse) Error() string {
	return fmt.Sprintf("invalid JSON at offset %d near %q: %v", e.Offset, e.Fragment, e.Err)
}

func (e ErrParse) Unwrap() error { return e.Err }

// ErrDuplicateID is returned when inserting a document whose _id already
// exists in the collection.
type ErrDuplicateID struct {
	Collection string
	ID         Value
}

func (e ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate _id %s in collection %q", e.ID, e.Collection)
}

// ErrInvalidID is returned when a value cannot be used as _id.
type ErrInvalidID struct {
	Kind Kind
}

func (e ErrInvalidID) Error() string {
	return fmt.Sprintf("a %s value cannot be used as _id", e.Kind)
}

// ErrCollectionName is returned for empty or reserved collection names.
type ErrCollectionName struct {
	Name   string
	Reason string
}

func (e ErrCollectionName) Error() string {
	return fmt.Sprintf("invalid collection name %q: %s", e.Name, e.Reason)
}

// ErrImport is returned when an import is rolled back. Index is the position
// of the failing document in the input array.
type ErrImport struct {
	Index int
	Err   error
}

func (e ErrImport) Error() string {
	return fmt.Sprintf("import aborted at document %d, nothing was inserted: %v", e.Index, e.Err)
}

func (e ErrImport) Unwrap() error { return e.Err }

// EngineCode returns the code of the first [ErrEngine] in err's chain.
func EngineCode(err error) (int, bool) {
	var e ErrEngine
	if errors.As(err, &e) && e.Code != 0 {
		return e.Code, true
	}
	return 0, false
}

// ErrFileExists is returned when creating a database over an existing file.
type ErrFileExists struct {
	Path string
}

func (e ErrFileExists) Error() string {
	return fmt.Sprintf("file %q already exists", e.Path)
}
