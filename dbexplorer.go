// Package dbexplorer browses and edits embedded document databases.
//
// The basic usage starts with creating a [Session] by calling [NewSession],
// then opening a database file with [Session.Open]. A session holds at most
// one open database. Reads on a session with nothing open return empty
// results instead of errors.
//
// Files that fail to open can be inspected with [Diagnose], which explains
// engine error codes and suggests fixes.
package dbexplorer

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/diagnostics"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/search"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/session"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.uber.org/zap"
)

// Engine error codes, see [ErrEngine].
const (
	CodeInvalidFormat      = domain.CodeInvalidFormat
	CodeWrongPassword      = domain.CodeWrongPassword
	CodeLocked             = domain.CodeLocked
	CodeUnsupportedVersion = domain.CodeUnsupportedVersion
	CodeIndexNotFound      = domain.CodeIndexNotFound
)

// Open modes reported by [OpenInfo].
const (
	ModeReadWrite = domain.ModeReadWrite
	ModeReadOnly  = domain.ModeReadOnly
	ModeSnapshot  = domain.ModeSnapshot
)

var (
	// ErrReadOnly is returned when a mutation is attempted on a database
	// opened read-only.
	ErrReadOnly = domain.ErrReadOnly
	// ErrWrongPassword is wrapped in an [ErrEngine] with code
	// [CodeWrongPassword] when a protected database cannot be unlocked.
	ErrWrongPassword = domain.ErrWrongPassword
	// ErrCannotModifyID is returned by [Session.UpdateFields] for operators
	// targeting _id.
	ErrCannotModifyID = domain.ErrCannotModifyID
	// ErrCursorClosed is returned when trying to perform operations on a
	// closed [Cursor].
	ErrCursorClosed = domain.ErrCursorClosed
	// ErrScanBeforeNext is returned when calling [Cursor.Scan] before
	// calling [Cursor.Next].
	ErrScanBeforeNext = domain.ErrScanBeforeNext
	// ErrSearcherClosed is returned by [Searcher.Search] after
	// [Searcher.Close].
	ErrSearcherClosed = domain.ErrSearcherClosed
)

// ErrFileNotFound is returned by [Session.Open] when the file does not exist.
type ErrFileNotFound = domain.ErrFileNotFound

// ErrEmptyFile is returned by [Session.Open] for zero-length files.
type ErrEmptyFile = domain.ErrEmptyFile

// ErrFileExists is returned by [Session.CreateDatabase] when the target
// already exists.
type ErrFileExists = domain.ErrFileExists

// ErrOpen is returned when every open attempt failed. It wraps the error of
// the first attempt.
type ErrOpen = domain.ErrOpen

// ErrReadOnlyOpen is returned when a locked file could not be opened in any
// read-only mode.
type ErrReadOnlyOpen = domain.ErrReadOnlyOpen

// ErrCorrupt is returned when a file opens but its content cannot be read.
type ErrCorrupt = domain.ErrCorrupt

// ErrEngine carries a numeric engine code. Use [EngineCode] to find one
// anywhere in an error chain.
type ErrEngine = domain.ErrEngine

// ErrParse is returned for document text that is not a valid JSON object.
type ErrParse = domain.ErrParse

// ErrDuplicateID is returned when inserting an identifier that already
// exists.
type ErrDuplicateID = domain.ErrDuplicateID

// ErrInvalidID is returned for identifiers that cannot be stored.
type ErrInvalidID = domain.ErrInvalidID

// ErrCollectionName is returned for invalid or reserved collection names.
type ErrCollectionName = domain.ErrCollectionName

// ErrImport identifies the import entry that made an import fail.
type ErrImport = domain.ErrImport

// ErrDecode wraps third party decoding errors.
type ErrDecode = domain.ErrDecode

// ErrTargetNil is returned when decoding into a nil target.
type ErrTargetNil = domain.ErrTargetNil

// EngineCode returns the engine code found in err, if any.
func EngineCode(err error) (int, bool) {
	return domain.EngineCode(err)
}

// Session is an explorer session over at most one database file.
type Session = domain.Session

// Cursor iterates over the results of [Session.ExecuteQuery].
type Cursor = domain.Cursor

// DocumentView wraps a document with its JSON text and identifier.
type DocumentView = domain.DocumentView

// Document is an ordered set of fields.
type Document = domain.Document

// Value is a document field value.
type Value = domain.Value

// OpenInfo describes how a database was opened.
type OpenInfo = domain.OpenInfo

// CollectionMetadata is an entry of [Session.ListCollections].
type CollectionMetadata = domain.CollectionMetadata

// DatabaseStats is returned by [Session.DatabaseStats].
type DatabaseStats = domain.DatabaseStats

// ImportResult is returned by the import operations.
type ImportResult = domain.ImportResult

// NewSession returns a session with no database open. Available options:
//
// - [WithLogger]: sets the logger, which defaults to a no-op logger.
//
// - [WithLockTimeout]: sets how long an open waits for the file lock.
//
// - [session.WithStorage], [session.WithEngineFactory] and the other
// options of package session replace the underlying implementations.
func NewSession(options ...session.Option) Session {
	return session.NewSession(options...)
}

// WithLogger sets the logger of a [Session].
func WithLogger(l *zap.SugaredLogger) session.Option {
	return session.WithLogger(l)
}

// WithLockTimeout sets how long [Session.Open] waits for the file lock.
func WithLockTimeout(d time.Duration) session.Option {
	return session.WithLockTimeout(d)
}

// WithOpenPassword sets the password used to unlock a protected database.
func WithOpenPassword(p string) domain.OpenOption {
	return domain.WithOpenPassword(p)
}

// WithOpenReadOnly skips the read-write attempt when opening.
func WithOpenReadOnly(r bool) domain.OpenOption {
	return domain.WithOpenReadOnly(r)
}

// WithCreatePassword protects a new database with a password.
func WithCreatePassword(p string) domain.CreateOption {
	return domain.WithCreatePassword(p)
}

// WithFindSkip skips query results.
func WithFindSkip(s int64) domain.FindOption {
	return domain.WithFindSkip(s)
}

// WithFindLimit limits query results.
func WithFindLimit(l int64) domain.FindOption {
	return domain.WithFindLimit(l)
}

// WithFindProjection keeps (1) or omits (0) fields of query results.
func WithFindProjection(p map[string]uint8) domain.FindOption {
	return domain.WithFindProjection(p)
}

// Searcher runs debounced searches over a collection.
type Searcher = search.Searcher

// SearchResult is delivered to the callback of [Searcher.Search].
type SearchResult = search.Result

// NewSearcher returns a searcher listing documents through s.
func NewSearcher(s Session, options ...search.Option) *Searcher {
	return search.NewSearcher(s, options...)
}

// Diagnose returns a report about the database file at path.
func Diagnose(ctx context.Context, path string) string {
	return diagnostics.NewDiagnostics().Diagnose(ctx, path)
}

// TroubleshootingGuide returns the solutions known for err.
func TroubleshootingGuide(err error) string {
	return diagnostics.NewDiagnostics().TroubleshootingGuide(err)
}

// Hint returns the one-line hint for an engine code.
func Hint(code int) string {
	return diagnostics.Hint(code)
}

// VersionInfo returns the versions of this module, the engine and the
// runtime.
func VersionInfo() []diagnostics.InfoItem {
	return diagnostics.NewDiagnostics(diagnostics.WithBuildInfo(debug.ReadBuildInfo)).VersionInfo()
}
