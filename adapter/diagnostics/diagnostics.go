// Package diagnostics inspects database files that fail to open and explains
// engine errors.
package diagnostics

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/engine"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/storage"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.uber.org/multierr"
)

const (
	// MinFileSize is the size under which a file is reported as too small
	// to be a database.
	MinFileSize = 8192
	// HeaderSize is the number of bytes dumped from the start of the file.
	HeaderSize = 32
	// Magic is the marker of a bbolt meta page.
	Magic uint32 = 0xED0CDAED

	maxListed  = 5
	enginePath = "go.etcd.io/bbolt"
)

// meta page layout: 16 bytes of page header, then magic, version and page
// size as native-endian uint32 values
const (
	metaPageFlag = 0x04
	flagsOffset  = 8
	magicOffset  = 16
	versionOff   = 20
	pageSizeOff  = 24
)

var hints = map[int]string{
	domain.CodeInvalidFormat:      "the file is not a valid database or is corrupted",
	domain.CodeWrongPassword:      "the database is password protected",
	domain.CodeLocked:             "the database is locked by another process",
	domain.CodeUnsupportedVersion: "the database version is not supported by this engine",
	domain.CodeIndexNotFound:      "a collection or index structure is missing",
}

// Hint returns the one-line remediation hint for an engine code.
func Hint(code int) string {
	if h, ok := hints[code]; ok {
		return h
	}
	return "see the engine documentation for error code " + strconv.Itoa(code)
}

// Diagnostics builds reports about database files.
type Diagnostics struct {
	storage       domain.Storage
	engineFactory domain.EngineFactory
	lockTimeout   time.Duration
	buildInfo     func() (*debug.BuildInfo, bool)
}

// NewDiagnostics returns a new Diagnostics.
func NewDiagnostics(options ...Option) *Diagnostics {
	d := &Diagnostics{
		storage:       storage.NewStorage(),
		engineFactory: engine.Open,
		buildInfo:     debug.ReadBuildInfo,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

type report struct {
	lines []string
}

func (r *report) ok(format string, args ...any)   { r.add("[ok]   ", format, args...) }
func (r *report) warn(format string, args ...any) { r.add("[warn] ", format, args...) }
func (r *report) fail(format string, args ...any) { r.add("[fail] ", format, args...) }
func (r *report) info(format string, args ...any) { r.add("       ", format, args...) }

func (r *report) add(prefix, format string, args ...any) {
	r.lines = append(r.lines, prefix+fmt.Sprintf(format, args...))
}

func (r *report) String() string {
	return strings.Join(r.lines, "\n")
}

// Diagnose returns a multi-line report about the file at path. It never
// fails: problems become lines of the report.
func (d *Diagnostics) Diagnose(ctx context.Context, path string) string {
	r := &report{}
	r.info("Database file: %s", path)

	st, err := d.storage.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.fail("File does not exist")
		} else {
			r.fail("Cannot read file information: %v", err)
		}
		return r.String()
	}
	if st.IsDir() {
		r.fail("Path is a directory")
		return r.String()
	}
	r.ok("File exists, size %s (%d bytes)", domain.FormatBytes(st.Size()), st.Size())
	r.ok("Last modified %s", st.ModTime().Format("2006-01-02 15:04:05 MST"))

	d.access(r, path)
	d.lock(r, path)
	d.header(r, path, st.Size())
	d.trialOpen(ctx, r, path)
	return r.String()
}

func (d *Diagnostics) access(r *report, path string) {
	acc, err := d.storage.ProbeAccess(path)
	switch {
	case err != nil:
		r.fail("Cannot probe permissions: %v", err)
	case acc.ReadWrite:
		r.ok("File has read/write access")
	case acc.ReadOnly:
		r.warn("File is read-only or write access is denied: %v", acc.WriteErr)
	default:
		r.fail("No access to the file: %v", acc.ReadErr)
	}
}

func (d *Diagnostics) lock(r *report, path string) {
	locked, err := d.storage.ProbeLock(path)
	switch {
	case err != nil:
		r.warn("Cannot probe the file lock: %v", err)
	case locked:
		r.warn("File is locked by another process, it can only be opened read-only")
	default:
		r.ok("File is not locked")
	}
}

func (d *Diagnostics) header(r *report, path string, size int64) {
	if size < MinFileSize {
		r.warn("File too small for a database (%d bytes < %d bytes)", size, MinFileSize)
	}
	head, err := d.storage.ReadHeader(path, HeaderSize)
	if err != nil {
		r.fail("Cannot read file header: %v", err)
		return
	}
	if len(head) == 0 {
		r.warn("File header is empty")
		return
	}
	r.info("File header (%d bytes):", len(head))
	for _, line := range strings.Split(strings.TrimRight(hex.Dump(head), "\n"), "\n") {
		r.info("  %s", line)
	}

	m, ok := ParseMeta(head)
	if !ok {
		r.warn("Header does not start with a database meta page")
		return
	}
	r.ok("Meta page found: magic %#08x, version %d, page size %d", m.Magic, m.Version, m.PageSize)
}

func (d *Diagnostics) trialOpen(ctx context.Context, r *report, path string) {
	e, err := d.engineFactory(ctx, path, domain.EngineOptions{
		ReadOnly:    true,
		LockTimeout: d.lockTimeout,
	})
	if err == nil {
		var names []string
		names, err = e.CollectionNames(ctx)
		err = multierr.Append(err, e.Close())
		if err == nil {
			r.ok("Valid database with %d collections", len(names))
			if len(names) > 0 {
				r.info("Collections: %s", strings.Join(names[:min(len(names), maxListed)], ", "))
			}
			return
		}
	}

	if code, ok := domain.EngineCode(err); ok {
		r.fail("Engine error %d: %v", code, err)
		r.info("-> %s", Hint(code))
		return
	}
	r.fail("Engine error: %v", err)
}

// Meta is the part of a bbolt meta page read from the file header.
type Meta struct {
	Magic    uint32
	Version  uint32
	PageSize uint32
}

// ParseMeta interprets the start of a file as a bbolt meta page. The engine
// writes it in native byte order, so both orders are tried.
func ParseMeta(head []byte) (Meta, bool) {
	if len(head) < pageSizeOff+4 {
		return Meta{}, false
	}
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		if order.Uint32(head[magicOffset:]) != Magic {
			continue
		}
		if order.Uint16(head[flagsOffset:])&metaPageFlag == 0 {
			continue
		}
		return Meta{
			Magic:    Magic,
			Version:  order.Uint32(head[versionOff:]),
			PageSize: order.Uint32(head[pageSizeOff:]),
		}, true
	}
	return Meta{}, false
}

// TroubleshootingGuide returns the long-form list of solutions for err,
// followed by system information.
func (d *Diagnostics) TroubleshootingGuide(err error) string {
	var g []string
	add := func(lines ...string) { g = append(g, lines...) }

	add("=== TROUBLESHOOTING GUIDE ===")
	if err != nil {
		add(fmt.Sprintf("Error type: %T", err), "Message: "+err.Error())
	}
	add("")

	code, hasCode := domain.EngineCode(err)
	var notFound domain.ErrFileNotFound
	var empty domain.ErrEmptyFile
	var corrupt domain.ErrCorrupt
	switch {
	case hasCode:
		add(fmt.Sprintf("Engine error code: %d", code), "")
		add(codeSolutions(code)...)
	case errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist):
		add("SOLUTION for File Not Found:",
			"- Verify the file path is correct",
			"- Check if the file extension is correct (.db)",
			"- Make sure the file has not been moved or deleted",
		)
	case errors.As(err, &empty):
		add("SOLUTION for Empty File:",
			"- The file has no content and cannot be a database",
			"- Create a new database instead of opening this file",
		)
	case errors.Is(err, fs.ErrPermission):
		add("SOLUTION for Access Denied:",
			"- Check the file permissions",
			"- Make sure the file is not read-only",
			"- Verify the file is not in use by another process",
		)
	case errors.Is(err, domain.ErrReadOnly):
		add("SOLUTION for Read-Only Database:",
			"- The database was opened read-only because it is locked or cannot be written",
			"- Close other programs using the file and open it again",
		)
	case errors.As(err, &corrupt):
		add("SOLUTION for Unreadable Database:",
			"- The file opened but its content could not be read",
			"- Restore the database from a backup",
		)
	case isIOError(err):
		add("SOLUTION for I/O Error:",
			"- Check available disk space",
			"- Verify network connectivity if the file is on a network drive",
			"- Try copying the file to a local drive first",
		)
	default:
		add("GENERAL TROUBLESHOOTING STEPS:",
			"- Verify the file is a valid database",
			"- Check file permissions and access rights",
			"- Try opening in read-only mode",
		)
	}

	add("",
		"ADDITIONAL DEBUGGING STEPS:",
		"- Run the diagnose command for a detailed file analysis",
		"- Run with --log-level=debug to see every open attempt",
		"- Try creating a new test database to verify the engine is working",
		"",
		"SYSTEM INFORMATION:",
	)
	for _, item := range d.VersionInfo() {
		add(fmt.Sprintf("- %s: %s", item.Key, item.Value))
	}
	return strings.Join(g, "\n")
}

func codeSolutions(code int) []string {
	switch code {
	case domain.CodeInvalidFormat:
		return []string{
			"SOLUTION for Error 103 (Invalid datafile format):",
			"- The file is not a valid database",
			"- The file may be corrupted",
			"- Inspect the header with a hex editor to check if it contains database content",
			"- If it is a text file, it might be exported JSON data instead of a database",
		}
	case domain.CodeWrongPassword:
		return []string{
			"SOLUTION for Error 104 (Wrong password):",
			"- This database is password protected",
			"- Provide the correct password with --password",
		}
	case domain.CodeLocked:
		return []string{
			"SOLUTION for Error 105 (Database is locked):",
			"- Another process is using the database",
			"- Close any other applications that might be using the file",
			"- Increase --lock-timeout if the other process only holds the lock briefly",
		}
	case domain.CodeUnsupportedVersion:
		return []string{
			"SOLUTION for Error 106 (Version not supported):",
			"- The database was created with a different engine version",
			"- Use the version that created the database",
		}
	case domain.CodeIndexNotFound:
		return []string{
			"SOLUTION for Error 200 (Index not found):",
			"- A collection or index structure is missing",
			"- Try to rebuild the database by exporting and importing its collections",
		}
	default:
		return []string{
			fmt.Sprintf("GENERAL SOLUTION for Error %d:", code),
			"- Verify file permissions and access rights",
			"- Try opening in read-only mode first",
		}
	}
}

func isIOError(err error) bool {
	var pe *fs.PathError
	return errors.As(err, &pe)
}

// InfoItem is one line of [Diagnostics.VersionInfo].
type InfoItem struct {
	Key   string
	Value string
}

// VersionInfo returns module, engine and runtime versions.
func (d *Diagnostics) VersionInfo() []InfoItem {
	module, eng := "unknown", "unknown"
	if bi, ok := d.buildInfo(); ok && bi != nil {
		module = bi.Main.Version
		for _, dep := range bi.Deps {
			if dep.Path == enginePath {
				eng = dep.Version
				if dep.Replace != nil {
					eng = dep.Replace.Version
				}
			}
		}
	}
	return []InfoItem{
		{Key: "dbexplorer version", Value: module},
		{Key: "Engine version", Value: eng},
		{Key: "Go version", Value: runtime.Version()},
		{Key: "OS/Arch", Value: runtime.GOOS + "/" + runtime.GOARCH},
		{Key: "64-bit process", Value: strconv.FormatBool(strconv.IntSize == 64)},
	}
}
