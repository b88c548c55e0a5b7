package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/converter"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/diagnostics"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/pager"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/search"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/tree"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.uber.org/zap"
)

var (
	errQuit         = errors.New("quit")
	errUsage        = errors.New("wrong arguments")
	errNoDatabase   = errors.New("no database open, use open <file>")
	errNoCollection = errors.New("no collection selected, use ls <collection>")
)

type command struct {
	name    string
	aliases []string
	usage   string
	short   string
	run     func(ctx context.Context, args string) error
}

type repl struct {
	session  domain.Session
	searcher *search.Searcher
	diag     *diagnostics.Diagnostics
	conv     domain.Converter
	pager    *pager.Pager
	cfg      Config
	out      io.Writer
	logger   *zap.SugaredLogger

	collection string
	commands   []*command
}

func newREPL(s domain.Session, d *diagnostics.Diagnostics, cfg Config, out io.Writer, logger *zap.SugaredLogger) *repl {
	r := &repl{
		session: s,
		searcher: search.NewSearcher(s,
			search.WithDebounce(cfg.SearchDebounce),
			search.WithPageSize(cfg.PageSize),
			search.WithLogger(logger),
		),
		diag:   d,
		conv:   converter.NewConverter(converter.WithLogger(logger)),
		pager:  pager.New(cfg.PageSize),
		cfg:    cfg,
		out:    out,
		logger: logger,
	}
	r.commands = []*command{
		{name: "open", usage: "open <file> [-p password] [--read-only]", short: "Open a database file", run: r.open},
		{name: "new", usage: "new <file> [-p password]", short: "Create a database file and open it", run: r.create},
		{name: "close", usage: "close", short: "Close the database", run: r.close},
		{name: "collections", aliases: []string{"cols"}, usage: "collections", short: "List collections", run: r.collections},
		{name: "ls", usage: "ls [collection]", short: "Select a collection and list its first page", run: r.list},
		{name: "next", usage: "next", short: "Show the next page", run: r.next},
		{name: "prev", usage: "prev", short: "Show the previous page", run: r.prev},
		{name: "get", usage: "get <id>", short: "Show a document", run: r.get},
		{name: "tree", usage: "tree <id>", short: "Show a document as a tree", run: r.tree},
		{name: "insert", usage: "insert <json>", short: "Insert a document", run: r.insert},
		{name: "update", usage: "update <id> <json>", short: "Replace a document, keeping its _id", run: r.update},
		{name: "set", usage: "set <id> <path> <json>", short: "Set one field, e.g. set 1 address.city \"Recife\"", run: r.set},
		{name: "unset", usage: "unset <id> <path>", short: "Remove one field", run: r.unset},
		{name: "delete", aliases: []string{"del", "rm"}, usage: "delete <id>... | delete --all", short: "Delete documents", run: r.delete},
		{name: "create", usage: "create <collection>", short: "Create a collection", run: r.createCollection},
		{name: "drop", usage: "drop <collection>", short: "Drop a collection", run: r.drop},
		{name: "find", usage: "find <filter> [--fields a,b.c]", short: "Query the collection with a filter document", run: r.find},
		{name: "search", usage: "search <text>", short: "Search the collection for text", run: r.search},
		{name: "export", usage: "export [file]", short: "Export the collection as JSON", run: r.export},
		{name: "import", usage: "import <file>", short: "Import a JSON array into the collection", run: r.importFile},
		{name: "stats", usage: "stats", short: "Show database statistics", run: r.stats},
		{name: "diagnose", usage: "diagnose [file]", short: "Inspect a database file", run: r.diagnose},
		{name: "version", usage: "version", short: "Show version information", run: r.version},
		{name: "help", aliases: []string{"?"}, usage: "help", short: "Show this help", run: r.help},
		{name: "quit", aliases: []string{"exit", "q"}, usage: "quit", short: "Exit", run: r.quit},
	}
	return r
}

func (r *repl) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *repl) lookup(name string) *command {
	for _, c := range r.commands {
		if c.name == name {
			return c
		}
		for _, a := range c.aliases {
			if a == name {
				return c
			}
		}
	}
	return nil
}

// exec runs one input line. Command failures are printed; only errQuit is
// returned.
func (r *repl) exec(ctx context.Context, line string) error {
	name, args := cutWord(line)
	if name == "" {
		return nil
	}
	c := r.lookup(strings.ToLower(name))
	if c == nil {
		r.printf("unknown command %q, type help for the list\n", name)
		return nil
	}

	err := c.run(ctx, args)
	switch {
	case err == nil:
	case errors.Is(err, errQuit):
		return err
	case errors.Is(err, errUsage):
		r.printf("usage: %s\n", c.usage)
	default:
		r.report(err)
	}
	return nil
}

func (r *repl) report(err error) {
	r.logger.Debugw("command failed", "error", err)
	r.printf("error: %v\n", err)
	if code, ok := domain.EngineCode(err); ok {
		r.printf("hint: %s\n", diagnostics.Hint(code))
	}
	var open domain.ErrOpen
	var roOpen domain.ErrReadOnlyOpen
	var corrupt domain.ErrCorrupt
	if errors.As(err, &open) || errors.As(err, &roOpen) || errors.As(err, &corrupt) {
		r.printf("run diagnose <file> for a detailed report\n")
	}
}

func (r *repl) prompt() string {
	info, ok := r.session.Info()
	if !ok {
		return "dbexplorer> "
	}
	p := filepath.Base(info.Path)
	if r.collection != "" {
		p += "/" + r.collection
	}
	if info.ReadOnly {
		p += " [" + string(info.Mode) + "]"
	}
	return p + "> "
}

func (r *repl) complete(line string) []string {
	var res []string
	lower := strings.ToLower(line)
	for _, c := range r.commands {
		if strings.HasPrefix(c.name, lower) {
			res = append(res, c.name)
		}
	}
	return res
}

// run reads commands until quit, end of input or ctx ends.
func (r *repl) run(ctx context.Context) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(r.complete)

	if r.cfg.HistoryFile != "" {
		if f, err := os.Open(r.cfg.HistoryFile); err == nil {
			_, _ = ln.ReadHistory(f)
			f.Close()
		}
		defer r.saveHistory(ln)
	}

	r.printf("dbexplorer, type help for the list of commands\n")
	for ctx.Err() == nil {
		line, err := ln.Prompt(r.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if err := r.exec(ctx, line); errors.Is(err, errQuit) {
			return nil
		}
	}
	return nil
}

func (r *repl) saveHistory(ln *liner.State) {
	f, err := os.Create(r.cfg.HistoryFile)
	if err != nil {
		r.logger.Warnw("cannot save history", "path", r.cfg.HistoryFile, "error", err)
		return
	}
	defer f.Close()
	if _, err := ln.WriteHistory(f); err != nil {
		r.logger.Warnw("cannot save history", "path", r.cfg.HistoryFile, "error", err)
	}
}

func (r *repl) shutdown() error {
	return r.searcher.Close()
}

func (r *repl) requireOpen() error {
	if !r.session.IsOpen() {
		return errNoDatabase
	}
	return nil
}

func (r *repl) requireCollection() error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	if r.collection == "" {
		return errNoCollection
	}
	return nil
}

func (r *repl) open(ctx context.Context, args string) error {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	password := fs.StringP("password", "p", r.cfg.Password, "")
	readOnly := fs.Bool("read-only", r.cfg.ReadOnly, "")
	if err := fs.Parse(strings.Fields(args)); err != nil || fs.NArg() != 1 {
		return errUsage
	}

	info, err := r.session.Open(ctx, fs.Arg(0),
		domain.WithOpenPassword(*password),
		domain.WithOpenReadOnly(*readOnly),
	)
	if err != nil {
		return err
	}
	r.selectCollection("")
	r.printInfo("Opened", info)
	return nil
}

func (r *repl) create(ctx context.Context, args string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	password := fs.StringP("password", "p", "", "")
	if err := fs.Parse(strings.Fields(args)); err != nil || fs.NArg() != 1 {
		return errUsage
	}

	info, err := r.session.CreateDatabase(ctx, fs.Arg(0), domain.WithCreatePassword(*password))
	if err != nil {
		return err
	}
	r.selectCollection("")
	r.printInfo("Created", info)
	return nil
}

func (r *repl) printInfo(verb string, info domain.OpenInfo) {
	r.printf("%s %s (%s)\n", verb, info.Path, info.Mode)
	if info.Locked {
		r.printf("The file is locked by another process, changes are disabled\n")
	} else if info.ReadOnly {
		r.printf("The database is read-only, changes are disabled\n")
	}
}

func (r *repl) selectCollection(name string) {
	r.searcher.Cancel()
	r.collection = name
	r.pager.Reset(0)
}

func (r *repl) close(context.Context, string) error {
	if !r.session.IsOpen() {
		return errNoDatabase
	}
	path := r.session.Path()
	r.selectCollection("")
	if err := r.session.Close(); err != nil {
		return err
	}
	r.printf("Closed %s\n", path)
	return nil
}

func (r *repl) collections(ctx context.Context, _ string) error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	cols, err := r.session.ListCollections(ctx)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		r.printf("No collections\n")
		return nil
	}
	t := newTable("COLLECTION", "DOCUMENTS")
	for _, c := range cols {
		t.add(c.Name, c.FormattedCount())
	}
	return t.render(r.out)
}

func (r *repl) list(ctx context.Context, args string) error {
	if name := strings.TrimSpace(args); name != "" {
		if err := r.requireOpen(); err != nil {
			return err
		}
		r.selectCollection(name)
	}
	return r.page(ctx)
}

func (r *repl) page(ctx context.Context) error {
	if err := r.requireCollection(); err != nil {
		return err
	}
	total, err := r.session.CountDocuments(ctx, r.collection)
	if err != nil {
		return err
	}
	r.pager.Total = total

	views, err := r.session.ListDocuments(ctx, r.collection, r.pager.Skip(), r.pager.Limit())
	if err != nil {
		return err
	}
	if err := r.documents(views); err != nil {
		return err
	}
	r.printf("%s, %s documents\n", r.pager.Info(), domain.GroupThousands(total))
	return nil
}

func (r *repl) documents(views []domain.DocumentView) error {
	if len(views) == 0 {
		r.printf("No documents\n")
		return nil
	}
	t := newTable("_ID", "DOCUMENT")
	for _, v := range views {
		text, err := r.conv.Marshal(v.Document(), false)
		if err != nil {
			text = v.JSONString()
		}
		t.add(v.ID(), text)
	}
	return t.render(r.out)
}

func (r *repl) next(ctx context.Context, _ string) error {
	if err := r.requireCollection(); err != nil {
		return err
	}
	if !r.pager.Next() {
		r.printf("Already on the last page\n")
		return nil
	}
	return r.page(ctx)
}

func (r *repl) prev(ctx context.Context, _ string) error {
	if err := r.requireCollection(); err != nil {
		return err
	}
	if !r.pager.Prev() {
		r.printf("Already on the first page\n")
		return nil
	}
	return r.page(ctx)
}

func (r *repl) document(ctx context.Context, args string) (domain.DocumentView, error) {
	if err := r.requireCollection(); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(args)
	if id == "" {
		return nil, errUsage
	}
	v, err := r.session.GetDocumentByID(ctx, r.collection, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("document %s not found in %s", id, r.collection)
	}
	return v, nil
}

func (r *repl) get(ctx context.Context, args string) error {
	v, err := r.document(ctx, args)
	if err != nil {
		return err
	}
	r.printf("%s\n", v.JSONString())
	return nil
}

func (r *repl) tree(ctx context.Context, args string) error {
	v, err := r.document(ctx, args)
	if err != nil {
		return err
	}
	r.printf("%s", tree.Render(tree.Build(v.Document())))
	return nil
}

func (r *repl) insert(ctx context.Context, args string) error {
	if err := r.requireCollection(); err != nil {
		return err
	}
	if strings.TrimSpace(args) == "" {
		return errUsage
	}
	v, err := r.session.Insert(ctx, r.collection, args)
	if err != nil {
		return err
	}
	r.printf("Inserted %s\n", v.ID())
	return nil
}

func (r *repl) update(ctx context.Context, args string) error {
	if err := r.requireCollection(); err != nil {
		return err
	}
	id, text := cutWord(args)
	if id == "" || strings.TrimSpace(text) == "" {
		return errUsage
	}
	ok, err := r.session.UpdateByID(ctx, r.collection, id, text)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("document %s not found in %s", id, r.collection)
	}
	r.printf("Updated %s\n", id)
	return nil
}

func (r *repl) set(ctx context.Context, args string) error {
	id, rest := cutWord(args)
	path, value := cutWord(rest)
	if id == "" || path == "" || value == "" {
		return errUsage
	}
	if err := r.editable(ctx, id, path); err != nil {
		return err
	}
	key, err := json.Marshal(path)
	if err != nil {
		return err
	}
	return r.modify(ctx, id, fmt.Sprintf(`{"$set": {%s: %s}}`, key, value))
}

func (r *repl) unset(ctx context.Context, args string) error {
	id, path := cutWord(args)
	if id == "" || path == "" {
		return errUsage
	}
	if err := r.editable(ctx, id, path); err != nil {
		return err
	}
	key, err := json.Marshal(path)
	if err != nil {
		return err
	}
	return r.modify(ctx, id, fmt.Sprintf(`{"$unset": {%s: true}}`, key))
}

// editable refuses paths the tree view shows as read-only, such as _id. New
// fields are allowed.
func (r *repl) editable(ctx context.Context, id, path string) error {
	v, err := r.document(ctx, id)
	if err != nil {
		return err
	}
	if n := tree.Build(v.Document()).Find(path); n != nil && !n.Editable {
		return fmt.Errorf("field %s of a %s value cannot be edited", path, n.Kind)
	}
	return nil
}

func (r *repl) modify(ctx context.Context, id, text string) error {
	ok, err := r.session.UpdateFields(ctx, r.collection, id, text)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("document %s not found in %s", id, r.collection)
	}
	r.printf("Updated %s\n", id)
	return nil
}

func (r *repl) delete(ctx context.Context, args string) error {
	if err := r.requireCollection(); err != nil {
		return err
	}
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return errUsage
	}
	if len(fields) == 1 && fields[0] == "--all" {
		n, err := r.session.DeleteAll(ctx, r.collection)
		if err != nil {
			return err
		}
		r.printf("Deleted %d documents\n", n)
		return nil
	}

	ids := make([]any, len(fields))
	for n, f := range fields {
		ids[n] = f
	}
	n, all, err := r.session.DeleteMany(ctx, r.collection, ids...)
	r.printf("Deleted %d of %d documents\n", n, len(ids))
	if err != nil {
		return err
	}
	if !all {
		r.printf("Some documents were not found\n")
	}
	return nil
}

func (r *repl) createCollection(ctx context.Context, args string) error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	name := strings.TrimSpace(args)
	if name == "" {
		return errUsage
	}
	if _, err := r.session.CreateCollection(ctx, name); err != nil {
		return err
	}
	r.printf("Created collection %s\n", name)
	return nil
}

func (r *repl) drop(ctx context.Context, args string) error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	name := strings.TrimSpace(args)
	if name == "" {
		return errUsage
	}
	ok, err := r.session.DropCollection(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("collection %s not found", name)
	}
	if name == r.collection {
		r.selectCollection("")
	}
	r.printf("Dropped collection %s\n", name)
	return nil
}

func (r *repl) find(ctx context.Context, args string) error {
	if err := r.requireCollection(); err != nil {
		return err
	}
	opts := []domain.FindOption{domain.WithFindLimit(int64(r.pager.Limit()))}
	filter, fields, ok := strings.Cut(args, "--fields")
	if ok {
		proj, err := projection(fields)
		if err != nil {
			return err
		}
		opts = append(opts, domain.WithFindProjection(proj))
	}
	cur, err := r.session.ExecuteQuery(ctx, r.collection, strings.TrimSpace(filter), opts...)
	if err != nil {
		return err
	}
	defer cur.Close()

	var views []domain.DocumentView
	for cur.Next() {
		v, err := cur.View()
		if err != nil {
			return err
		}
		views = append(views, v)
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if err := r.documents(views); err != nil {
		return err
	}
	r.printf("%d documents matched\n", len(views))
	return nil
}

func (r *repl) search(ctx context.Context, args string) error {
	if err := r.requireCollection(); err != nil {
		return err
	}
	results := make(chan search.Result, 1)
	err := r.searcher.Search(ctx, r.collection, args, func(res search.Result) {
		results <- res
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		r.searcher.Cancel()
		return ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return res.Err
		}
		if err := r.documents(res.Views); err != nil {
			return err
		}
		r.printf("%d documents match %q\n", len(res.Views), res.Term)
		return nil
	}
}

func (r *repl) export(ctx context.Context, args string) error {
	if err := r.requireCollection(); err != nil {
		return err
	}
	path := strings.TrimSpace(args)
	if path == "" {
		if err := r.session.ExportCollectionTo(ctx, r.collection, r.out); err != nil {
			return err
		}
		r.printf("\n")
		return nil
	}
	if err := r.session.ExportCollectionToFile(ctx, r.collection, path); err != nil {
		return err
	}
	r.printf("Exported %s to %s\n", r.collection, path)
	return nil
}

func (r *repl) importFile(ctx context.Context, args string) error {
	if err := r.requireCollection(); err != nil {
		return err
	}
	path := strings.TrimSpace(args)
	if path == "" {
		return errUsage
	}
	res, err := r.session.ImportCollectionFromFile(ctx, r.collection, path)
	if err != nil {
		return err
	}
	r.printf("Imported %d documents into %s\n", res.Inserted, r.collection)
	return nil
}

func (r *repl) stats(ctx context.Context, _ string) error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	st, err := r.session.DatabaseStats(ctx)
	if err != nil {
		return err
	}
	t := newTable("STAT", "VALUE")
	t.add("Path", st.Path)
	t.add("File size", domain.FormatBytes(st.FileSize))
	t.add("Last modified", st.LastModified.Format("2006-01-02 15:04:05"))
	t.add("Collections", domain.GroupThousands(int64(st.TotalCollections)))
	t.add("Documents", domain.GroupThousands(st.TotalDocuments))
	t.add("Read-only", fmt.Sprint(st.ReadOnly))
	return t.render(r.out)
}

func (r *repl) diagnose(ctx context.Context, args string) error {
	path := strings.TrimSpace(args)
	if path == "" {
		path = r.session.Path()
	}
	if path == "" {
		return errUsage
	}
	r.printf("%s\n", r.diag.Diagnose(ctx, path))
	return nil
}

func (r *repl) version(context.Context, string) error {
	t := newTable("COMPONENT", "VERSION")
	for _, item := range r.diag.VersionInfo() {
		t.add(item.Key, item.Value)
	}
	return t.render(r.out)
}

func (r *repl) help(context.Context, string) error {
	r.printf("Commands:\n")
	for _, c := range r.commands {
		r.printf("  %-42s %s\n", c.usage, c.short)
	}
	r.printf("\nIdentifiers are matched as ObjectId, text, Guid or number.\n")
	return nil
}

func (r *repl) quit(context.Context, string) error {
	return errQuit
}

// cutWord splits the first whitespace separated word from s.
// projection reads "a,-b" as keep a and omit b.
func projection(fields string) (map[string]uint8, error) {
	proj := map[string]uint8{}
	for _, f := range strings.Split(fields, ",") {
		f = strings.TrimSpace(f)
		if omit, ok := strings.CutPrefix(f, "-"); ok {
			proj[omit] = 0
		} else {
			proj[f] = 1
		}
	}
	if len(proj) == 1 && proj[""] == 1 {
		return nil, errUsage
	}
	return proj, nil
}

func cutWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return r == ' ' || r == '\t' })
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
