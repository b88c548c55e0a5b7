// dbexplorer is an interactive explorer for embedded document databases.
//
// Usage:
//
//	dbexplorer [flags] [file]
//
// With a file, the database is opened (or created with --create) before the
// prompt starts. --diagnose prints a report about the file and exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	flag "github.com/spf13/pflag"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/diagnostics"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/session"
	"github.com/vinicius-lino-figueiredo/dbexplorer/adapter/storage"
	"github.com/vinicius-lino-figueiredo/dbexplorer/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	config      string
	password    string
	pageSize    int
	lockTimeout string
	logLevel    string
	readOnly    bool
	diagnose    bool
	create      bool
}

func flags(o *options) *flag.FlagSet {
	fs := flag.NewFlagSet("dbexplorer", flag.ContinueOnError)
	fs.StringVarP(&o.config, "config", "c", "", "JSON config file, comments allowed")
	fs.StringVarP(&o.password, "password", "p", "", "password of a protected database")
	fs.IntVar(&o.pageSize, "page-size", 0, "documents per page")
	fs.StringVar(&o.lockTimeout, "lock-timeout", "", "how long to wait for the file lock (e.g. 1s)")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&o.readOnly, "read-only", false, "never open the database for writing")
	fs.BoolVar(&o.diagnose, "diagnose", false, "print a report about the file and exit")
	fs.BoolVar(&o.create, "create", false, "create the file instead of opening it")
	return fs
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var o options
	fs := flags(&o)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: dbexplorer [flags] [file]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return 2
	}
	file := fs.Arg(0)

	st := storage.NewStorage()
	cfg, err := LoadConfig(st, o.config)
	if err == nil {
		err = o.apply(fs, &cfg)
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	diag := diagnostics.NewDiagnostics(
		diagnostics.WithStorage(st),
		diagnostics.WithLockTimeout(cfg.LockTimeout),
	)
	if o.diagnose {
		if file == "" {
			fmt.Fprintln(stderr, "error: --diagnose needs a file")
			return 2
		}
		fmt.Fprintln(stdout, diag.Diagnose(ctx, file))
		return 0
	}

	s := session.NewSession(
		session.WithLogger(logger),
		session.WithStorage(st),
		session.WithLockTimeout(cfg.LockTimeout),
	)
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warnw("closing database", "error", err)
		}
	}()

	r := newREPL(s, diag, cfg, stdout, logger)
	defer func() { _ = r.shutdown() }()

	if file != "" {
		if err := openFile(ctx, s, file, o.create, cfg); err != nil {
			r.report(err)
			fmt.Fprintln(stdout, diag.TroubleshootingGuide(err))
		} else if info, ok := s.Info(); ok {
			r.printInfo("Opened", info)
		}
	}

	if err := r.run(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func openFile(ctx context.Context, s domain.Session, file string, create bool, cfg Config) error {
	if create {
		_, err := s.CreateDatabase(ctx, file, domain.WithCreatePassword(cfg.Password))
		return err
	}
	_, err := s.Open(ctx, file,
		domain.WithOpenPassword(cfg.Password),
		domain.WithOpenReadOnly(cfg.ReadOnly),
	)
	return err
}

// apply copies the flags set on the command line over cfg.
func (o *options) apply(fs *flag.FlagSet, cfg *Config) error {
	raw := map[string]any{}
	if fs.Changed("page-size") {
		raw["page_size"] = o.pageSize
	}
	if fs.Changed("lock-timeout") {
		raw["lock_timeout"] = o.lockTimeout
	}
	if fs.Changed("log-level") {
		raw["log_level"] = o.logLevel
	}
	if fs.Changed("password") {
		raw["password"] = o.password
	}
	if fs.Changed("read-only") {
		raw["read_only"] = o.readOnly
	}
	if err := decodeMap(raw, cfg); err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	return nil
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
