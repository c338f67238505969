// Command migrate applies the embedded PostgreSQL schema migrations.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "RSUA_DB_DSN"

var errUsage = errors.New("exactly one of -up, -down, -steps, -version or -force is required")

type options struct {
	dsn     string
	up      bool
	down    bool
	steps   int
	version bool
	force   int
	verbose bool

	forceSet bool
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			logger.Error("invalid arguments", "error", err)
		}
		os.Exit(2)
	}

	if err := run(opts, logger); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.dsn, "dsn", "", "postgres:// connection URL (default $"+envDSN+", then config.toml)")
	fs.BoolVar(&opts.up, "up", false, "apply all pending migrations")
	fs.BoolVar(&opts.down, "down", false, "revert all migrations")
	fs.IntVar(&opts.steps, "steps", 0, "apply N migrations, or revert when negative")
	fs.BoolVar(&opts.version, "version", false, "print the current schema version")
	fs.IntVar(&opts.force, "force", -1, "mark version N as clean without running it")
	fs.BoolVar(&opts.verbose, "v", false, "log each migration as it runs")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			opts.forceSet = true
		}
	})

	actions := 0
	for _, set := range []bool{opts.up, opts.down, opts.steps != 0, opts.version, opts.forceSet} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		fs.Usage()
		return nil, errUsage
	}
	return opts, nil
}

func resolveDSN(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	db, err := config.LoadDatabase()
	if err != nil {
		return "", fmt.Errorf("no -dsn or %s given and config is incomplete: %w", envDSN, err)
	}
	return db.URL(), nil
}

func run(opts *options, logger *slog.Logger) error {
	dsn, err := resolveDSN(opts.dsn)
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()
	m.Log = &migrateLogger{logger: logger, verbose: opts.verbose}

	switch {
	case opts.version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		logger.Info("schema version", "version", v, "dirty", dirty)
		return nil
	case opts.forceSet:
		if err := m.Force(opts.force); err != nil {
			return fmt.Errorf("force version %d: %w", opts.force, err)
		}
		logger.Info("version forced", "version", opts.force)
		return nil
	case opts.up:
		err = m.Up()
	case opts.down:
		err = m.Down()
	default:
		err = m.Steps(opts.steps)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("schema already current")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("migrations complete")
	return nil
}

// migrateLogger adapts slog to migrate.Logger.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return l.verbose
}
