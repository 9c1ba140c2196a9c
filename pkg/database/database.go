package database

import (
	"context"
	"io/fs"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

type DB struct {
	Driver       string `yaml:"driver" envconfig:"DB_DRIVER" default:"sqlite3"`
	DSN          string `yaml:"dsn" envconfig:"DB_DSN" default:"file:library.db?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate"`
	MaxOpenConns int    `yaml:"maxOpenConns" envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
}

// NewDB connects and applies every pending migration found in migrations.
// migrations holds one directory per dialect: "postgres" and "sqlite3".
func NewDB(ctx context.Context, cfg *DB, migrations fs.FS) (*sqlx.DB, error) {
	db, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if migrations == nil {
		return db, nil
	}
	if err := Migrate(ctx, db, migrations); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func Open(ctx context.Context, cfg *DB) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, errors.Errorf("unsupported db driver %q", cfg.Driver)
	}
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "db connect")
	}
	switch {
	case cfg.Driver == DriverSQLite && isMemory(cfg.DSN):
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return db, nil
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func NewMigrator(db *sqlx.DB, migrations fs.FS) (*goose.Provider, error) {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch db.DriverName() {
	case DriverPostgres:
		dialect, dir = goose.DialectPostgres, "postgres"
	case DriverSQLite:
		dialect, dir = goose.DialectSQLite3, "sqlite3"
	default:
		return nil, errors.Errorf("no migrations for driver %q", db.DriverName())
	}
	sub, err := fs.Sub(migrations, dir)
	if err != nil {
		return nil, errors.Wrap(err, "migrations dir")
	}
	return goose.NewProvider(dialect, db.DB, sub)
}

func Migrate(ctx context.Context, db *sqlx.DB, migrations fs.FS) error {
	p, err := NewMigrator(db, migrations)
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return errors.Wrap(err, "migrate up")
	}
	return nil
}
