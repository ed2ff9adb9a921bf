// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// The driver is modernc.org/sqlite (pure Go, no CGo). On top of database/sql we use:
//   - sqlx       for scanning rows straight into the db-tagged model structs
//   - squirrel   for building statements (the default "?" placeholders suit SQLite)
//   - goose      for versioned schema migrations embedded in the binary
//   - backoff    for retrying the first ping while the database file becomes available
//
// Every repository method is a single statement, so each write is atomic on its
// own. The favorites uniqueness guarantee lives in the schema (see migrations).
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/refactorium/internal/repository/sqlite/migrations"
)

const defaultConnectTimeout = 10 * time.Second

// Config describes how to open the database.
//
// Path examples:
//   - "data/refactorium.db" → file-based database (persistent)
//   - ":memory:"            → in-memory database (tests)
type Config struct {
	Path           string
	ConnectTimeout time.Duration
}

// DB wraps the sqlx connection pool and implements every repository interface.
type DB struct {
	conn   *sqlx.DB
	logger *slog.Logger
}

// New opens the database, applies pragmas and runs pending migrations.
//
// CONNECTION POOL:
// SQLite serializes writers anyway, so the pool is capped at one connection.
// That also keeps ":memory:" databases consistent: every query sees the same
// in-memory database instead of a fresh one per pooled connection.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	conn, err := sqlx.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := ping(ctx, conn, cfg.ConnectTimeout); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. favorites -> smells relies on them.
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn, logger: logger}

	if err := db.Migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Migrate applies every embedded migration that has not run yet.
// goose records applied versions in its own goose_db_version table.
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{logger: db.logger})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db.conn.DB, "."); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func ping(ctx context.Context, conn *sqlx.DB, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 100 * time.Millisecond
	eb.RandomizationFactor = 0
	eb.Multiplier = 2
	eb.MaxInterval = timeout / 4
	eb.MaxElapsedTime = timeout

	return backoff.Retry(func() error {
		return conn.PingContext(ctx)
	}, backoff.WithContext(eb, ctx))
}

// exec runs a squirrel builder with ExecContext.
func (db *DB) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return rowsAffected, nil
}

// get runs a squirrel builder and scans exactly one row into dest.
func (db *DB) get(ctx context.Context, dest any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return db.conn.GetContext(ctx, dest, query, args...)
}

// sel runs a squirrel builder and scans every row into dest (a slice pointer).
func (db *DB) sel(ctx context.Context, dest any, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return db.conn.SelectContext(ctx, dest, query, args...)
}

// constraintCode returns the extended SQLite result code of a constraint
// violation, or 0 if err is not one.
func constraintCode(err error) int {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0
	}
	switch code := sqliteErr.Code(); code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE,
		sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
		sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return code
	}
	return 0
}

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "goose"))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), slog.String("component", "goose"))
}
