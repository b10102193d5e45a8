package sqlite

import (
	"context"
	"database/sql"
	_ "embed"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/medforge/healthagent/internal/profile"
	"github.com/medforge/healthagent/store"
)

//go:embed schema.sql
var schemaSQL string

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database referenced by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// Connect with some sane settings:
	// - Foreign keys ON: the summary table references the admission table and
	//   the schema relies on the constraint being enforced.
	// - busy_timeout: wait instead of failing when another connection writes.
	// - Journal mode set to WAL: prevents most locking issues.
	//
	// When using the `modernc.org/sqlite` driver, each pragma must be prefixed
	// with `_pragma=`.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// SQLite handles concurrency through its own locking; a single connection
	// with WAL is the optimal configuration for this driver.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the schema when it is not present yet. The schema file only
// contains IF NOT EXISTS statements, so running it repeatedly is safe.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// translateError maps SQLite result codes onto the store sentinel errors so
// callers can react to constraint violations without importing the driver.
func translateError(err error, msg string) error {
	var sqliteErr *sqlitedriver.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return errors.Wrap(store.ErrAlreadyExists, msg)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return errors.Wrap(store.ErrForeignKeyViolation, msg)
		}
	}
	return errors.Wrap(err, msg)
}
