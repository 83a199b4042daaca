package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Connector owns the single connection to the logbook's SQLite file.
type Connector struct {
	path string
	db   *sql.DB
}

// Connect creates the parent directory, applies migrations and opens the
// database at path. Callers treat a failure as fatal.
func Connect(path string) (*Connector, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "mkdir db dir")
		}
	}
	if err := Migrate(path); err != nil {
		return nil, errors.Wrap(err, "migrate")
	}
	db, err := Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping db")
	}
	log.Debug().Str("path", path).Msg("database connected")
	return &Connector{path: path, db: db}, nil
}

// Open opens sqlite with sensible defaults.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return db, nil
}

// dsn builds a sqlite URI for path. The path is escaped so '?', '#' and '%'
// in file names are not read as URI syntax.
func dsn(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", (&url.URL{Path: path}).EscapedPath())
}

// DB returns the underlying handle, or nil once disconnected.
func (c *Connector) DB() *sql.DB { return c.db }

// Path is the database file the connector was opened on.
func (c *Connector) Path() string { return c.path }

// Connected reports whether Disconnect has not yet been called.
func (c *Connector) Connected() bool { return c.db != nil }

// Disconnect closes the connection. Calling it again is a no-op that succeeds.
func (c *Connector) Disconnect() error {
	if c.db == nil {
		log.Error().Str("path", c.path).Msg("already disconnected, nothing to do")
		return nil
	}
	db := c.db
	c.db = nil
	if err := db.Close(); err != nil {
		log.Error().Err(err).Str("path", c.path).Msg("close database")
		return errors.Wrap(err, "close db")
	}
	log.Debug().Str("path", c.path).Msg("database disconnected")
	return nil
}

// TableExists reports whether a table with the given name exists. SQLite
// table names are case-insensitive, so the comparison is too.
func (c *Connector) TableExists(ctx context.Context, name string) (bool, error) {
	if c.db == nil {
		return false, errors.New("database is disconnected")
	}
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE`, name).Scan(&n)
	if err != nil {
		return false, errors.Wrapf(err, "lookup table %q", name)
	}
	return n > 0, nil
}

// WithTx runs fn in a transaction.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Now is the timestamp stored on new rows: UTC, whole seconds.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
