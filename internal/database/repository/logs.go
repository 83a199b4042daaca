package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/jask/qsolog/internal/database"
)

// LogRepo handles log metadata and the per-log tables.
type LogRepo struct {
	db *sql.DB
}

func NewLogRepo(db *sql.DB) *LogRepo { return &LogRepo{db: db} }

// Create creates the log's table with one TEXT column per field and registers
// its metadata, atomically. A zero CreatedAt is stamped with database.Now.
func (r *LogRepo) Create(ctx context.Context, m LogMeta, columns []string) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = database.Now()
	}
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, createTableSQL(m.TableName, columns)); err != nil {
			return errors.Wrapf(err, "create table %q", m.TableName)
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO logbook_logs(id, table_name, name, path, modified, next_index, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?);
		`, m.ID, m.TableName, m.Name, m.Path, m.Modified, m.NextIndex, m.CreatedAt)
		return errors.Wrapf(err, "register log %q", m.Name)
	})
}

// EnsureColumns adds any missing field columns to an existing log table.
func (r *LogRepo) EnsureColumns(ctx context.Context, table string, columns []string) error {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return err
	}
	have := map[string]bool{}
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			rows.Close()
			return err
		}
		have[strings.ToUpper(name)] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, col := range columns {
		if have[strings.ToUpper(col)] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT NOT NULL DEFAULT ''", quoteIdent(table), quoteIdent(col))
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "add column %s to %q", col, table)
		}
	}
	return nil
}

// List returns all registered logs in creation order.
func (r *LogRepo) List(ctx context.Context) ([]LogMeta, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, table_name, name, path, modified, next_index, created_at
	FROM logbook_logs ORDER BY created_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LogMeta
	for rows.Next() {
		m, err := scanLogMeta(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get returns the log with the given id, or nil when absent.
func (r *LogRepo) Get(ctx context.Context, id string) (*LogMeta, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, table_name, name, path, modified, next_index, created_at
	FROM logbook_logs WHERE id = ?`, id)
	m, err := scanLogMeta(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// Delete drops the log's table and its metadata row.
func (r *LogRepo) Delete(ctx context.Context, m LogMeta) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(m.TableName)); err != nil {
			return errors.Wrapf(err, "drop table %q", m.TableName)
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM logbook_logs WHERE id = ?`, m.ID)
		return errors.Wrapf(err, "unregister log %q", m.Name)
	})
}

// UpdateBinding rebinds a log's display name and file path and sets its
// modified flag.
func (r *LogRepo) UpdateBinding(ctx context.Context, id, name string, path *string, modified bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE logbook_logs SET name = ?, path = ?, modified = ? WHERE id = ?`, name, path, modified, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLogMeta(s rowScanner) (LogMeta, error) {
	var (
		m    LogMeta
		path sql.NullString
	)
	if err := s.Scan(&m.ID, &m.TableName, &m.Name, &path, &m.Modified, &m.NextIndex, &m.CreatedAt); err != nil {
		return LogMeta{}, err
	}
	if path.Valid {
		p := path.String
		m.Path = &p
	}
	return m, nil
}

func createTableSQL(table string, columns []string) string {
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, quoteIdent(IndexColumn)+" INTEGER PRIMARY KEY")
	for _, col := range columns {
		defs = append(defs, quoteIdent(col)+" TEXT NOT NULL DEFAULT ''")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}
