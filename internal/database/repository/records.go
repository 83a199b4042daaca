package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// RecordRepo handles the rows of log tables. Every mutation also marks the
// owning log modified.
type RecordRepo struct {
	db *sql.DB
}

func NewRecordRepo(db *sql.DB) *RecordRepo { return &RecordRepo{db: db} }

// Insert stores rows and advances the log's next index past the largest
// inserted index.
func (r *RecordRepo) Insert(ctx context.Context, logID, table string, rows ...RecordRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	next := 0
	for _, row := range rows {
		cols := []string{quoteIdent(IndexColumn)}
		args := []any{row.Index}
		for _, name := range sortedKeys(row.Values) {
			cols = append(cols, quoteIdent(name))
			args = append(args, row.Values[name])
		}
		stmt := fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s)",
			quoteIdent(table), strings.Join(cols, ", "), placeholders(len(cols)))
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return errors.Wrapf(err, "insert record %d", row.Index)
		}
		if row.Index+1 > next {
			next = row.Index + 1
		}
	}
	if _, err := tx.ExecContext(ctx, `
	UPDATE logbook_logs SET next_index = MAX(next_index, ?), modified = 1 WHERE id = ?`, next, logID); err != nil {
		return errors.Wrap(err, "advance next index")
	}
	return tx.Commit()
}

// Update overwrites the given field values of one row.
func (r *RecordRepo) Update(ctx context.Context, logID, table string, row RecordRow) error {
	if len(row.Values) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var sets []string
	var args []any
	for _, name := range sortedKeys(row.Values) {
		sets = append(sets, quoteIdent(name)+" = ?")
		args = append(args, row.Values[name])
	}
	args = append(args, row.Index)
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", quoteIdent(table), strings.Join(sets, ", "), quoteIdent(IndexColumn))
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return errors.Wrapf(err, "update record %d", row.Index)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	if err := markModified(ctx, tx, logID); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the row with the given index. It reports whether a row was
// removed.
func (r *RecordRepo) Delete(ctx context.Context, logID, table string, index int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quoteIdent(table), quoteIdent(IndexColumn))
	res, err := tx.ExecContext(ctx, stmt, index)
	if err != nil {
		return false, errors.Wrapf(err, "delete record %d", index)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if err := markModified(ctx, tx, logID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// List returns the rows of a log table ordered by index, reading only the
// requested columns.
func (r *RecordRepo) List(ctx context.Context, table string, columns []string) ([]RecordRow, error) {
	cols := []string{quoteIdent(IndexColumn)}
	for _, c := range columns {
		cols = append(cols, quoteIdent(c))
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(cols, ", "), quoteIdent(table), quoteIdent(IndexColumn))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecordRow
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		dest := make([]any, 0, len(columns)+1)
		var row RecordRow
		dest = append(dest, &row.Index)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row.Values = make(map[string]string, len(columns))
		for i, c := range columns {
			row.Values[c] = values[i].String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func markModified(ctx context.Context, tx *sql.Tx, logID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE logbook_logs SET modified = 1 WHERE id = ?`, logID)
	return errors.Wrap(err, "mark log modified")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
