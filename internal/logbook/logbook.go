// Package logbook manages the set of open logs, one tab per log plus a
// trailing tab for creating new logs, and routes record and log operations to
// storage.
//
// Tab positions run 0..len(logs)-1 for logs; position len(logs) is always the
// new-log tab and never holds data.
package logbook

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jask/qsolog/internal/adif"
	"github.com/jask/qsolog/internal/database"
	"github.com/jask/qsolog/internal/database/repository"
)

// NewLogLabel is the label of the trailing new-log tab.
const NewLogLabel = "+"

// LogTab binds an open log to its row selection. Logs and their selections
// live in one slice so they cannot fall out of step.
type LogTab struct {
	Log *Log
	// Selected is the row position of the selected record, or -1.
	Selected int
}

// Logbook owns the open logs and the shared storage connection.
type Logbook struct {
	conn    *database.Connector
	logs    *repository.LogRepo
	records *repository.RecordRepo
	fields  []Field
	tabs    []*LogTab
}

// New returns an empty logbook over conn, showing the given fields.
func New(conn *database.Connector, fields []Field) *Logbook {
	return &Logbook{
		conn:    conn,
		logs:    repository.NewLogRepo(conn.DB()),
		records: repository.NewRecordRepo(conn.DB()),
		fields:  fields,
	}
}

// Restore opens every log registered in storage, in creation order.
func (b *Logbook) Restore(ctx context.Context) error {
	metas, err := b.logs.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list logs")
	}
	for _, m := range metas {
		if err := b.logs.EnsureColumns(ctx, m.TableName, ColumnNames()); err != nil {
			return errors.Wrapf(err, "upgrade log %q", m.Name)
		}
		l, err := b.load(ctx, m)
		if err != nil {
			return err
		}
		b.tabs = append(b.tabs, &LogTab{Log: l, Selected: -1})
	}
	log.Debug().Int("logs", len(metas)).Msg("logbook restored")
	return nil
}

func (b *Logbook) load(ctx context.Context, m repository.LogMeta) (*Log, error) {
	rows, err := b.records.List(ctx, m.TableName, ColumnNames())
	if err != nil {
		return nil, errors.Wrapf(err, "load log %q", m.Name)
	}
	l := &Log{meta: m, fields: b.fields, records: make([]Record, 0, len(rows))}
	for _, row := range rows {
		l.records = append(l.records, Record{Index: row.Index, Fields: row.Values})
	}
	return l, nil
}

// Fields returns the selected fields shown as columns.
func (b *Logbook) Fields() []Field { return b.fields }

// Tabs returns the open logs in tab order, excluding the new-log tab.
func (b *Logbook) Tabs() []*LogTab { return b.tabs }

// LogCount returns the number of open logs.
func (b *Logbook) LogCount() int { return len(b.tabs) }

// TabCount returns the number of tabs including the new-log tab.
func (b *Logbook) TabCount() int { return len(b.tabs) + 1 }

// NewLogTab returns the position of the new-log tab.
func (b *Logbook) NewLogTab() int { return len(b.tabs) }

// LogIndex resolves a tab position to a log index, or -1 when the tab is the
// new-log tab or out of range.
func (b *Logbook) LogIndex(tab int) int {
	if tab < 0 || tab >= len(b.tabs) {
		return -1
	}
	return tab
}

// Tab returns the log tab at position tab.
func (b *Logbook) Tab(tab int) (*LogTab, error) {
	i := b.LogIndex(tab)
	if i < 0 {
		return nil, ErrNoLog
	}
	return b.tabs[i], nil
}

// TabLabel returns the label shown for a tab position.
func (b *Logbook) TabLabel(tab int) string {
	t, err := b.Tab(tab)
	if err != nil {
		return NewLogLabel
	}
	if t.Log.Modified() {
		return t.Log.Name() + " *"
	}
	return t.Log.Name()
}

// CheckName reports why name cannot be used for a new log, if it cannot.
func (b *Logbook) CheckName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if strings.HasPrefix(strings.ToLower(name), "sqlite_") {
		return errors.Wrapf(ErrReservedName, "%q", name)
	}
	exists, err := b.conn.TableExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(ErrNameTaken, "log with name %s already exists, please choose another name", name)
	}
	return nil
}

// CreateLog creates an empty log named name and appends its tab. It returns
// the new tab's position.
func (b *Logbook) CreateLog(ctx context.Context, name string) (int, error) {
	if err := b.CheckName(ctx, name); err != nil {
		log.Error().Err(err).Str("name", name).Msg("cannot create log")
		return -1, err
	}
	name = strings.TrimSpace(name)
	m := repository.LogMeta{ID: uuid.NewString(), TableName: name, Name: name}
	if err := b.logs.Create(ctx, m, ColumnNames()); err != nil {
		return -1, errors.Wrapf(err, "create log %q", name)
	}
	b.tabs = append(b.tabs, &LogTab{Log: &Log{meta: m, fields: b.fields}, Selected: -1})
	log.Info().Str("log", name).Msg("log created")
	return len(b.tabs) - 1, nil
}

// DeleteLog destroys the log at tab: its table, metadata and tab.
func (b *Logbook) DeleteLog(ctx context.Context, tab int) error {
	i := b.LogIndex(tab)
	if i < 0 {
		log.Debug().Int("tab", tab).Msg("no log to delete")
		return ErrNoLog
	}
	l := b.tabs[i].Log
	if err := b.logs.Delete(ctx, l.meta); err != nil {
		return errors.Wrapf(err, "delete log %q", l.Name())
	}
	b.tabs = append(b.tabs[:i], b.tabs[i+1:]...)
	log.Info().Str("log", l.Name()).Msg("log deleted")
	return nil
}

// ImportLog reads an ADIF file into a new log and appends its tab. A file
// that is already open as a log is rejected.
func (b *Logbook) ImportLog(ctx context.Context, path string) (int, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	for _, t := range b.tabs {
		if t.Log.Path() == path {
			return -1, errors.Wrapf(ErrAlreadyOpen, "log %s is already open", path)
		}
	}

	raw, err := adif.Read(path)
	if err != nil {
		return -1, err
	}
	rows := make([]repository.RecordRow, 0, len(raw))
	unknown := map[string]bool{}
	for i, rec := range raw {
		values := make(map[string]string, len(rec))
		for name, v := range rec {
			if _, ok := LookupField(name); !ok {
				if !unknown[name] {
					unknown[name] = true
					log.Warn().Str("field", name).Str("suggest", SuggestField(name)).Str("file", path).Msg("dropping unknown ADIF field")
				}
				continue
			}
			values[name] = v
		}
		rows = append(rows, repository.RecordRow{Index: i, Values: values})
	}

	table, err := b.uniqueTableName(ctx, filepath.Base(path))
	if err != nil {
		return -1, err
	}
	m := repository.LogMeta{ID: uuid.NewString(), TableName: table, Name: filepath.Base(path), Path: &path}
	if err := b.logs.Create(ctx, m, ColumnNames()); err != nil {
		return -1, errors.Wrapf(err, "create log for %s", path)
	}
	if err := b.records.Insert(ctx, m.ID, table, rows...); err != nil {
		b.discard(ctx, m)
		return -1, errors.Wrapf(err, "import %s", path)
	}
	// a freshly imported log matches its file
	if err := b.logs.UpdateBinding(ctx, m.ID, m.Name, m.Path, false); err != nil {
		b.discard(ctx, m)
		return -1, errors.Wrapf(err, "bind log to %s", path)
	}
	m.NextIndex = len(rows)

	l := &Log{meta: m, fields: b.fields, records: make([]Record, 0, len(rows))}
	for _, row := range rows {
		l.records = append(l.records, Record{Index: row.Index, Fields: row.Values})
	}
	b.tabs = append(b.tabs, &LogTab{Log: l, Selected: -1})
	log.Info().Str("log", m.Name).Str("path", path).Int("records", len(rows)).Msg("log imported")
	return len(b.tabs) - 1, nil
}

// discard removes a log whose import did not complete, so it does not come
// back on the next Restore.
func (b *Logbook) discard(ctx context.Context, m repository.LogMeta) {
	if err := b.logs.Delete(ctx, m); err != nil {
		log.Error().Err(err).Str("log", m.Name).Str("table", m.TableName).Msg("could not remove partially imported log")
	}
}

var unsafeTableChars = regexp.MustCompile(`[^A-Za-z0-9_]+`)

func (b *Logbook) uniqueTableName(ctx context.Context, base string) (string, error) {
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Trim(unsafeTableChars.ReplaceAllString(base, "_"), "_")
	if base == "" || strings.HasPrefix(strings.ToLower(base), "sqlite_") {
		base = "log_" + base
	}
	name := base
	for n := 2; ; n++ {
		exists, err := b.conn.TableExists(ctx, name)
		if err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
		name = fmt.Sprintf("%s_%d", base, n)
	}
}

// ExportLog writes the log at tab to an ADIF file. When the log had unsaved
// modifications it is rebound to the file: its path and name change and it
// is no longer modified.
func (b *Logbook) ExportLog(ctx context.Context, tab int, path string) error {
	t, err := b.Tab(tab)
	if err != nil {
		log.Debug().Int("tab", tab).Msg("no log to export")
		return err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	l := t.Log
	records := make([]adif.Record, len(l.records))
	for i, r := range l.records {
		records[i] = adif.Record(r.clone().Fields)
	}
	if err := adif.WriteFile(path, records, ColumnNames()); err != nil {
		return err
	}
	log.Info().Str("log", l.Name()).Str("path", path).Msg("log exported")

	if !l.Modified() {
		return nil
	}
	name := filepath.Base(path)
	if err := b.logs.UpdateBinding(ctx, l.ID(), name, &path, false); err != nil {
		return errors.Wrapf(err, "rebind log %q", l.Name())
	}
	l.meta.Name = name
	l.meta.Path = &path
	l.meta.Modified = false
	return nil
}

// Validate checks every selected field of values in column order and returns
// a *FieldError for the first invalid one.
func (b *Logbook) Validate(values map[string]string) error {
	for _, f := range b.fields {
		if err := f.Validate(values[f.Name]); err != nil {
			return &FieldError{Field: f.Name, Friendly: f.Friendly, Err: err}
		}
	}
	return nil
}

func (b *Logbook) selectedValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(b.fields))
	for _, f := range b.fields {
		out[f.Name] = values[f.Name]
	}
	return out
}

// AddRecord validates values and appends them as a new record with the log's
// next index. Nothing is stored unless every selected field is valid. The new
// record becomes the tab's selection.
func (b *Logbook) AddRecord(ctx context.Context, tab int, values map[string]string) (Record, error) {
	t, err := b.Tab(tab)
	if err != nil {
		log.Debug().Int("tab", tab).Msg("tried to add a record, but no log present")
		return Record{}, err
	}
	if err := b.Validate(values); err != nil {
		return Record{}, err
	}
	l := t.Log
	rec := Record{Index: l.meta.NextIndex, Fields: b.selectedValues(values)}
	if err := b.records.Insert(ctx, l.ID(), l.Table(), repository.RecordRow{Index: rec.Index, Values: rec.Fields}); err != nil {
		return Record{}, errors.Wrapf(err, "add record to %q", l.Name())
	}
	l.records = append(l.records, rec)
	l.meta.NextIndex = rec.Index + 1
	l.meta.Modified = true
	t.Selected = len(l.records) - 1
	return rec.clone(), nil
}

// EditRecord validates values and overwrites the selected fields of the
// record with the given index. Other records are untouched.
func (b *Logbook) EditRecord(ctx context.Context, tab, index int, values map[string]string) error {
	t, err := b.Tab(tab)
	if err != nil {
		log.Debug().Int("tab", tab).Msg("tried to edit a record, but no log present")
		return err
	}
	l := t.Log
	pos := l.position(index)
	if pos < 0 {
		return errors.Wrapf(ErrRecordNotFound, "record %d", index)
	}
	if err := b.Validate(values); err != nil {
		return err
	}
	update := b.selectedValues(values)
	if err := b.records.Update(ctx, l.ID(), l.Table(), repository.RecordRow{Index: index, Values: update}); err != nil {
		return errors.Wrapf(err, "edit record %d of %q", index, l.Name())
	}
	fields := l.records[pos].Fields
	if fields == nil {
		fields = map[string]string{}
		l.records[pos].Fields = fields
	}
	for k, v := range update {
		fields[k] = v
	}
	l.meta.Modified = true
	return nil
}

// DeleteRecord removes the record with the given index. Remaining records
// keep their indices. It reports whether a record was removed.
func (b *Logbook) DeleteRecord(ctx context.Context, tab, index int) (bool, error) {
	t, err := b.Tab(tab)
	if err != nil {
		log.Debug().Int("tab", tab).Msg("tried to delete a record, but no log present")
		return false, err
	}
	l := t.Log
	deleted, err := b.records.Delete(ctx, l.ID(), l.Table(), index)
	if err != nil {
		return false, errors.Wrapf(err, "delete record %d of %q", index, l.Name())
	}
	if !deleted {
		return false, nil
	}
	if pos := l.position(index); pos >= 0 {
		l.records = append(l.records[:pos], l.records[pos+1:]...)
	}
	l.meta.Modified = true
	if t.Selected >= len(l.records) {
		t.Selected = len(l.records) - 1
	}
	return true, nil
}

// Select sets the selected row of a tab; out of range rows clear it.
func (b *Logbook) Select(tab, row int) {
	t, err := b.Tab(tab)
	if err != nil {
		return
	}
	if row < 0 || row >= t.Log.RecordCount() {
		row = -1
	}
	t.Selected = row
}

// SelectedRecord resolves a tab's selected row to its record.
func (b *Logbook) SelectedRecord(tab int) (Record, error) {
	t, err := b.Tab(tab)
	if err != nil {
		return Record{}, err
	}
	rec, ok := t.Log.RecordAt(t.Selected)
	if !ok {
		return Record{}, ErrNoSelection
	}
	return rec, nil
}

// Search is not available yet.
func (b *Logbook) Search(tab int) error {
	if _, err := b.Tab(tab); err != nil {
		log.Debug().Int("tab", tab).Msg("no log to search")
		return err
	}
	log.Info().Msg("search feature has not yet been implemented")
	return ErrNotImplemented
}
