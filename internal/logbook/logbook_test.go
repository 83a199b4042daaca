package logbook

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/jask/qsolog/internal/adif"
	"github.com/jask/qsolog/internal/database"
)

var testFields = []string{"CALL", "QSO_DATE", "TIME_ON", "FREQ", "BAND", "MODE"}

func newTestLogbook(t *testing.T) (*Logbook, *database.Connector) {
	t.Helper()
	conn, err := database.Connect(filepath.Join(t.TempDir(), "logbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Disconnect() })
	fields, err := ResolveFields(testFields)
	require.NoError(t, err)
	return New(conn, fields), conn
}

func contact(call string) map[string]string {
	return map[string]string{
		"CALL":     call,
		"QSO_DATE": "20240615",
		"TIME_ON":  "1432",
		"FREQ":     "14.205",
		"BAND":     "20m",
		"MODE":     "SSB",
	}
}

func TestCreateLogRejectsExistingTableThenAccepts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	book, conn := newTestLogbook(t)

	_, err := conn.DB().ExecContext(ctx, `CREATE TABLE "Home" (id INTEGER)`)
	require.NoError(t, err)

	s := NewSession()
	err = s.Submit(func() error {
		_, err := book.CreateLog(ctx, "Home")
		return err
	})
	require.ErrorIs(t, err, ErrNameTaken)
	require.Equal(t, AwaitingInput, s.State(), "dialog stays open on a taken name")
	require.Equal(t, 1, book.TabCount())

	var tab int
	err = s.Submit(func() error {
		var err error
		tab, err = book.CreateLog(ctx, "Field")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, Committed, s.State())
	require.Equal(t, 2, book.TabCount())
	require.Equal(t, book.TabCount()-2, tab, "new log sits just before the + tab")
	require.Equal(t, "Field", book.TabLabel(tab))
	require.Equal(t, NewLogLabel, book.TabLabel(book.NewLogTab()))
}

func TestCreateLogRejectsEmptyAndReservedNames(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	book, _ := newTestLogbook(t)

	_, err := book.CreateLog(ctx, "")
	require.ErrorIs(t, err, ErrEmptyName)
	_, err = book.CreateLog(ctx, "   ")
	require.ErrorIs(t, err, ErrEmptyName)
	_, err = book.CreateLog(ctx, "sqlite_master")
	require.ErrorIs(t, err, ErrReservedName)
	_, err = book.CreateLog(ctx, "logbook_logs")
	require.ErrorIs(t, err, ErrNameTaken)

	_, err = book.CreateLog(ctx, "Home")
	require.NoError(t, err)
	_, err = book.CreateLog(ctx, "home")
	require.ErrorIs(t, err, ErrNameTaken, "names collide case-insensitively")
	require.Equal(t, 1, book.LogCount())
}

func TestDeleteLogKeepsTabsAligned(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	book, conn := newTestLogbook(t)

	for _, name := range []string{"A", "B", "C"} {
		_, err := book.CreateLog(ctx, name)
		require.NoError(t, err)
	}
	_, err := book.AddRecord(ctx, 2, contact("G0CCC"))
	require.NoError(t, err)
	book.Select(0, 0)

	require.NoError(t, book.DeleteLog(ctx, 1))
	require.Equal(t, 2, book.LogCount())
	require.Equal(t, "A", book.TabLabel(0))
	require.Equal(t, "C *", book.TabLabel(1))
	require.Equal(t, 1, book.Tabs()[1].Log.RecordCount())

	exists, err := conn.TableExists(ctx, "B")
	require.NoError(t, err)
	require.False(t, exists)

	require.ErrorIs(t, book.DeleteLog(ctx, book.NewLogTab()), ErrNoLog, "the + tab is not a log")
	require.ErrorIs(t, book.DeleteLog(ctx, -1), ErrNoLog)
	require.Equal(t, -1, book.LogIndex(book.NewLogTab()))
}

func TestAddRecordAssignsSequentialIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	book, _ := newTestLogbook(t)
	tab, err := book.CreateLog(ctx, "Field")
	require.NoError(t, err)

	for i, call := range []string{"G0AAA", "G0BBB", "G0CCC"} {
		prior := book.Tabs()[tab].Log.RecordCount()
		rec, err := book.AddRecord(ctx, tab, contact(call))
		require.NoError(t, err)
		require.Equal(t, i, rec.Index)
		require.Equal(t, prior, rec.Index)
		require.Equal(t, prior+1, book.Tabs()[tab].Log.RecordCount())
		require.Equal(t, i, book.Tabs()[tab].Selected, "new record becomes the selection")
	}
	require.Equal(t, "Field *", book.TabLabel(tab))
}

func TestAddRecordInvalidFieldCommitsNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	book, _ := newTestLogbook(t)
	tab, err := book.CreateLog(ctx, "Field")
	require.NoError(t, err)

	bad := contact("G0AAA")
	bad["FREQ"] = "fourteen"
	bad["MODE"] = "SMOKE"

	s := NewSession()
	err = s.Submit(func() error {
		_, err := book.AddRecord(ctx, tab, bad)
		return err
	})
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "FREQ", fe.Field, "the first invalid field in column order is reported")
	require.Contains(t, err.Error(), "Frequency")
	require.Equal(t, AwaitingInput, s.State())
	require.Equal(t, 0, book.Tabs()[tab].Log.RecordCount())

	s.Cancel()
	require.Equal(t, Aborted, s.State())
}

func TestDeleteRecordPreservesIndices(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	book, _ := newTestLogbook(t)
	tab, err := book.CreateLog(ctx, "Field")
	require.NoError(t, err)
	_, err = book.AddRecord(ctx, tab, contact("G0AAA"))
	require.NoError(t, err)
	_, err = book.AddRecord(ctx, tab, contact("G0BBB"))
	require.NoError(t, err)

	deleted, err := book.DeleteRecord(ctx, tab, 0)
	require.NoError(t, err)
	require.True(t, deleted)

	l := book.Tabs()[tab].Log
	require.Equal(t, 1, l.RecordCount())
	_, ok := l.Record(0)
	require.False(t, ok)
	rec, ok := l.Record(1)
	require.True(t, ok)
	require.Equal(t, "G0BBB", rec.Get("CALL"))

	added, err := book.AddRecord(ctx, tab, contact("G0CCC"))
	require.NoError(t, err)
	require.Equal(t, 2, added.Index, "deleted indices are never reused")

	deleted, err = book.DeleteRecord(ctx, tab, 0)
	require.NoError(t, err)
	require.False(t, deleted)
}

func TestEditRecordTouchesOnlyTarget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	book, _ := newTestLogbook(t)
	tab, err := book.CreateLog(ctx, "Field")
	require.NoError(t, err)
	_, err = book.AddRecord(ctx, tab, contact("G0AAA"))
	require.NoError(t, err)
	_, err = book.AddRecord(ctx, tab, contact("G0BBB"))
	require.NoError(t, err)
	before := book.Tabs()[tab].Log.Records()

	edit := contact("G0BBB/P")
	edit["BAND"] = "40m"
	edit["FREQ"] = "7.100"
	require.NoError(t, book.EditRecord(ctx, tab, 1, edit))

	after := book.Tabs()[tab].Log.Records()
	require.Equal(t, before[0], after[0])
	require.Equal(t, edit, after[1].Fields)

	require.ErrorIs(t, book.EditRecord(ctx, tab, 9, edit), ErrRecordNotFound)

	bad := contact("G0BBB")
	bad["QSO_DATE"] = "2024-06-15"
	require.Error(t, book.EditRecord(ctx, tab, 1, bad))
	rec, _ := book.Tabs()[tab].Log.Record(1)
	require.Equal(t, "G0BBB/P", rec.Get("CALL"), "failed edit leaves the record alone")
}

func TestRestoreReloadsLogs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logbook.db")
	fields, err := ResolveFields(testFields)
	require.NoError(t, err)

	conn, err := database.Connect(path)
	require.NoError(t, err)
	book := New(conn, fields)
	tab, err := book.CreateLog(ctx, "Home")
	require.NoError(t, err)
	_, err = book.AddRecord(ctx, tab, contact("G0AAA"))
	require.NoError(t, err)
	_, err = book.AddRecord(ctx, tab, contact("G0BBB"))
	require.NoError(t, err)
	_, err = book.DeleteRecord(ctx, tab, 0)
	require.NoError(t, err)
	_, err = book.CreateLog(ctx, "Portable")
	require.NoError(t, err)
	require.NoError(t, conn.Disconnect())

	conn, err = database.Connect(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Disconnect() })
	reopened := New(conn, fields)
	require.NoError(t, reopened.Restore(ctx))
	require.Equal(t, 2, reopened.LogCount())
	require.Equal(t, "Home *", reopened.TabLabel(0))
	require.Equal(t, "Portable", reopened.TabLabel(1))

	home := reopened.Tabs()[0].Log
	require.Equal(t, 1, home.RecordCount())
	require.Equal(t, 2, home.NextIndex())
	rec, err := reopened.AddRecord(ctx, 0, contact("G0CCC"))
	require.NoError(t, err)
	require.Equal(t, 2, rec.Index)
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	book, _ := newTestLogbook(t)
	dir := t.TempDir()

	tab, err := book.CreateLog(ctx, "Field")
	require.NoError(t, err)
	for _, call := range []string{"G0AAA", "M0BBB", "2E0CCC"} {
		_, err := book.AddRecord(ctx, tab, contact(call))
		require.NoError(t, err)
	}
	original := book.Tabs()[tab].Log.Records()

	out := filepath.Join(dir, "field-day"+adif.Extension)
	require.NoError(t, book.ExportLog(ctx, tab, out))

	l := book.Tabs()[tab].Log
	require.False(t, l.Modified())
	require.Equal(t, "field-day.adi", l.Name())
	require.Equal(t, out, l.Path())
	require.Equal(t, "field-day.adi", book.TabLabel(tab))

	_, err = book.ImportLog(ctx, out)
	require.ErrorIs(t, err, ErrAlreadyOpen, "the export rebound the log to this file")

	copyPath := filepath.Join(dir, "copy"+adif.Extension)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(copyPath, data, 0o644))

	imported, err := book.ImportLog(ctx, copyPath)
	require.NoError(t, err)
	require.Equal(t, book.LogCount()-1, imported)
	got := book.Tabs()[imported].Log
	require.False(t, got.Modified())
	require.Equal(t, len(original), got.RecordCount())
	for i, rec := range got.Records() {
		require.Equal(t, i, rec.Index)
		for _, f := range book.Fields() {
			require.Equal(t, original[i].Get(f.Name), rec.Get(f.Name), "record %d field %s", i, f.Name)
		}
	}
}

func TestExportUnmodifiedKeepsBinding(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	book, _ := newTestLogbook(t)
	dir := t.TempDir()

	src := filepath.Join(dir, "contest.adi")
	require.NoError(t, adif.WriteFile(src, []adif.Record{{"CALL": "K1ABC", "BAND": "20m", "APP_FOO": "x"}}, nil))
	tab, err := book.ImportLog(ctx, src)
	require.NoError(t, err)
	l := book.Tabs()[tab].Log
	require.Equal(t, "contest.adi", l.Name())
	require.Equal(t, "contest", l.Table())
	rec, _ := l.Record(0)
	require.Equal(t, map[string]string{"CALL": "K1ABC", "BAND": "20m"}, rec.Fields, "unknown fields are dropped")

	dst := filepath.Join(dir, "backup.adi")
	require.NoError(t, book.ExportLog(ctx, tab, dst))
	require.Equal(t, "contest.adi", l.Name())
	require.Equal(t, src, l.Path())

	written, err := adif.Read(dst)
	require.NoError(t, err)
	if diff := cmp.Diff([]adif.Record{{"CALL": "K1ABC", "BAND": "20m"}}, written); diff != "" {
		t.Fatalf("exported records mismatch (-want +got):\n%s", diff)
	}
}

func TestImportNamesTablesUniquely(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	book, _ := newTestLogbook(t)
	dir := t.TempDir()

	_, err := book.CreateLog(ctx, "home")
	require.NoError(t, err)
	for _, sub := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
		path := filepath.Join(dir, sub, "home.adi")
		require.NoError(t, adif.WriteFile(path, []adif.Record{{"CALL": "K1ABC"}}, nil))
		_, err := book.ImportLog(ctx, path)
		require.NoError(t, err)
	}
	require.Equal(t, "home_2", book.Tabs()[1].Log.Table())
	require.Equal(t, "home_3", book.Tabs()[2].Log.Table())
}

func TestImportMissingFile(t *testing.T) {
	t.Parallel()
	book, _ := newTestLogbook(t)
	_, err := book.ImportLog(context.Background(), filepath.Join(t.TempDir(), "missing.adi"))
	require.Error(t, err)
	require.False(t, IsUserError(err))
	require.Equal(t, 0, book.LogCount())
}

func TestSelectionAndSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	book, _ := newTestLogbook(t)
	tab, err := book.CreateLog(ctx, "Field")
	require.NoError(t, err)

	_, err = book.SelectedRecord(tab)
	require.ErrorIs(t, err, ErrNoSelection)

	_, err = book.AddRecord(ctx, tab, contact("G0AAA"))
	require.NoError(t, err)
	_, err = book.AddRecord(ctx, tab, contact("G0BBB"))
	require.NoError(t, err)

	book.Select(tab, 0)
	rec, err := book.SelectedRecord(tab)
	require.NoError(t, err)
	require.Equal(t, "G0AAA", rec.Get("CALL"))

	book.Select(tab, 5)
	_, err = book.SelectedRecord(tab)
	require.ErrorIs(t, err, ErrNoSelection)

	book.Select(tab, 1)
	_, err = book.DeleteRecord(ctx, tab, 1)
	require.NoError(t, err)
	require.Equal(t, 0, book.Tabs()[tab].Selected, "selection clamps after the last row goes")

	require.ErrorIs(t, book.Search(tab), ErrNotImplemented)
	require.ErrorIs(t, book.Search(book.NewLogTab()), ErrNoLog)
}

func TestImportRollsBackWhenStorageFails(t *testing.T) {
	t.Parallel()
	triggers := map[string]string{
		"records rejected": `CREATE TRIGGER reject_records BEFORE UPDATE OF next_index ON logbook_logs
			BEGIN SELECT RAISE(ABORT, 'records rejected'); END`,
		"binding rejected": `CREATE TRIGGER reject_binding BEFORE UPDATE OF name ON logbook_logs
			BEGIN SELECT RAISE(ABORT, 'binding rejected'); END`,
	}
	for name, trigger := range triggers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			book, conn := newTestLogbook(t)
			_, err := conn.DB().ExecContext(ctx, trigger)
			require.NoError(t, err)

			src := filepath.Join(t.TempDir(), "contest.adi")
			require.NoError(t, adif.WriteFile(src, []adif.Record{{"CALL": "K1ABC", "BAND": "20m"}}, nil))
			_, err = book.ImportLog(ctx, src)
			require.ErrorContains(t, err, name)
			require.Zero(t, book.LogCount())

			exists, err := conn.TableExists(ctx, "contest")
			require.NoError(t, err)
			require.False(t, exists, "the partial table is dropped")

			fields, err := ResolveFields(testFields)
			require.NoError(t, err)
			reopened := New(conn, fields)
			require.NoError(t, reopened.Restore(ctx))
			require.Zero(t, reopened.LogCount(), "nothing comes back on restore")
		})
	}
}
