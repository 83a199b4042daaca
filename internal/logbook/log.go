package logbook

import "github.com/jask/qsolog/internal/database/repository"

// Record is one contact. Index is assigned at creation, unique within its
// log and never reused.
type Record struct {
	Index  int
	Fields map[string]string
}

// Get returns the value of a field, or "" when unset.
func (r Record) Get(name string) string { return r.Fields[name] }

func (r Record) clone() Record {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{Index: r.Index, Fields: fields}
}

// Log is one named table of contact records.
type Log struct {
	meta    repository.LogMeta
	fields  []Field
	records []Record
}

// ID is the stable identifier of the log's metadata row.
func (l *Log) ID() string { return l.meta.ID }

// Name is the display name shown on the log's tab.
func (l *Log) Name() string { return l.meta.Name }

// Table is the name of the table holding the log's records.
func (l *Log) Table() string { return l.meta.TableName }

// Path is the ADIF file the log is bound to, or "" for logs created in place.
func (l *Log) Path() string {
	if l.meta.Path == nil {
		return ""
	}
	return *l.meta.Path
}

// Modified reports whether the log changed since it was imported or last exported.
func (l *Log) Modified() bool { return l.meta.Modified }

// Fields returns the selected fields in column order.
func (l *Log) Fields() []Field { return l.fields }

// RecordCount returns the number of records in the log.
func (l *Log) RecordCount() int { return len(l.records) }

// Records returns a copy of the log's records in row order.
func (l *Log) Records() []Record {
	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[i] = r.clone()
	}
	return out
}

// RecordAt returns the record shown at row position pos.
func (l *Log) RecordAt(pos int) (Record, bool) {
	if pos < 0 || pos >= len(l.records) {
		return Record{}, false
	}
	return l.records[pos].clone(), true
}

// Record returns the record with the given index.
func (l *Log) Record(index int) (Record, bool) {
	if pos := l.position(index); pos >= 0 {
		return l.records[pos].clone(), true
	}
	return Record{}, false
}

// NextIndex is the index the next added record will receive.
func (l *Log) NextIndex() int { return l.meta.NextIndex }

func (l *Log) position(index int) int {
	for i, r := range l.records {
		if r.Index == index {
			return i
		}
	}
	return -1
}
