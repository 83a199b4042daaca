package repository

import (
	"sort"
	"strings"
	"time"
)

// LogMeta represents a logbook_logs row. TableName is the storage identity
// of the log; Name is what the tab shows and may change on export.
type LogMeta struct {
	ID        string
	TableName string
	Name      string
	Path      *string
	Modified  bool
	NextIndex int
	CreatedAt time.Time
}

// RecordRow is one row of a log table keyed by its index column.
type RecordRow struct {
	Index  int
	Values map[string]string
}

// IndexColumn is the primary key of every log table.
const IndexColumn = "idx"

// quoteIdent quotes a table or column name for SQLite.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
