package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/qsolog/internal/logbook"
)

const (
	minColumnWidth = 6
	maxColumnWidth = 24
)

// switchTab activates tab, clamped to the valid range, and shows its log.
func (a *App) switchTab(tab int) {
	if tab < 0 {
		tab = 0
	}
	if last := a.book.TabCount() - 1; tab > last {
		tab = last
	}
	a.active = tab
	a.refreshTable()
}

// refreshTable rebuilds the record table from the active log. The table is a
// render cache; the log is the source of truth.
func (a *App) refreshTable() {
	fields := a.book.Fields()
	cols := make([]table.Column, 0, len(fields)+1)
	cols = append(cols, table.Column{Title: logbook.IndexColumnTitle, Width: minColumnWidth})
	for _, f := range fields {
		cols = append(cols, table.Column{Title: f.Friendly, Width: columnWidth(f.Friendly)})
	}

	t, err := a.book.Tab(a.active)
	if err != nil {
		a.table.SetRows(nil)
		a.table.SetColumns(cols)
		return
	}
	records := t.Log.Records()
	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		row := make(table.Row, 0, len(cols))
		row = append(row, strconv.Itoa(r.Index))
		for i, f := range fields {
			v := r.Get(f.Name)
			if f.Type == logbook.TypeMultiline {
				v = strings.Join(strings.Fields(v), " ")
			}
			if w := columnWidth(v); w > cols[i+1].Width {
				cols[i+1].Width = w
			}
			row = append(row, ansi.Truncate(v, maxColumnWidth-2, "…"))
		}
		rows = append(rows, row)
	}
	// rows must be cleared before columns shrink or the table renders stale cells
	a.table.SetRows(nil)
	a.table.SetColumns(cols)
	a.table.SetRows(rows)

	if t.Selected < 0 && len(rows) > 0 {
		a.book.Select(a.active, 0)
	}
	if t.Selected >= 0 {
		a.table.SetCursor(t.Selected)
	}
}

func columnWidth(s string) int {
	w := lipgloss.Width(s) + 2
	if w < minColumnWidth {
		return minColumnWidth
	}
	if w > maxColumnWidth {
		return maxColumnWidth
	}
	return w
}

func (a *App) resize() {
	h := a.height - 10
	if h < 3 {
		h = 3
	}
	a.table.SetHeight(h)
	if a.width > 0 {
		a.table.SetWidth(a.width)
	}
	if a.modal == modalImport {
		a.picker.SetHeight(h)
	}
}

func (a *App) renderTabs() string {
	labels := make([]string, 0, a.book.TabCount())
	for i := 0; i < a.book.TabCount(); i++ {
		label := a.book.TabLabel(i)
		if a.book.LogIndex(i) >= 0 {
			label += " ×"
		}
		if i == a.active {
			labels = append(labels, activeTabStyle.Render(label))
		} else {
			labels = append(labels, tabStyle.Render(label))
		}
	}
	return titleStyle.Render("qsolog") + "\n" + lipgloss.JoinHorizontal(lipgloss.Bottom, labels...)
}
