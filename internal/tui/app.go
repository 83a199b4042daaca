// Package tui is the terminal front end of the logbook: a tab per open log,
// a record table for the active tab and modal dialogs for every operation.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jask/qsolog/internal/logbook"
)

// App is the bubbletea model over a Logbook. All logbook calls happen inside
// Update so the logbook is only ever touched from the UI loop.
type App struct {
	ctx     context.Context
	book    *logbook.Logbook
	keys    keyMap
	adifDir string

	active int
	table  table.Model
	width  int
	height int
	status string

	modal   modalState
	session *logbook.Session
	alert   string

	nameInput textinput.Model
	pathInput textinput.Model
	picker    filepicker.Model

	// record form
	form       []textinput.Model
	formFocus  int
	formIndex  int
	formAdding bool

	confirmPrompt string
	confirmAction func() error
}

type modalState string

const (
	modalNone         modalState = ""
	modalNewLog       modalState = "newLog"
	modalRecord       modalState = "record"
	modalConfirm      modalState = "confirm"
	modalImport       modalState = "import"
	modalExport       modalState = "export"
	modalNotAvailable modalState = "notAvailable"
)

// New returns an App over book. adifDir is where the import and export
// dialogs start.
func New(ctx context.Context, book *logbook.Logbook, adifDir string) *App {
	t := table.New(table.WithFocused(true), table.WithHeight(15))
	a := &App{
		ctx:       ctx,
		book:      book,
		keys:      defaultKeyMap(),
		adifDir:   adifDir,
		table:     t,
		nameInput: textinput.New(),
		pathInput: textinput.New(),
	}
	a.nameInput.Placeholder = "log name"
	a.nameInput.CharLimit = 64
	a.pathInput.Placeholder = "path/to/log.adi"
	a.refreshTable()
	return a
}

func (a *App) Init() tea.Cmd {
	return nil
}

// Active returns the position of the active tab.
func (a *App) Active() int { return a.active }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.resize()
		if a.modal == modalImport {
			var cmd tea.Cmd
			a.picker, cmd = a.picker.Update(m)
			return a, cmd
		}
		return a, nil
	case tea.KeyMsg:
		if a.alert != "" {
			return a.handleAlertKey(m)
		}
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		return a.handleKey(m)
	}
	if a.modal == modalImport {
		var cmd tea.Cmd
		a.picker, cmd = a.picker.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	onNewTab := a.book.LogIndex(a.active) < 0
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.NextTab):
		a.switchTab(a.active + 1)
	case key.Matches(m, a.keys.PrevTab):
		a.switchTab(a.active - 1)
	case key.Matches(m, a.keys.NewLog), onNewTab && m.String() == "enter":
		return a, a.openNewLog()
	case key.Matches(m, a.keys.DeleteLog):
		a.openDeleteLog()
	case key.Matches(m, a.keys.AddRecord):
		return a, a.openRecordForm(true)
	case key.Matches(m, a.keys.EditRecord):
		return a, a.openRecordForm(false)
	case key.Matches(m, a.keys.DeleteRecord):
		a.openDeleteRecord()
	case key.Matches(m, a.keys.Import):
		return a, a.openImport()
	case key.Matches(m, a.keys.Export):
		return a, a.openExport()
	case key.Matches(m, a.keys.Search):
		a.search()
	default:
		if onNewTab {
			return a, nil
		}
		var cmd tea.Cmd
		a.table, cmd = a.table.Update(m)
		a.book.Select(a.active, a.table.Cursor())
		return a, cmd
	}
	return a, nil
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.renderTabs())
	b.WriteString("\n")
	if a.book.LogIndex(a.active) < 0 {
		b.WriteString(emptyBodyMessage.Render("Press enter or n to create a new log, or i to import an ADIF file."))
	} else {
		b.WriteString(a.table.View())
	}
	if a.modal != modalNone {
		b.WriteString("\n\n" + a.renderModal())
	}
	if a.alert != "" {
		b.WriteString("\n\n" + alertStyle.Render(a.alert+"\n\n"+helpStyle.Render("enter: ok")))
	}
	b.WriteString("\n")
	if a.status != "" {
		b.WriteString(statusStyle.Render(a.status) + "\n")
	}
	b.WriteString(a.renderHelp())
	return b.String()
}

func (a *App) renderHelp() string {
	parts := make([]string, 0, len(a.keys.help()))
	for _, k := range a.keys.help() {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}

// report routes an operation error: user errors become an alert, anything
// else is logged and shown on the status line.
func (a *App) report(err error) {
	if err == nil {
		return
	}
	if logbook.IsUserError(err) {
		a.alert = userMessage(err)
		return
	}
	log.Error().Err(err).Msg("operation failed")
	a.status = "error: " + err.Error()
}

func userMessage(err error) string {
	var fe *logbook.FieldError
	if errors.As(err, &fe) {
		return fmt.Sprintf("The data in field %q is not valid!", fe.Friendly)
	}
	return err.Error()
}

func (a *App) handleAlertKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "enter", "esc", " ":
		a.alert = ""
	case "ctrl+c":
		return a, tea.Quit
	}
	return a, nil
}
