package tui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jask/qsolog/internal/adif"
	"github.com/jask/qsolog/internal/logbook"
)

func (a *App) closeModal() {
	if a.session != nil && !a.session.Done() {
		a.session.Cancel()
	}
	a.session = nil
	a.modal = modalNone
	a.confirmAction = nil
	a.confirmPrompt = ""
	a.form = nil
	a.nameInput.Blur()
	a.pathInput.Blur()
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.String() == "ctrl+c" {
		return a, tea.Quit
	}
	switch a.modal {
	case modalNewLog:
		return a.handleNewLogKey(m)
	case modalRecord:
		return a.handleRecordKey(m)
	case modalConfirm:
		return a.handleConfirmKey(m)
	case modalImport:
		return a.handleImportKey(m)
	case modalExport:
		return a.handleExportKey(m)
	case modalNotAvailable:
		a.closeModal()
	}
	return a, nil
}

// new log

func (a *App) openNewLog() tea.Cmd {
	a.modal = modalNewLog
	a.session = logbook.NewSession()
	a.nameInput.SetValue("")
	return a.nameInput.Focus()
}

func (a *App) handleNewLogKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc":
		a.closeModal()
		a.status = "new log cancelled"
		return a, nil
	case "enter":
		name := strings.TrimSpace(a.nameInput.Value())
		tab := -1
		err := a.session.Submit(func() error {
			var err error
			tab, err = a.book.CreateLog(a.ctx, name)
			return err
		})
		if err != nil {
			// a rejected name keeps the dialog open for another try
			a.report(err)
			if a.session.Done() {
				a.closeModal()
			}
			return a, nil
		}
		a.closeModal()
		a.switchTab(tab)
		a.status = fmt.Sprintf("created log %s", name)
		return a, nil
	}
	var cmd tea.Cmd
	a.nameInput, cmd = a.nameInput.Update(m)
	return a, cmd
}

// record form

func (a *App) openRecordForm(adding bool) tea.Cmd {
	t, err := a.book.Tab(a.active)
	if err != nil {
		log.Debug().Int("tab", a.active).Msg("no log present for record form")
		return nil
	}
	values := map[string]string{}
	a.formIndex = -1
	if !adding {
		rec, err := a.book.SelectedRecord(a.active)
		if err != nil {
			log.Debug().Str("log", t.Log.Name()).Msg("no record selected")
			return nil
		}
		values = rec.Fields
		a.formIndex = rec.Index
	}
	fields := a.book.Fields()
	a.form = make([]textinput.Model, len(fields))
	for i, f := range fields {
		in := textinput.New()
		in.Placeholder = placeholderFor(f)
		in.SetValue(values[f.Name])
		a.form[i] = in
	}
	a.formAdding = adding
	a.formFocus = 0
	a.modal = modalRecord
	a.session = logbook.NewSession()
	if len(a.form) == 0 {
		return nil
	}
	return a.form[0].Focus()
}

func placeholderFor(f logbook.Field) string {
	switch f.Type {
	case logbook.TypeDate:
		return "YYYYMMDD"
	case logbook.TypeTime:
		return "HHMM"
	case logbook.TypeBoolean:
		return "Y/N"
	case logbook.TypeEnumeration:
		if len(f.Options) > 4 {
			return strings.Join(f.Options[:4], "/") + "/..."
		}
		return strings.Join(f.Options, "/")
	}
	return ""
}

func (a *App) formValues() map[string]string {
	values := make(map[string]string, len(a.form))
	for i, f := range a.book.Fields() {
		values[f.Name] = strings.TrimSpace(a.form[i].Value())
	}
	return values
}

func (a *App) focusField(i int) tea.Cmd {
	if len(a.form) == 0 {
		return nil
	}
	i = (i + len(a.form)) % len(a.form)
	a.form[a.formFocus].Blur()
	a.formFocus = i
	return a.form[i].Focus()
}

func (a *App) handleRecordKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc":
		a.closeModal()
		return a, nil
	case "tab", "down":
		return a, a.focusField(a.formFocus + 1)
	case "shift+tab", "up":
		return a, a.focusField(a.formFocus - 1)
	case "enter":
		return a, a.submitRecord()
	}
	if len(a.form) == 0 {
		return a, nil
	}
	var cmd tea.Cmd
	a.form[a.formFocus], cmd = a.form[a.formFocus].Update(m)
	return a, cmd
}

func (a *App) submitRecord() tea.Cmd {
	values := a.formValues()
	adding, index := a.formAdding, a.formIndex
	var status string
	err := a.session.Submit(func() error {
		if adding {
			rec, err := a.book.AddRecord(a.ctx, a.active, values)
			if err != nil {
				return err
			}
			status = fmt.Sprintf("added record %d", rec.Index)
			return nil
		}
		if err := a.book.EditRecord(a.ctx, a.active, index, values); err != nil {
			return err
		}
		status = fmt.Sprintf("updated record %d", index)
		return nil
	})
	if err != nil {
		a.report(err)
		var fe *logbook.FieldError
		if errors.As(err, &fe) {
			for i, f := range a.book.Fields() {
				if f.Name == fe.Field {
					return a.focusField(i)
				}
			}
		}
		if a.session.Done() {
			a.closeModal()
		}
		return nil
	}
	a.closeModal()
	a.refreshTable()
	a.status = status
	return nil
}

// confirmations

func (a *App) openConfirm(prompt string, action func() error) {
	a.modal = modalConfirm
	a.confirmPrompt = prompt
	a.confirmAction = action
}

func (a *App) handleConfirmKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(m.String()) {
	case "y":
		action := a.confirmAction
		a.closeModal()
		if action != nil {
			a.report(action())
		}
		a.refreshTable()
	case "n", "esc":
		a.closeModal()
	}
	return a, nil
}

func (a *App) openDeleteLog() {
	t, err := a.book.Tab(a.active)
	if err != nil {
		log.Debug().Int("tab", a.active).Msg("no log to delete")
		return
	}
	name := t.Log.Name()
	tab := a.active
	a.openConfirm(fmt.Sprintf("Are you sure you want to delete log %s?", name), func() error {
		if err := a.book.DeleteLog(a.ctx, tab); err != nil {
			return err
		}
		a.switchTab(tab)
		a.status = fmt.Sprintf("deleted log %s", name)
		return nil
	})
}

func (a *App) openDeleteRecord() {
	rec, err := a.book.SelectedRecord(a.active)
	if err != nil {
		log.Debug().Int("tab", a.active).Err(err).Msg("nothing to delete")
		return
	}
	tab := a.active
	a.openConfirm(fmt.Sprintf("Are you sure you want to delete record %d?", rec.Index), func() error {
		deleted, err := a.book.DeleteRecord(a.ctx, tab, rec.Index)
		if err != nil {
			return err
		}
		if deleted {
			a.status = fmt.Sprintf("deleted record %d", rec.Index)
		}
		return nil
	})
}

// import and export

func (a *App) openImport() tea.Cmd {
	fp := filepicker.New()
	fp.AllowedTypes = []string{adif.Extension}
	fp.CurrentDirectory = a.adifDir
	// esc closes the dialog instead of walking up a directory
	fp.KeyMap.Back = key.NewBinding(key.WithKeys("h", "backspace", "left"), key.WithHelp("h", "back"))
	if a.height > 0 {
		h := a.height - 10
		if h < 3 {
			h = 3
		}
		fp.SetHeight(h)
	}
	a.picker = fp
	a.modal = modalImport
	return a.picker.Init()
}

func (a *App) handleImportKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.String() == "esc" {
		a.closeModal()
		return a, nil
	}
	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(m)
	if ok, path := a.picker.DidSelectFile(m); ok {
		a.closeModal()
		a.importFile(path)
		return a, nil
	}
	if ok, path := a.picker.DidSelectDisabledFile(m); ok {
		a.status = fmt.Sprintf("%s is not an ADIF file", filepath.Base(path))
	}
	return a, cmd
}

func (a *App) importFile(path string) {
	tab, err := a.book.ImportLog(a.ctx, path)
	if err != nil {
		a.report(err)
		return
	}
	a.switchTab(tab)
	a.status = fmt.Sprintf("imported %s", filepath.Base(path))
}

func (a *App) openExport() tea.Cmd {
	t, err := a.book.Tab(a.active)
	if err != nil {
		log.Debug().Int("tab", a.active).Msg("no log to export")
		return nil
	}
	dest := t.Log.Path()
	if dest == "" {
		dest = filepath.Join(a.adifDir, t.Log.Name()+adif.Extension)
	}
	a.pathInput.SetValue(dest)
	a.pathInput.CursorEnd()
	a.modal = modalExport
	return a.pathInput.Focus()
}

func (a *App) handleExportKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc":
		a.closeModal()
		return a, nil
	case "enter":
		path := strings.TrimSpace(a.pathInput.Value())
		if path == "" {
			a.status = "enter a file path"
			return a, nil
		}
		if filepath.Ext(path) == "" {
			path += adif.Extension
		}
		a.closeModal()
		a.exportFile(path)
		return a, nil
	}
	var cmd tea.Cmd
	a.pathInput, cmd = a.pathInput.Update(m)
	return a, cmd
}

func (a *App) exportFile(path string) {
	if err := a.book.ExportLog(a.ctx, a.active, path); err != nil {
		a.report(err)
		return
	}
	a.refreshTable()
	a.status = fmt.Sprintf("exported to %s", path)
}

func (a *App) search() {
	err := a.book.Search(a.active)
	if errors.Is(err, logbook.ErrNotImplemented) {
		a.modal = modalNotAvailable
		return
	}
	if err != nil && !errors.Is(err, logbook.ErrNoLog) {
		a.report(err)
	}
}

// rendering

func (a *App) renderModal() string {
	var b strings.Builder
	switch a.modal {
	case modalNewLog:
		b.WriteString("New log\n\n")
		b.WriteString(a.nameInput.View())
		b.WriteString("\n\n" + helpStyle.Render("enter: create • esc: cancel"))
	case modalRecord:
		title := "Add record"
		if !a.formAdding {
			title = "Edit record " + strconv.Itoa(a.formIndex)
		}
		b.WriteString(title + "\n\n")
		for i, f := range a.book.Fields() {
			label := fieldLabelStyle.Render(f.Friendly)
			if i == a.formFocus {
				label = focusedLabel.Render(f.Friendly)
			}
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, a.form[i].View()) + "\n")
		}
		b.WriteString("\n" + helpStyle.Render("tab/shift+tab: move • enter: save • esc: cancel"))
	case modalConfirm:
		b.WriteString(a.confirmPrompt)
		b.WriteString("\n\n" + helpStyle.Render("y: yes • n: no"))
	case modalImport:
		b.WriteString("Import ADIF log from " + a.picker.CurrentDirectory + "\n\n")
		b.WriteString(a.picker.View())
		b.WriteString("\n" + helpStyle.Render("enter: open • h: up • esc: cancel"))
	case modalExport:
		b.WriteString("Export log to\n\n")
		b.WriteString(a.pathInput.View())
		b.WriteString("\n\n" + helpStyle.Render("enter: export • esc: cancel"))
	case modalNotAvailable:
		b.WriteString("Search is not yet available.")
		b.WriteString("\n\n" + helpStyle.Render("any key: close"))
	}
	return modalStyle.Render(b.String())
}
