package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit         key.Binding
	NextTab      key.Binding
	PrevTab      key.Binding
	NewLog       key.Binding
	DeleteLog    key.Binding
	AddRecord    key.Binding
	EditRecord   key.Binding
	DeleteRecord key.Binding
	Import       key.Binding
	Export       key.Binding
	Search       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextTab:      key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next log")),
		PrevTab:      key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev log")),
		NewLog:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new log")),
		DeleteLog:    key.NewBinding(key.WithKeys("X", "ctrl+w"), key.WithHelp("X", "delete log")),
		AddRecord:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		EditRecord:   key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("enter", "edit")),
		DeleteRecord: key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Import:       key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
		Export:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export")),
		Search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.NewLog, k.AddRecord, k.EditRecord, k.DeleteRecord, k.Import, k.Export, k.DeleteLog, k.Search, k.NextTab, k.Quit}
}
