package tui

import "charm.land/bubbles/v2/key"

// keyMap holds the list and detail bindings shown in the help bar.
type keyMap struct {
	quit           key.Binding
	toggleHelp     key.Binding
	moveUp         key.Binding
	moveDown       key.Binding
	search         key.Binding
	statusFilter   key.Binding
	priorityFilter key.Binding
	clearFilters   key.Binding
	openDetail     key.Binding
	newTicket      key.Binding
	editTicket     key.Binding
	deleteTicket   key.Binding
	cycleStatus    key.Binding
	copyID         key.Binding
	back           key.Binding
}

// formKeyMap holds the bindings active while a ticket form is open.
type formKeyMap struct {
	next   key.Binding
	prev   key.Binding
	cycle  key.Binding
	save   key.Binding
	cancel key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		search:         key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		statusFilter:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status filter")),
		priorityFilter: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority filter")),
		clearFilters:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		openDetail:     key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "details")),
		newTicket:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new ticket")),
		editTicket:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		deleteTicket:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		cycleStatus:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "next status")),
		copyID:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
		back:           key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	}
}

func newFormKeyMap() formKeyMap {
	return formKeyMap{
		next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		cycle:  key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "change")),
		save:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.newTicket, k.openDetail, k.editTicket, k.search, k.statusFilter, k.priorityFilter, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveUp, k.moveDown, k.openDetail, k.back},
		{k.newTicket, k.editTicket, k.cycleStatus, k.deleteTicket, k.copyID},
		{k.search, k.statusFilter, k.priorityFilter, k.clearFilters, k.toggleHelp, k.quit},
	}
}

// ShortHelp handles short help.
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.next, k.prev, k.cycle, k.save, k.cancel}
}

// FullHelp handles full help.
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
