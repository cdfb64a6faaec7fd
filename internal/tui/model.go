package tui

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/hylla/tix/internal/app"
	"github.com/hylla/tix/internal/domain"
)

// Service is the ticket store surface the TUI drives. *app.Store satisfies it.
type Service interface {
	List() []domain.Ticket
	Create(context.Context, domain.TicketInput) domain.Ticket
	Update(context.Context, string, domain.TicketPatch) (domain.Ticket, bool)
	Delete(context.Context, string) bool
	LastStorageError() error
}

// inputMode represents a selectable mode.
type inputMode int

// modeList and related constants define package defaults.
const (
	modeList inputMode = iota
	modeSearch
	modeDetail
	modeEdit
	modeCreate
	modeConfirmDelete
)

// Model is the bubbletea model for the ticket list, detail and forms.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int

	status     string
	storageErr error

	help     help.Model
	keys     keyMap
	formKeys formKeyMap

	tickets  []domain.Ticket
	selected int
	filter   app.Filter

	mode        inputMode
	searchInput textinput.Model
	form        ticketForm
	// formBack is the mode restored when the form closes.
	formBack inputMode
	detailID string
	// confirmID is the ticket awaiting delete confirmation.
	confirmID   string
	confirmBack inputMode
	pendingID   string

	confirmDelete   bool
	renderMarkdown  bool
	showDescription bool
	defaultReporter string
	defaultStatus   domain.Status
	defaultPriority domain.Priority
	copyToClipboard ClipboardWriter
	markdown        *markdownRenderer
}

// loadedMsg carries the current list read from the store.
type loadedMsg struct {
	tickets    []domain.Ticket
	storageErr error
}

// actionMsg reports a finished store mutation.
type actionMsg struct {
	status      string
	focusID     string
	closeDetail bool
}

// NewModel builds the ticket TUI over svc.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	searchInput := textinput.New()
	searchInput.Prompt = "/ "
	searchInput.Placeholder = "title or description"
	searchInput.CharLimit = 120
	m := Model{
		svc:             svc,
		status:          "loading...",
		help:            h,
		keys:            newKeyMap(),
		formKeys:        newFormKeyMap(),
		filter:          app.Filter{Status: app.FilterAll, Priority: app.FilterAll},
		searchInput:     searchInput,
		confirmDelete:   true,
		renderMarkdown:  true,
		showDescription: true,
		defaultStatus:   domain.StatusOpen,
		defaultPriority: domain.PriorityMedium,
		copyToClipboard: clipboard.WriteAll,
		markdown:        &markdownRenderer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		m.tickets = msg.tickets
		m.storageErr = msg.storageErr
		if m.pendingID != "" {
			m.focusTicket(m.pendingID)
			m.pendingID = ""
		}
		m.clampSelection()
		if m.mode == modeDetail {
			if _, ok := m.ticketByID(m.detailID); !ok {
				m.mode = modeList
				m.detailID = ""
			}
		}
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.focusID != "" {
			m.pendingID = msg.focusID
		}
		if msg.closeDetail && m.mode == modeDetail {
			m.mode = modeList
			m.detailID = ""
		}
		return m, m.loadData

	case tea.KeyPressMsg:
		switch m.mode {
		case modeSearch:
			return m.handleSearchKey(msg)
		case modeDetail:
			return m.handleDetailKey(msg)
		case modeEdit, modeCreate:
			return m.handleFormKey(msg)
		case modeConfirmDelete:
			return m.handleConfirmKey(msg)
		default:
			return m.handleListKey(msg)
		}

	default:
		return m, nil
	}
}

// loadData loads required data for the current operation.
func (m Model) loadData() tea.Msg {
	return loadedMsg{
		tickets:    m.svc.List(),
		storageErr: m.svc.LastStorageError(),
	}
}

// visibleTickets returns the filtered view in store order.
func (m Model) visibleTickets() []domain.Ticket {
	return app.Query(m.tickets, m.filter)
}

// selectedTicket returns the ticket under the list cursor.
func (m Model) selectedTicket() (domain.Ticket, bool) {
	visible := m.visibleTickets()
	if len(visible) == 0 {
		return domain.Ticket{}, false
	}
	return visible[clamp(m.selected, 0, len(visible)-1)], true
}

// ticketByID looks up a ticket in the loaded list.
func (m Model) ticketByID(id string) (domain.Ticket, bool) {
	for _, t := range m.tickets {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Ticket{}, false
}

// targetTicket is the detail ticket in detail mode, else the list selection.
func (m Model) targetTicket() (domain.Ticket, bool) {
	if m.mode == modeDetail {
		return m.ticketByID(m.detailID)
	}
	return m.selectedTicket()
}

func (m *Model) clampSelection() {
	m.selected = clamp(m.selected, 0, len(m.visibleTickets())-1)
}

func (m *Model) focusTicket(id string) {
	for idx, t := range m.visibleTickets() {
		if t.ID == id {
			m.selected = idx
			return
		}
	}
}

func (m Model) handleListKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case msg.String() == "esc":
		if m.help.ShowAll {
			m.help.ShowAll = false
			return m, nil
		}
		if !m.filter.IsZero() {
			return m.clearFilters()
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.selected = clamp(m.selected+1, 0, len(m.visibleTickets())-1)
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.selected = clamp(m.selected-1, 0, len(m.visibleTickets())-1)
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.mode = modeSearch
		m.searchInput.SetValue(m.filter.Search)
		m.searchInput.CursorEnd()
		m.status = "search"
		return m, m.searchInput.Focus()
	case key.Matches(msg, m.keys.statusFilter):
		m.filter.Status = app.NextStatusFilter(m.filter.Status)
		m.selected = 0
		m.status = "status: " + m.filter.Status.Label()
		return m, nil
	case key.Matches(msg, m.keys.priorityFilter):
		m.filter.Priority = app.NextPriorityFilter(m.filter.Priority)
		m.selected = 0
		m.status = "priority: " + m.filter.Priority.Label()
		return m, nil
	case key.Matches(msg, m.keys.clearFilters):
		return m.clearFilters()
	case key.Matches(msg, m.keys.openDetail):
		t, ok := m.selectedTicket()
		if !ok {
			return m, nil
		}
		m.mode = modeDetail
		m.detailID = t.ID
		m.status = "details"
		return m, nil
	case key.Matches(msg, m.keys.newTicket):
		return m.startCreate()
	default:
		return m.handleTicketAction(msg)
	}
}

func (m Model) handleDetailKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.mode = modeList
		m.detailID = ""
		m.status = "ready"
		return m, nil
	case key.Matches(msg, m.keys.copyID):
		t, ok := m.ticketByID(m.detailID)
		if !ok {
			return m, nil
		}
		if err := m.copyToClipboard(t.ID); err != nil {
			m.status = "copy failed: " + err.Error()
			return m, nil
		}
		m.status = "copied " + t.ID
		return m, nil
	default:
		return m.handleTicketAction(msg)
	}
}

// handleTicketAction runs the edit, delete and status-cycle actions shared by list and detail.
func (m Model) handleTicketAction(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	t, ok := m.targetTicket()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.editTicket):
		return m.startEdit(t)
	case key.Matches(msg, m.keys.deleteTicket):
		if !m.confirmDelete {
			return m, m.deleteCmd(t.ID)
		}
		m.confirmBack = m.mode
		m.confirmID = t.ID
		m.mode = modeConfirmDelete
		m.status = "confirm delete"
		return m, nil
	case key.Matches(msg, m.keys.cycleStatus):
		next := t.Status.Next()
		return m, m.updateCmd(t.ID, domain.TicketPatch{Status: &next}, "status: "+next.Label())
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.filter.Search = ""
		m.mode = modeList
		m.status = "search cleared"
		m.clampSelection()
		return m, nil
	case "enter":
		m.searchInput.Blur()
		m.mode = modeList
		m.status = fmt.Sprintf("%d matches", len(m.visibleTickets()))
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.filter.Search = m.searchInput.Value()
	m.selected = 0
	return m, cmd
}

func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKeys.cancel):
		m.mode = m.formBack
		m.status = "cancelled"
		return m, nil
	case key.Matches(msg, m.formKeys.save):
		return m.submitForm()
	case msg.String() == "enter":
		if m.form.focus >= m.form.lastField() {
			return m.submitForm()
		}
		return m, m.form.focusField(m.form.focus + 1)
	case key.Matches(msg, m.formKeys.next):
		return m, m.form.focusField(wrapIndex(m.form.focus, 1, m.form.lastField()+1))
	case key.Matches(msg, m.formKeys.prev):
		return m, m.form.focusField(wrapIndex(m.form.focus, -1, m.form.lastField()+1))
	case isEnumField(m.form.focus) && (msg.String() == "left" || msg.String() == "h"):
		m.form.cycleEnum(-1)
		return m, nil
	case isEnumField(m.form.focus) && (msg.String() == "right" || msg.String() == "l" || msg.String() == "space"):
		m.form.cycleEnum(1)
		return m, nil
	}
	return m, m.form.updateInput(msg)
}

func (m Model) handleConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		id := m.confirmID
		m.confirmID = ""
		m.mode = m.confirmBack
		return m, m.deleteCmd(id)
	case "n", "N", "esc", "q":
		m.confirmID = ""
		m.mode = m.confirmBack
		m.status = "delete cancelled"
		return m, nil
	}
	return m, nil
}

func (m Model) clearFilters() (tea.Model, tea.Cmd) {
	m.filter = app.Filter{Status: app.FilterAll, Priority: app.FilterAll}
	m.searchInput.SetValue("")
	m.selected = 0
	m.status = "filters cleared"
	return m, nil
}

func (m Model) startCreate() (tea.Model, tea.Cmd) {
	m.form = newCreateForm(m.defaultStatus, m.defaultPriority, m.defaultReporter)
	m.formBack = m.mode
	m.mode = modeCreate
	m.status = "new ticket"
	return m, m.form.focusField(fieldTitle)
}

func (m Model) startEdit(t domain.Ticket) (tea.Model, tea.Cmd) {
	m.form = newEditForm(t)
	m.formBack = m.mode
	m.mode = modeEdit
	m.status = "edit ticket"
	return m, m.form.focusField(fieldTitle)
}

// submitForm creates or updates from the open form. An edit with no changed field makes no store call.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	if m.form.titleMissing() {
		m.status = "title is required"
		return m, m.form.focusField(fieldTitle)
	}
	if m.mode == modeCreate {
		in := m.form.input()
		m.mode = m.formBack
		return m, m.createCmd(in)
	}
	id := m.form.base.ID
	patch := m.form.patch()
	m.mode = m.formBack
	if patch.Empty() {
		m.status = "no changes"
		return m, nil
	}
	return m, m.updateCmd(id, patch, "saved")
}

func (m Model) createCmd(in domain.TicketInput) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		t := svc.Create(context.Background(), in)
		return actionMsg{status: "created " + t.Title, focusID: t.ID}
	}
}

func (m Model) updateCmd(id string, patch domain.TicketPatch, status string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if _, ok := svc.Update(context.Background(), id, patch); !ok {
			return actionMsg{status: "ticket no longer exists", closeDetail: true}
		}
		return actionMsg{status: status, focusID: id}
	}
}

func (m Model) deleteCmd(id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		svc.Delete(context.Background(), id)
		return actionMsg{status: "deleted", closeDetail: true}
	}
}

// wrapIndex wraps current+delta into [0,total).
func wrapIndex(current int, delta int, total int) int {
	if total <= 0 {
		return 0
	}
	next := (current + delta) % total
	if next < 0 {
		next += total
	}
	return next
}

func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
