package tui

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/hylla/tix/internal/domain"
)

// ticket-form field indexes in display order.
const (
	fieldTitle = iota
	fieldDescription
	fieldStatus
	fieldPriority
	fieldAssignee
	fieldReporter
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Description", "Status", "Priority", "Assignee", "Reporter"}

// ticketForm backs both the create and the edit form.
// Status and priority are cycled enums; the rest are text inputs.
type ticketForm struct {
	inputs   [fieldCount]textinput.Model
	status   domain.Status
	priority domain.Priority
	focus    int
	// base is the ticket being edited; nil while creating.
	base *domain.Ticket
}

func newModalInput(placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// newCreateForm returns an empty form with the given preselected values.
func newCreateForm(status domain.Status, priority domain.Priority, reporter string) ticketForm {
	f := ticketForm{status: status, priority: priority}
	f.inputs[fieldTitle] = newModalInput("ticket title (required)", "", 120)
	f.inputs[fieldDescription] = newModalInput("markdown description", "", 2000)
	f.inputs[fieldAssignee] = newModalInput("unassigned", "", 80)
	f.inputs[fieldReporter] = newModalInput("your name", reporter, 80)
	return f
}

// newEditForm returns a form prefilled from t. The reporter stays read-only.
func newEditForm(t domain.Ticket) ticketForm {
	f := ticketForm{status: t.Status, priority: t.Priority, base: &t}
	f.inputs[fieldTitle] = newModalInput("ticket title (required)", t.Title, 120)
	f.inputs[fieldDescription] = newModalInput("markdown description", t.Description, 2000)
	f.inputs[fieldAssignee] = newModalInput("unassigned", t.Assignee, 80)
	f.inputs[fieldReporter] = newModalInput("", t.Reporter, 80)
	return f
}

func (f ticketForm) editing() bool {
	return f.base != nil
}

// lastField returns the index of the last focusable field.
func (f ticketForm) lastField() int {
	if f.editing() {
		return fieldAssignee
	}
	return fieldReporter
}

func isEnumField(idx int) bool {
	return idx == fieldStatus || idx == fieldPriority
}

// focusField moves focus to idx, clamped to the focusable range.
func (f *ticketForm) focusField(idx int) tea.Cmd {
	f.focus = clamp(idx, 0, f.lastField())
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	if isEnumField(f.focus) {
		return nil
	}
	return f.inputs[f.focus].Focus()
}

// cycleEnum steps the focused enum field forward or backward.
func (f *ticketForm) cycleEnum(delta int) {
	switch f.focus {
	case fieldStatus:
		f.status = stepOption(domain.Statuses(), f.status, delta)
	case fieldPriority:
		f.priority = stepOption(domain.Priorities(), f.priority, delta)
	}
}

// updateInput routes msg to the focused text input.
func (f *ticketForm) updateInput(msg tea.Msg) tea.Cmd {
	if isEnumField(f.focus) {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f ticketForm) titleMissing() bool {
	return strings.TrimSpace(f.inputs[fieldTitle].Value()) == ""
}

// input returns the create-form values.
func (f ticketForm) input() domain.TicketInput {
	return domain.TicketInput{
		Title:       f.inputs[fieldTitle].Value(),
		Description: f.inputs[fieldDescription].Value(),
		Status:      f.status,
		Priority:    f.priority,
		Assignee:    f.inputs[fieldAssignee].Value(),
		Reporter:    f.inputs[fieldReporter].Value(),
	}
}

// patch returns only the fields edited away from the base ticket.
func (f ticketForm) patch() domain.TicketPatch {
	if f.base == nil {
		return domain.TicketPatch{}
	}
	next := *f.base
	next.Title = f.inputs[fieldTitle].Value()
	next.Description = f.inputs[fieldDescription].Value()
	next.Status = f.status
	next.Priority = f.priority
	next.Assignee = f.inputs[fieldAssignee].Value()
	return f.base.Diff(next)
}

// fieldValue returns the display text of field idx.
func (f ticketForm) fieldValue(idx int) string {
	switch idx {
	case fieldStatus:
		return "< " + f.status.Label() + " >"
	case fieldPriority:
		return "< " + f.priority.Label() + " >"
	case fieldReporter:
		if f.editing() {
			return f.inputs[idx].Value()
		}
	}
	return f.inputs[idx].View()
}

func stepOption[T comparable](options []T, current T, delta int) T {
	idx := 0
	for i, v := range options {
		if v == current {
			idx = i
			break
		}
	}
	return options[wrapIndex(idx, delta, len(options))]
}
