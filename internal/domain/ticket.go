package domain

import (
	"strings"
	"time"
)

// Ticket is a single tracked unit of work.
type Ticket struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Assignee    string    `json:"assignee"`
	Reporter    string    `json:"reporter"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TicketInput holds caller-supplied fields for a new ticket.
type TicketInput struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Assignee    string
	Reporter    string
}

// TicketPatch is a partial update. Nil fields are left untouched.
type TicketPatch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	Assignee    *string
	Reporter    *string
}

// NewTicket builds a ticket with id and both timestamps set to now.
func NewTicket(id string, in TicketInput, now time.Time) (Ticket, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Ticket{}, ErrInvalidID
	}
	if in.Status == "" {
		in.Status = StatusOpen
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	ts := now.UTC()
	return Ticket{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Assignee:    in.Assignee,
		Reporter:    in.Reporter,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

// Empty reports whether the patch touches no field.
func (p TicketPatch) Empty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Status == nil &&
		p.Priority == nil &&
		p.Assignee == nil &&
		p.Reporter == nil
}

// Apply merges the patch into t and refreshes UpdatedAt.
// ID and CreatedAt never change, and UpdatedAt never moves backwards.
func (t *Ticket) Apply(p TicketPatch, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.Reporter != nil {
		t.Reporter = *p.Reporter
	}
	ts := now.UTC()
	if ts.Before(t.UpdatedAt) {
		ts = t.UpdatedAt
	}
	if ts.Before(t.CreatedAt) {
		ts = t.CreatedAt
	}
	t.UpdatedAt = ts
}

// Diff returns a patch holding only the fields of next that differ from t.
func (t Ticket) Diff(next Ticket) TicketPatch {
	var p TicketPatch
	if next.Title != t.Title {
		p.Title = &next.Title
	}
	if next.Description != t.Description {
		p.Description = &next.Description
	}
	if next.Status != t.Status {
		p.Status = &next.Status
	}
	if next.Priority != t.Priority {
		p.Priority = &next.Priority
	}
	if next.Assignee != t.Assignee {
		p.Assignee = &next.Assignee
	}
	if next.Reporter != t.Reporter {
		p.Reporter = &next.Reporter
	}
	return p
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}
