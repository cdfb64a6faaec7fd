package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Status is the workflow state of a ticket.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

var validStatuses = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// Statuses returns every status in display order.
func Statuses() []Status {
	return slices.Clone(validStatuses)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return slices.Contains(validStatuses, s)
}

// Label returns the human-facing name of s.
func (s Status) Label() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusInProgress:
		return "In Progress"
	case StatusResolved:
		return "Resolved"
	case StatusClosed:
		return "Closed"
	default:
		return string(s)
	}
}

// Next returns the status after s, wrapping closed back to open.
func (s Status) Next() Status {
	idx := slices.Index(validStatuses, s)
	if idx < 0 {
		return StatusOpen
	}
	return validStatuses[(idx+1)%len(validStatuses)]
}

// ParseStatus parses user text into a Status.
func ParseStatus(raw string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	switch norm {
	case "in progress", "in_progress", "inprogress":
		norm = string(StatusInProgress)
	}
	s := Status(norm)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// Priority is the urgency of a ticket.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Priorities returns every priority from lowest to highest.
func Priorities() []Priority {
	return slices.Clone(validPriorities)
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return slices.Contains(validPriorities, p)
}

// Label returns the human-facing name of p.
func (p Priority) Label() string {
	if !p.Valid() {
		return string(p)
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// Next returns the priority after p, wrapping urgent back to low.
func (p Priority) Next() Priority {
	idx := slices.Index(validPriorities, p)
	if idx < 0 {
		return PriorityLow
	}
	return validPriorities[(idx+1)%len(validPriorities)]
}

// ParsePriority parses user text into a Priority.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return p, nil
}
