package app

import (
	"strings"

	"github.com/hylla/tix/internal/domain"
	"github.com/samber/lo"
)

// FilterAll disables a status or priority filter.
const FilterAll = "all"

// StatusFilter is a status or FilterAll. The empty value means FilterAll.
type StatusFilter string

// PriorityFilter is a priority or FilterAll. The empty value means FilterAll.
type PriorityFilter string

// Filter selects tickets by search term, status, and priority.
type Filter struct {
	Search   string
	Status   StatusFilter
	Priority PriorityFilter
}

// IsZero reports whether f matches every ticket.
func (f Filter) IsZero() bool {
	return f.Search == "" && f.Status.all() && f.Priority.all()
}

func (f StatusFilter) all() bool   { return f == "" || f == FilterAll }
func (f PriorityFilter) all() bool { return f == "" || f == FilterAll }

// Query returns the tickets matching f in source order.
// Search is a case-insensitive substring match on title or description.
func Query(tickets []domain.Ticket, f Filter) []domain.Ticket {
	term := strings.ToLower(f.Search)
	return lo.Filter(tickets, func(t domain.Ticket, _ int) bool {
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			return false
		}
		if !f.Status.all() && string(f.Status) != string(t.Status) {
			return false
		}
		if !f.Priority.all() && string(f.Priority) != string(t.Priority) {
			return false
		}
		return true
	})
}

// ParseStatusFilter parses "all", "" or a status name.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	if v := strings.ToLower(strings.TrimSpace(raw)); v == "" || v == FilterAll {
		return FilterAll, nil
	}
	s, err := domain.ParseStatus(raw)
	if err != nil {
		return "", err
	}
	return StatusFilter(s), nil
}

// ParsePriorityFilter parses "all", "" or a priority name.
func ParsePriorityFilter(raw string) (PriorityFilter, error) {
	if v := strings.ToLower(strings.TrimSpace(raw)); v == "" || v == FilterAll {
		return FilterAll, nil
	}
	p, err := domain.ParsePriority(raw)
	if err != nil {
		return "", err
	}
	return PriorityFilter(p), nil
}

// NextStatusFilter cycles all, then each status, then back to all.
func NextStatusFilter(f StatusFilter) StatusFilter {
	order := append([]StatusFilter{FilterAll}, lo.Map(domain.Statuses(), func(s domain.Status, _ int) StatusFilter {
		return StatusFilter(s)
	})...)
	if f == "" {
		f = FilterAll
	}
	idx := lo.IndexOf(order, f)
	return order[(idx+1)%len(order)]
}

// NextPriorityFilter cycles all, then each priority, then back to all.
func NextPriorityFilter(f PriorityFilter) PriorityFilter {
	order := append([]PriorityFilter{FilterAll}, lo.Map(domain.Priorities(), func(p domain.Priority, _ int) PriorityFilter {
		return PriorityFilter(p)
	})...)
	if f == "" {
		f = FilterAll
	}
	idx := lo.IndexOf(order, f)
	return order[(idx+1)%len(order)]
}

// Label returns the display name of f.
func (f StatusFilter) Label() string {
	if f.all() {
		return "All"
	}
	return domain.Status(f).Label()
}

// Label returns the display name of f.
func (f PriorityFilter) Label() string {
	if f.all() {
		return "All"
	}
	return domain.Priority(f).Label()
}
