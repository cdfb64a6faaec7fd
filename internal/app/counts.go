package app

import (
	"github.com/hylla/tix/internal/domain"
	"github.com/samber/lo"
)

// StatusCounts maps every status to its ticket count, zeros included.
type StatusCounts map[domain.Status]int

// CountByStatus counts tickets per status. Pass the unfiltered list.
func CountByStatus(tickets []domain.Ticket) StatusCounts {
	counted := lo.CountValuesBy(tickets, func(t domain.Ticket) domain.Status {
		return t.Status
	})
	out := make(StatusCounts, len(domain.Statuses()))
	for _, s := range domain.Statuses() {
		out[s] = counted[s]
	}
	return out
}

// Total sums the counts.
func (c StatusCounts) Total() int {
	return lo.Sum(lo.Values(c))
}
