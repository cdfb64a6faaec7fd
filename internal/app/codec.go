package app

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hylla/tix/internal/domain"
	"github.com/samber/lo"
)

// MarshalTickets encodes the list as one JSON array.
func MarshalTickets(tickets []domain.Ticket) ([]byte, error) {
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	out := lo.Map(tickets, func(t domain.Ticket, _ int) domain.Ticket {
		t.CreatedAt = t.CreatedAt.UTC()
		t.UpdatedAt = t.UpdatedAt.UTC()
		return t
	})
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode tickets: %w", err)
	}
	return raw, nil
}

// UnmarshalTickets decodes a JSON array written by MarshalTickets or by the
// browser build, which stores millisecond ISO-8601 timestamps.
func UnmarshalTickets(raw []byte) ([]domain.Ticket, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []domain.Ticket{}, nil
	}
	var tickets []domain.Ticket
	if err := json.Unmarshal(raw, &tickets); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}
	return normalizeTickets(tickets), nil
}

// normalizeTickets drops repeated and empty ids (first one wins), converts
// timestamps to UTC, and lifts UpdatedAt to CreatedAt when it lags.
func normalizeTickets(tickets []domain.Ticket) []domain.Ticket {
	seen := make(map[string]struct{}, len(tickets))
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.ID == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		t.CreatedAt = t.CreatedAt.UTC()
		t.UpdatedAt = t.UpdatedAt.UTC()
		if t.UpdatedAt.Before(t.CreatedAt) {
			t.UpdatedAt = t.CreatedAt
		}
		out = append(out, t)
	}
	return out
}
