package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/tix/internal/domain"
)

// SnapshotVersion tags exported snapshots.
const SnapshotVersion = "tix.snapshot.v1"

// Snapshot is a portable export of the whole ticket list.
type Snapshot struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Tickets    []domain.Ticket `json:"tickets"`
}

// ExportSnapshot returns the current list in store order.
func (s *Store) ExportSnapshot() Snapshot {
	tickets := s.List()
	return Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Tickets:    tickets,
	}
}

// ImportSnapshot validates snap and replaces the list with its tickets.
func (s *Store) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	s.Replace(ctx, snap.Tickets)
	return nil
}

// Validate checks version, ids, enum values, and timestamp order.
func (s Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, s.Version)
	}

	var errs []error
	ids := map[string]int{}
	for i, t := range s.Tickets {
		if strings.TrimSpace(t.ID) == "" {
			errs = append(errs, fmt.Errorf("tickets[%d].id is required", i))
		} else if prev, dup := ids[t.ID]; dup {
			errs = append(errs, fmt.Errorf("tickets[%d].id %q duplicates tickets[%d]", i, t.ID, prev))
		} else {
			ids[t.ID] = i
		}
		if !t.Status.Valid() {
			errs = append(errs, fmt.Errorf("tickets[%d].status: %w: %q", i, domain.ErrInvalidStatus, t.Status))
		}
		if !t.Priority.Valid() {
			errs = append(errs, fmt.Errorf("tickets[%d].priority: %w: %q", i, domain.ErrInvalidPriority, t.Priority))
		}
		if t.CreatedAt.IsZero() || t.UpdatedAt.IsZero() {
			errs = append(errs, fmt.Errorf("tickets[%d] timestamps are required", i))
		} else if t.UpdatedAt.Before(t.CreatedAt) {
			errs = append(errs, fmt.Errorf("tickets[%d].updatedAt is before createdAt", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, errors.Join(errs...))
	}
	return nil
}
