package app

import (
	"errors"
	"testing"
	"time"

	"github.com/hylla/tix/internal/domain"
)

func TestTicketsRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 123456789, time.UTC)
	in := []domain.Ticket{
		{ID: "2", Title: "B", Status: domain.StatusClosed, Priority: domain.PriorityUrgent, Reporter: "ana", CreatedAt: created.Add(time.Hour), UpdatedAt: created.Add(2 * time.Hour)},
		{ID: "1", Title: "A", Description: "line\nline", Status: domain.StatusOpen, Priority: domain.PriorityLow, Assignee: "bo", CreatedAt: created, UpdatedAt: created},
	}
	raw, err := MarshalTickets(in)
	if err != nil {
		t.Fatalf("MarshalTickets() error = %v", err)
	}
	out, err := UnmarshalTickets(raw)
	if err != nil {
		t.Fatalf("UnmarshalTickets() error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d tickets, got %d", len(in), len(out))
	}
	for i := range in {
		got, want := out[i], in[i]
		if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
			t.Fatalf("ticket %d timestamps mismatch: got %v/%v want %v/%v", i, got.CreatedAt, got.UpdatedAt, want.CreatedAt, want.UpdatedAt)
		}
		got.CreatedAt, got.UpdatedAt = want.CreatedAt, want.UpdatedAt
		if got != want {
			t.Fatalf("ticket %d mismatch:\n got %#v\nwant %#v", i, out[i], in[i])
		}
	}
}

func TestUnmarshalTicketsBrowserFormat(t *testing.T) {
	raw := []byte(`[{"id":"1700000000000","title":"Login broken","description":"","status":"in-progress","priority":"high","assignee":"","reporter":"sam","createdAt":"2024-01-15T10:30:00.000Z","updatedAt":"2024-01-16T08:00:00.500Z"}]`)
	out, err := UnmarshalTickets(raw)
	if err != nil {
		t.Fatalf("UnmarshalTickets() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(out))
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if !out[0].CreatedAt.Equal(want) {
		t.Fatalf("unexpected createdAt %v", out[0].CreatedAt)
	}
	if out[0].Status != domain.StatusInProgress {
		t.Fatalf("unexpected status %q", out[0].Status)
	}
}

func TestUnmarshalTicketsNormalizes(t *testing.T) {
	raw := []byte(`[
		{"id":"a","title":"first","createdAt":"2026-03-01T10:00:00+02:00","updatedAt":"2026-03-01T07:00:00Z"},
		{"id":"a","title":"dup"},
		{"id":"","title":"no id"}
	]`)
	out, err := UnmarshalTickets(raw)
	if err != nil {
		t.Fatalf("UnmarshalTickets() error = %v", err)
	}
	if len(out) != 1 || out[0].Title != "first" {
		t.Fatalf("expected first record to win, got %#v", out)
	}
	if out[0].CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", out[0].CreatedAt.Location())
	}
	if out[0].UpdatedAt.Before(out[0].CreatedAt) {
		t.Fatalf("updatedAt %v before createdAt %v", out[0].UpdatedAt, out[0].CreatedAt)
	}
}

func TestUnmarshalTicketsEmptyAndCorrupt(t *testing.T) {
	out, err := UnmarshalTickets([]byte("  \n"))
	if err != nil || len(out) != 0 {
		t.Fatalf("expected empty list, got %#v, %v", out, err)
	}
	if _, err := UnmarshalTickets([]byte(`{"id":"x"}`)); !errors.Is(err, ErrCorruptData) {
		t.Fatalf("expected ErrCorruptData, got %v", err)
	}
}

func TestMarshalTicketsNilIsEmptyArray(t *testing.T) {
	raw, err := MarshalTickets(nil)
	if err != nil {
		t.Fatalf("MarshalTickets() error = %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("expected [], got %s", raw)
	}
}
