// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"

	"github.com/hylla/tix/internal/app"
	"github.com/hylla/tix/internal/domain"
)

// ErrInvalidRequest reports malformed or out-of-range transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ListTicketsRequest captures list query filters. Empty status/priority mean "all".
type ListTicketsRequest struct {
	Search   string `json:"search,omitempty"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// TicketList is the list payload returned to HTTP and MCP callers.
// Counts cover the whole store; Total is the number of matched tickets.
type TicketList struct {
	Tickets []domain.Ticket  `json:"tickets"`
	Counts  app.StatusCounts `json:"counts"`
	Total   int              `json:"total"`
}

// CreateTicketRequest captures input for one new ticket.
type CreateTicketRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=open in-progress resolved closed"`
	Priority    string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Assignee    string `json:"assignee,omitempty"`
	Reporter    string `json:"reporter,omitempty"`
}

// UpdateTicketRequest captures a partial update. Nil fields are left untouched.
type UpdateTicketRequest struct {
	ID          string  `json:"-" validate:"required"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=open in-progress resolved closed"`
	Priority    *string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Assignee    *string `json:"assignee,omitempty"`
	Reporter    *string `json:"reporter,omitempty"`
}

// TicketService is the ticket surface shared by the HTTP and MCP adapters.
type TicketService interface {
	ListTickets(context.Context, ListTicketsRequest) (TicketList, error)
	GetTicket(context.Context, string) (domain.Ticket, error)
	CreateTicket(context.Context, CreateTicketRequest) (domain.Ticket, error)
	UpdateTicket(context.Context, UpdateTicketRequest) (domain.Ticket, error)
	DeleteTicket(context.Context, string) error
	StatusCounts(context.Context) (app.StatusCounts, error)
}
