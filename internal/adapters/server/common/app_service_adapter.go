package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hylla/tix/internal/app"
	"github.com/hylla/tix/internal/domain"
)

// AppServiceAdapter maps transport contracts onto an app.Store.
type AppServiceAdapter struct {
	store    *app.Store
	validate *validator.Validate
}

var _ TicketService = (*AppServiceAdapter)(nil)

// NewAppServiceAdapter builds one common adapter over an app.Store instance.
func NewAppServiceAdapter(store *app.Store) *AppServiceAdapter {
	return &AppServiceAdapter{store: store, validate: validator.New()}
}

// ListTickets returns the filtered list in store order plus whole-store counts.
func (a *AppServiceAdapter) ListTickets(_ context.Context, in ListTicketsRequest) (TicketList, error) {
	if err := a.ready(); err != nil {
		return TicketList{}, err
	}
	status, err := app.ParseStatusFilter(in.Status)
	if err != nil {
		return TicketList{}, fmt.Errorf("list tickets: %w", errors.Join(ErrInvalidRequest, err))
	}
	priority, err := app.ParsePriorityFilter(in.Priority)
	if err != nil {
		return TicketList{}, fmt.Errorf("list tickets: %w", errors.Join(ErrInvalidRequest, err))
	}

	all := a.store.List()
	matched := app.Query(all, app.Filter{Search: in.Search, Status: status, Priority: priority})
	return TicketList{
		Tickets: matched,
		Counts:  app.CountByStatus(all),
		Total:   len(matched),
	}, nil
}

// GetTicket returns one ticket by id.
func (a *AppServiceAdapter) GetTicket(_ context.Context, id string) (domain.Ticket, error) {
	if err := a.ready(); err != nil {
		return domain.Ticket{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Ticket{}, fmt.Errorf("get ticket: id is required: %w", ErrInvalidRequest)
	}
	t, ok := a.store.Get(id)
	if !ok {
		return domain.Ticket{}, fmt.Errorf("get ticket %q: %w", id, ErrNotFound)
	}
	return t, nil
}

// CreateTicket validates in and creates one ticket.
func (a *AppServiceAdapter) CreateTicket(ctx context.Context, in CreateTicketRequest) (domain.Ticket, error) {
	if err := a.ready(); err != nil {
		return domain.Ticket{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := a.validate.Struct(in); err != nil {
		return domain.Ticket{}, fmt.Errorf("create ticket: %w", errors.Join(ErrInvalidRequest, err))
	}

	input := domain.TicketInput{
		Title:       in.Title,
		Description: in.Description,
		Assignee:    strings.TrimSpace(in.Assignee),
		Reporter:    strings.TrimSpace(in.Reporter),
	}
	if in.Status != "" {
		status, err := domain.ParseStatus(in.Status)
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("create ticket: %w", errors.Join(ErrInvalidRequest, err))
		}
		input.Status = status
	}
	if in.Priority != "" {
		priority, err := domain.ParsePriority(in.Priority)
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("create ticket: %w", errors.Join(ErrInvalidRequest, err))
		}
		input.Priority = priority
	}
	return a.store.Create(ctx, input), nil
}

// UpdateTicket validates in and applies only the fields it sets.
// An unknown id returns ErrNotFound; the store is left untouched.
func (a *AppServiceAdapter) UpdateTicket(ctx context.Context, in UpdateTicketRequest) (domain.Ticket, error) {
	if err := a.ready(); err != nil {
		return domain.Ticket{}, err
	}
	in.ID = strings.TrimSpace(in.ID)
	if err := a.validate.Struct(in); err != nil {
		return domain.Ticket{}, fmt.Errorf("update ticket: %w", errors.Join(ErrInvalidRequest, err))
	}
	patch, err := toTicketPatch(in)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("update ticket: %w", errors.Join(ErrInvalidRequest, err))
	}

	t, ok := a.store.Update(ctx, in.ID, patch)
	if !ok {
		return domain.Ticket{}, fmt.Errorf("update ticket %q: %w", in.ID, ErrNotFound)
	}
	return t, nil
}

// DeleteTicket removes one ticket. Unknown ids succeed.
func (a *AppServiceAdapter) DeleteTicket(ctx context.Context, id string) error {
	if err := a.ready(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("delete ticket: id is required: %w", ErrInvalidRequest)
	}
	a.store.Delete(ctx, id)
	return nil
}

// StatusCounts returns per-status counts over the whole store.
func (a *AppServiceAdapter) StatusCounts(_ context.Context) (app.StatusCounts, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	return app.CountByStatus(a.store.List()), nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.store == nil {
		return errors.New("app service adapter is not configured")
	}
	return nil
}

// toTicketPatch maps transport strings onto a domain patch.
func toTicketPatch(in UpdateTicketRequest) (domain.TicketPatch, error) {
	var patch domain.TicketPatch
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return domain.TicketPatch{}, errors.New("title must not be empty")
		}
		patch.Title = &title
	}
	patch.Description = in.Description
	if in.Assignee != nil {
		patch.Assignee = domain.Ptr(strings.TrimSpace(*in.Assignee))
	}
	if in.Reporter != nil {
		patch.Reporter = domain.Ptr(strings.TrimSpace(*in.Reporter))
	}
	if in.Status != nil {
		status, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return domain.TicketPatch{}, err
		}
		patch.Status = &status
	}
	if in.Priority != nil {
		priority, err := domain.ParsePriority(*in.Priority)
		if err != nil {
			return domain.TicketPatch{}, err
		}
		patch.Priority = &priority
	}
	return patch, nil
}
