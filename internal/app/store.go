package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hylla/tix/internal/domain"
)

// DefaultStorageKey is the key the ticket list is stored under.
const DefaultStorageKey = "tickets"

// maxIDAttempts bounds how often a colliding generator is retried.
const maxIDAttempts = 8

// IDGenerator returns unique identifiers for new tickets.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// StorageErrorFunc receives storage failures the store recovered from.
// op is "load" or "persist".
type StorageErrorFunc func(op string, err error)

// StoreOptions holds optional settings for NewStore.
type StoreOptions struct {
	Key            string
	IDGen          IDGenerator
	Clock          Clock
	OnStorageError StorageErrorFunc
}

// Store owns the canonical ticket list and mirrors it to Storage.
type Store struct {
	mu       sync.Mutex
	storage  Storage
	key      string
	idGen    IDGenerator
	clock    Clock
	onErr    StorageErrorFunc
	tickets  []domain.Ticket
	lastErr  error
	fallback int
}

// NewStore constructs a store with an empty list. Call Load to read storage.
func NewStore(storage Storage, opts StoreOptions) *Store {
	if opts.Key == "" {
		opts.Key = DefaultStorageKey
	}
	if opts.IDGen == nil {
		opts.IDGen = uuid.NewString
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Store{
		storage: storage,
		key:     opts.Key,
		idGen:   opts.IDGen,
		clock:   opts.Clock,
		onErr:   opts.OnStorageError,
		tickets: []domain.Ticket{},
	}
}

// Load reads the list from storage. Missing or unreadable data yields an empty list.
func (s *Store) Load(ctx context.Context) []domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tickets = []domain.Ticket{}
	if s.storage == nil {
		return []domain.Ticket{}
	}
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.report("load", fmt.Errorf("read %q: %w", s.key, err))
		}
		return []domain.Ticket{}
	}
	tickets, err := UnmarshalTickets(raw)
	if err != nil {
		s.report("load", err)
		return []domain.Ticket{}
	}
	s.tickets = tickets
	return slices.Clone(s.tickets)
}

// Create builds a ticket from in, prepends it, and persists.
func (s *Store) Create(ctx context.Context, in domain.TicketInput) domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	t, err := domain.NewTicket(s.nextID(now), in, now)
	if err != nil {
		t, _ = domain.NewTicket(s.fallbackID(now), in, now)
	}
	s.tickets = slices.Insert(s.tickets, 0, t)
	s.persist(ctx)
	return t
}

// Update merges patch into the ticket with id and persists.
// It reports false and changes nothing when id is unknown.
func (s *Store) Update(ctx context.Context, id string, patch domain.TicketPatch) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Ticket{}, false
	}
	s.tickets[idx].Apply(patch, s.clock())
	s.persist(ctx)
	return s.tickets[idx], true
}

// Delete removes the ticket with id and persists.
// An unknown id is a no-op that does not write.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.tickets = slices.Delete(s.tickets, idx, idx+1)
	s.persist(ctx)
	return true
}

// Replace swaps in a whole list and persists it.
func (s *Store) Replace(ctx context.Context, tickets []domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tickets = normalizeTickets(slices.Clone(tickets))
	s.persist(ctx)
}

// List returns a copy of the tickets, newest first.
func (s *Store) List() []domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tickets)
}

// Get returns the ticket with id.
func (s *Store) Get(id string) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Ticket{}, false
	}
	return s.tickets[idx], true
}

// LastStorageError returns the most recent swallowed write failure.
// It is cleared by the next successful write.
func (s *Store) LastStorageError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// persist writes the full list under the store key. Callers hold mu.
func (s *Store) persist(ctx context.Context) {
	if s.storage == nil {
		return
	}
	raw, err := MarshalTickets(s.tickets)
	if err == nil {
		err = s.storage.Put(ctx, s.key, raw)
	}
	if err != nil {
		s.lastErr = fmt.Errorf("write %q: %w", s.key, err)
		s.report("persist", s.lastErr)
		return
	}
	s.lastErr = nil
}

func (s *Store) report(op string, err error) {
	if s.onErr != nil {
		s.onErr(op, err)
	}
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.tickets, func(t domain.Ticket) bool {
		return t.ID == id
	})
}

// nextID returns an id no current ticket uses. Callers hold mu.
func (s *Store) nextID(now time.Time) string {
	for range maxIDAttempts {
		id := strings.TrimSpace(s.idGen())
		if id != "" && s.indexOf(id) < 0 {
			return id
		}
	}
	return s.fallbackID(now)
}

// fallbackID returns a millis-counter id no current ticket uses. Callers hold mu.
func (s *Store) fallbackID(now time.Time) string {
	base := strconv.FormatInt(now.UnixMilli(), 10)
	for {
		s.fallback++
		id := base + "-" + strconv.Itoa(s.fallback)
		if s.indexOf(id) < 0 {
			return id
		}
	}
}
