package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/3bdelKhale2/Link-chatbot/internal/domain"
)

// TicketStore persists booked tickets as a JSON file. The whole store is
// rewritten on every mutation; ticket volumes are tiny.
type TicketStore struct {
	mu      sync.Mutex
	path    string
	tickets map[string]domain.Ticket
}

// OpenTicketStore loads the ticket database at path, starting empty if the
// file is absent or unreadable.
func OpenTicketStore(path string) (*TicketStore, error) {
	s := &TicketStore{
		path:    path,
		tickets: make(map[string]domain.Ticket),
	}

	if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
		return nil, fmt.Errorf("ticket store: mkdir: %w", mkErr)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}

		return nil, fmt.Errorf("ticket store: read %s: %w", path, err)
	}

	if unmarshalErr := json.Unmarshal(data, &s.tickets); unmarshalErr != nil {
		// A corrupt database starts over rather than blocking bookings.
		s.tickets = make(map[string]domain.Ticket)
	}

	return s, nil
}

// Book creates a ticket for the given day and time and persists it.
func (s *TicketStore) Book(day, at string) (domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket := domain.Ticket{
		TicketID: uuid.NewString()[:8],
		Day:      day,
		Time:     at,
	}

	s.tickets[ticket.TicketID] = ticket

	if err := s.save(); err != nil {
		delete(s.tickets, ticket.TicketID)
		return domain.Ticket{}, err
	}

	return ticket, nil
}

// Cancel removes a ticket by ID, reporting whether it existed.
func (s *TicketStore) Cancel(ticketID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[ticketID]
	if !ok {
		return false, nil
	}

	delete(s.tickets, ticketID)

	if err := s.save(); err != nil {
		s.tickets[ticketID] = ticket
		return false, err
	}

	return true, nil
}

// List returns all tickets ordered by ID.
func (s *TicketStore) List() []domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].TicketID < out[j].TicketID })

	return out
}

// save writes the database atomically via a temp file rename.
func (s *TicketStore) save() error {
	data, err := json.MarshalIndent(s.tickets, "", "  ")
	if err != nil {
		return fmt.Errorf("ticket store: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if writeErr := os.WriteFile(tmp, data, 0o644); writeErr != nil {
		return fmt.Errorf("ticket store: write %s: %w", tmp, writeErr)
	}

	if renameErr := os.Rename(tmp, s.path); renameErr != nil {
		return fmt.Errorf("ticket store: rename: %w", renameErr)
	}

	return nil
}
