package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/repository"
)

type ticketRepo struct{ s *Store }

func (r *ticketRepo) NextNumber(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	return r.s.seq, nil
}

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.tickets {
		if existing.TicketID == ticket.TicketID {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.s.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	ticket.TicketID = existing.TicketID
	ticket.SubmittedBy = existing.SubmittedBy
	ticket.CreatedAt = existing.CreatedAt
	ticket.UpdatedAt = r.s.now()
	r.s.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneTicket(ticket)
	return &out, nil
}

func (r *ticketRepo) GetByTicketID(_ context.Context, ticketID string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ticketID = strings.ToUpper(ticketID)
	for _, ticket := range r.s.tickets {
		if ticket.TicketID == ticketID {
			out := cloneTicket(ticket)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Ticket
	for _, ticket := range r.s.tickets {
		if matchesFilter(&ticket, filter) {
			result = append(result, cloneTicket(ticket))
		}
	}
	sortNewestFirst(result)
	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	return page(result, limit, filter.Offset), nil
}

func matchesFilter(t *domain.Ticket, f repository.TicketFilter) bool {
	if f.SubmittedBy != nil && t.SubmittedBy != *f.SubmittedBy {
		return false
	}
	if f.AssignedTo != nil && !t.IsAssignedTo(*f.AssignedTo) {
		return false
	}
	if f.Participant != nil && t.SubmittedBy != *f.Participant && !t.IsAssignedTo(*f.Participant) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, t.Category) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, t.Priority) {
		return false
	}
	if f.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*f.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) &&
			!strings.Contains(strings.ToLower(t.TicketID), term) {
			return false
		}
	}
	return true
}

func sortNewestFirst(tickets []domain.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].TicketID > tickets[j].TicketID
		}
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
}

type commentRepo struct{ s *Store }

func (r *commentRepo) Append(_ context.Context, comment *domain.TicketComment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[comment.TicketID]; !ok {
		return repository.ErrNotFound
	}
	comment.ID = uuid.NewString()
	comment.CreatedAt = r.s.now()
	r.s.comments = append(r.s.comments, *comment)
	return nil
}

func (r *commentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketComment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.TicketComment
	for _, c := range r.s.comments {
		if c.TicketID == ticketID {
			result = append(result, c)
		}
	}
	return result, nil
}

type historyRepo struct{ s *Store }

func (r *historyRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	history.ID = uuid.NewString()
	history.CreatedAt = r.s.now()
	r.s.history = append(r.s.history, *history)
	return nil
}

func (r *historyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.TicketHistory
	for _, h := range r.s.history {
		if h.TicketID == ticketID {
			result = append(result, h)
		}
	}
	return result, nil
}
