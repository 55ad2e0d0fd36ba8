// Package memory provides process-local repositories used when no Postgres
// DSN is configured, and as fixtures in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/repository"
)

// Store holds every collection behind a single lock.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[string]domain.User
	tickets  map[string]domain.Ticket
	comments []domain.TicketComment
	history  []domain.TicketHistory
	seq      int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:     time.Now,
		users:   make(map[string]domain.User),
		tickets: make(map[string]domain.Ticket),
	}
}

// SetClock overrides the timestamp source for created/updated columns.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Users returns the user repository view.
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

// Tickets returns the ticket repository view.
func (s *Store) Tickets() repository.TicketRepository { return &ticketRepo{s} }

// Comments returns the comment repository view.
func (s *Store) Comments() repository.TicketCommentRepository { return &commentRepo{s} }

// History returns the history repository view.
func (s *Store) History() repository.TicketHistoryRepository { return &historyRepo{s} }

// Stats returns the stats repository view.
func (s *Store) Stats() repository.StatsRepository { return &statsRepo{s} }

// Repositories returns every view of the store as one set.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:    s.Users(),
		Tickets:  s.Tickets(),
		Comments: s.Comments(),
		History:  s.History(),
		Stats:    s.Stats(),
	}
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.AssignedTo != nil {
		v := *t.AssignedTo
		t.AssignedTo = &v
	}
	if t.Image != nil {
		v := *t.Image
		t.Image = &v
	}
	if t.ResolvedAt != nil {
		v := *t.ResolvedAt
		t.ResolvedAt = &v
	}
	t.Comments = nil
	return t
}

func cloneUser(u domain.User) domain.User {
	if u.Department != nil {
		v := *u.Department
		u.Department = &v
	}
	return u
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range r.s.users {
		if existing.Email == email {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	user.ID = uuid.NewString()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	email := strings.ToLower(strings.TrimSpace(user.Email))
	for id, existing := range r.s.users {
		if id != user.ID && existing.Email == email {
			return repository.ErrDuplicate
		}
	}
	user.Email = email
	user.UpdatedAt = r.s.now()
	r.s.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneUser(user)
	return &out, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range r.s.users {
		if user.Email == email {
			out := cloneUser(user)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) ListEmployeesByDepartment(_ context.Context, department domain.Category) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.User
	for _, user := range r.s.users {
		if user.Role == domain.RoleEmployee && user.Department != nil && *user.Department == department {
			result = append(result, cloneUser(user))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *userRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.User
	for _, user := range r.s.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Department != nil && (user.Department == nil || *user.Department != *filter.Department) {
			continue
		}
		result = append(result, cloneUser(user))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	return page(result, limit, filter.Offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
