package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/civicdesk/helpdesk/internal/config"
	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/events"
	"github.com/civicdesk/helpdesk/internal/repository/memory"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) Drain(context.Context) error { return nil }

func (d *recordingDispatcher) ofType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	t          *testing.T
	ctx        context.Context
	now        time.Time
	store      *memory.Store
	dispatcher *recordingDispatcher
	assignment *AssignmentService
	lifecycle  *LifecycleService
	tickets    *TicketService
	stats      *StatsService
	users      *UserService
	admin      *domain.User
	citizen    *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:          t,
		ctx:        context.Background(),
		now:        time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		store:      memory.NewStore(),
		dispatcher: &recordingDispatcher{},
	}
	clock := func() time.Time { return f.now }
	f.store.SetClock(clock)

	f.assignment = NewAssignmentService(AssignmentDependencies{
		TicketRepo:  f.store.Tickets(),
		UserRepo:    f.store.Users(),
		HistoryRepo: f.store.History(),
		Dispatcher:  f.dispatcher,
		Picker:      func(int) int { return 0 },
		Clock:       clock,
	})
	f.lifecycle = NewLifecycleService(LifecycleDependencies{
		TicketRepo:  f.store.Tickets(),
		CommentRepo: f.store.Comments(),
		HistoryRepo: f.store.History(),
		Assignment:  f.assignment,
		Dispatcher:  f.dispatcher,
		Clock:       clock,
	})
	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo:  f.store.Tickets(),
		CommentRepo: f.store.Comments(),
		HistoryRepo: f.store.History(),
		Assignment:  f.assignment,
		Dispatcher:  f.dispatcher,
		Clock:       clock,
	})
	f.stats = NewStatsService(f.store.Stats(), config.StatsConfig{TopCategories: 2, TrendDays: 7, SummaryDays: 30}, clock)
	f.users = NewUserService(f.store.Users(), 4)

	f.admin = f.user("Admin", "admin@example.com", domain.RoleAdmin, nil)
	f.citizen = f.user("Citizen", "citizen@example.com", domain.RoleCitizen, nil)
	return f
}

func (f *fixture) user(name, email string, role domain.Role, dept *domain.Category) *domain.User {
	f.t.Helper()
	u := &domain.User{Name: name, Email: email, Role: role, Department: dept}
	require.NoError(f.t, f.store.Users().Create(f.ctx, u))
	return u
}

func (f *fixture) employee(email string, dept domain.Category) *domain.User {
	return f.user("Employee", email, domain.RoleEmployee, &dept)
}

func (f *fixture) create(category string) *domain.Ticket {
	f.t.Helper()
	ticket, err := f.tickets.CreateTicket(f.ctx, f.citizen, TicketCreateInput{
		Title:       "Leaky pipe",
		Description: "Water everywhere",
		Category:    category,
		Location:    "Main St",
	})
	require.NoError(f.t, err)
	return ticket
}

func (f *fixture) reload(ticket *domain.Ticket) *domain.Ticket {
	f.t.Helper()
	fresh, err := f.store.Tickets().GetByID(f.ctx, ticket.ID)
	require.NoError(f.t, err)
	return fresh
}

func (f *fixture) setStatus(ticket *domain.Ticket, status domain.TicketStatus) *domain.Ticket {
	f.t.Helper()
	updated, err := f.lifecycle.UpdateStatus(f.ctx, f.admin, ticket.TicketID, string(status))
	require.NoError(f.t, err)
	return updated
}
