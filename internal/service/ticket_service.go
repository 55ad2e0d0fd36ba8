package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/events"
	"github.com/civicdesk/helpdesk/internal/observability"
	"github.com/civicdesk/helpdesk/internal/policy"
	"github.com/civicdesk/helpdesk/internal/repository"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket creation and reads.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.TicketCommentRepository
	history    repository.TicketHistoryRepository
	assignment *AssignmentService
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	now        Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.TicketCommentRepository
	HistoryRepo repository.TicketHistoryRepository
	Assignment  *AssignmentService
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Clock       Clock
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		history:    deps.HistoryRepo,
		assignment: deps.Assignment,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		now:        defaultClock(deps.Clock),
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Location    string
	Priority    string
	DueDate     *time.Time
	Image       *string
}

// TicketListOptions narrows the "my tickets" listings.
type TicketListOptions struct {
	Statuses []domain.TicketStatus
	Limit    int
	Offset   int
}

// TicketQuery is the admin listing filter.
type TicketQuery struct {
	Statuses   []domain.TicketStatus
	Categories []domain.Category
	Priorities []domain.TicketPriority
	Search     string
	Limit      int
	Offset     int
}

// TicketDetail is a ticket with its comments and audit trail.
type TicketDetail struct {
	Ticket  *domain.Ticket
	History []domain.TicketHistory
}

// CreateTicket files a ticket for actor and routes it to its department.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("not authenticated")
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	priority, ok := domain.ParsePriority(input.Priority)
	if !ok {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{
			"priority": input.Priority,
			"allowed":  domain.Priorities,
		})
	}

	seq, err := s.tickets.NextNumber(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	ticket := &domain.Ticket{
		TicketID:    domain.FormatTicketID(seq),
		Title:       title,
		Description: description,
		Category:    domain.NormalizeCategory(input.Category),
		Priority:    priority,
		SubmittedBy: actor.ID,
		Location:    strings.TrimSpace(input.Location),
		Image:       input.Image,
		DueDate:     now.Add(domain.DefaultDueWindow),
	}
	if input.DueDate != nil && !input.DueDate.IsZero() {
		ticket.DueDate = *input.DueDate
	}
	if err := s.assignment.AutoAssignOnCreate(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("ticket identifier already in use", map[string]any{"ticket_id": ticket.TicketID})
		}
		return nil, apperrors.MapError(err)
	}
	s.metrics.RecordTicketCreated(string(ticket.Category), string(ticket.Status))

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		TicketRef: ticket.TicketID,
		Actor:     actorOf(actor),
		Payload: events.TicketCreatedPayload{
			SubmittedBy: ticket.SubmittedBy,
			Category:    ticket.Category,
			Priority:    ticket.Priority,
			Status:      ticket.Status,
			Title:       ticket.Title,
		},
	})
	if ticket.AssignedTo != nil {
		if err := recordChange(ctx, s.history, nil, ticket.ID, domain.ChangeTypeAssignee, "assigned_to", nil, ticket.AssignedTo); err != nil {
			return nil, apperrors.MapError(err)
		}
		publishEvent(ctx, s.dispatcher, s.now, events.Event{
			Type:      events.EventTicketAssigned,
			TicketID:  ticket.ID,
			TicketRef: ticket.TicketID,
			Payload: events.TicketAssignedPayload{
				AssignedTo: *ticket.AssignedTo,
				Department: ticket.Category,
				Title:      ticket.Title,
			},
		})
	}
	return ticket, nil
}

// GetTicket returns a ticket with comments and history if actor may view it.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketRef string) (*TicketDetail, error) {
	ticket, err := loadTicket(ctx, s.tickets, ticketRef)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, ticket, policy.ActionView); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Comments = comments

	history := []domain.TicketHistory{}
	if s.history != nil {
		history, err = s.history.ListByTicket(ctx, ticket.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return &TicketDetail{Ticket: ticket, History: history}, nil
}

// ListSubmitted returns the tickets actor filed, newest first.
func (s *TicketService) ListSubmitted(ctx context.Context, actor *domain.User, opts TicketListOptions) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("not authenticated")
	}
	return s.list(ctx, repository.TicketFilter{
		SubmittedBy: &actor.ID,
		Statuses:    opts.Statuses,
		Limit:       opts.Limit,
		Offset:      opts.Offset,
	})
}

// ListAssigned returns the tickets assigned to actor, newest first.
func (s *TicketService) ListAssigned(ctx context.Context, actor *domain.User, opts TicketListOptions) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("not authenticated")
	}
	return s.list(ctx, repository.TicketFilter{
		AssignedTo: &actor.ID,
		Statuses:   opts.Statuses,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	})
}

// ListAll returns every ticket matching query. Admin only.
func (s *TicketService) ListAll(ctx context.Context, actor *domain.User, query TicketQuery) ([]domain.Ticket, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	filter := repository.TicketFilter{
		Statuses:   query.Statuses,
		Categories: query.Categories,
		Priorities: query.Priorities,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	if term := strings.TrimSpace(query.Search); term != "" {
		filter.SearchTerm = &term
	}
	return s.list(ctx, filter)
}

// ExportTickets returns the rows for a CSV export: every ticket for admins,
// otherwise the tickets actor submitted or is assigned to.
func (s *TicketService) ExportTickets(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("not authenticated")
	}
	filter := repository.TicketFilter{Limit: -1}
	if !actor.IsAdmin() {
		filter.Participant = &actor.ID
	}
	return s.list(ctx, filter)
}

func (s *TicketService) list(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}
