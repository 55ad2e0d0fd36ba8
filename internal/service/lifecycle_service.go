package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/events"
	"github.com/civicdesk/helpdesk/internal/observability"
	"github.com/civicdesk/helpdesk/internal/policy"
	"github.com/civicdesk/helpdesk/internal/repository"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

// LifecycleService applies status changes, reopens and comments.
type LifecycleService struct {
	tickets    repository.TicketRepository
	comments   repository.TicketCommentRepository
	history    repository.TicketHistoryRepository
	assignment *AssignmentService
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	now        Clock
}

// LifecycleDependencies bundles collaborators.
type LifecycleDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.TicketCommentRepository
	HistoryRepo repository.TicketHistoryRepository
	Assignment  *AssignmentService
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Clock       Clock
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		history:    deps.HistoryRepo,
		assignment: deps.Assignment,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		now:        defaultClock(deps.Clock),
	}
}

// UpdateStatus moves a ticket to status. Only the assignee or an admin may
// do so. Setting the current status again succeeds without side effects.
func (s *LifecycleService) UpdateStatus(ctx context.Context, actor *domain.User, ticketRef, status string) (*domain.Ticket, error) {
	newStatus, ok := domain.ParseStatus(status)
	if !ok {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{
			"status":  status,
			"allowed": domain.Statuses,
		})
	}

	ticket, err := loadTicket(ctx, s.tickets, ticketRef)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, ticket, policy.ActionUpdateStatus); err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	if oldStatus == newStatus {
		return ticket, nil
	}

	ticket.Status = newStatus
	if newStatus.IsTerminal() {
		if ticket.ResolvedAt == nil {
			now := s.now()
			ticket.ResolvedAt = &now
		}
	} else {
		ticket.ResolvedAt = nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticket.TicketID})
	}
	if err := recordChange(ctx, s.history, actor, ticket.ID, domain.ChangeTypeStatus, "status", oldStatus, newStatus); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.statusChanged(ctx, actor, ticket, oldStatus, "")
	return ticket, nil
}

// Reopen puts a Resolved or Closed ticket back into work. Only the submitter
// or an admin may reopen. An unassigned ticket gets a best-effort assignee
// from its category.
func (s *LifecycleService) Reopen(ctx context.Context, actor *domain.User, ticketRef, reason string) (*domain.Ticket, error) {
	ticket, err := loadTicket(ctx, s.tickets, ticketRef)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, ticket, policy.ActionReopen); err != nil {
		return nil, err
	}
	if !ticket.Status.IsTerminal() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("Ticket is %s; only Resolved/Closed tickets can be reopened", ticket.Status),
			map[string]any{"status": ticket.Status},
		)
	}

	var assigned *domain.User
	if ticket.AssignedTo == nil && s.assignment != nil {
		assigned, err = s.assignment.PickEmployee(ctx, ticket.Category)
		if err != nil {
			return nil, err
		}
		if assigned != nil {
			id := assigned.ID
			ticket.AssignedTo = &id
		}
	}

	oldStatus := ticket.Status
	now := s.now()
	ticket.Status = domain.TicketStatusReopened
	ticket.DueDate = now.Add(domain.DefaultDueWindow)
	ticket.ResolvedAt = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticket.TicketID})
	}

	reason = strings.TrimSpace(reason)
	if reason != "" {
		comment := &domain.TicketComment{
			TicketID: ticket.ID,
			AuthorID: actor.ID,
			Text:     "Reopened: " + reason,
			System:   true,
		}
		if err := s.comments.Append(ctx, comment); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	if err := recordChange(ctx, s.history, actor, ticket.ID, domain.ChangeTypeStatus, "status", oldStatus, ticket.Status); err != nil {
		return nil, apperrors.MapError(err)
	}
	if assigned != nil {
		if err := recordChange(ctx, s.history, nil, ticket.ID, domain.ChangeTypeAssignee, "assigned_to", nil, ticket.AssignedTo); err != nil {
			return nil, apperrors.MapError(err)
		}
		publishEvent(ctx, s.dispatcher, s.now, events.Event{
			Type:      events.EventTicketAssigned,
			TicketID:  ticket.ID,
			TicketRef: ticket.TicketID,
			Payload: events.TicketAssignedPayload{
				AssignedTo: assigned.ID,
				Department: ticket.Category,
				Title:      ticket.Title,
			},
		})
	}

	s.statusChanged(ctx, actor, ticket, oldStatus, reason)
	return ticket, nil
}

// AddComment appends an immutable comment. Anyone who may view the ticket
// may comment on it.
func (s *LifecycleService) AddComment(ctx context.Context, actor *domain.User, ticketRef, text string) (*domain.TicketComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text is required", nil)
	}
	ticket, err := loadTicket(ctx, s.tickets, ticketRef)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, ticket, policy.ActionComment); err != nil {
		return nil, err
	}

	comment := &domain.TicketComment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Text:     text,
	}
	if err := s.comments.Append(ctx, comment); err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticket.TicketID})
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventTicketCommentAdded,
		TicketID:  ticket.ID,
		TicketRef: ticket.TicketID,
		Actor:     actorOf(actor),
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    actor.ID,
			SubmittedBy: ticket.SubmittedBy,
			AssignedTo:  ticket.AssignedTo,
			BodyPreview: stringPreview(text, 120),
		},
	})
	return comment, nil
}

func (s *LifecycleService) statusChanged(ctx context.Context, actor *domain.User, ticket *domain.Ticket, oldStatus domain.TicketStatus, reason string) {
	s.metrics.RecordStatusChange(string(oldStatus), string(ticket.Status))
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventTicketStatusChanged,
		TicketID:  ticket.ID,
		TicketRef: ticket.TicketID,
		Actor:     actorOf(actor),
		Payload: events.TicketStatusChangedPayload{
			SubmittedBy: ticket.SubmittedBy,
			AssignedTo:  ticket.AssignedTo,
			OldStatus:   oldStatus,
			NewStatus:   ticket.Status,
			Reason:      reason,
		},
	})
}
