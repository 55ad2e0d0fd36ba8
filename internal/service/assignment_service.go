package service

import (
	"context"

	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/events"
	"github.com/civicdesk/helpdesk/internal/observability"
	"github.com/civicdesk/helpdesk/internal/policy"
	"github.com/civicdesk/helpdesk/internal/repository"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

// AssignmentService binds tickets to employees of a department.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	pick       Picker
	now        Clock
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Picker      Picker
	Clock       Clock
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	pick := deps.Picker
	if pick == nil {
		pick = RandomPicker
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		pick:       pick,
		now:        defaultClock(deps.Clock),
	}
}

// PickEmployee returns a random employee of department, or nil when the
// department has none.
func (s *AssignmentService) PickEmployee(ctx context.Context, department domain.Category) (*domain.User, error) {
	employees, err := s.users.ListEmployeesByDepartment(ctx, department)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(employees) == 0 {
		return nil, nil
	}
	chosen := employees[s.pick(len(employees))]
	return &chosen, nil
}

// AutoAssignOnCreate sets the assignee and initial status of a ticket that
// has not been persisted yet. A department without employees leaves the
// ticket unassigned and Pending.
func (s *AssignmentService) AutoAssignOnCreate(ctx context.Context, ticket *domain.Ticket) error {
	ticket.Category = domain.NormalizeCategory(string(ticket.Category))
	employee, err := s.PickEmployee(ctx, ticket.Category)
	if err != nil {
		return err
	}
	if employee == nil {
		ticket.AssignedTo = nil
		ticket.Status = domain.TicketStatusPending
		return nil
	}
	id := employee.ID
	ticket.AssignedTo = &id
	ticket.Status = domain.TicketStatusOpen
	return nil
}

// ReassignToDepartment moves a ticket to department and picks a new assignee
// there. The ticket is left untouched when the department has no employees.
func (s *AssignmentService) ReassignToDepartment(ctx context.Context, actor *domain.User, ticketRef, department string) (*domain.Ticket, error) {
	ticket, err := loadTicket(ctx, s.tickets, ticketRef)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, ticket, policy.ActionAssign); err != nil {
		return nil, err
	}

	target := domain.NormalizeCategory(department)
	employee, err := s.PickEmployee(ctx, target)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, apperrors.NewConflict("no employees in department", map[string]any{"department": target})
	}

	oldAssignee := ticket.AssignedTo
	oldCategory := ticket.Category
	oldStatus := ticket.Status

	assignee := employee.ID
	ticket.AssignedTo = &assignee
	ticket.Category = target
	if oldStatus == domain.TicketStatusPending {
		ticket.Status = domain.TicketStatusOpen
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ticket.TicketID})
	}

	if err := recordChange(ctx, s.history, actor, ticket.ID, domain.ChangeTypeAssignee, "assigned_to", oldAssignee, ticket.AssignedTo); err != nil {
		return nil, apperrors.MapError(err)
	}
	if oldCategory != ticket.Category {
		if err := recordChange(ctx, s.history, actor, ticket.ID, domain.ChangeTypeCategory, "category", oldCategory, ticket.Category); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventTicketAssigned,
		TicketID:  ticket.ID,
		TicketRef: ticket.TicketID,
		Actor:     actorOf(actor),
		Payload: events.TicketAssignedPayload{
			AssignedTo: assignee,
			Department: target,
			Title:      ticket.Title,
		},
	})

	if oldStatus != ticket.Status {
		if err := recordChange(ctx, s.history, actor, ticket.ID, domain.ChangeTypeStatus, "status", oldStatus, ticket.Status); err != nil {
			return nil, apperrors.MapError(err)
		}
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
			},
		})
	}
	return ticket, nil
}
