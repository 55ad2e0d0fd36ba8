package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/civicdesk/helpdesk/internal/events"
	"github.com/civicdesk/helpdesk/internal/notify"
	"github.com/civicdesk/helpdesk/internal/observability"
	"github.com/civicdesk/helpdesk/internal/repository"
)

// NotificationService turns domain events into emails and broker messages.
// Errors are returned to the dispatcher, which logs them; they never reach
// the request that caused the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	mailer     notify.Mailer
	publisher  notify.Publisher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NotificationDependencies bundles collaborators. Publisher may be nil.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	UserRepo   repository.UserRepository
	Mailer     notify.Mailer
	Publisher  notify.Publisher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		users:      deps.UserRepo,
		mailer:     deps.Mailer,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleTicketCommentAdded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketRef), zap.String("status", string(payload.Status)))
	return errors.Join(
		n.emailUser(ctx, payload.SubmittedBy,
			fmt.Sprintf("Ticket %s received", event.TicketRef),
			fmt.Sprintf("Your ticket %s (%s) was received with status %s.", event.TicketRef, payload.Title, payload.Status)),
		n.forward(ctx, event),
	)
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	n.logger.Info("TicketStatusChanged",
		zap.String("ticket_id", event.TicketRef),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))
	return errors.Join(
		n.emailUser(ctx, payload.SubmittedBy,
			fmt.Sprintf("Ticket %s is now %s", event.TicketRef, payload.NewStatus),
			fmt.Sprintf("The status of ticket %s changed from %s to %s.", event.TicketRef, payload.OldStatus, payload.NewStatus)),
		n.forward(ctx, event),
	)
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	n.logger.Info("TicketAssigned", zap.String("ticket_id", event.TicketRef), zap.String("assigned_to", payload.AssignedTo))
	return errors.Join(
		n.emailUser(ctx, payload.AssignedTo,
			fmt.Sprintf("Ticket %s assigned to you", event.TicketRef),
			fmt.Sprintf("Ticket %s (%s) in %s has been assigned to you.", event.TicketRef, payload.Title, payload.Department)),
		n.forward(ctx, event),
	)
}

func (n *NotificationService) handleTicketCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	n.logger.Info("TicketCommentAdded", zap.String("ticket_id", event.TicketRef), zap.String("author_id", payload.AuthorID))

	recipient := payload.SubmittedBy
	if recipient == payload.AuthorID {
		if payload.AssignedTo == nil {
			return n.forward(ctx, event)
		}
		recipient = *payload.AssignedTo
	}
	return errors.Join(
		n.emailUser(ctx, recipient,
			fmt.Sprintf("New comment on ticket %s", event.TicketRef),
			payload.BodyPreview),
		n.forward(ctx, event),
	)
}

func (n *NotificationService) emailUser(ctx context.Context, userID, subject, body string) error {
	if n.mailer == nil || userID == "" {
		return nil
	}
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load recipient %s: %w", userID, err)
	}
	err = n.mailer.Send(ctx, notify.Message{To: user.Email, Subject: subject, Body: body})
	n.metrics.RecordNotification("email", err)
	return err
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if n.publisher == nil {
		return nil
	}
	err := n.publisher.Publish(ctx, event)
	n.metrics.RecordNotification("broker", err)
	return err
}
