package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/events"
	"github.com/civicdesk/helpdesk/internal/repository"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

// Picker returns an index in [0, n). n is always positive.
type Picker func(n int) int

// RandomPicker picks uniformly at random.
func RandomPicker(n int) int {
	return rand.IntN(n)
}

// Clock returns the current time.
type Clock func() time.Time

func defaultClock(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// mapRepoError converts repository sentinels into DomainErrors.
func mapRepoError(err error, resource string, details map[string]any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", details)
	default:
		return apperrors.MapError(err)
	}
}

// loadTicket resolves ref as a TKT identifier or a ticket UUID.
func loadTicket(ctx context.Context, tickets repository.TicketRepository, ref string) (*domain.Ticket, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperrors.NewValidationError("ticketId is required", nil)
	}
	var (
		ticket *domain.Ticket
		err    error
	)
	if strings.HasPrefix(strings.ToUpper(ref), "TKT") {
		ticket, err = tickets.GetByTicketID(ctx, ref)
	} else {
		ticket, err = tickets.GetByID(ctx, ref)
	}
	if err != nil {
		return nil, mapRepoError(err, "ticket", map[string]any{"ticket_id": ref})
	}
	return ticket, nil
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, now Clock, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func actorOf(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: user.ID, Role: user.Role}
}

func actorID(user *domain.User) *string {
	if user == nil {
		return nil
	}
	id := user.ID
	return &id
}

func requireAdmin(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("not authenticated")
	}
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func recordChange(ctx context.Context, history repository.TicketHistoryRepository, actor *domain.User, ticketID string, changeType domain.TicketChangeType, key string, oldValue, newValue any) error {
	if history == nil {
		return nil
	}
	return history.Create(ctx, &domain.TicketHistory{
		TicketID:   ticketID,
		ChangedBy:  actorID(actor),
		ChangeType: changeType,
		OldValue:   map[string]any{key: oldValue},
		NewValue:   map[string]any{key: newValue},
	})
}
