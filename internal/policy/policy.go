// Package policy holds the single access decision for ticket operations.
package policy

import (
	"github.com/civicdesk/helpdesk/internal/domain"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

// Action is something an actor attempts on a ticket.
type Action string

const (
	ActionView         Action = "view"
	ActionComment      Action = "comment"
	ActionUpdateStatus Action = "update_status"
	ActionReopen       Action = "reopen"
	ActionAssign       Action = "assign"
)

// Authorize returns nil when actor may perform action on ticket and a
// forbidden DomainError otherwise.
func Authorize(actor *domain.User, ticket *domain.Ticket, action Action) error {
	if actor == nil {
		return apperrors.NewUnauthorized("not authenticated")
	}
	if Allowed(actor, ticket, action) {
		return nil
	}
	return apperrors.NewForbidden("access denied")
}

// Allowed is the boolean form of Authorize.
func Allowed(actor *domain.User, ticket *domain.Ticket, action Action) bool {
	if actor == nil || ticket == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	submitter := ticket.SubmittedBy == actor.ID
	assignee := ticket.IsAssignedTo(actor.ID)

	switch action {
	case ActionView, ActionComment:
		return submitter || assignee
	case ActionUpdateStatus:
		return assignee
	case ActionReopen:
		return submitter
	default:
		return false
	}
}
