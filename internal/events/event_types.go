package events

import (
	"time"

	"github.com/civicdesk/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
)

// Actor identifies who caused an event. UserID is empty for system actions.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	TicketRef string    `json:"ticket_ref"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	SubmittedBy string                `json:"submitted_by"`
	Category    domain.Category       `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	Title       string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	SubmittedBy string              `json:"submitted_by"`
	AssignedTo  *string             `json:"assigned_to,omitempty"`
	OldStatus   domain.TicketStatus `json:"old_status"`
	NewStatus   domain.TicketStatus `json:"new_status"`
	Reason      string              `json:"reason,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedTo string          `json:"assigned_to"`
	Department domain.Category `json:"department"`
	Title      string          `json:"title"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID   string  `json:"comment_id"`
	AuthorID    string  `json:"author_id"`
	SubmittedBy string  `json:"submitted_by"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
	BodyPreview string  `json:"body_preview"`
}
