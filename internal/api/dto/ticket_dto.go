package dto

import (
	"time"

	"github.com/civicdesk/helpdesk/internal/domain"
)

// CreateTicketRequest is accepted as JSON or multipart form.
type CreateTicketRequest struct {
	Title       string `json:"title" form:"title" validate:"required,max=200"`
	Description string `json:"description" form:"description" validate:"required,max=5000"`
	Category    string `json:"category" form:"category"`
	Location    string `json:"location" form:"location" validate:"max=500"`
	Priority    string `json:"priority" form:"priority"`
	DueDate     string `json:"dueDate" form:"dueDate"`
	Image       string `json:"image" form:"image" validate:"omitempty,url"`
}

// AssignTicketRequest moves a ticket to a department.
type AssignTicketRequest struct {
	TicketID   string `json:"ticketId" validate:"required"`
	Department string `json:"department" validate:"required"`
}

// UpdateStatusRequest changes the lifecycle status.
type UpdateStatusRequest struct {
	TicketID string `json:"ticketId" validate:"required"`
	Status   string `json:"status" validate:"required"`
}

// ReopenTicketRequest reopens a finished ticket.
type ReopenTicketRequest struct {
	TicketID string `json:"ticketId" validate:"required"`
	Reason   string `json:"reason" validate:"max=2000"`
}

// AddCommentRequest appends a comment.
type AddCommentRequest struct {
	TicketID string `json:"ticketId" validate:"required"`
	Text     string `json:"text" validate:"required,max=5000"`
}

// TicketResponse is the outward ticket shape.
type TicketResponse struct {
	ID          string                `json:"id"`
	TicketID    string                `json:"ticketId"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.Category       `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	SubmittedBy string                `json:"submittedBy"`
	AssignedTo  *string               `json:"assignedTo"`
	Location    string                `json:"location"`
	Image       *string               `json:"image"`
	DueDate     time.Time             `json:"dueDate"`
	ResolvedAt  *time.Time            `json:"resolvedAt"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	Comments    []CommentResponse     `json:"comments"`
}

// CommentResponse is one ticket comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	System    bool      `json:"system"`
	CreatedAt time.Time `json:"createdAt"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID         string                  `json:"id"`
	ChangeType domain.TicketChangeType `json:"changeType"`
	ChangedBy  *string                 `json:"changedBy"`
	OldValue   map[string]any          `json:"oldValue"`
	NewValue   map[string]any          `json:"newValue"`
	CreatedAt  time.Time               `json:"createdAt"`
}

// TicketDetailResponse adds the audit trail to a ticket.
type TicketDetailResponse struct {
	TicketResponse
	History []TicketHistoryResponse `json:"history"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	comments := make([]CommentResponse, 0, len(t.Comments))
	for _, c := range t.Comments {
		comments = append(comments, NewCommentResponse(&c))
	}
	return TicketResponse{
		ID:          t.ID,
		TicketID:    t.TicketID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Priority:    t.Priority,
		Status:      t.Status,
		SubmittedBy: t.SubmittedBy,
		AssignedTo:  t.AssignedTo,
		Location:    t.Location,
		Image:       t.Image,
		DueDate:     t.DueDate,
		ResolvedAt:  t.ResolvedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Comments:    comments,
	}
}

// NewTicketResponses maps a listing.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// NewCommentResponse maps a comment.
func NewCommentResponse(c *domain.TicketComment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		Author:    c.AuthorID,
		Text:      c.Text,
		System:    c.System,
		CreatedAt: c.CreatedAt,
	}
}

// NewTicketDetailResponse maps a ticket with history.
func NewTicketDetailResponse(t *domain.Ticket, history []domain.TicketHistory) TicketDetailResponse {
	entries := make([]TicketHistoryResponse, 0, len(history))
	for _, h := range history {
		entries = append(entries, TicketHistoryResponse{
			ID:         h.ID,
			ChangeType: h.ChangeType,
			ChangedBy:  h.ChangedBy,
			OldValue:   h.OldValue,
			NewValue:   h.NewValue,
			CreatedAt:  h.CreatedAt,
		})
	}
	return TicketDetailResponse{TicketResponse: NewTicketResponse(t), History: entries}
}
