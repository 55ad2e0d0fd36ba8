package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "Pending"
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
	TicketStatusReopened   TicketStatus = "Reopened"
)

// IsTerminal reports whether the status ends active work on a ticket.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityUrgent TicketPriority = "Urgent"
)

// DefaultDueWindow is added to creation or reopen time when no due date is given.
const DefaultDueWindow = 48 * time.Hour

// Ticket is the aggregate for filed complaints.
type Ticket struct {
	ID          string
	TicketID    string
	Title       string
	Description string
	Category    Category
	Priority    TicketPriority
	Status      TicketStatus
	SubmittedBy string
	AssignedTo  *string
	Location    string
	Image       *string
	DueDate     time.Time
	ResolvedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Comments    []TicketComment
}

// FormatTicketID renders the human readable identifier for a sequence number.
func FormatTicketID(seq int64) string {
	return fmt.Sprintf("TKT%06d", seq)
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
