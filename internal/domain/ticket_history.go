package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus   TicketChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypeCategory TicketChangeType = "CATEGORY_CHANGE"
)

// TicketHistory is an immutable audit trail entry. ChangedBy is nil for
// changes made by the system itself.
type TicketHistory struct {
	ID         string
	TicketID   string
	ChangedBy  *string
	ChangeType TicketChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}
