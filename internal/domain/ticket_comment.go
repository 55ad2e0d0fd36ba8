package domain

import "time"

// TicketComment is an immutable entry in a ticket's comment thread.
// System comments are written by the service on behalf of the actor.
type TicketComment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Text      string
	System    bool
	CreatedAt time.Time
}
