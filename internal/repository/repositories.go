package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups every store the services depend on.
type Repositories struct {
	Users    UserRepository
	Tickets  TicketRepository
	Comments TicketCommentRepository
	History  TicketHistoryRepository
	Stats    StatsRepository
}

// NewRepositories builds the Postgres-backed set.
func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:    NewUserRepository(pool),
		Tickets:  NewTicketRepository(pool),
		Comments: NewTicketCommentRepository(pool),
		History:  NewTicketHistoryRepository(pool),
		Stats:    NewStatsRepository(pool),
	}
}
