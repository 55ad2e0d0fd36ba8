package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/helpdesk/internal/domain"
)

// TicketCommentRepository stores the append-only comment thread of tickets.
// Comments are never updated or deleted.
type TicketCommentRepository interface {
	Append(ctx context.Context, comment *domain.TicketComment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error)
}

type ticketCommentRepository struct {
	pool *pgxpool.Pool
}

// NewTicketCommentRepository builds repository.
func NewTicketCommentRepository(pool *pgxpool.Pool) TicketCommentRepository {
	return &ticketCommentRepository{pool: pool}
}

func (r *ticketCommentRepository) Append(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, author_id, body, system)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.Text,
		comment.System,
	).Scan(&comment.ID, &comment.CreatedAt)
	return translate(err)
}

func (r *ticketCommentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	const query = `
        SELECT id, ticket_id, author_id, body, system, created_at
        FROM ticket_comments WHERE ticket_id::text=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketComment
	for rows.Next() {
		var comment domain.TicketComment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.Text,
			&comment.System,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
