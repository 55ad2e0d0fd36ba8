package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/helpdesk/internal/domain"
)

// TicketFilter captures listing parameters. A zero Limit selects the default
// page size and a negative Limit disables paging.
type TicketFilter struct {
	SubmittedBy *string
	AssignedTo  *string
	// Participant matches tickets the user either submitted or is assigned to.
	Participant *string
	Statuses    []domain.TicketStatus
	Categories  []domain.Category
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	NextNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_id, title, description, category, priority, status, submitted_by, assigned_to,
               location, image, due_date, resolved_at, created_at, updated_at`

// NextNumber draws from ticket_number_seq so concurrent creations never share a number.
func (r *ticketRepository) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('ticket_number_seq')`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_id, title, description, category, priority, status, submitted_by, assigned_to,
                             location, image, due_date, resolved_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.TicketID,
		ticket.Title,
		ticket.Description,
		string(ticket.Category),
		string(ticket.Priority),
		string(ticket.Status),
		ticket.SubmittedBy,
		ticket.AssignedTo,
		ticket.Location,
		ticket.Image,
		ticket.DueDate,
		ticket.ResolvedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return translate(err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, priority=$4, status=$5, assigned_to=$6,
            location=$7, image=$8, due_date=$9, resolved_at=$10, updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		string(ticket.Category),
		string(ticket.Priority),
		string(ticket.Status),
		ticket.AssignedTo,
		ticket.Location,
		ticket.Image,
		ticket.DueDate,
		ticket.ResolvedAt,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return translate(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id::text=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, strings.ToUpper(ticketID)))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SubmittedBy != nil {
		args = append(args, *filter.SubmittedBy)
		clauses = append(clauses, fmt.Sprintf("submitted_by::text=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to::text=$%d", len(args)))
	}
	if filter.Participant != nil {
		args = append(args, *filter.Participant)
		clauses = append(clauses, fmt.Sprintf("(submitted_by::text=$%d OR assigned_to::text=$%d)", len(args), len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			args = append(args, string(c))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, string(pr))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(ticket_id) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC`, base, strings.Join(clauses, " AND "))
	if filter.Limit >= 0 {
		limit := filter.Limit
		if limit == 0 {
			limit = 20
		}
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket                     domain.Ticket
		category, priority, status string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketID,
		&ticket.Title,
		&ticket.Description,
		&category,
		&priority,
		&status,
		&ticket.SubmittedBy,
		&ticket.AssignedTo,
		&ticket.Location,
		&ticket.Image,
		&ticket.DueDate,
		&ticket.ResolvedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	ticket.Category = domain.Category(category)
	ticket.Priority = domain.TicketPriority(priority)
	ticket.Status = domain.TicketStatus(status)
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
