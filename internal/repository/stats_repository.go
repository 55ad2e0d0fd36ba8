package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/helpdesk/internal/domain"
)

// StatsScope restricts status counts to a subset of tickets.
type StatsScope struct {
	SubmittedBy *string
	AssignedTo  *string
	Since       *time.Time
}

// CategoryCount is the per-category volume split by resolution.
type CategoryCount struct {
	Category domain.Category
	Total    int64
	Resolved int64
}

// DayCount is a number of events on one UTC calendar day.
type DayCount struct {
	Day   time.Time
	Count int64
}

// StatsRepository runs read-only aggregate queries.
type StatsRepository interface {
	CountByStatus(ctx context.Context, scope StatsScope) (map[domain.TicketStatus]int64, error)
	CountByCategory(ctx context.Context, since *time.Time) ([]CategoryCount, error)
	CreatedPerDay(ctx context.Context, since time.Time) ([]DayCount, error)
	ResolvedPerDay(ctx context.Context, since time.Time) ([]DayCount, error)
	CountResolvedSince(ctx context.Context, since time.Time) (int64, error)
	CountUsersByRole(ctx context.Context) (map[domain.Role]int64, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository builds repository.
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

// resolvedStatuses is the SQL list of statuses counted as resolved.
var resolvedStatuses = fmt.Sprintf("'%s','%s'", domain.TicketStatusResolved, domain.TicketStatusClosed)

func (r *statsRepository) CountByStatus(ctx context.Context, scope StatsScope) (map[domain.TicketStatus]int64, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if scope.SubmittedBy != nil {
		args = append(args, *scope.SubmittedBy)
		clauses = append(clauses, fmt.Sprintf("submitted_by::text=$%d", len(args)))
	}
	if scope.AssignedTo != nil {
		args = append(args, *scope.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to::text=$%d", len(args)))
	}
	if scope.Since != nil {
		args = append(args, *scope.Since)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	query := `SELECT status, COUNT(*) FROM tickets WHERE ` + strings.Join(clauses, " AND ") + ` GROUP BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[domain.TicketStatus]int64{}
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[domain.TicketStatus(status)] = count
	}
	return result, rows.Err()
}

func (r *statsRepository) CountByCategory(ctx context.Context, since *time.Time) ([]CategoryCount, error) {
	query := `
        SELECT category, COUNT(*), COUNT(*) FILTER (WHERE status IN (` + resolvedStatuses + `))
        FROM tickets`
	args := []any{}
	if since != nil {
		args = append(args, *since)
		query += ` WHERE created_at >= $1`
	}
	query += ` GROUP BY category ORDER BY COUNT(*) DESC, category ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CategoryCount
	for rows.Next() {
		var (
			item     CategoryCount
			category string
		)
		if err := rows.Scan(&category, &item.Total, &item.Resolved); err != nil {
			return nil, err
		}
		item.Category = domain.Category(category)
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *statsRepository) CreatedPerDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	const query = `
        SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, COUNT(*)
        FROM tickets WHERE created_at >= $1
        GROUP BY day ORDER BY day ASC`
	return r.dayCounts(ctx, query, since)
}

func (r *statsRepository) ResolvedPerDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	const query = `
        SELECT date_trunc('day', resolved_at AT TIME ZONE 'UTC') AS day, COUNT(*)
        FROM tickets WHERE resolved_at IS NOT NULL AND resolved_at >= $1
        GROUP BY day ORDER BY day ASC`
	return r.dayCounts(ctx, query, since)
}

func (r *statsRepository) dayCounts(ctx context.Context, query string, since time.Time) ([]DayCount, error) {
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DayCount
	for rows.Next() {
		var item DayCount
		if err := rows.Scan(&item.Day, &item.Count); err != nil {
			return nil, err
		}
		item.Day = time.Date(item.Day.Year(), item.Day.Month(), item.Day.Day(), 0, 0, 0, 0, time.UTC)
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *statsRepository) CountResolvedSince(ctx context.Context, since time.Time) (int64, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE resolved_at IS NOT NULL AND resolved_at >= $1`
	var count int64
	if err := r.pool.QueryRow(ctx, query, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *statsRepository) CountUsersByRole(ctx context.Context) (map[domain.Role]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[domain.Role]int64{}
	for rows.Next() {
		var (
			role  string
			count int64
		)
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		result[domain.Role(role)] = count
	}
	return result, rows.Err()
}
