package memory

import (
	"context"
	"sort"
	"time"

	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/repository"
)

type statsRepo struct{ s *Store }

func (r *statsRepo) CountByStatus(_ context.Context, scope repository.StatsScope) (map[domain.TicketStatus]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := map[domain.TicketStatus]int64{}
	for _, t := range r.s.tickets {
		if scope.SubmittedBy != nil && t.SubmittedBy != *scope.SubmittedBy {
			continue
		}
		if scope.AssignedTo != nil && !t.IsAssignedTo(*scope.AssignedTo) {
			continue
		}
		if scope.Since != nil && t.CreatedAt.Before(*scope.Since) {
			continue
		}
		result[t.Status]++
	}
	return result, nil
}

func (r *statsRepo) CountByCategory(_ context.Context, since *time.Time) ([]repository.CategoryCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	byCategory := map[domain.Category]*repository.CategoryCount{}
	for _, t := range r.s.tickets {
		if since != nil && t.CreatedAt.Before(*since) {
			continue
		}
		item, ok := byCategory[t.Category]
		if !ok {
			item = &repository.CategoryCount{Category: t.Category}
			byCategory[t.Category] = item
		}
		item.Total++
		if t.Status.IsTerminal() {
			item.Resolved++
		}
	}
	result := make([]repository.CategoryCount, 0, len(byCategory))
	for _, item := range byCategory {
		result = append(result, *item)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Total == result[j].Total {
			return result[i].Category < result[j].Category
		}
		return result[i].Total > result[j].Total
	})
	return result, nil
}

func (r *statsRepo) CreatedPerDay(_ context.Context, since time.Time) ([]repository.DayCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	days := map[time.Time]int64{}
	for _, t := range r.s.tickets {
		if t.CreatedAt.Before(since) {
			continue
		}
		days[truncateDay(t.CreatedAt)]++
	}
	return sortedDays(days), nil
}

func (r *statsRepo) ResolvedPerDay(_ context.Context, since time.Time) ([]repository.DayCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	days := map[time.Time]int64{}
	for _, t := range r.s.tickets {
		if t.ResolvedAt == nil || t.ResolvedAt.Before(since) {
			continue
		}
		days[truncateDay(*t.ResolvedAt)]++
	}
	return sortedDays(days), nil
}

func (r *statsRepo) CountResolvedSince(_ context.Context, since time.Time) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var count int64
	for _, t := range r.s.tickets {
		if t.ResolvedAt != nil && !t.ResolvedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *statsRepo) CountUsersByRole(_ context.Context) (map[domain.Role]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := map[domain.Role]int64{}
	for _, u := range r.s.users {
		result[u.Role]++
	}
	return result, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sortedDays(days map[time.Time]int64) []repository.DayCount {
	result := make([]repository.DayCount, 0, len(days))
	for day, count := range days {
		result = append(result, repository.DayCount{Day: day, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Day.Before(result[j].Day) })
	return result
}
