package service

import (
	"context"
	"math"
	"time"

	"github.com/civicdesk/helpdesk/internal/config"
	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/repository"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

// StatsService computes dashboard rollups. Nothing is cached.
type StatsService struct {
	stats         repository.StatsRepository
	topCategories int
	trendDays     int
	summaryDays   int
	now           Clock
}

// NewStatsService builds the service.
func NewStatsService(stats repository.StatsRepository, cfg config.StatsConfig, clock Clock) *StatsService {
	s := &StatsService{
		stats:         stats,
		topCategories: cfg.TopCategories,
		trendDays:     cfg.TrendDays,
		summaryDays:   cfg.SummaryDays,
		now:           defaultClock(clock),
	}
	if s.topCategories <= 0 {
		s.topCategories = 5
	}
	if s.trendDays <= 0 {
		s.trendDays = 7
	}
	if s.summaryDays <= 0 {
		s.summaryDays = 30
	}
	return s
}

// StatusCount is the number of tickets in one status.
type StatusCount struct {
	Status domain.TicketStatus `json:"status"`
	Count  int64               `json:"count"`
}

// StatusSummary lists every status, zero-filled, in lifecycle order.
type StatusSummary struct {
	Total    int64         `json:"total"`
	ByStatus []StatusCount `json:"byStatus"`
}

// CategoryStat is one entry of the top categories list.
type CategoryStat struct {
	Category   domain.Category `json:"category"`
	Total      int64           `json:"total"`
	Resolved   int64           `json:"resolved"`
	Unresolved int64           `json:"unresolved"`
}

// TrendPoint is the activity of one UTC day.
type TrendPoint struct {
	Date     string `json:"date"`
	Created  int64  `json:"created"`
	Resolved int64  `json:"resolved"`
}

// PublicStats is the landing page dashboard.
type PublicStats struct {
	Total         int64          `json:"total"`
	Resolved      int64          `json:"resolved"`
	Unresolved    int64          `json:"unresolved"`
	TopCategories []CategoryStat `json:"topCategories"`
	Trend         []TrendPoint   `json:"trend"`
}

// PublicSummary covers the trailing summary window.
type PublicSummary struct {
	WindowDays     int                   `json:"windowDays"`
	Created        int64                 `json:"created"`
	Resolved       int64                 `json:"resolved"`
	ResolutionRate float64               `json:"resolutionRate"`
	AvgPerDay      float64               `json:"avgPerDay"`
	Users          map[domain.Role]int64 `json:"users"`
}

// AdminSummary counts all tickets by status.
func (s *StatsService) AdminSummary(ctx context.Context, actor *domain.User) (*StatusSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.statusSummary(ctx, repository.StatsScope{})
}

// SubmittedSummary counts the tickets actor filed by status.
func (s *StatsService) SubmittedSummary(ctx context.Context, actor *domain.User) (*StatusSummary, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("not authenticated")
	}
	return s.statusSummary(ctx, repository.StatsScope{SubmittedBy: &actor.ID})
}

// AssignedSummary counts the tickets assigned to actor by status.
func (s *StatsService) AssignedSummary(ctx context.Context, actor *domain.User) (*StatusSummary, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("not authenticated")
	}
	return s.statusSummary(ctx, repository.StatsScope{AssignedTo: &actor.ID})
}

func (s *StatsService) statusSummary(ctx context.Context, scope repository.StatsScope) (*StatusSummary, error) {
	counts, err := s.stats.CountByStatus(ctx, scope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	summary := &StatusSummary{ByStatus: make([]StatusCount, 0, len(domain.Statuses))}
	for _, status := range domain.Statuses {
		n := counts[status]
		summary.Total += n
		summary.ByStatus = append(summary.ByStatus, StatusCount{Status: status, Count: n})
	}
	return summary, nil
}

// Public computes totals, the busiest categories and the daily trend.
func (s *StatsService) Public(ctx context.Context) (*PublicStats, error) {
	counts, err := s.stats.CountByStatus(ctx, repository.StatsScope{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := &PublicStats{}
	for status, n := range counts {
		out.Total += n
		if status.IsTerminal() {
			out.Resolved += n
		}
	}
	out.Unresolved = out.Total - out.Resolved

	categories, err := s.stats.CountByCategory(ctx, nil)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(categories) > s.topCategories {
		categories = categories[:s.topCategories]
	}
	out.TopCategories = make([]CategoryStat, 0, len(categories))
	for _, c := range categories {
		out.TopCategories = append(out.TopCategories, CategoryStat{
			Category:   c.Category,
			Total:      c.Total,
			Resolved:   c.Resolved,
			Unresolved: c.Total - c.Resolved,
		})
	}

	out.Trend, err = s.trend(ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *StatsService) trend(ctx context.Context) ([]TrendPoint, error) {
	today := startOfDay(s.now())
	since := today.AddDate(0, 0, -(s.trendDays - 1))

	created, err := s.stats.CreatedPerDay(ctx, since)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	resolved, err := s.stats.ResolvedPerDay(ctx, since)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	points := make([]TrendPoint, s.trendDays)
	index := make(map[string]int, s.trendDays)
	for i := range points {
		day := since.AddDate(0, 0, i).Format(time.DateOnly)
		points[i].Date = day
		index[day] = i
	}
	for _, d := range created {
		if i, ok := index[d.Day.UTC().Format(time.DateOnly)]; ok {
			points[i].Created += d.Count
		}
	}
	for _, d := range resolved {
		if i, ok := index[d.Day.UTC().Format(time.DateOnly)]; ok {
			points[i].Resolved += d.Count
		}
	}
	return points, nil
}

// Summary reports volume and resolution over the trailing window.
func (s *StatsService) Summary(ctx context.Context) (*PublicSummary, error) {
	since := s.now().UTC().AddDate(0, 0, -s.summaryDays)

	counts, err := s.stats.CountByStatus(ctx, repository.StatsScope{Since: &since})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	var created int64
	for _, n := range counts {
		created += n
	}
	resolved, err := s.stats.CountResolvedSince(ctx, since)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	users, err := s.stats.CountUsersByRole(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byRole := make(map[domain.Role]int64, len(domain.Roles))
	for _, role := range domain.Roles {
		byRole[role] = users[role]
	}

	out := &PublicSummary{
		WindowDays: s.summaryDays,
		Created:    created,
		Resolved:   resolved,
		AvgPerDay:  round2(float64(created) / float64(s.summaryDays)),
		Users:      byRole,
	}
	// the rate only counts tickets created inside the window so it stays within [0, 1]
	if created > 0 {
		finished := counts[domain.TicketStatusResolved] + counts[domain.TicketStatusClosed]
		out.ResolutionRate = round2(float64(finished) / float64(created))
	}
	return out, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
