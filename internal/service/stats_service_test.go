package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdesk/helpdesk/internal/domain"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

func TestStatusSummary_ZeroFilled(t *testing.T) {
	f := newFixture(t)

	summary, err := f.stats.AdminSummary(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Total)
	require.Len(t, summary.ByStatus, len(domain.Statuses))
	for i, status := range domain.Statuses {
		assert.Equal(t, status, summary.ByStatus[i].Status)
		assert.Equal(t, int64(0), summary.ByStatus[i].Count)
	}

	_, err = f.stats.AdminSummary(f.ctx, f.citizen)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestStatusSummary_Scopes(t *testing.T) {
	f := newFixture(t)
	emp := f.employee("it@example.com", domain.CategoryIT)
	f.create("IT")
	f.create("Roads")

	mine, err := f.stats.SubmittedSummary(f.ctx, f.citizen)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Total)

	assigned, err := f.stats.AssignedSummary(f.ctx, emp)
	require.NoError(t, err)
	assert.Equal(t, int64(1), assigned.Total)
	assert.Equal(t, StatusCount{Status: domain.TicketStatusOpen, Count: 1}, assigned.ByStatus[1])
}

func TestPublicStats(t *testing.T) {
	f := newFixture(t)
	base := f.now

	f.now = base.AddDate(0, 0, -2)
	f.create("Roads")
	f.create("Roads")

	f.now = base
	first := f.create("IT")
	f.create("IT")
	f.create("IT")
	f.create("Health")
	f.setStatus(first, domain.TicketStatusResolved)

	stats, err := f.stats.Public(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.Total)
	assert.Equal(t, int64(1), stats.Resolved)
	assert.Equal(t, int64(5), stats.Unresolved)

	require.Len(t, stats.TopCategories, 2)
	assert.Equal(t, CategoryStat{Category: domain.CategoryIT, Total: 3, Resolved: 1, Unresolved: 2}, stats.TopCategories[0])
	assert.Equal(t, CategoryStat{Category: domain.CategoryRoads, Total: 2, Resolved: 0, Unresolved: 2}, stats.TopCategories[1])

	require.Len(t, stats.Trend, 7)
	assert.Equal(t, "2024-03-04", stats.Trend[0].Date)
	assert.Equal(t, TrendPoint{Date: "2024-03-08", Created: 2}, stats.Trend[4])
	assert.Equal(t, TrendPoint{Date: "2024-03-10", Created: 4, Resolved: 1}, stats.Trend[6])
	assert.Equal(t, TrendPoint{Date: "2024-03-05"}, stats.Trend[1])
}

func TestPublicSummary(t *testing.T) {
	f := newFixture(t)
	base := f.now

	f.now = base.AddDate(0, 0, -40)
	f.create("IT")

	f.now = base.Add(-time.Hour)
	tickets := []*domain.Ticket{f.create("IT"), f.create("IT"), f.create("Roads")}
	f.setStatus(tickets[0], domain.TicketStatusClosed)

	f.now = base
	summary, err := f.stats.Summary(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, summary.WindowDays)
	assert.Equal(t, int64(3), summary.Created)
	assert.Equal(t, int64(1), summary.Resolved)
	assert.Equal(t, 0.33, summary.ResolutionRate)
	assert.Equal(t, 0.1, summary.AvgPerDay)
	assert.Equal(t, map[domain.Role]int64{
		domain.RoleCitizen:  1,
		domain.RoleEmployee: 0,
		domain.RoleAdmin:    1,
	}, summary.Users)
}

func TestPublicSummary_NoTicketsHasZeroRate(t *testing.T) {
	f := newFixture(t)

	summary, err := f.stats.Summary(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Created)
	assert.Equal(t, 0.0, summary.ResolutionRate)
}

func TestPublicSummary_RateIgnoresOlderTicketsClosedInWindow(t *testing.T) {
	f := newFixture(t)
	base := f.now

	f.now = base.AddDate(0, 0, -40)
	old := f.create("IT")

	f.now = base.Add(-time.Hour)
	f.create("Roads")

	f.now = base
	f.setStatus(old, domain.TicketStatusClosed)

	summary, err := f.stats.Summary(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Created)
	assert.Equal(t, int64(1), summary.Resolved)
	assert.Equal(t, 0.0, summary.ResolutionRate)
}
