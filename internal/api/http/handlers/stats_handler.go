package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/helpdesk/internal/auth"
	"github.com/civicdesk/helpdesk/internal/service"
)

// StatsHandler serves dashboard rollups.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Public GET /stats/public.
func (h *StatsHandler) Public(c *fiber.Ctx) error {
	stats, err := h.stats.Public(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "", stats)
}

// PublicSummary GET /stats/public/summary.
func (h *StatsHandler) PublicSummary(c *fiber.Ctx) error {
	summary, err := h.stats.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "", summary)
}

// AdminSummary GET /tickets/summary.
func (h *StatsHandler) AdminSummary(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	summary, err := h.stats.AdminSummary(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return ok(c, "", summary)
}

// SubmittedSummary GET /tickets/my-summary.
func (h *StatsHandler) SubmittedSummary(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	summary, err := h.stats.SubmittedSummary(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return ok(c, "", summary)
}

// AssignedSummary GET /tickets/my-assigned-summary.
func (h *StatsHandler) AssignedSummary(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	summary, err := h.stats.AssignedSummary(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return ok(c, "", summary)
}
