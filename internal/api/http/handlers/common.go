package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/helpdesk/internal/api/dto"
	"github.com/civicdesk/helpdesk/internal/domain"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	// keeps (page-1)*pageSize far from overflowing
	maxPage = 100000
)

func ok(c *fiber.Ctx, message string, data any) error {
	return c.JSON(dto.Envelope{Success: true, Message: message, Data: data})
}

func created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(dto.Envelope{Success: true, Message: message, Data: data})
}

// bind parses the body into req and runs struct validation.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

// pageWindow reads page and page_size into limit and offset.
func pageWindow(c *fiber.Ctx) (page, pageSize, limit, offset int) {
	page = parseInt(c.Query("page"), 1)
	pageSize = parseInt(c.Query("page_size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page > maxPage {
		page = maxPage
	}
	return page, pageSize, pageSize, (page - 1) * pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// parseDueDate accepts RFC3339 timestamps and plain dates.
func parseDueDate(val string) (*time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, val); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.NewValidationError("dueDate must be an RFC3339 timestamp or YYYY-MM-DD date", nil)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseStatuses(raw string) ([]domain.TicketStatus, error) {
	var statuses []domain.TicketStatus
	for _, part := range splitList(raw) {
		status, valid := domain.ParseStatus(part)
		if !valid {
			return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": part})
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func parsePriorities(raw string) ([]domain.TicketPriority, error) {
	var priorities []domain.TicketPriority
	for _, part := range splitList(raw) {
		priority, valid := domain.ParsePriority(part)
		if !valid {
			return nil, apperrors.NewValidationError("invalid priority filter", map[string]any{"priority": part})
		}
		priorities = append(priorities, priority)
	}
	return priorities, nil
}

func parseCategories(raw string) ([]domain.Category, error) {
	var categories []domain.Category
	for _, part := range splitList(raw) {
		category, valid := domain.ParseCategory(part)
		if !valid {
			return nil, apperrors.NewValidationError("invalid category filter", map[string]any{"category": part})
		}
		categories = append(categories, category)
	}
	return categories, nil
}
