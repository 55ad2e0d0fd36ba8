package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/helpdesk/internal/api/dto"
	"github.com/civicdesk/helpdesk/internal/domain"
)

// Catalog GET /meta/catalog lists the enumerations clients render in forms.
func Catalog(c *fiber.Ctx) error {
	return ok(c, "", dto.CatalogResponse{
		Roles:      domain.Roles,
		Categories: domain.Categories,
		Priorities: domain.Priorities,
		Statuses:   domain.Statuses,
	})
}
