package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/helpdesk/internal/api/dto"
	"github.com/civicdesk/helpdesk/internal/auth"
	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/repository"
	"github.com/civicdesk/helpdesk/internal/service"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

// AdminHandler exposes user directory management.
type AdminHandler struct {
	users *service.UserService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(users *service.UserService) *AdminHandler {
	return &AdminHandler{users: users}
}

// CreateUser handles POST /admin/create-user.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.CreateUser(c.UserContext(), actor, service.CreateUserInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		Department: req.Department,
	})
	if err != nil {
		return err
	}
	return created(c, "user created", dto.NewUserResponse(user))
}

// AssignDepartment handles POST /admin/assign-department.
func (h *AdminHandler) AssignDepartment(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.AssignDepartmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.AssignDepartment(c.UserContext(), actor, req.UserID, req.Department)
	if err != nil {
		return err
	}
	return ok(c, "department assigned", dto.NewUserResponse(user))
}

// UpdateRole handles POST /admin/update-role.
func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateRole(c.UserContext(), actor, req.UserID, req.Role, req.Department)
	if err != nil {
		return err
	}
	return ok(c, "role updated", dto.NewUserResponse(user))
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	page, pageSize, limit, offset := pageWindow(c)
	filter := repository.UserFilter{Limit: limit, Offset: offset}
	if raw := c.Query("role"); raw != "" {
		role, valid := domain.ParseRole(raw)
		if !valid {
			return apperrors.NewValidationError("invalid role filter", map[string]any{"role": raw})
		}
		filter.Role = &role
	}
	if raw := c.Query("department"); raw != "" {
		dept, valid := domain.ParseCategory(raw)
		if !valid {
			return apperrors.NewValidationError("invalid department filter", map[string]any{"department": raw})
		}
		filter.Department = &dept
	}

	users, err := h.users.ListUsers(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return ok(c, "", dto.Page[dto.UserResponse]{Items: items, Page: page, PageSize: pageSize})
}
