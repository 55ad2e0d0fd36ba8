package dto

import (
	"time"

	"github.com/civicdesk/helpdesk/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest payload for password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// CreateUserRequest is the admin create-user payload.
type CreateUserRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Role       string `json:"role" validate:"required"`
	Department string `json:"department"`
}

// AssignDepartmentRequest sets an employee's department.
type AssignDepartmentRequest struct {
	UserID     string `json:"userId" validate:"required"`
	Department string `json:"department" validate:"required"`
}

// UpdateRoleRequest changes a user's role.
type UpdateRoleRequest struct {
	UserID     string `json:"userId" validate:"required"`
	Role       string `json:"role" validate:"required"`
	Department string `json:"department"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Role       domain.Role      `json:"role"`
	Department *domain.Category `json:"department"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
		CreatedAt:  u.CreatedAt,
	}
}

// CatalogResponse lists the closed enumerations shared with clients.
type CatalogResponse struct {
	Roles      []domain.Role           `json:"roles"`
	Categories []domain.Category       `json:"categories"`
	Priorities []domain.TicketPriority `json:"priorities"`
	Statuses   []domain.TicketStatus   `json:"statuses"`
}
