package service

import (
	"context"
	"errors"
	"strings"

	"github.com/civicdesk/helpdesk/internal/auth"
	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/repository"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

// UserService holds the admin operations on the user directory.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, bcryptCost int) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost}
}

// CreateUserInput is the admin create-user payload.
type CreateUserInput struct {
	Name       string
	Email      string
	Password   string
	Role       string
	Department string
}

// CreateUser adds an account with any role. The department is kept only for
// employees.
func (s *UserService) CreateUser(ctx context.Context, actor *domain.User, input CreateUserInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.createUser(ctx, input)
}

// BootstrapAdmin creates an admin account without an acting admin. It backs
// the create-admin CLI command used to seed a fresh install.
func (s *UserService) BootstrapAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.createUser(ctx, CreateUserInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     string(domain.RoleAdmin),
	})
}

func (s *UserService) createUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if err := auth.CheckPasswordPolicy(input.Password); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role, "allowed": domain.Roles})
	}
	department, err := departmentFor(role, input.Department)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Department:   department,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// AssignDepartment sets the department of an employee.
func (s *UserService) AssignDepartment(ctx context.Context, actor *domain.User, userID, department string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, mapRepoError(err, "user", map[string]any{"user_id": userID})
	}
	if user.Role != domain.RoleEmployee {
		return nil, apperrors.NewValidationError("department can only be assigned to employees", map[string]any{"role": user.Role})
	}
	dept, ok := domain.ParseCategory(department)
	if !ok {
		return nil, apperrors.NewValidationError("invalid department", map[string]any{"department": department})
	}
	user.Department = &dept
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateRole changes a user's role. Leaving the employee role clears the
// department.
func (s *UserService) UpdateRole(ctx context.Context, actor *domain.User, userID, role, department string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	newRole, ok := domain.ParseRole(role)
	if !ok {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role, "allowed": domain.Roles})
	}
	user, err := s.users.GetByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, mapRepoError(err, "user", map[string]any{"user_id": userID})
	}

	switch {
	case newRole != domain.RoleEmployee:
		user.Department = nil
	case strings.TrimSpace(department) != "":
		dept, err := departmentFor(newRole, department)
		if err != nil {
			return nil, err
		}
		user.Department = dept
	}
	user.Role = newRole
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers returns users filtered by role and department.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.User, filter repository.UserFilter) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

func departmentFor(role domain.Role, raw string) (*domain.Category, error) {
	if role != domain.RoleEmployee || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	dept, ok := domain.ParseCategory(raw)
	if !ok {
		return nil, apperrors.NewValidationError("invalid department", map[string]any{"department": raw})
	}
	return &dept, nil
}
