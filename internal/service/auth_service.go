package service

import (
	"context"
	"errors"
	"strings"

	"github.com/civicdesk/helpdesk/internal/auth"
	"github.com/civicdesk/helpdesk/internal/config"
	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/repository"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	revoked    auth.RevocationStore
	bcryptCost int
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Revocations  auth.RevocationStore
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   tokens,
		revoked:    deps.Revocations,
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterInput is the self-service signup payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a citizen account. Self-registration never grants another
// role.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if err := auth.CheckPasswordPolicy(input.Password); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCitizen,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, auth.IssuedToken, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.IssuedToken{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, auth.IssuedToken{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, auth.IssuedToken{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, auth.IssuedToken{}, apperrors.NewInternalError(err)
	}
	return user, token, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revoked == nil || claims == nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, s.tokenMgr.Remaining(claims)); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) error {
	if user == nil {
		return apperrors.NewUnauthorized("not authenticated")
	}
	if err := auth.CheckPasswordPolicy(newPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	stored, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return mapRepoError(err, "user", map[string]any{"user_id": user.ID})
	}
	if err := auth.ComparePassword(stored.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	stored.PasswordHash = hash
	if err := s.users.Update(ctx, stored); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
