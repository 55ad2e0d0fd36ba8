package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/repository"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User  *domain.User
	Token *Claims
}

// AuthMiddleware validates tokens and loads principals.
type AuthMiddleware struct {
	tokens     *TokenManager
	users      repository.UserRepository
	revoked    RevocationStore
	cookieName string
	logger     *zap.Logger
}

// NewAuthMiddleware constructs middleware. revoked may be nil.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository, revoked RevocationStore, cookieName string, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cookieName == "" {
		cookieName = "token"
	}
	return &AuthMiddleware{tokens: tokens, users: users, revoked: revoked, cookieName: cookieName, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := m.extractToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			// a Redis outage must not lock everyone out
			m.logger.Warn("revocation lookup failed", zap.Error(err))
		} else if revoked {
			return apperrors.NewUnauthorized("token revoked")
		}
	}

	user, err := m.users.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{User: user, Token: claims})
	return c.Next()
}

func (m *AuthMiddleware) extractToken(c *fiber.Ctx) (string, error) {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", apperrors.NewUnauthorized("invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie := c.Cookies(m.cookieName); cookie != "" {
		return cookie, nil
	}
	return "", apperrors.NewUnauthorized("not authenticated")
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal.User != nil
}

// CurrentUser returns the authenticated user or an unauthorized error.
func CurrentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("not authenticated")
	}
	return principal.User, nil
}
