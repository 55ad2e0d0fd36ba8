package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdesk/helpdesk/internal/auth"
	"github.com/civicdesk/helpdesk/internal/config"
	"github.com/civicdesk/helpdesk/internal/domain"
	apperrors "github.com/civicdesk/helpdesk/pkg/util/errorutil"
)

func newAuthService(f *fixture) (*AuthService, auth.RevocationStore) {
	revoked := auth.NewMemoryRevocationStore()
	svc := NewAuthService(config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}, AuthDependencies{
		UserRepo:    f.store.Users(),
		Revocations: revoked,
	})
	return svc, revoked
}

func TestAuthService_RegisterAlwaysCitizen(t *testing.T) {
	f := newFixture(t)
	svc, _ := newAuthService(f)

	user, err := svc.Register(f.ctx, RegisterInput{Name: "Ann", Email: "Ann@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCitizen, user.Role)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = svc.Register(f.ctx, RegisterInput{Name: "Ann", Email: "ANN@example.com", Password: "secret1"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	_, err = svc.Register(f.ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "123"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestAuthService_LoginAndLogout(t *testing.T) {
	f := newFixture(t)
	svc, revoked := newAuthService(f)
	_, err := svc.Register(f.ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.Login(f.ctx, "ann@example.com", "wrong")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, _, err = svc.Login(f.ctx, "nobody@example.com", "secret1")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	user, token, err := svc.Login(f.ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)

	claims, err := svc.TokenManager().ParseToken(token.Value)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(f.ctx, claims))

	isRevoked, err := revoked.IsRevoked(f.ctx, token.ID)
	require.NoError(t, err)
	assert.True(t, isRevoked)
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	svc, _ := newAuthService(f)
	user, err := svc.Register(f.ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)

	err = svc.ChangePassword(f.ctx, user, "wrong", "secret2")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	require.NoError(t, svc.ChangePassword(f.ctx, user, "secret1", "secret2"))
	_, _, err = svc.Login(f.ctx, "ann@example.com", "secret2")
	assert.NoError(t, err)
}
