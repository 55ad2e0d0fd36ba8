package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdesk/helpdesk/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 10)

	issued, err := tm.GenerateToken("user-1", domain.RoleEmployee)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, err := tm.ParseToken(issued.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RoleEmployee, claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
	assert.InDelta(t, (10 * time.Minute).Seconds(), tm.Remaining(claims).Seconds(), 2)
}

func TestTokenManager_RejectsForeignSignature(t *testing.T) {
	issued, err := NewTokenManager("one", 10).GenerateToken("user-1", domain.RoleCitizen)
	require.NoError(t, err)

	_, err = NewTokenManager("two", 10).ParseToken(issued.Value)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	issued, err := tm.GenerateToken("user-1", domain.RoleCitizen)
	require.NoError(t, err)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tm.ParseToken(issued.Value)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "hunter22"))
	assert.ErrorIs(t, ComparePassword(hash, "hunter23"), ErrPasswordMismatch)
}

func TestCheckPasswordPolicy(t *testing.T) {
	assert.ErrorIs(t, CheckPasswordPolicy("12345"), ErrPasswordTooShort)
	assert.NoError(t, CheckPasswordPolicy("123456"))
	assert.NoError(t, CheckPasswordPolicy("ééééééé"))
	assert.ErrorIs(t, CheckPasswordPolicy(strings.Repeat("x", 73)), ErrPasswordTooLong)

	_, err := HashPassword("short", 4)
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
