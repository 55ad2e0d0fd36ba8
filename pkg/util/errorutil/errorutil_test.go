package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughWrapped(t *testing.T) {
	original := NewForbidden("access denied")
	wrapped := fmt.Errorf("update status: %w", original)

	de := ToDomainError(wrapped)
	require.NotNil(t, de)
	assert.Equal(t, CodeForbidden, de.Code)
	assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
}

func TestToDomainError_UnknownBecomesInternal(t *testing.T) {
	cause := errors.New("connection reset")
	de := ToDomainError(cause)

	require.NotNil(t, de)
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.ErrorIs(t, de, cause)
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestNewNotFound_Message(t *testing.T) {
	err := NewNotFound("ticket", map[string]any{"ticket_id": "TKT000001"})
	assert.EqualError(t, err, "ticket not found")
	assert.True(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(errors.New("x"), CodeNotFound))
}
