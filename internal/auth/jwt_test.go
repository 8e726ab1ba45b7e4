package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	token, err := tokens.Generate(models.User{ID: "u1", Role: models.RoleCashier})
	require.NoError(t, err)

	id, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}

func TestTokenRejections(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	token, err := tokens.Generate(models.User{ID: "u1"})
	require.NoError(t, err)

	other := NewTokens("ffffffffffffffffffffffffffffffff", time.Hour)
	_, err = other.Verify(token)
	assert.Error(t, err)

	later := NewTokens(testSecret, time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Verify(token)
	assert.Error(t, err)

	_, err = tokens.Verify("not-a-token")
	assert.Error(t, err)
}
