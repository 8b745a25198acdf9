package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService()
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "manager")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, AccessToken, claims.TokenType)
}

func TestValidateAccessToken(t *testing.T) {
	svc := newTestService()

	t.Run("Rejects Refresh Token", func(t *testing.T) {
		token, err := svc.GenerateRefreshToken(uuid.New(), "sales")
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Rejects Wrong Secret", func(t *testing.T) {
		other := NewService("different-secret", "refresh-secret", time.Hour, 24*time.Hour)
		token, err := other.GenerateAccessToken(uuid.New(), "admin")
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Rejects Expired Token", func(t *testing.T) {
		expired := NewService("access-secret", "refresh-secret", -time.Minute, 24*time.Hour)
		token, err := expired.GenerateAccessToken(uuid.New(), "admin")
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("Rejects Garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not-a-token")
		assert.Error(t, err)
	})
}
