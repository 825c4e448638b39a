package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestAuthTokenRoundTrip(t *testing.T) {
	token, expiry, err := GenerateAuthToken(7, "alice", true, time.Hour, testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	claims, err := VerifyAuthToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.IsAdmin)
	assert.NotEmpty(t, claims.TokenID)
	assert.Equal(t, expiry.Unix(), claims.ExpiresAt)
}

func TestAuthTokenUniqueID(t *testing.T) {
	t1, _, err := GenerateAuthToken(1, "alice", false, time.Hour, testSecret)
	require.NoError(t, err)
	t2, _, err := GenerateAuthToken(1, "alice", false, time.Hour, testSecret)
	require.NoError(t, err)

	c1, err := VerifyAuthToken(t1, testSecret)
	require.NoError(t, err)
	c2, err := VerifyAuthToken(t2, testSecret)
	require.NoError(t, err)
	assert.NotEqual(t, c1.TokenID, c2.TokenID)
}

func TestAuthTokenExpired(t *testing.T) {
	token, _, err := GenerateAuthToken(7, "alice", false, -time.Minute, testSecret)
	require.NoError(t, err)

	_, err = VerifyAuthToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthTokenWrongSecret(t *testing.T) {
	token, _, err := GenerateAuthToken(7, "alice", false, time.Hour, testSecret)
	require.NoError(t, err)

	_, err = VerifyAuthToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthTokenTampered(t *testing.T) {
	token, _, err := GenerateAuthToken(7, "alice", false, time.Hour, testSecret)
	require.NoError(t, err)

	parts := strings.SplitN(token, ".", 2)
	require.Len(t, parts, 2)
	tampered := parts[0] + "x." + parts[1]

	_, err = VerifyAuthToken(tampered, testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthTokenMalformed(t *testing.T) {
	_, err := VerifyAuthToken("not-a-token", testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = VerifyAuthToken("", testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
