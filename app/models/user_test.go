package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserHashesPassword(t *testing.T) {
	u, err := CreateUser("alice", "alice@example.com", "s3cret-pass", false)
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-pass", u.Password)
	assert.True(t, u.CheckPassword("s3cret-pass"))
	assert.False(t, u.CheckPassword("wrong-pass"))
	assert.False(t, u.IsAdmin)
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("al", "alice@example.com", "s3cret-pass", false)
	assert.Error(t, err, "username below minimum length")

	_, err = CreateUser("alice", "not-an-email", "s3cret-pass", false)
	assert.Error(t, err)

	_, err = CreateUser("alice", "alice@example.com", "short", false)
	assert.Error(t, err, "password below minimum length")
}

func TestSetPassword(t *testing.T) {
	u, err := CreateUser("bob", "bob@example.com", "first-pass", true)
	require.NoError(t, err)

	require.NoError(t, u.SetPassword("second-pass"))
	assert.False(t, u.CheckPassword("first-pass"))
	assert.True(t, u.CheckPassword("second-pass"))
	assert.True(t, u.IsAdmin)
}
