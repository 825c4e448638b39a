package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentBlockIsActiveAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	b := &PaymentBlock{Status: BLOCK_STATUS_ACTIVE}
	assert.True(t, b.IsActiveAt(now))

	b.Status = BLOCK_STATUS_INACTIVE
	assert.False(t, b.IsActiveAt(now))
}

func TestPaymentBlockIsActiveAt_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	future := now.Add(24 * time.Hour)
	b := &PaymentBlock{Status: BLOCK_STATUS_ACTIVE, ExpiresAt: &future}
	assert.True(t, b.IsActiveAt(now))

	past := now.Add(-time.Minute)
	b.ExpiresAt = &past
	assert.False(t, b.IsActiveAt(now), "expired block must read as inactive")
	assert.Equal(t, BLOCK_STATUS_ACTIVE, b.Status, "expiry must not rewrite stored status")

	exact := now
	b.ExpiresAt = &exact
	assert.False(t, b.IsActiveAt(now))
}

func TestClientActiveBlock(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	c := &Client{
		ClientIdentifier: "7701234567",
		Blocks: []PaymentBlock{
			{ID: 1, Status: BLOCK_STATUS_INACTIVE},
			{ID: 2, Status: BLOCK_STATUS_ACTIVE, ExpiresAt: &past},
			{ID: 3, Status: BLOCK_STATUS_ACTIVE},
		},
	}

	assert.True(t, c.IsBlocked(now))
	active := c.ActiveBlock(now)
	assert.NotNil(t, active)
	assert.Equal(t, uint(3), active.ID)

	c.Blocks = c.Blocks[:2]
	assert.False(t, c.IsBlocked(now))
	assert.Nil(t, c.ActiveBlock(now))
}
