package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/finbloc/payblock/app/models"
)

func TestApplyBlockPatch_NoOp(t *testing.T) {
	block := &models.PaymentBlock{
		ReasonID: 1,
		Reason:   models.BlockReason{ID: 1, Code: models.REASON_OTHER},
		Notes:    "suspicious transfer pattern",
		Status:   models.BLOCK_STATUS_ACTIVE,
	}

	sameNotes := "suspicious transfer pattern"
	changes := applyBlockPatch(block, BlockPatch{Notes: &sameNotes}, nil)
	assert.Empty(t, changes)
	assert.Equal(t, "suspicious transfer pattern", block.Notes)

	changes = applyBlockPatch(block, BlockPatch{}, nil)
	assert.Empty(t, changes)
}

func TestApplyBlockPatch_ReasonChange(t *testing.T) {
	block := &models.PaymentBlock{
		ReasonID: 1,
		Reason:   models.BlockReason{ID: 1, Code: models.REASON_OTHER},
		Status:   models.BLOCK_STATUS_ACTIVE,
	}
	fraud := models.BlockReason{ID: 2, Code: models.REASON_FRAUD_SUSPICION, IsFraud: true}

	changes := applyBlockPatch(block, BlockPatch{}, &fraud)
	assert.Equal(t, []string{"Reason changed from other to fraud_suspicion"}, changes)
	assert.Equal(t, uint(2), block.ReasonID)
	assert.Equal(t, fraud.Code, block.Reason.Code)

	// Patching to the already-set reason is a no-op.
	changes = applyBlockPatch(block, BlockPatch{}, &fraud)
	assert.Empty(t, changes)
}

func TestApplyBlockPatch_AllFields(t *testing.T) {
	block := &models.PaymentBlock{
		ReasonID: 1,
		Reason:   models.BlockReason{ID: 1, Code: models.REASON_INVALID_DETAILS},
		Notes:    "old notes",
		Status:   models.BLOCK_STATUS_ACTIVE,
	}
	fraud := models.BlockReason{ID: 2, Code: models.REASON_FRAUD_SUSPICION}
	newNotes := "escalated after review"
	expiry := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	changes := applyBlockPatch(block, BlockPatch{Notes: &newNotes, ExpiresAt: &expiry}, &fraud)
	assert.Len(t, changes, 3)
	assert.Equal(t, "escalated after review", block.Notes)
	assert.NotNil(t, block.ExpiresAt)
	assert.True(t, block.ExpiresAt.Equal(expiry))
	assert.Contains(t, changes[2], "2025-06-01T00:00:00Z")
}

func TestApplyBlockPatch_SameExpiry(t *testing.T) {
	expiry := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	block := &models.PaymentBlock{
		ReasonID:  1,
		Status:    models.BLOCK_STATUS_ACTIVE,
		ExpiresAt: &expiry,
	}

	same := expiry
	changes := applyBlockPatch(block, BlockPatch{ExpiresAt: &same}, nil)
	assert.Empty(t, changes)
}

func TestParseNumericID(t *testing.T) {
	id, ok := parseNumericID("42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	_, ok = parseNumericID("7701234567A")
	assert.False(t, ok)

	_, ok = parseNumericID("")
	assert.False(t, ok)

	_, ok = parseNumericID("-3")
	assert.False(t, ok)
}
