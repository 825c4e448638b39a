package models

import (
	"time"
)

const (
	BLOCK_STATUS_ACTIVE   = "active"
	BLOCK_STATUS_INACTIVE = "inactive"

	MAX_NOTES_LENGTH = 1000
)

// PaymentBlock asserts that a client's payments are disallowed. A block is
// created in the active status and transitions to inactive exactly once via an
// unblock; a new block is always a new record. Expiry never rewrites the
// stored status: an expired block is treated as inactive at read time only.
type PaymentBlock struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ClientID      uint           `gorm:"index;not null" json:"client_id"`
	ReasonID      uint           `gorm:"index;not null" json:"reason_id"`
	Notes         string         `gorm:"type:text" json:"notes"`
	Status        string         `gorm:"type:varchar(20);default:'active';index" json:"status"`
	Override      bool           `gorm:"default:false" json:"override"`
	CreatedBy     string         `gorm:"type:varchar(100);not null" json:"created_by"`
	UnblockedBy   string         `gorm:"type:varchar(100);default:null" json:"unblocked_by"`
	UnblockReason string         `gorm:"type:text" json:"unblock_reason"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UnblockedAt   *time.Time     `gorm:"type:timestamp;default:null" json:"unblocked_at"`
	ExpiresAt     *time.Time     `gorm:"type:timestamp;default:null" json:"expires_at"`
	Client        Client         `gorm:"foreignKey:ClientID" json:"-"`
	Reason        BlockReason    `gorm:"foreignKey:ReasonID" json:"-"`
	History       []BlockHistory `gorm:"foreignKey:BlockID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsActiveAt reports whether the block is effective at the given instant:
// stored status is active and any expiry has not yet passed.
func (b *PaymentBlock) IsActiveAt(now time.Time) bool {
	if b.Status != BLOCK_STATUS_ACTIVE {
		return false
	}
	if b.ExpiresAt != nil && !b.ExpiresAt.After(now) {
		return false
	}
	return true
}

// IsActive is IsActiveAt with the current time.
func (b *PaymentBlock) IsActive() bool {
	return b.IsActiveAt(time.Now())
}
