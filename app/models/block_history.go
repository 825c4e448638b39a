package models

import (
	"time"
)

const (
	HISTORY_ACTION_CREATED   = "created"
	HISTORY_ACTION_UNBLOCKED = "unblocked"
	HISTORY_ACTION_UPDATED   = "updated"
)

// BlockHistory is an append-only audit record of one state transition on a
// payment block. Entries are written in the same transaction as the mutation
// they describe and are never updated or deleted.
type BlockHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BlockID      uint      `gorm:"index;not null" json:"block_id"`
	Action       string    `gorm:"type:varchar(20);not null" json:"action"`
	StatusBefore *string   `gorm:"type:varchar(20)" json:"status_before"`
	StatusAfter  string    `gorm:"type:varchar(20);not null" json:"status_after"`
	PerformedBy  string    `gorm:"type:varchar(100);not null" json:"performed_by"`
	Notes        string    `gorm:"type:text" json:"notes"`
	Timestamp    time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}
