package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Default reason codes seeded on first migration.
const (
	REASON_FRAUD_SUSPICION = "fraud_suspicion"
	REASON_INVALID_DETAILS = "invalid_details"
	REASON_OTHER           = "other"
)

// BlockReason is a catalog entry describing why a block was created. Reasons
// are referenced by blocks and are never deleted while referenced.
type BlockReason struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"uniqueIndex;type:varchar(50)" json:"code" validate:"required,min=1,max=50"`
	Description string    `gorm:"type:varchar(255)" json:"description" validate:"required,min=1,max=255"`
	IsFraud     bool      `gorm:"default:false" json:"is_fraud"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *BlockReason) Validate() error {
	v := validator.New()

	return v.Struct(r)
}
