package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Client is a bank client whose payments can be blocked. ClientIdentifier is
// the external identifier (tax number or similar) and is immutable once set.
type Client struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ClientIdentifier string         `gorm:"uniqueIndex;type:varchar(50)" json:"client_identifier" validate:"required,min=1,max=50"`
	Name             string         `gorm:"type:varchar(100)" json:"name" validate:"required,min=1,max=100"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	Blocks           []PaymentBlock `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Client) Validate() error {
	v := validator.New()

	return v.Struct(c)
}

// ActiveBlock returns the currently effective block from the preloaded Blocks
// slice, or nil when the client is not blocked.
func (c *Client) ActiveBlock(now time.Time) *PaymentBlock {
	for i := range c.Blocks {
		if c.Blocks[i].IsActiveAt(now) {
			return &c.Blocks[i]
		}
	}
	return nil
}

// IsBlocked reports whether the client has an effective block. Blocks must be
// preloaded.
func (c *Client) IsBlocked(now time.Time) bool {
	return c.ActiveBlock(now) != nil
}
