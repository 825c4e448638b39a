package repository

import (
	"time"

	"github.com/finbloc/payblock/app/models"
)

// UserRepository defines operator-account persistence operations.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	TouchLastLogin(id uint, at time.Time) error
	Count() (int64, error)
}

// ClientFilter narrows client listings. Empty fields are ignored.
type ClientFilter struct {
	Identifier string
	Name       string
	Limit      int
	Offset     int
}

// ClientRepository defines client registry operations. Resolve accepts either
// the numeric internal id or the external client identifier.
type ClientRepository interface {
	Create(client *models.Client) error
	GetByID(id uint) (*models.Client, error)
	GetByIdentifier(identifier string) (*models.Client, error)
	Resolve(identifier string) (*models.Client, error)
	List(filter ClientFilter) ([]models.Client, int64, error)
	Count() (int64, error)
}

// BlockReasonRepository defines reason-catalog operations. The catalog is
// append-only in the exposed API.
type BlockReasonRepository interface {
	Create(reason *models.BlockReason) error
	GetByID(id uint) (*models.BlockReason, error)
	GetByCode(code string) (*models.BlockReason, error)
	List() ([]models.BlockReason, error)
}

// BlockRequest carries the inputs of a block creation.
type BlockRequest struct {
	ClientIdentifier string
	ReasonID         uint
	Notes            string
	CreatedBy        string
	ExpiresAt        *time.Time
	Force            bool
}

// BlockPatch is a partial update of an active block. Nil fields are left
// untouched.
type BlockPatch struct {
	ReasonID  *uint
	Notes     *string
	ExpiresAt *time.Time
}

// BlockFilter narrows block listings. Filters are conjunctive; callers are
// expected to drop unparseable values before building the filter.
type BlockFilter struct {
	Status   string
	ClientID uint
	IsFraud  *bool
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// ReasonCount pairs a catalog reason with its active block count.
type ReasonCount struct {
	Reason      models.BlockReason
	ActiveCount int64
}

// BlockStats aggregates counts over the current store state.
type BlockStats struct {
	TotalClients   int64
	TotalBlocks    int64
	ActiveBlocks   int64
	FraudActive    int64
	NonFraudActive int64
	ByReason       []ReasonCount
	RecentBlocks   int64
}

// BlockRepository is the block ledger plus its read side. All mutations run in
// a single transaction together with their history entry.
type BlockRepository interface {
	Block(req BlockRequest) (*models.PaymentBlock, error)
	Unblock(blockID uint, actor, reason string) (*models.PaymentBlock, error)
	UnblockClient(clientID uint, actor, reason string) (*models.PaymentBlock, error)
	Update(blockID uint, patch BlockPatch, actor string) (*models.PaymentBlock, []string, error)
	GetByID(id uint) (*models.PaymentBlock, error)
	ActiveForClient(clientID uint) (*models.PaymentBlock, error)
	ListForClient(clientID uint) ([]models.PaymentBlock, error)
	List(filter BlockFilter) ([]models.PaymentBlock, int64, error)
	Stats() (*BlockStats, error)
}
