package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/finbloc/payblock/app/models"
)

// effectiveBlockCond selects blocks that are active for read purposes: stored
// status is active and any expiry has not passed. Expiry is a read-time
// filter, never a status rewrite.
const effectiveBlockCond = "status = 'active' AND (expires_at IS NULL OR expires_at > ?)"

// blockRepository implements the BlockRepository interface. Every mutation and
// its history entry commit in one transaction; no partially-applied pair is
// ever observable.
type blockRepository struct {
	db *gorm.DB
}

// NewBlockRepository creates a new block repository instance
func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &blockRepository{db: db}
}

// Block creates an active block for the client named by req.ClientIdentifier,
// creating the client on first contact (identifier doubles as the name). The
// at-most-one-active invariant is enforced twice: a check inside the
// transaction and a partial unique index that resolves concurrent attempts in
// the store.
func (r *blockRepository) Block(req BlockRequest) (*models.PaymentBlock, error) {
	var created models.PaymentBlock

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var reason models.BlockReason
		if err := tx.First(&reason, req.ReasonID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidReason
			}
			return err
		}

		var client models.Client
		err := tx.Where("client_identifier = ?", req.ClientIdentifier).First(&client).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			client = models.Client{
				ClientIdentifier: req.ClientIdentifier,
				Name:             req.ClientIdentifier,
			}
			if err := client.Validate(); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			// A concurrent first block for the same identifier may register
			// the client between the lookup and the insert. ON CONFLICT keeps
			// the transaction alive; the refetch picks up the winner's row.
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&client).Error; err != nil {
				return err
			}
			if client.ID == 0 {
				if err := tx.Where("client_identifier = ?", req.ClientIdentifier).First(&client).Error; err != nil {
					return err
				}
			}
		} else if err != nil {
			return err
		}

		now := time.Now()
		var existing []models.PaymentBlock
		if err := tx.Where("client_id = ? AND status = ?", client.ID, models.BLOCK_STATUS_ACTIVE).
			Find(&existing).Error; err != nil {
			return err
		}
		hasEffective := false
		for i := range existing {
			if existing[i].IsActiveAt(now) {
				hasEffective = true
				break
			}
		}
		if hasEffective && !req.Force {
			return ErrAlreadyBlocked
		}

		created = models.PaymentBlock{
			ClientID:  client.ID,
			ReasonID:  reason.ID,
			Notes:     req.Notes,
			Status:    models.BLOCK_STATUS_ACTIVE,
			Override:  hasEffective,
			CreatedBy: req.CreatedBy,
			ExpiresAt: req.ExpiresAt,
		}
		if err := tx.Create(&created).Error; err != nil {
			// A concurrent block for the same client lost the race against
			// the partial unique index.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyBlocked
			}
			return err
		}

		history := models.BlockHistory{
			BlockID:      created.ID,
			Action:       models.HISTORY_ACTION_CREATED,
			StatusBefore: nil,
			StatusAfter:  models.BLOCK_STATUS_ACTIVE,
			PerformedBy:  req.CreatedBy,
			Notes:        fmt.Sprintf("Initial block created with reason: %s", reason.Code),
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		created.Client = client
		created.Reason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Unblock lifts the block with the given id. Lifting is the only writer of the
// inactive status and happens at most once per block.
func (r *blockRepository) Unblock(blockID uint, actor, reason string) (*models.PaymentBlock, error) {
	var lifted models.PaymentBlock

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var block models.PaymentBlock
		if err := tx.Preload("Client").Preload("Reason").First(&block, blockID).Error; err != nil {
			return translateNotFound(err)
		}
		if err := r.lift(tx, &block, actor, reason); err != nil {
			return err
		}
		lifted = block
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &lifted, nil
}

// UnblockClient lifts the client's currently effective block.
func (r *blockRepository) UnblockClient(clientID uint, actor, reason string) (*models.PaymentBlock, error) {
	var lifted models.PaymentBlock

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var blocks []models.PaymentBlock
		if err := tx.Preload("Client").Preload("Reason").
			Where("client_id = ?", clientID).
			Where(effectiveBlockCond, time.Now()).
			Order("created_at DESC").
			Find(&blocks).Error; err != nil {
			return err
		}
		if len(blocks) == 0 {
			return ErrNoActiveBlock
		}
		block := blocks[0]
		if err := r.lift(tx, &block, actor, reason); err != nil {
			return err
		}
		lifted = block
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &lifted, nil
}

// lift performs the active -> inactive transition and appends its audit entry
// within the caller's transaction.
func (r *blockRepository) lift(tx *gorm.DB, block *models.PaymentBlock, actor, reason string) error {
	if block.Status != models.BLOCK_STATUS_ACTIVE {
		return ErrBlockNotActive
	}

	now := time.Now()
	statusBefore := block.Status
	block.Status = models.BLOCK_STATUS_INACTIVE
	block.UnblockedAt = &now
	block.UnblockedBy = actor
	block.UnblockReason = reason

	if err := tx.Model(&models.PaymentBlock{}).
		Where("id = ?", block.ID).
		Updates(map[string]any{
			"status":         block.Status,
			"unblocked_at":   block.UnblockedAt,
			"unblocked_by":   block.UnblockedBy,
			"unblock_reason": block.UnblockReason,
		}).Error; err != nil {
		return err
	}

	note := reason
	if note == "" {
		note = "Block removed"
	}
	history := models.BlockHistory{
		BlockID:      block.ID,
		Action:       models.HISTORY_ACTION_UNBLOCKED,
		StatusBefore: &statusBefore,
		StatusAfter:  models.BLOCK_STATUS_INACTIVE,
		PerformedBy:  actor,
		Notes:        note,
	}
	return tx.Create(&history).Error
}

// Update applies a partial patch to an active block. When nothing actually
// changes the transaction is abandoned, no history is written and ErrNoChange
// is returned; otherwise a single history entry summarizes every change.
func (r *blockRepository) Update(blockID uint, patch BlockPatch, actor string) (*models.PaymentBlock, []string, error) {
	var updated models.PaymentBlock
	var changes []string

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var block models.PaymentBlock
		if err := tx.Preload("Client").Preload("Reason").First(&block, blockID).Error; err != nil {
			return translateNotFound(err)
		}
		// Gate on effective activeness: an expired block reads as inactive
		// and a patch must not resurrect it by pushing its expiry forward.
		if !block.IsActiveAt(time.Now()) {
			return ErrBlockNotActive
		}

		var newReason *models.BlockReason
		if patch.ReasonID != nil {
			var reason models.BlockReason
			if err := tx.First(&reason, *patch.ReasonID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrInvalidReason
				}
				return err
			}
			newReason = &reason
		}

		changes = applyBlockPatch(&block, patch, newReason)
		if len(changes) == 0 {
			return ErrNoChange
		}

		if err := tx.Model(&models.PaymentBlock{}).
			Where("id = ?", block.ID).
			Updates(map[string]any{
				"reason_id":  block.ReasonID,
				"notes":      block.Notes,
				"expires_at": block.ExpiresAt,
			}).Error; err != nil {
			return err
		}

		statusBefore := block.Status
		history := models.BlockHistory{
			BlockID:      block.ID,
			Action:       models.HISTORY_ACTION_UPDATED,
			StatusBefore: &statusBefore,
			StatusAfter:  block.Status,
			PerformedBy:  actor,
			Notes:        strings.Join(changes, "; "),
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		updated = block
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &updated, changes, nil
}

// applyBlockPatch mutates block with the patched fields and returns a
// description of every field that actually changed value. An empty result
// means the patch was a no-op.
func applyBlockPatch(block *models.PaymentBlock, patch BlockPatch, newReason *models.BlockReason) []string {
	var changes []string

	if newReason != nil && newReason.ID != block.ReasonID {
		changes = append(changes, fmt.Sprintf("Reason changed from %s to %s", block.Reason.Code, newReason.Code))
		block.ReasonID = newReason.ID
		block.Reason = *newReason
	}

	if patch.Notes != nil && *patch.Notes != block.Notes {
		block.Notes = *patch.Notes
		changes = append(changes, "Notes updated")
	}

	if patch.ExpiresAt != nil && (block.ExpiresAt == nil || !block.ExpiresAt.Equal(*patch.ExpiresAt)) {
		block.ExpiresAt = patch.ExpiresAt
		changes = append(changes, fmt.Sprintf("Expiration date updated to %s", patch.ExpiresAt.UTC().Format(time.RFC3339)))
	}

	return changes
}

func (r *blockRepository) GetByID(id uint) (*models.PaymentBlock, error) {
	var block models.PaymentBlock
	err := r.db.Preload("Client").Preload("Reason").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC, id ASC")
		}).
		First(&block, id).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &block, nil
}

// ActiveForClient returns the client's effective block, or ErrNoActiveBlock.
func (r *blockRepository) ActiveForClient(clientID uint) (*models.PaymentBlock, error) {
	var blocks []models.PaymentBlock
	err := r.db.Preload("Reason").
		Where("client_id = ?", clientID).
		Where(effectiveBlockCond, time.Now()).
		Order("created_at DESC").
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, ErrNoActiveBlock
	}
	return &blocks[0], nil
}

// ListForClient returns every block ever created for the client, newest first,
// with history entries nested in chronological order.
func (r *blockRepository) ListForClient(clientID uint) ([]models.PaymentBlock, error) {
	var blocks []models.PaymentBlock
	err := r.db.Preload("Reason").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC, id ASC")
		}).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&blocks).Error
	return blocks, err
}

// List returns a filtered page of blocks plus the total matching count.
func (r *blockRepository) List(filter BlockFilter) ([]models.PaymentBlock, int64, error) {
	now := time.Now()
	query := r.db.Model(&models.PaymentBlock{})

	switch filter.Status {
	case models.BLOCK_STATUS_ACTIVE:
		query = query.Where(effectiveBlockCond, now)
	case models.BLOCK_STATUS_INACTIVE:
		query = query.Where("NOT ("+effectiveBlockCond+")", now)
	}
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.IsFraud != nil {
		query = query.Joins("JOIN block_reasons ON block_reasons.id = payment_blocks.reason_id").
			Where("block_reasons.is_fraud = ?", *filter.IsFraud)
	}
	if filter.DateFrom != nil {
		query = query.Where("payment_blocks.created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("payment_blocks.created_at <= ?", *filter.DateTo)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var blocks []models.PaymentBlock
	err := query.Preload("Client").Preload("Reason").
		Order("payment_blocks.created_at DESC").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&blocks).Error
	return blocks, total, err
}

// Stats aggregates counts from the current store state. Nothing here is
// cached; every call reads committed data at the instant of query.
func (r *blockRepository) Stats() (*BlockStats, error) {
	now := time.Now()
	stats := &BlockStats{}

	if err := r.db.Model(&models.Client{}).Count(&stats.TotalClients).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.PaymentBlock{}).Count(&stats.TotalBlocks).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.PaymentBlock{}).
		Where(effectiveBlockCond, now).
		Count(&stats.ActiveBlocks).Error; err != nil {
		return nil, err
	}

	fraudQuery := func(isFraud bool) *gorm.DB {
		return r.db.Model(&models.PaymentBlock{}).
			Joins("JOIN block_reasons ON block_reasons.id = payment_blocks.reason_id").
			Where("block_reasons.is_fraud = ?", isFraud).
			Where(effectiveBlockCond, now)
	}
	if err := fraudQuery(true).Count(&stats.FraudActive).Error; err != nil {
		return nil, err
	}
	if err := fraudQuery(false).Count(&stats.NonFraudActive).Error; err != nil {
		return nil, err
	}

	var reasons []models.BlockReason
	if err := r.db.Order("id").Find(&reasons).Error; err != nil {
		return nil, err
	}
	for _, reason := range reasons {
		var count int64
		if err := r.db.Model(&models.PaymentBlock{}).
			Where("reason_id = ?", reason.ID).
			Where(effectiveBlockCond, now).
			Count(&count).Error; err != nil {
			return nil, err
		}
		stats.ByReason = append(stats.ByReason, ReasonCount{Reason: reason, ActiveCount: count})
	}

	weekAgo := now.AddDate(0, 0, -7)
	if err := r.db.Model(&models.PaymentBlock{}).
		Where("created_at >= ?", weekAgo).
		Count(&stats.RecentBlocks).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
