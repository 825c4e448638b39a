package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/finbloc/payblock/app/models"
)

// blockReasonRepository implements the BlockReasonRepository interface
type blockReasonRepository struct {
	db *gorm.DB
}

// NewBlockReasonRepository creates a new block reason repository instance
func NewBlockReasonRepository(db *gorm.DB) BlockReasonRepository {
	return &blockReasonRepository{db: db}
}

func (r *blockReasonRepository) Create(reason *models.BlockReason) error {
	if err := r.db.Create(reason).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *blockReasonRepository) GetByID(id uint) (*models.BlockReason, error) {
	var reason models.BlockReason
	if err := r.db.First(&reason, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &reason, nil
}

func (r *blockReasonRepository) GetByCode(code string) (*models.BlockReason, error) {
	var reason models.BlockReason
	if err := r.db.Where("code = ?", code).First(&reason).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &reason, nil
}

func (r *blockReasonRepository) List() ([]models.BlockReason, error) {
	var reasons []models.BlockReason
	err := r.db.Order("id").Find(&reasons).Error
	return reasons, err
}
