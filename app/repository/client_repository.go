package repository

import (
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/finbloc/payblock/app/models"
)

// clientRepository implements the ClientRepository interface
type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository instance
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(client *models.Client) error {
	if err := r.db.Create(client).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *clientRepository) GetByID(id uint) (*models.Client, error) {
	var client models.Client
	if err := r.db.First(&client, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &client, nil
}

func (r *clientRepository) GetByIdentifier(identifier string) (*models.Client, error) {
	var client models.Client
	if err := r.db.Where("client_identifier = ?", identifier).First(&client).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &client, nil
}

// Resolve looks up a client by internal id when the identifier is numeric,
// falling back to the external identifier otherwise.
func (r *clientRepository) Resolve(identifier string) (*models.Client, error) {
	if id, ok := parseNumericID(identifier); ok {
		client, err := r.GetByID(id)
		if err == nil {
			return client, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return r.GetByIdentifier(identifier)
}

func (r *clientRepository) List(filter ClientFilter) ([]models.Client, int64, error) {
	query := r.db.Model(&models.Client{})

	if filter.Identifier != "" {
		query = query.Where("client_identifier ILIKE ?", "%"+filter.Identifier+"%")
	}
	if filter.Name != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Name+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var clients []models.Client
	err := query.Order("id").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&clients).Error
	return clients, total, err
}

func (r *clientRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Client{}).Count(&count).Error
	return count, err
}

// parseNumericID reports whether the identifier is a plain decimal id.
func parseNumericID(identifier string) (uint, bool) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
