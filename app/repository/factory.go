package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Repositories bundles every repository backed by the same database handle.
type Repositories struct {
	User   UserRepository
	Client ClientRepository
	Reason BlockReasonRepository
	Block  BlockRepository
}

// NewRepositories creates all repository instances for the given database.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:   NewUserRepository(db),
		Client: NewClientRepository(db),
		Reason: NewBlockReasonRepository(db),
		Block:  NewBlockRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetClientRepository returns the client repository instance
func (f *Factory) GetClientRepository() ClientRepository {
	return f.GetRepositories().Client
}

// GetBlockReasonRepository returns the block reason repository instance
func (f *Factory) GetBlockReasonRepository() BlockReasonRepository {
	return f.GetRepositories().Reason
}

// GetBlockRepository returns the block repository instance
func (f *Factory) GetBlockRepository() BlockRepository {
	return f.GetRepositories().Block
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
