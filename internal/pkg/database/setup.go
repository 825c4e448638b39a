package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/finbloc/payblock/app/models"
	"github.com/finbloc/payblock/internal/pkg/env"
)

var DB *gorm.DB

const maxRetries = 5
const retryDelay = 5 * time.Second

// SetupDatabase connects to Postgres with retries, migrates the schema and
// installs the partial unique index that lets the store itself resolve
// concurrent block attempts for the same client.
func SetupDatabase() {
	var err error
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_NAME", ""),
		env.GetEnv("DB_PORT", "5432"),
		env.GetEnv("DB_SSLMODE", "disable"),
	)

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			// Translate driver unique-violation errors into gorm.ErrDuplicatedKey
			// so repositories can map them to conflicts.
			TranslateError: true,
		})
		if err == nil {
			if err := DB.AutoMigrate(
				&models.User{},
				&models.Client{},
				&models.BlockReason{},
				&models.PaymentBlock{},
				&models.BlockHistory{},
			); err != nil {
				panic(err)
			}

			// Default-path blocks (no expiry, not force-created) are guarded
			// by the store: two concurrent creates for the same client leave
			// exactly one winner.
			if err := DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_blocks_active_client
				ON payment_blocks (client_id)
				WHERE status = 'active' AND expires_at IS NULL AND override = false`).Error; err != nil {
				panic(err)
			}

			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// GetDB returns the shared database handle.
func GetDB() *gorm.DB {
	return DB
}

// SetDB swaps the shared handle; used by tests.
func SetDB(db *gorm.DB) {
	DB = db
}
