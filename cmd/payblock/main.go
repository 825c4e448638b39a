package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/finbloc/payblock/app/models"
	"github.com/finbloc/payblock/app/repository"
	"github.com/finbloc/payblock/internal/pkg/cache"
	"github.com/finbloc/payblock/internal/pkg/database"
	"github.com/finbloc/payblock/internal/pkg/env"
	"github.com/finbloc/payblock/internal/pkg/events"
	"github.com/finbloc/payblock/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	events.SetupPublisher()

	repository.InitializeFactory(database.GetDB())
	ensureAdminUser()
	ensureDefaultReasons()

	app := fiber.New()
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	router.InstallRouter(app)

	return app
}

// ensureAdminUser bootstraps the first admin account from the environment so
// the admin-only registration endpoint is reachable on a fresh install.
func ensureAdminUser() {
	repo := repository.GetGlobalFactory().GetUserRepository()

	count, err := repo.Count()
	if err != nil {
		log.Fatalf("failed to count users: %v", err)
	}
	if count > 0 {
		return
	}

	password := env.GetEnv("ADMIN_PASSWORD", "")
	if password == "" {
		log.Print("no users exist and ADMIN_PASSWORD is not set, skipping admin bootstrap")
		return
	}

	admin, err := models.CreateUser(
		env.GetEnv("ADMIN_USERNAME", "admin"),
		env.GetEnv("ADMIN_EMAIL", "admin@localhost.local"),
		password,
		true,
	)
	if err != nil {
		log.Fatalf("failed to build admin user: %v", err)
	}
	if err := repo.Create(admin); err != nil {
		log.Fatalf("failed to create admin user: %v", err)
	}
	log.Printf("bootstrapped admin user %s", admin.Username)
}

// ensureDefaultReasons seeds the reason catalog on a fresh install. Codes that
// already exist are left untouched.
func ensureDefaultReasons() {
	repo := repository.GetGlobalFactory().GetBlockReasonRepository()

	defaults := []models.BlockReason{
		{Code: models.REASON_FRAUD_SUSPICION, Description: "Suspected fraudulent activity", IsFraud: true},
		{Code: models.REASON_INVALID_DETAILS, Description: "Invalid payment details"},
		{Code: models.REASON_OTHER, Description: "Other reasons"},
	}
	for i := range defaults {
		if _, err := repo.GetByCode(defaults[i].Code); err == nil {
			continue
		}
		if err := repo.Create(&defaults[i]); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			log.Fatalf("failed to seed block reason %s: %v", defaults[i].Code, err)
		}
	}
}
