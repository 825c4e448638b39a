package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/finbloc/payblock/app/controllers"
	"github.com/finbloc/payblock/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())

	// Auth endpoints; login and verify are the only unauthenticated writes.
	auth := api.Group("/auth")
	auth.Post("/login", controllers.HandleLogin)
	auth.Post("/token/verify", controllers.HandleVerifyToken)
	auth.Post("/register", middleware.TokenAuthMiddleware(), middleware.RequireAdmin, controllers.HandleRegister)
	auth.Get("/me", middleware.TokenAuthMiddleware(), controllers.HandleMe)

	v1 := api.Group("/v1")
	v1.Get("/health", controllers.HandleHealth)

	// Everything below the health probe requires a bearer token.
	protected := v1.Group("/", middleware.TokenAuthMiddleware())

	protected.Get("/clients", controllers.HandleListClients)
	protected.Post("/clients", controllers.HandleCreateClient)
	protected.Get("/clients/:identifier", controllers.HandleGetClient)
	protected.Post("/clients/:identifier/block", controllers.HandleBlockClient)
	protected.Post("/clients/:identifier/unblock", controllers.HandleUnblockClient)
	protected.Get("/clients/:identifier/status", controllers.HandleClientStatus)
	protected.Get("/clients/:identifier/history", controllers.HandleClientHistory)

	protected.Get("/blocks", controllers.HandleListBlocks)
	protected.Get("/blocks/:id", controllers.HandleGetBlock)
	protected.Put("/blocks/:id", controllers.HandleUpdateBlock)
	protected.Delete("/blocks/:id", controllers.HandleUnblockBlock)
	protected.Get("/blocks/:id/history", controllers.HandleBlockHistory)

	protected.Get("/block-reasons", controllers.HandleListReasons)
	protected.Post("/block-reasons", middleware.RequireAdmin, controllers.HandleCreateReason)

	protected.Get("/stats", controllers.HandleStats)
}
