package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/controllers"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{Max: 120}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Testingfun API",
		})
	})

	// Public: account lifecycle and catalog
	auth := api.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", controllers.HandleLogin)
	auth.Get("/verify", controllers.HandleVerifyAccount)
	auth.Post("/logout", middleware.RequireAuth, controllers.HandleLogout)
	auth.Get("/me", middleware.RequireAuth, controllers.HandleMe)
	auth.Patch("/profile", middleware.RequireAuth, controllers.HandleUpdateProfile)
	auth.Get("/api-key", middleware.RequireAuth, controllers.HandleGetAPIKey)
	auth.Post("/api-key", middleware.RequireAuth, controllers.HandleGenerateAPIKey)
	auth.Delete("/api-key", middleware.RequireAuth, controllers.HandleRevokeAPIKey)

	api.Get("/packs", controllers.HandleListPacks)

	// Billing provider callbacks (no session, verified in controller)
	api.Post("/payment/webhook/stripe", controllers.HandleStripeWebhook)
	api.Post("/payment/webhook/mvola", controllers.HandleMvolaCallback)

	// Extractions
	sessions := api.Group("/sessions", middleware.RequireAuth)
	sessions.Post("/", controllers.HandleCreateSession)
	sessions.Get("/", controllers.HandleListSessions)
	sessions.Get("/:id", controllers.HandleGetSession)
	sessions.Get("/:id/items", controllers.HandleSessionItems)
	sessions.Get("/:id/download", controllers.HandleSessionDownload)
	sessions.Get("/:id/payment", controllers.HandlePaymentStatus)
	sessions.Post("/:id/analyze", controllers.HandleAnalyzeSession)
	sessions.Get("/:id/analysis", controllers.HandleGetAnalysis)

	// Payments
	payment := api.Group("/payment", middleware.RequireAuth)
	payment.Post("/checkout", controllers.HandleCreateCheckout)
	payment.Post("/mvola", controllers.HandleMvolaInitiate)

	// Credit ledger
	credits := api.Group("/credits", middleware.RequireAuth)
	credits.Get("/balance", controllers.HandleCreditBalance)
	credits.Get("/history", controllers.HandleCreditHistory)
	credits.Post("/estimate", controllers.HandleCreditEstimate)

	// Recurring extractions
	scheduled := api.Group("/scheduled-scrapes", middleware.RequireAuth)
	scheduled.Post("/", controllers.HandleCreateScheduledScrape)
	scheduled.Get("/", controllers.HandleListScheduledScrapes)
	scheduled.Get("/:id", controllers.HandleGetScheduledScrape)
	scheduled.Patch("/:id", controllers.HandleUpdateScheduledScrape)
	scheduled.Delete("/:id", controllers.HandleDeleteScheduledScrape)

	// Facebook page tracking state
	trackings := api.Group("/trackings", middleware.RequireAuth)
	trackings.Get("/", controllers.HandleListTrackings)
	trackings.Delete("/:id", controllers.HandleDeleteTracking)

	// Admin surface
	admin := api.Group("/admin", middleware.RequireAuth, middleware.RequireAdmin)
	admin.Get("/users", controllers.HandleAdminListUsers)
	admin.Patch("/users/:id", controllers.HandleAdminUpdateUser)
	admin.Post("/users/:id/credits", controllers.HandleAdminAdjustCredits)
	admin.Get("/sessions", controllers.HandleAdminListSessions)
	admin.Get("/stats", controllers.HandleAdminStats)
	admin.Post("/packs/reseed", controllers.HandleAdminReseedPacks)

	// Programmatic access with API keys instead of browser sessions
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())
	v1.Post("/sessions", controllers.HandleCreateSession)
	v1.Get("/sessions", controllers.HandleListSessions)
	v1.Get("/sessions/:id", controllers.HandleGetSession)
	v1.Get("/sessions/:id/items", controllers.HandleSessionItems)
	v1.Get("/sessions/:id/download", controllers.HandleSessionDownload)
	v1.Post("/sessions/:id/analyze", controllers.HandleAnalyzeSession)
	v1.Get("/sessions/:id/analysis", controllers.HandleGetAnalysis)
	v1.Get("/credits/balance", controllers.HandleCreditBalance)
	v1.Get("/credits/history", controllers.HandleCreditHistory)
	v1.Post("/credits/estimate", controllers.HandleCreditEstimate)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
