package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/planshare/planshare-backend/internal/config"
	"github.com/planshare/planshare-backend/internal/handlers"
	"github.com/planshare/planshare-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	planHandler *handlers.PlanHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	webhookHandler *handlers.WebhookHandler,
	healthHandler *handlers.HealthHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	// Plans and invites (JWT required)
	plans := api.Group("/plans", middleware.JWTProtected(cfg))
	plans.Post("/", planHandler.Create)
	plans.Get("/", planHandler.List)
	plans.Get("/:uuid", planHandler.Get)
	plans.Put("/:uuid", planHandler.Update)
	plans.Post("/:uuid/invites", planHandler.CreateInvite)
	plans.Get("/:uuid/invites", planHandler.ListInvites)
	plans.Post("/:uuid/subscribe", planHandler.Subscribe)
	plans.Get("/:uuid/members", planHandler.Members)
	plans.Get("/:uuid/payment", planHandler.PaymentQuote)

	api.Delete("/invites/:uuid", middleware.JWTProtected(cfg), planHandler.CancelInvite)

	// Subscriptions (JWT required)
	subs := api.Group("/subscriptions", middleware.JWTProtected(cfg))
	subs.Get("/", subscriptionHandler.List)
	subs.Post("/:uuid/cancel", subscriptionHandler.Cancel)

	// Admin (JWT + admin gate)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(cfg))
	admin.Get("/logs", adminHandler.ListLogs)

	// Webhooks — shared-secret auth, no JWT
	api.Post("/webhooks/payments", webhookHandler.HandlePayment)
}
