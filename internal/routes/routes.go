// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"time"

	apperrors "escrow/internal/errors"
	"escrow/internal/handlers"
	"escrow/internal/middleware"
	"escrow/internal/repositories"
	"escrow/internal/repositories/cache"
	"escrow/internal/services/notification"
	"escrow/internal/services/payment"
	"escrow/internal/services/review"
	"escrow/internal/services/transaction"
	"escrow/internal/services/wallet"
	"escrow/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/sirupsen/logrus"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Store         repositories.Store
	Cache         cache.WalletCache
	Wallets       wallet.Service
	Payments      payment.Service
	Transactions  transaction.Service
	Reviews       review.Service
	Notifications notification.Service

	JWTSecret            string
	WebhookSigningSecret string
	// WebhookRateLimit caps webhook calls per client IP per minute. Zero
	// disables the limiter.
	WebhookRateLimit int
	Log              *logrus.Logger
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Cache)
	paymentHandler := handlers.NewPaymentHandler(deps.Payments, deps.WebhookSigningSecret, deps.Log)
	walletHandler := handlers.NewWalletHandler(deps.Wallets)
	transactionHandler := handlers.NewTransactionHandler(deps.Transactions)
	milestoneHandler := handlers.NewMilestoneHandler(deps.Transactions)
	reviewHandler := handlers.NewReviewHandler(deps.Reviews)
	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)

	app.Get("/health", healthHandler.HealthCheck)

	api := app.Group("/api")

	// Webhook is authenticated by signature, not by bearer token.
	webhook := api.Group("/webhook")
	if deps.WebhookRateLimit > 0 {
		webhook.Use(limiter.New(limiter.Config{
			Max:        deps.WebhookRateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return utils.Error(c, apperrors.ErrRateLimited)
			},
		}))
	}
	webhook.Post("/payment", paymentHandler.IngestPayment)

	authMiddleware := middleware.NewAuthMiddleware(deps.JWTSecret, deps.Store.Repositories().Users, deps.Log)
	protected := api.Group("", authMiddleware.Handler)

	protected.Get("/wallet", walletHandler.GetWallet)

	setupTransactionRoutes(protected, transactionHandler, reviewHandler)
	setupMilestoneRoutes(protected, milestoneHandler)
	setupNotificationRoutes(protected, notificationHandler)
}

func setupTransactionRoutes(router fiber.Router, h *handlers.TransactionHandler, reviews *handlers.ReviewHandler) {
	txns := router.Group("/transactions")
	txns.Get("/", h.List)
	txns.Post("/", h.Create)
	txns.Get("/:id", h.Get)
	txns.Post("/:id/fund", h.Fund)
	txns.Post("/:id/accept", h.Accept)
	txns.Get("/:id/milestones", h.ListMilestones)
	txns.Get("/:id/payments", h.ListPayments)
	txns.Get("/:id/reviews", reviews.ListReviews)
	txns.Post("/:id/reviews", reviews.LeaveReview)
}

func setupMilestoneRoutes(router fiber.Router, h *handlers.MilestoneHandler) {
	milestones := router.Group("/milestones")
	milestones.Post("/:id/submit", h.Submit)
	milestones.Post("/:id/approve", h.Approve)
	milestones.Post("/:id/request_revision", h.RequestRevision)
	milestones.Post("/:id/dispute", h.Dispute)
}

func setupNotificationRoutes(router fiber.Router, h *handlers.NotificationHandler) {
	notifications := router.Group("/notifications")
	notifications.Get("/", h.List)
	notifications.Get("/unread_count", h.UnreadCount)
	notifications.Post("/read_all", h.MarkAllRead)
	notifications.Post("/:id/read", h.MarkRead)
}
