// internal/app/router.go
package app

import (
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/domain/user"
	authHandler "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/handlers/auth"
	paymentHandler "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/handlers/payment"
	payoutHandler "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/handlers/payout"
	productHandler "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/handlers/product"
	transactionHandler "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/handlers/transaction"
	webhookHandler "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/handlers/webhook"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler        *authHandler.AuthHandler
	ProductHandler     *productHandler.ProductHandler
	PaymentHandler     *paymentHandler.PaymentHandler
	TransactionHandler *transactionHandler.TransactionHandler
	PayoutHandler      *payoutHandler.PayoutHandler
	WebhookHandler     *webhookHandler.WebhookHandler
	AuthMiddleware     *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Webhooks ====================
	// Authenticated by provider signature, not by bearer token.
	api.POST("/webhooks/flutterwave", h.WebhookHandler.HandleFlutterwave)

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/register", h.AuthHandler.Register)
		authPublic.POST("/login", h.AuthHandler.Login)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.GET("/me", h.AuthHandler.GetMe)
	}

	// ==================== Products ====================
	products := api.Group("/products")
	{
		// Public storefront
		products.GET("", h.ProductHandler.ListApproved)
		products.GET("/:id", h.ProductHandler.GetProduct)

		// Seller catalog management
		productsAuth := products.Group("")
		productsAuth.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireRole(string(user.RoleSeller), string(user.RoleAdmin)))
		{
			productsAuth.POST("", h.ProductHandler.CreateProduct)
			productsAuth.GET("/mine", h.ProductHandler.ListMine)
		}
	}

	// ==================== Payments & Purchases (Buyers) ====================
	payments := api.Group("/payments")
	payments.Use(h.AuthMiddleware.Auth())
	{
		payments.POST("/initialize", h.PaymentHandler.Initialize)
	}

	purchases := api.Group("/purchases")
	purchases.Use(h.AuthMiddleware.Auth())
	{
		purchases.GET("", h.TransactionHandler.ListPurchases)
	}

	// ==================== Seller Routes ====================
	sellers := api.Group("/sellers")
	sellers.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireRole(string(user.RoleSeller), string(user.RoleAdmin)))
	{
		sellers.PUT("/payout-details", h.ProductHandler.UpdatePayoutDetails)
		sellers.GET("/sales", h.TransactionHandler.ListSales)
		sellers.GET("/sales/summary", h.TransactionHandler.GetSalesSummary)
		sellers.GET("/payouts", h.PayoutHandler.ListMine)
	}

	// ==================== Admin Routes ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireRole(string(user.RoleAdmin)))
	{
		admin.GET("/products/pending", h.ProductHandler.ListPendingApproval)
		admin.PUT("/products/:id/status", h.ProductHandler.SetStatus)
		admin.GET("/payouts/pending", h.PayoutHandler.ListPending)
		admin.POST("/payouts/:id/retry", h.PayoutHandler.Retry)
		admin.POST("/payouts/:id/sync", h.PayoutHandler.SyncStatus)
	}
}
