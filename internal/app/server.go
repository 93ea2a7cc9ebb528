// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/config"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/db"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/gateway/flutterwave"
	authHandler "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/handlers/auth"
	paymentHandler "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/handlers/payment"
	payoutHandler "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/handlers/payout"
	productHandler "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/handlers/product"
	transactionHandler "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/handlers/transaction"
	webhookHandler "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/handlers/webhook"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/middleware"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/ratelimit"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/pkg/token"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/repository/postgres"
	authUsecase "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/auth"
	catalogUsecase "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/catalog"
	"github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/commission"
	ledgerUsecase "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/ledger"
	paymentUsecase "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/payment"
	payoutUsecase "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/payout"
	webhookUsecase "github.com/zandertechnory-lab/DIGITAL-FLUX/internal/service/webhook"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg         config.AppConfig
	engine      *gin.Engine
	http        *http.Server
	logger      *zap.Logger
	authService *authUsecase.AuthService
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB()
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("[REDIS] connected")

	// ----- Logger -----
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	s.logger = logger

	// ----- Token Manager & Rate Limiter -----
	tokenManager := token.NewManager(s.cfg.JWTSecret, "digital-flux", s.cfg.JWTTTL)
	limiter := ratelimit.NewLimiter(redisClient)

	// ----- Flutterwave -----
	gateway := flutterwave.NewClient(flutterwave.Config{
		BaseURL:   s.cfg.FlwBaseURL,
		SecretKey: s.cfg.FlwSecretKey,
		Timeout:   s.cfg.FlwTimeout,
	}, logger)

	// ----- Repositories -----
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	sellerRepo := postgres.NewSellerRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	payoutRepo := postgres.NewPayoutRepository(pool)

	// ----- Services (Usecases) -----
	rates := commission.Rates{
		Owner:   s.cfg.OwnerCommissionRate,
		Default: s.cfg.DefaultCommissionRate,
		Pro:     s.cfg.ProCommissionRate,
	}

	authService := authUsecase.NewAuthService(userRepo, tokenManager, logger)
	s.authService = authService

	catalogService := catalogUsecase.NewCatalogService(productRepo, sellerRepo, logger)
	ledgerService := ledgerUsecase.NewLedgerService(
		transactionRepo,
		productRepo,
		sellerRepo,
		rates,
		s.cfg.Currency,
		logger,
	)
	dispatcherService := payoutUsecase.NewDispatcherService(
		payoutRepo,
		transactionRepo,
		productRepo,
		gateway,
		logger,
	)
	paymentService := paymentUsecase.NewPaymentService(
		ledgerService,
		userRepo,
		productRepo,
		gateway,
		s.cfg.AppBaseURL,
		logger,
	)
	reconcilerService := webhookUsecase.NewReconcilerService(
		s.cfg.FlwWebhookHash,
		ledgerService,
		dispatcherService,
		sellerRepo,
		gateway,
		logger,
	)

	// ----- Initialize Admin -----
	if err := s.initializeAdmin(); err != nil {
		logger.Error("failed to initialize admin account", zap.Error(err))
		// Don't fail startup, just log the error
	}

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(authService, limiter, logger)
	productHandlerInst := productHandler.NewProductHandler(catalogService)
	paymentHandlerInst := paymentHandler.NewPaymentHandler(paymentService, limiter, logger)
	transactionHandlerInst := transactionHandler.NewTransactionHandler(ledgerService)
	payoutHandlerInst := payoutHandler.NewPayoutHandler(dispatcherService)
	webhookHandlerInst := webhookHandler.NewWebhookHandler(reconcilerService, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:        authHandlerInst,
		ProductHandler:     productHandlerInst,
		PaymentHandler:     paymentHandlerInst,
		TransactionHandler: transactionHandlerInst,
		PayoutHandler:      payoutHandlerInst,
		WebhookHandler:     webhookHandlerInst,
		AuthMiddleware:     authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	s.http = &http.Server{Addr: s.cfg.HTTPAddr, Handler: s.engine}
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// initializeAdmin creates the platform admin account if it doesn't exist.
func (s *Server) initializeAdmin() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	email := s.cfg.AdminEmail
	password := s.cfg.AdminPassword
	name := s.cfg.AdminName

	if email == "" || password == "" {
		s.logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin bootstrap")
		return nil
	}

	if err := s.authService.EnsureAdminExists(ctx, email, password, name); err != nil {
		return fmt.Errorf("failed to ensure admin exists: %w", err)
	}
	return nil
}
