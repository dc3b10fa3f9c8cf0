package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/config"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/sangkips/pos-api/internal/infrastructure/realtime"
	"github.com/sangkips/pos-api/internal/infrastructure/repository"
	"github.com/sangkips/pos-api/internal/presentation/http/handler"
	"github.com/sangkips/pos-api/internal/presentation/http/middleware"
	"github.com/sangkips/pos-api/internal/presentation/http/routes"
	"github.com/sangkips/pos-api/pkg/email"
	"github.com/sangkips/pos-api/pkg/oauth"
	"github.com/sangkips/pos-api/pkg/printer"
	"github.com/sangkips/pos-api/pkg/utils"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Printf("Warning: unknown timezone %q, using UTC: %v", cfg.App.Timezone, err)
		loc = time.UTC
	}

	// Connect to database
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed demo data when SEED_* is set
	if err := database.SeedDefaultData(db, cfg.Seed, cfg.POS.TrialDays); err != nil {
		log.Printf("Warning: Failed to seed default data: %v", err)
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	tx := repository.NewTransactor(db)
	businessRepo := repository.NewBusinessRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	userRepo := repository.NewUserRepository(db)
	passwordResetRepo := repository.NewPasswordResetTokenRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewInventoryMovementRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	sessionRepo := repository.NewRegisterSessionRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize email service
	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
		FrontendURL:  cfg.Email.FrontendURL,
	})

	// Initialize Google OAuth service
	googleOAuthService := oauth.NewGoogleOAuthService(oauth.GoogleOAuthConfig{
		ClientID:           cfg.OAuth.GoogleClientID,
		ClientSecret:       cfg.OAuth.GoogleClientSecret,
		RedirectURL:        cfg.OAuth.GoogleRedirectURL,
		FrontendSuccessURL: cfg.OAuth.FrontendSuccessURL,
		FrontendErrorURL:   cfg.OAuth.FrontendErrorURL,
	})

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(
		cfg.Printer.Type,
		cfg.Printer.USBPath,
		cfg.Printer.Address,
	)
	if err != nil {
		log.Printf("Warning: Failed to initialize printer: %v", err)
		thermalPrinter = printer.NewNullPrinter()
	}
	defer thermalPrinter.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Live events and rate limiting run until shutdown
	hub := realtime.NewHub(cfg.CORS.AllowedOrigins)
	go hub.Run(ctx)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Requests: cfg.RateLimit.Requests,
		Window:   time.Duration(cfg.RateLimit.Duration) * time.Second,
	})
	go rateLimiter.Run(ctx)

	// Initialize services
	printerService := service.NewPrinterService(thermalPrinter, cfg.Printer.CharWidth)
	authService := service.NewAuthService(tx, businessRepo, branchRepo, userRepo, passwordResetRepo, jwtManager, emailService, googleOAuthService, cfg.JWT.Secret, cfg.POS.TrialDays)
	businessService := service.NewBusinessService(businessRepo, branchRepo, userRepo, productRepo, customerRepo, analyticsRepo, loc)
	userService := service.NewUserService(tx, businessRepo, branchRepo, userRepo, cfg.Plans)
	branchService := service.NewBranchService(tx, businessRepo, branchRepo, userRepo, sessionRepo, analyticsRepo, cfg.Plans)
	categoryService := service.NewCategoryService(tx, categoryRepo, productRepo)
	productService := service.NewProductService(tx, businessRepo, productRepo, movementRepo, categoryRepo, cfg.Plans, cfg.POS)
	customerService := service.NewCustomerService(customerRepo, saleRepo, analyticsRepo)
	sessionService := service.NewRegisterSessionService(tx, sessionRepo, branchRepo, saleRepo, hub, loc)
	saleService := service.NewSaleService(tx, saleRepo, sessionRepo, productRepo, movementRepo, customerRepo, hub)
	receiptService := service.NewReceiptService(saleRepo, businessRepo, printerService, emailService, cfg.POS.Currency)
	reportService := service.NewReportService(saleRepo, analyticsRepo, businessRepo, branchRepo, loc, cfg.POS.Currency)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:            handler.NewAuthHandler(authService),
		Business:        handler.NewBusinessHandler(businessService),
		Branch:          handler.NewBranchHandler(branchService),
		Category:        handler.NewCategoryHandler(categoryService),
		Customer:        handler.NewCustomerHandler(customerService),
		Product:         handler.NewProductHandler(productService, loc),
		RegisterSession: handler.NewRegisterSessionHandler(sessionService, loc),
		Sale:            handler.NewSaleHandler(saleService, loc),
		Receipt:         handler.NewReceiptHandler(receiptService),
		Report:          handler.NewReportHandler(reportService),
		User:            handler.NewUserHandler(userService),
		Printer:         handler.NewPrinterHandler(printerService),
		Events:          handler.NewEventsHandler(hub),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
		DB:              db,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s, timezone: %s", cfg.App.Env, loc)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
