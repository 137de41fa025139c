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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sangkips/tillpoint-api/internal/application/service"
	"github.com/sangkips/tillpoint-api/internal/config"
	domainRepo "github.com/sangkips/tillpoint-api/internal/domain/repository"
	"github.com/sangkips/tillpoint-api/internal/infrastructure/database"
	"github.com/sangkips/tillpoint-api/internal/infrastructure/events"
	"github.com/sangkips/tillpoint-api/internal/infrastructure/repository"
	"github.com/sangkips/tillpoint-api/internal/presentation/http/handler"
	"github.com/sangkips/tillpoint-api/internal/presentation/http/routes"
	"github.com/sangkips/tillpoint-api/pkg/kafka"
	"github.com/sangkips/tillpoint-api/pkg/logger"
	"github.com/sangkips/tillpoint-api/pkg/metrics"
	"github.com/sangkips/tillpoint-api/pkg/money"
	"github.com/sangkips/tillpoint-api/pkg/printer"
	"github.com/sangkips/tillpoint-api/pkg/utils"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration
	cfg := config.Load()

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db, zlog); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	// Seed default data
	if err := database.SeedDefaultData(db, zlog); err != nil {
		zlog.Warn("failed to seed default data", zap.Error(err))
	}

	m := metrics.New("tillpoint", prometheus.DefaultRegisterer)

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	passcodeHash := cfg.POS.AuthCodeHash
	if passcodeHash == "" && cfg.POS.AuthCode != "" {
		zlog.Warn("POS_AUTH_CODE is set in plain text; use POS_AUTH_CODE_HASH outside development")
		passcodeHash, err = utils.HashPassword(cfg.POS.AuthCode)
		if err != nil {
			zlog.Fatal("failed to hash POS auth code", zap.Error(err))
		}
	}
	if passcodeHash == "" {
		zlog.Warn("no POS auth code configured, discounts and refunds will be rejected")
	}

	denominations, err := money.ParseList(cfg.POS.Denominations)
	if err != nil {
		zlog.Fatal("invalid POS_DENOMINATIONS", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	settlementRepo := repository.NewSettlementRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Event publishing
	kafkaClient := kafka.NewClient(cfg.Kafka.Brokers)
	defer func() {
		if err := kafkaClient.Close(); err != nil {
			zlog.Warn("failed to close kafka client", zap.Error(err))
		}
	}()
	publisher := events.NewPublisher(kafkaClient, cfg.Kafka.TopicSales, cfg.Kafka.TopicSettlements, zlog)

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(
		cfg.Printer.Type,
		cfg.Printer.USBPath,
		cfg.Printer.Address,
	)
	if err != nil {
		zlog.Warn("failed to initialize printer", zap.Error(err))
		thermalPrinter = printer.NewNullPrinter()
	}
	defer thermalPrinter.Close()

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, zlog)
	shiftService := service.NewShiftService(userRepo, shiftRepo, zlog)
	ledgerService := service.NewLedgerService(saleRepo, shiftRepo, settlementRepo, branchRepo, publisher, m, zlog, cfg.POS.InvoicePrefix)
	printerService := service.NewPrinterService(thermalPrinter, branchRepo, cfg.Printer.Type, cfg.Printer.CharWidth, cfg.POS.CurrencySymbol, m, zlog)
	authorizers := service.NewPasscodeAuthorizer(passcodeHash, cfg.POS.PasscodeAttemptsPerMin, m, zlog)
	terminalService := service.NewTerminalService(
		shiftService,
		ledgerService,
		authorizers,
		printerService,
		denominations,
		cfg.POS.SubmissionTimeout(),
		zlog,
	)
	settlementService := service.NewSettlementService(shiftService, ledgerService, printerService, zlog)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Shift:      handler.NewShiftHandler(shiftService),
		Terminal:   handler.NewTerminalHandler(terminalService),
		Sales:      handler.NewSalesHandler(ledgerService, shiftService, authorizers, printerService),
		Settlement: handler.NewSettlementHandler(settlementService),
		Printer:    handler.NewPrinterHandler(printerService),
		Health:     handler.NewHealthHandler(db, version),
	}

	done := make(chan struct{})
	go purgeIdempotencyKeys(idempotencyRepo, done, zlog)

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		Metrics:         m,
		Log:             zlog,
		Done:            done,
	})

	// Get port from environment or use default
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
		zlog.Info("starting server",
			zap.String("app", cfg.App.Name),
			zap.String("env", cfg.App.Env),
			zap.String("port", port),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")
	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
}

// purgeIdempotencyKeys deletes expired keys once an hour.
func purgeIdempotencyKeys(repo domainRepo.IdempotencyRepository, done <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			n, err := repo.DeleteExpired(ctx, time.Now())
			if err != nil {
				log.Warn("failed to purge idempotency keys", zap.Error(err))
			} else if n > 0 {
				log.Debug("purged idempotency keys", zap.Int64("count", n))
			}
			cancel()
		}
	}
}
