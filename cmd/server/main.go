package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/cache"
	"hostel-backend/internal/config"
	"hostel-backend/internal/database"
	"hostel-backend/internal/db"
	"hostel-backend/internal/handlers"
	"hostel-backend/internal/health"
	h "hostel-backend/internal/http"
	"hostel-backend/internal/logger"
	"hostel-backend/internal/metrics"
	"hostel-backend/internal/middleware"
	"hostel-backend/internal/repositories"
	"hostel-backend/internal/scheduler"
	"hostel-backend/internal/services"
	"hostel-backend/internal/storage"
	"hostel-backend/internal/timeutil"
	"hostel-backend/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	zl.Info("connected to database", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))

	if err := database.NewMigrator(pool, migrations.FS, zl).RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if err := metrics.RegisterPoolStats(prometheus.DefaultRegisterer, pool); err != nil {
		zl.Warn("pool metrics not registered", zap.Error(err))
	}

	// Redis is optional; without it every overdue report is computed live
	var cachePinger health.Pinger
	redisClient, err := cache.Connect(ctx, cfg)
	if err != nil {
		zl.Warn("redis unavailable, overdue cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	rentCache := cache.NewRentCache(redisClient, cfg.Redis.TTL, zl)
	if redisClient != nil {
		defer redisClient.Close()
		cachePinger = rentCache
	}

	// Repositories
	adminRepo := repositories.NewAdminRepository(pool)
	loginRepo := repositories.NewLoginLogRepository(pool)
	roomRepo := repositories.NewRoomRepository(pool)
	tenantRepo := repositories.NewTenantRepository(pool)
	rentRepo := repositories.NewRentRecordRepository(pool)

	clock := timeutil.SystemClock{}
	jwtManager := auth.NewJWTManager(cfg)

	// Services
	adminService := services.NewAdminService(adminRepo, jwtManager, zl)
	roomService := services.NewRoomService(roomRepo)
	occupancy := services.NewOccupancyUpdater(roomRepo, zl)
	tenantService := services.NewTenantService(tenantRepo, roomRepo, rentRepo, occupancy, rentCache, zl)
	engine := services.NewReconciliationEngine(rentRepo, tenantRepo, clock, zl)
	processor := services.NewPaymentProcessor(rentRepo, tenantRepo, rentCache, clock, zl)
	rentService := services.NewRentService(rentRepo, tenantRepo, engine, processor, rentCache, clock, zl)
	lifecycle := services.NewRentLifecycleService(rentRepo, tenantRepo, rentCache, clock, zl)
	receipts := services.NewReceiptService(rentRepo, clock)
	reports := services.NewReportService(rentRepo)

	var documents services.DocumentStorage
	if cfg.Storage.Bucket != "" {
		store, err := storage.NewS3Store(ctx, cfg)
		if err != nil {
			return fmt.Errorf("document storage: %w", err)
		}
		documents = store
	} else {
		zl.Info("document storage not configured, uploads disabled")
	}
	documentService := services.NewDocumentService(tenantRepo, documents, zl)

	var gateway services.PaymentGateway
	if cfg.Razorpay.KeyID != "" && cfg.Razorpay.KeySecret != "" {
		gateway = services.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	}
	onlinePayments := services.NewOnlinePaymentService(rentRepo, processor, gateway, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, zl)

	sched, err := scheduler.New(cfg, lifecycle, zl)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if cfg.Scheduler.Enabled {
		sched.Start()
	}

	router := h.NewRouter(h.Handlers{
		Auth:    handlers.NewAuthHandler(adminService, loginRepo),
		Rooms:   handlers.NewRoomHandler(roomService),
		Tenants: handlers.NewTenantHandler(tenantService, documentService),
		Rents:   handlers.NewRentHandler(rentService, receipts, reports, onlinePayments, sched),
		Health:  handlers.NewHealthHandler(health.NewHealthChecker(pool, cachePinger)),
	}, middleware.NewAuthMiddleware(jwtManager, adminRepo), zl)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middleware.NewCORS(cfg)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("addr", srv.Addr), zap.Bool("scheduler", cfg.Scheduler.Enabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		zl.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("http shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		zl.Error("scheduler shutdown", zap.Error(err))
	}
	return nil
}
