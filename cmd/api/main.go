package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httptransport "github.com/garage-kit/shop-service/internal/api/http"
	"github.com/garage-kit/shop-service/internal/api/http/handlers"
	"github.com/garage-kit/shop-service/internal/auth"
	"github.com/garage-kit/shop-service/internal/config"
	"github.com/garage-kit/shop-service/internal/events"
	"github.com/garage-kit/shop-service/internal/observability"
	"github.com/garage-kit/shop-service/internal/persistence"
	"github.com/garage-kit/shop-service/internal/repository"
	"github.com/garage-kit/shop-service/internal/service"
	"github.com/garage-kit/shop-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics(cfg.App.Name)
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	vehicleRepo := repository.NewVehicleRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	partRepo := repository.NewPartRepository(pool)
	invoiceRepo := repository.NewInvoiceRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	denylist := auth.NewDenylist(redis.Client)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
		Denylist:          denylist,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, denylist)

	roleService := service.NewRoleTransitionService(service.RoleTransitionDependencies{
		UserRepo:   userRepo,
		JobRepo:    jobRepo,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	vehicleService := service.NewVehicleService(vehicleRepo)
	jobService := service.NewJobService(service.JobDependencies{
		JobRepo:     jobRepo,
		VehicleRepo: vehicleRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
	})
	inventoryService := service.NewInventoryService(categoryRepo, partRepo)
	billingService := service.NewBillingService(service.BillingDependencies{
		InvoiceRepo: invoiceRepo,
		JobRepo:     jobRepo,
		PartRepo:    partRepo,
		Dispatcher:  dispatcher,
	})

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		AuthMiddleware: authMiddleware,
		AuthRateLimit:  cfg.App.AuthRateLimitPerMin,
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Vehicles:       handlers.NewVehiclesHandler(vehicleService),
		Jobs:           handlers.NewJobsHandler(jobService),
		Inventory:      handlers.NewInventoryHandler(inventoryService),
		Invoices:       handlers.NewInvoicesHandler(billingService),
		Admin:          handlers.NewAdminHandler(roleService, userRepo),
	})

	metricsServer := startMetricsServer(cfg.App.MetricsAddr, metrics, logger)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	_ = metricsServer.Shutdown(context.Background())
}

// startMetricsServer exposes the prometheus registry on its own listener,
// kept off the public API port.
func startMetricsServer(addr string, metrics *observability.Metrics, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics listen", zap.Error(err))
		}
	}()
	return server
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
