package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/print-order-service/internal/api/http"
	"github.com/spec-kit/print-order-service/internal/api/http/handlers"
	"github.com/spec-kit/print-order-service/internal/auth"
	"github.com/spec-kit/print-order-service/internal/cache"
	"github.com/spec-kit/print-order-service/internal/config"
	"github.com/spec-kit/print-order-service/internal/events"
	"github.com/spec-kit/print-order-service/internal/observability"
	"github.com/spec-kit/print-order-service/internal/persistence"
	"github.com/spec-kit/print-order-service/internal/repository"
	"github.com/spec-kit/print-order-service/internal/service"
	"github.com/spec-kit/print-order-service/internal/storage"
	"github.com/spec-kit/print-order-service/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	countsCache := cache.NewStatusCounts(redis.Client, 30*time.Second)

	disk := storage.NewLocalDisk(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	receiver := storage.NewReceiver(disk)

	authService := service.NewAuthService(cfg.Auth, userRepo)
	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo:   orderRepo,
		Dispatcher:  dispatcher,
		CountsCache: countsCache,
		Logger:      logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	usersHandler := handlers.NewUsersHandler(authService)
	ordersHandler := handlers.NewOrdersHandler(orderService, receiver)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Users:          usersHandler,
		Orders:         ordersHandler,
		AuthMiddleware: authMiddleware,
		UploadDir:      storage.Root(disk),
		UploadBaseURL:  cfg.Uploads.BaseURL,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
