package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/itops/support-portal/internal/api/http"
	"github.com/itops/support-portal/internal/api/http/handlers"
	"github.com/itops/support-portal/internal/auth"
	"github.com/itops/support-portal/internal/config"
	"github.com/itops/support-portal/internal/events"
	"github.com/itops/support-portal/internal/observability"
	"github.com/itops/support-portal/internal/persistence"
	"github.com/itops/support-portal/internal/repository"
	"github.com/itops/support-portal/internal/scheduler"
	"github.com/itops/support-portal/internal/service"
	"github.com/itops/support-portal/internal/storage"
	"github.com/itops/support-portal/internal/worker"
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

	fileStore, err := storage.NewLocalFileStore(cfg.Attachment.UploadDir)
	if err != nil {
		logger.Fatal("failed to init file store", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	uow := repository.NewUnitOfWork(pool)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokenManager, userRepo)

	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		TicketRepo:  ticketRepo,
		AuditRepo:   auditRepo,
		CommentRepo: commentRepo,
		UserRepo:    userRepo,
		UnitOfWork:  uow,
		FileStore:   fileStore,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
		Config:      cfg.Lifecycle,
	})
	attachmentService := service.NewAttachmentService(
		attachmentRepo, ticketRepo, fileStore, dispatcher, metrics, logger, cfg.Attachment)
	reportingService := service.NewReportingService(ticketRepo, auditRepo, nil)
	authService := service.NewAuthService(userRepo, tokenManager, logger, cfg.Auth.BcryptCost)
	userService := service.NewUserService(userRepo, logger)

	notifier := worker.NewNotificationWorker(redis, logger, cfg.Notification)
	notifier.Register(dispatcher)

	sched := scheduler.New(lifecycleService, ticketRepo, dispatcher, logger, cfg.Scheduler, cfg.Lifecycle, nil)
	if err := sched.Start(ctx); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Attachment.MaxSizeBytes) + 1024*1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService, userService),
		Tickets:        handlers.NewTicketsHandler(lifecycleService, nil),
		Attachments:    handlers.NewAttachmentsHandler(attachmentService),
		Reports:        handlers.NewReportsHandler(reportingService, nil),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	sched.Stop()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
