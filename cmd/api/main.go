package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/Dwisantra/simpefov2/internal/api/http"
	"github.com/Dwisantra/simpefov2/internal/api/http/handlers"
	"github.com/Dwisantra/simpefov2/internal/auth"
	"github.com/Dwisantra/simpefov2/internal/config"
	"github.com/Dwisantra/simpefov2/internal/domain"
	"github.com/Dwisantra/simpefov2/internal/events"
	"github.com/Dwisantra/simpefov2/internal/observability"
	"github.com/Dwisantra/simpefov2/internal/persistence"
	"github.com/Dwisantra/simpefov2/internal/repository"
	"github.com/Dwisantra/simpefov2/internal/service"
	"github.com/Dwisantra/simpefov2/internal/storage"
	"github.com/Dwisantra/simpefov2/internal/worker"
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

	attachmentStore, err := storage.NewAttachmentStore(cfg.Storage.AttachmentDir)
	if err != nil {
		logger.Fatal("failed to init attachment storage", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	unitRepo := repository.NewUnitRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	approvalRepo := repository.NewApprovalRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	revocation := auth.NewRevocationStore(redis.Client)

	// Policy is read from config on every call so the flags stay dynamic for
	// in-flight tickets. Swapping this for a live config source is a matter of
	// changing the closure.
	policy := func() domain.WorkflowPolicy {
		return domain.WorkflowPolicy{
			SkipDirectorAForWiradadi: cfg.Workflow.SkipDirectorAForWiradadi,
			LockCompletedPriority:    cfg.Workflow.LockCompletedPriority,
		}
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		UnitRepo:   unitRepo,
		Revocation: revocation,
	})
	approvalService := service.NewApprovalService(service.ApprovalDependencies{
		TicketRepo:   ticketRepo,
		ApprovalRepo: approvalRepo,
		UnitRepo:     unitRepo,
		Dispatcher:   dispatcher,
		Policy:       policy,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		ApprovalRepo: approvalRepo,
		CommentRepo:  commentRepo,
		UnitRepo:     unitRepo,
		Attachments:  attachmentStore,
		Dispatcher:   dispatcher,
		Policy:       policy,
	})
	monitoringService := service.NewMonitoringService(service.MonitoringDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Policy:     policy,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   userRepo,
		UnitRepo:   unitRepo,
		Dispatcher: dispatcher,
	})
	unitService := service.NewUnitService(unitRepo)
	gitlabService := service.NewGitlabService(cfg.Gitlab, ticketRepo, userRepo, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	syncCron, err := worker.StartGitlabSyncWorker(cfg.Gitlab.SyncSchedule, gitlabService, logger)
	if err != nil {
		logger.Fatal("failed to start gitlab sync worker", zap.Error(err))
	}
	if syncCron != nil {
		defer syncCron.Stop()
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, revocation)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 25 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, approvalService, attachmentStore, policy),
		Monitoring:     handlers.NewMonitoringHandler(monitoringService, policy),
		Units:          handlers.NewUnitsHandler(unitService),
		AdminUsers:     handlers.NewAdminUsersHandler(userService),
		Gitlab:         handlers.NewGitlabHandler(gitlabService, policy),
		AuthMiddleware: authMiddleware,
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
