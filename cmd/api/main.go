package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httptransport "github.com/civicdesk/helpdesk/internal/api/http"
	"github.com/civicdesk/helpdesk/internal/api/http/handlers"
	"github.com/civicdesk/helpdesk/internal/auth"
	"github.com/civicdesk/helpdesk/internal/config"
	"github.com/civicdesk/helpdesk/internal/events"
	"github.com/civicdesk/helpdesk/internal/notify"
	"github.com/civicdesk/helpdesk/internal/observability"
	"github.com/civicdesk/helpdesk/internal/persistence"
	"github.com/civicdesk/helpdesk/internal/repository"
	"github.com/civicdesk/helpdesk/internal/repository/memory"
	"github.com/civicdesk/helpdesk/internal/service"
	"github.com/civicdesk/helpdesk/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var repos repository.Repositories
	if pg.Enabled() {
		repos = repository.NewRepositories(pg.PoolHandle())
	} else {
		repos = memory.NewStore().Repositories()
	}

	redisConn := persistence.NewRedis(cfg.Redis, logger)
	defer redisConn.Close()
	revocations := auth.NewMemoryRevocationStore()
	if err := redisConn.Ping(ctx); err == nil {
		revocations = auth.NewRedisRevocationStore(redisConn)
	} else {
		logger.Warn("redis unavailable; logout revocations kept in memory", zap.Error(err))
		redisConn = nil
	}

	metrics := observability.NewMetrics("helpdesk")
	dispatcher := events.NewInMemoryDispatcher(logger)

	var mailer notify.Mailer = notify.NewLogMailer(logger)
	if cfg.Mail.Enabled() {
		mailer = notify.NewSMTPMailer(cfg.Mail, logger)
	}
	var publisher notify.Publisher
	if cfg.Broker.URL != "" {
		amqpPublisher, err := notify.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Queue, logger)
		if err != nil {
			logger.Warn("amqp unavailable; ticket events will not be forwarded", zap.Error(err))
		} else {
			defer amqpPublisher.Close() //nolint:errcheck
			publisher = amqpPublisher
		}
	}

	assignment := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:  repos.Tickets,
		UserRepo:    repos.Users,
		HistoryRepo: repos.History,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Picker:      service.RandomPicker,
	})
	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		TicketRepo:  repos.Tickets,
		CommentRepo: repos.Comments,
		HistoryRepo: repos.History,
		Assignment:  assignment,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
	})
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repos.Tickets,
		CommentRepo: repos.Comments,
		HistoryRepo: repos.History,
		Assignment:  assignment,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
	})
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:    repos.Users,
		Revocations: revocations,
	})
	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		UserRepo:   repos.Users,
		Mailer:     mailer,
		Publisher:  publisher,
		Metrics:    metrics,
		Logger:     logger,
	})
	notificationWorker := worker.StartNotificationWorker(notifications, dispatcher, logger)

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		logger.Fatal("failed to create upload dir", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimitBytes,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.Users, revocations, cfg.Auth.CookieName, logger)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisConn),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth),
		Tickets:        handlers.NewTicketsHandler(tickets, lifecycle, assignment, cfg.Upload),
		Stats:          handlers.NewStatsHandler(service.NewStatsService(repos.Stats, cfg.Stats, nil)),
		Admin:          handlers.NewAdminHandler(service.NewUserService(repos.Users, cfg.Auth.BcryptCost)),
		AuthMiddleware: authMiddleware,
		Metrics:        adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})),
		UploadDir:      cfg.Upload.Dir,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	notificationWorker.Stop(shutdownTimeout)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
