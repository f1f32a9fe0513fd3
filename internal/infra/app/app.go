package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/pwysocki/docvault/internal/core/port"
	"github.com/pwysocki/docvault/internal/infra/config"
	"github.com/pwysocki/docvault/internal/infra/database"
	kafkainfra "github.com/pwysocki/docvault/internal/infra/kafka"
	"github.com/pwysocki/docvault/internal/infra/logger"
	redisinfra "github.com/pwysocki/docvault/internal/infra/redis"
	"github.com/pwysocki/docvault/internal/infra/security"
	"github.com/pwysocki/docvault/internal/infra/telemetry"
	postgresrepo "github.com/pwysocki/docvault/internal/repository/postgres"
	redisrepo "github.com/pwysocki/docvault/internal/repository/redis"
	"github.com/pwysocki/docvault/internal/transport/http/middleware"
	"github.com/pwysocki/docvault/internal/transport/http/routes"
	"github.com/pwysocki/docvault/internal/usecase"
)

type Application struct {
	cfg           *config.AppConfig
	engine        *gin.Engine
	logger        *zap.Logger
	pool          *pgxpool.Pool
	redis         *redisinfra.Client
	producer      *kafkainfra.Producer
	metricsServer *telemetry.Server
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	jwtManager, err := security.NewJWTManager(cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("init jwt manager: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			producer = kafkaProducer
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: cfg.Redis.RateLimitPrefix,
		TTL:       rateLimitWindow * 2,
	})

	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	metrics := telemetry.NewMetrics()
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	authorizer := usecase.NewAuthorizer(repos.Grants).WithObserver(metrics)

	userService := usecase.NewUserService(repos.Users, repos.Activity, log)
	folderService := usecase.NewFolderService(authorizer, repos.Folders, repos.Activity, eventPublisher, log)
	documentService := usecase.NewDocumentService(authorizer, repos.Documents, repos.Versions, repos.Comments, repos.Folders, repos.Activity, eventPublisher, log)
	sharingService := usecase.NewSharingService(authorizer, repos.Grants, repos.Documents, repos.Folders, repos.Users, repos.Activity, eventPublisher, log)
	activityService := usecase.NewActivityService(repos.Activity)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		JWTManager:  jwtManager,
		Metrics:     httpMetrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Users:     userService,
			Folders:   folderService,
			Documents: documentService,
			Sharing:   sharingService,
			Activity:  activityService,
		},
	})

	var metricsServer *telemetry.Server
	if cfg.Telemetry.MetricsPort > 0 {
		metricsServer = telemetry.NewServer(cfg.Telemetry, log)
	}

	return &Application{
		cfg:           cfg,
		engine:        engine,
		logger:        log,
		pool:          pool,
		redis:         redisClient,
		producer:      producer,
		metricsServer: metricsServer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting docvault API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	metricsErrCh := make(chan error, 1)
	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.Start(); err != nil {
				metricsErrCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if a.metricsServer != nil {
			_ = a.metricsServer.Shutdown(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	case err := <-metricsErrCh:
		return err
	}
}
