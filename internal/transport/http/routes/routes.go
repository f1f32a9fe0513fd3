package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pwysocki/docvault/internal/infra/config"
	"github.com/pwysocki/docvault/internal/infra/security"
	"github.com/pwysocki/docvault/internal/transport/http/handlers"
	"github.com/pwysocki/docvault/internal/transport/http/middleware"
	"github.com/pwysocki/docvault/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Users     *usecase.UserService
	Folders   *usecase.FolderService
	Documents *usecase.DocumentService
	Sharing   *usecase.SharingService
	Activity  *usecase.ActivityService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	JWTManager  *security.JWTManager
	Metrics     *middleware.HTTPMetrics
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.JWTManager, deps.Services.Users)

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		tokenHandler := handlers.NewTokenHandler(deps.Services.Users, deps.JWTManager)
		tokenHandler.RegisterRoutes(authGroup)

		userGroup := api.Group("/users")
		userGroup.Use(authMiddleware, middleware.RequireSuperuser())
		userHandler := handlers.NewUserHandler(deps.Services.Users)
		userHandler.RegisterRoutes(userGroup)

		folderGroup := api.Group("/folders")
		folderGroup.Use(authMiddleware)
		folderHandler := handlers.NewFolderHandler(deps.Services.Folders)
		folderHandler.RegisterRoutes(folderGroup)

		documentGroup := api.Group("/documents")
		documentGroup.Use(authMiddleware)
		documentHandler := handlers.NewDocumentHandler(deps.Services.Documents, deps.Services.Activity, maxUploadBytes(deps))
		documentHandler.RegisterRoutes(documentGroup, buildDownloadMiddlewares(deps), buildUploadMiddlewares(deps))

		shareGroup := api.Group("/shares")
		shareGroup.Use(authMiddleware)
		shareHandler := handlers.NewShareHandler(deps.Services.Sharing)
		shareHandler.RegisterRoutes(shareGroup, buildShareMiddlewares(deps)...)

		activityGroup := api.Group("/activity")
		activityGroup.Use(authMiddleware)
		activityHandler := handlers.NewActivityHandler(deps.Services.Activity)
		activityHandler.RegisterRoutes(activityGroup)
	}

	return r
}

func buildRateLimitMiddlewares(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}

func buildDownloadMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.Config == nil {
		return nil
	}
	return buildRateLimitMiddlewares(deps, "download_ip", deps.Config.RateLimit.DownloadMaxAttempts)
}

func buildUploadMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.Config == nil {
		return nil
	}
	return buildRateLimitMiddlewares(deps, "upload_ip", deps.Config.RateLimit.UploadMaxAttempts)
}

func buildShareMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.Config == nil {
		return nil
	}
	return buildRateLimitMiddlewares(deps, "share_ip", deps.Config.RateLimit.ShareMaxAttempts)
}

func maxUploadBytes(deps Dependencies) int64 {
	if deps.Config == nil {
		return 0
	}
	return deps.Config.Upload.MaxSizeBytes
}
