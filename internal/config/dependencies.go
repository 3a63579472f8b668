package config

import (
	"context"
	"database/sql"
	"fmt"

	"taskboard/configs"
	"taskboard/internal/api/v1/handlers"
	"taskboard/internal/cache"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	myws "taskboard/internal/websocket"
	"taskboard/pkg/crypto"
	"taskboard/pkg/database"
	"taskboard/pkg/logger"
	"taskboard/pkg/notify"
	"taskboard/pkg/storage"
	"taskboard/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Dependencies holds everything the application wires together at startup.
// Nothing here is global; main builds one and hands the pieces out.
type Dependencies struct {
	Config   configs.Config
	DB       *sql.DB
	Redis    *redis.Client
	Validate *validator.Validate

	Sessions *service.Sessions
	Accounts *service.Accounts
	Handlers *handlers.Handler

	Hub      *myws.Hub
	Realtime *myws.Handler
}

// Build connects to Postgres and Redis, applies migrations and constructs
// the service graph. On error every connection opened so far is closed.
func Build(ctx context.Context, cfg configs.Config) (deps *Dependencies, err error) {
	deps = &Dependencies{Config: cfg, Validate: validation.New()}
	defer func() {
		if err != nil {
			deps.Close()
			deps = nil
		}
	}()

	if deps.DB, err = database.ConnectDB(ctx, cfg); err != nil {
		return deps, err
	}
	logger.SystemLogger.Info("Database Connected", zap.String("database", cfg.DBName))

	if err = repository.CreateTablesIfNotExists(database.DSN(cfg, cfg.DBName)); err != nil {
		return deps, err
	}

	if deps.Redis, err = database.ConnectRedis(ctx, cfg); err != nil {
		return deps, err
	}
	logger.SystemLogger.Info("Redis Connected", zap.Int("db", cfg.RedisDB))

	sealer, err := crypto.NewSealer(cfg.DeviceTokenKey)
	if err != nil {
		return deps, fmt.Errorf("device token key: %w", err)
	}

	s3Client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		return deps, err
	}
	uploader := storage.NewS3Uploader(s3Client, cfg.S3Bucket, storage.PublicBaseURL(cfg))

	var notifier service.Notifier = notify.LogSink{}
	if cfg.NotifyQueue != "" {
		notifier = notify.NewRedisQueue(deps.Redis, cfg.NotifyQueue)
	}

	userRepo := repository.NewUserRepository(deps.DB, sealer)
	taskRepo := repository.NewTaskRepository(deps.DB)
	cachedTasks := cache.NewCachedTasks(taskRepo, deps.Redis, cfg.CacheTTL)

	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	deps.Sessions = service.NewSessions(tokens, userRepo)
	deps.Accounts = service.NewAccounts(deps.DB, userRepo, taskRepo, uploader, notifier, cfg.NotifyTimeout)

	deps.Handlers = handlers.New(
		service.NewAuth(userRepo, tokens, uploader),
		service.NewTasks(cachedTasks, cfg.Location()),
		deps.Accounts,
		service.NewProfiles(userRepo, uploader),
		deps.Validate,
	)

	deps.Hub = myws.NewHub()
	deps.Realtime = myws.NewHandler(deps.Hub, cachedTasks, deps.Sessions, cfg.WSRequireAuth)
	return deps, nil
}

// HealthChecks reports on the backing stores.
func (d *Dependencies) HealthChecks() map[string]handlers.Check {
	return map[string]handlers.Check{
		"postgres": d.DB.PingContext,
		"redis": func(ctx context.Context) error {
			return d.Redis.Ping(ctx).Err()
		},
	}
}

// Close waits for in-flight notifications, then releases connections.
func (d *Dependencies) Close() {
	if d.Accounts != nil {
		d.Accounts.Wait()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			logger.ErrorLogger.Error("Error closing Redis", zap.Error(err))
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			logger.ErrorLogger.Error("Error closing database", zap.Error(err))
		}
	}
}
