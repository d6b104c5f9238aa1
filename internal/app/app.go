package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"muebles-catalog/internal/cache"
	"muebles-catalog/internal/config"
	"muebles-catalog/internal/database"
	"muebles-catalog/internal/events"
	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/repository"
	"muebles-catalog/internal/service"
	"muebles-catalog/internal/storage"
)

type productStore interface {
	service.ProductRepository
	EnsureIndexes(ctx context.Context) error
}

// App holds every open client of a running server. Whoever calls New owns
// it and must call Close.
type App struct {
	Config   *config.Config
	Mongo    *database.Mongo
	Cache    *cache.ProductCache
	Events   events.Publisher
	Assets   *storage.GCSStore
	Products *service.ProductService
	Users    *service.UserService
	Health   *service.HealthService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Events: events.Noop{}}

	var (
		products productStore
		users    service.UserRepository
		mongoHC  service.Pinger
		redisHC  service.Pinger
	)

	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn(ctx, "Using in-memory store, data is lost on restart")
		products = repository.NewMemoryProductRepository()
	default:
		db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		a.Mongo = db
		products = repository.NewProductRepository(db.Database)
		users = repository.NewUserRepository(db.Database)
		mongoHC = db
	}

	if err := products.EnsureIndexes(ctx); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("ensure indexes (run `inspect duplicates` to list stored duplicates): %w", err)
	}

	if cfg.CacheTTLSeconds > 0 {
		var pc *cache.ProductCache
		if cfg.RedisAddr != "" {
			client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				logger.Warn(ctx, "Redis unavailable, using local cache only", logger.Err(err))
			} else {
				pc = cache.NewProductCache(cacheTTL(cfg), client)
				redisHC = pc
			}
		}
		if pc == nil {
			pc = cache.NewProductCache(cacheTTL(cfg), nil)
		}
		a.Cache = pc
	} else {
		logger.Warn(ctx, "CACHE_TTL_SECONDS is 0, product listings are not cached")
	}

	if cfg.RabbitMQURL != "" {
		pub, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue, cfg.AppName)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.Events = pub
	}

	opts := []service.Option{
		service.WithPublisher(a.Events),
		service.WithMaxUploadSize(MaxUploadBytes(cfg)),
	}
	if a.Cache != nil {
		opts = append(opts, service.WithCache(a.Cache))
	}
	if cfg.GCSBucket != "" {
		store, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.Assets = store
		opts = append(opts, service.WithAssetStore(store))
	} else {
		logger.Warn(ctx, "Missing GCS_BUCKET will reject asset uploads")
	}

	a.Products = service.NewProductService(products, opts...)
	a.Users = service.NewUserService(users)
	a.Health = service.NewHealthService(mongoHC, redisHC)

	logger.Info(ctx, "Application wired",
		slog.String("store", cfg.Store),
		slog.Bool("cache", a.Cache != nil),
		slog.Bool("redis", a.Cache != nil && a.Cache.RedisEnabled()),
		slog.Bool("rabbitmq", cfg.RabbitMQURL != ""),
		slog.Bool("gcs", a.Assets != nil),
	)
	return a, nil
}

func cacheTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.CacheTTLSeconds) * time.Second
}

func MaxUploadBytes(cfg *config.Config) int64 {
	return int64(cfg.MaxUploadSizeMB) << 20
}

// Close releases clients in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Assets != nil {
		errs = append(errs, a.Assets.Close())
	}
	if a.Events != nil {
		errs = append(errs, a.Events.Close())
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	errs = append(errs, a.Mongo.Close(ctx))

	err := errors.Join(errs...)
	if err != nil {
		logger.Error(ctx, "Failed to close application", logger.Err(err))
	}
	return err
}
