package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"product-catalog/internal/cache"
	"product-catalog/internal/config"
	"product-catalog/internal/database"
	"product-catalog/internal/logger"
	"product-catalog/internal/repository"
	"product-catalog/internal/repository/mongodb"
	"product-catalog/internal/repository/postgres"
	"product-catalog/internal/repository/surreal"
	"product-catalog/internal/seed"
	"product-catalog/internal/server"
	"product-catalog/internal/service"
	"product-catalog/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting product catalog API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver),
		zap.String("storage", cfg.Storage.Driver),
	)

	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("Product catalog API stopped", zap.Error(err))
	}
	log.Info("Graceful shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	products, categories, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = openRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		categories = cache.NewCategoryCache(categories, redisClient, cfg.Redis.CategoryCacheTTL, log)
		log.Info("Redis enabled for category cache and upload rate limiting", zap.String("addr", cfg.Redis.Addr()))
	}

	files, err := openFileStorage(cfg.Storage, log)
	if err != nil {
		return err
	}

	productService := service.NewProductService(products, categories, files, log)

	if cfg.Seed {
		if err := seed.Run(ctx, categories, productService, log); err != nil {
			return err
		}
	}

	srv := server.NewServer(cfg, log, productService, redisClient)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully")

		// The server has shutdownTimeout to finish in-flight requests
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
			return err
		}
		return nil
	})

	return g.Wait()
}

// openStore connects the configured document store. The returned func
// releases the connection.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.ProductRepository, repository.CategoryRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error("Failed to disconnect from mongodb", zap.Error(err))
			}
		}
		return mongodb.NewProductRepository(db), mongodb.NewCategoryRepository(db), closeFn, nil

	case config.StoreSurreal:
		db, err := database.ConnectSurreal(ctx, cfg.Surreal)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(context.Background()); err != nil {
				log.Error("Failed to close surrealdb connection", zap.Error(err))
			}
		}
		return surreal.NewProductRepository(db), surreal.NewCategoryRepository(db), closeFn, nil

	case config.StorePostgres:
		db, err := database.OpenPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.RunMigrations(ctx, db, log); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close database connection", zap.Error(err))
			}
		}
		return postgres.NewProductRepository(db), postgres.NewCategoryRepository(db), closeFn, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Store.Driver)
	}
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

func openFileStorage(cfg config.StorageConfig, log *zap.Logger) (storage.FileStorage, error) {
	switch cfg.Driver {
	case config.StorageLocal:
		return storage.NewLocalStorage(cfg.UploadsDir, cfg.UploadsBaseURL, log)
	case config.StorageS3:
		return storage.NewS3Storage(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, cfg.S3.PublicURL, log)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.Driver)
	}
}
