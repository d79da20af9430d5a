package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"storefront-service/internal/api"
	"storefront-service/internal/auth"
	"storefront-service/internal/cache"
	"storefront-service/internal/config"
	"storefront-service/internal/media"
	"storefront-service/internal/service"
	"storefront-service/internal/store"
)

func serve(ctx context.Context, logger *log.Logger) error {
	logger.Println("INFO: Starting service...")

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	logger.Printf("INFO: Configuration loaded for APP_ENV: %s, LogLevel: %s", cfg.AppEnv, cfg.LogLevel)

	// --- Store & Cache ---
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	uploader, err := media.NewUploader(media.Config{
		CloudName:    cfg.Cloudinary.CloudName,
		APIKey:       cfg.Cloudinary.APIKey,
		APISecret:    cfg.Cloudinary.APISecret,
		Folder:       cfg.Cloudinary.Folder,
		MaxFileBytes: cfg.Cloudinary.MaxFileBytes,
	}, logger)
	if err != nil {
		st.Close()
		return fmt.Errorf("failed to initialize image uploader: %w", err)
	}
	readCache, closeCache := openCache(ctx, cfg, logger)
	release := func() {
		closeCache()
		if err := st.Close(); err != nil {
			logger.Printf("WARN: Error closing store: %v", err)
		}
	}

	// --- Services ---
	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.Issuer,
	})
	admin := auth.Admin{Username: cfg.Auth.AdminUsername, PasswordHash: cfg.Auth.AdminPasswordHash}

	products := service.NewProductService(st, uploader, readCache, logger)
	categories := service.NewCategoryService(st, st, readCache, logger)

	httpAPIHandler := api.NewHTTPHandler(api.Services{
		Products:   products,
		Categories: categories,
		Orders:     service.NewOrderService(st, st, cfg.Orders.VerifyTotal, logger),
		Catalog:    service.NewCatalogService(products, categories),
		Auth:       service.NewAuthService(admin, auth.NewPasswordHasher(), tokens, logger),
		Tokens:     tokens,
		Health:     st,
		Cache:      readCache,
	}, api.Options{
		ServiceName:    defaultAppName,
		MaxUploadBytes: cfg.HttpServer.MaxUploadBytes,
		MaxImages:      cfg.Cloudinary.MaxFiles,
		AllowedOrigins: cfg.HttpServer.AllowedOrigins,
		LoginRateLimit: cfg.HttpServer.LoginRateLimit,
	}, logger)

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger, cfg.Debug())
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Printf("INFO: HTTP server listening on port %s", cfg.HttpServer.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("FATAL: HTTP server ListenAndServe error: %v", err)
		}
		logger.Println("INFO: HTTP server has stopped.")
	}()

	// --- Setup & Start gRPC Server ---
	healthCtx, stopHealth := context.WithCancel(context.Background())
	defer stopHealth()
	healthReporter := api.NewHealthReporter(st, defaultAppName, 10*time.Second, logger)
	go healthReporter.Run(healthCtx)

	grpcServer := api.NewGRPCServer(healthReporter, logger)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		stopHealth()
		healthReporter.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Printf("WARN: HTTP server shutdown failed: %v", shutdownErr)
		}
		release()
		return fmt.Errorf("failed to listen for gRPC on port %s: %w", cfg.GrpcServer.Port, err)
	}

	go func() {
		logger.Printf("INFO: gRPC server listening on port %s", cfg.GrpcServer.Port)
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Fatalf("FATAL: gRPC server Serve error: %v", err)
		}
		logger.Println("INFO: gRPC server has stopped.")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, httpServer, grpcServer, func() {
		stopHealth()
		healthReporter.Shutdown()
		release()
	}, shutdownComplete)

	<-shutdownComplete
	logger.Println("INFO: Service shutdown sequence finished.")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case config.StorePostgres:
		st, err := store.OpenPostgres(connectCtx, cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database connection: %w", err)
		}
		logger.Println("INFO: PostgreSQL connection established. Run `storefront migrate` to apply the schema.")
		return st, nil
	case config.StoreMemory:
		logger.Println("WARN: Using the in-memory store; data is lost on restart.")
		return store.NewMemoryStore(), nil
	default:
		st, err := store.ConnectMongo(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database connection: %w", err)
		}
		if err := st.EnsureIndexes(connectCtx); err != nil {
			logger.Printf("WARN: Failed to ensure MongoDB indexes: %v", err)
		}
		logger.Printf("INFO: MongoDB connection established (database %s).", cfg.Mongo.Database)
		return st, nil
	}
}

// openCache returns the read cache and a func releasing its resources.
// An unreachable Redis is not fatal: reads fall through to the store.
func openCache(ctx context.Context, cfg *config.Config, logger *log.Logger) (cache.Cache, func()) {
	switch cfg.Cache.Driver {
	case config.CacheNone:
		logger.Println("INFO: Read cache disabled.")
		return cache.Noop{}, func() {}
	case config.CacheRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rc := cache.NewRedis(rdb, "storefront:", cfg.Cache.TTL)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			logger.Printf("WARN: Redis at %s unreachable, reads will fall through to the store: %v", cfg.Redis.Addr, err)
		} else {
			logger.Printf("INFO: Redis cache connected at %s (TTL %s).", cfg.Redis.Addr, cfg.Cache.TTL)
		}
		return rc, func() {
			if err := rc.Close(); err != nil {
				logger.Printf("WARN: Error closing Redis client: %v", err)
			}
		}
	default:
		logger.Printf("INFO: In-process read cache enabled (TTL %s).", cfg.Cache.TTL)
		return cache.NewMemory(cfg.Cache.TTL), func() {}
	}
}

func setupBaseMiddleware(router *chi.Mux, logger *log.Logger, debug bool) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	if debug {
		router.Use(middleware.Logger)
	}
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	logger.Println("INFO: Base HTTP middleware registered.")
}

func waitForShutdown(
	logger *log.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	release func(),
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Printf("INFO: Received signal: %s. Starting graceful shutdown...", receivedSignal)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	logger.Println("INFO: Attempting to gracefully shut down gRPC server...")
	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	logger.Println("INFO: Attempting to gracefully shut down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("WARN: HTTP server graceful shutdown failed: %v", err)
	} else {
		logger.Println("INFO: HTTP server gracefully shut down.")
	}

	select {
	case <-stoppedGrpc:
		logger.Println("INFO: gRPC server gracefully shut down.")
	case <-shutdownCtx.Done():
		logger.Printf("WARN: gRPC server graceful shutdown timed out: %v", shutdownCtx.Err())
		logger.Println("INFO: Forcing gRPC server stop...")
		grpcServer.Stop()
		logger.Println("INFO: gRPC server forced stop.")
	}

	release()
	logger.Println("INFO: Graceful shutdown sequence completed.")
}
