package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuskart/marketplace-api/internal/api"
	"github.com/campuskart/marketplace-api/internal/infrastructure/config"
	mongodb "github.com/campuskart/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/campuskart/marketplace-api/internal/infrastructure/db/redis"
	"github.com/campuskart/marketplace-api/internal/infrastructure/queue"
	"github.com/campuskart/marketplace-api/pkg/logger"
)

const shutdownGrace = 10 * time.Second

func main() {
	log := logger.Init(logger.Options{
		Level:   "info",
		Service: "marketplace-api",
	})

	cfg := config.Load(log)
	log = logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "marketplace-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- MongoDB ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	userRepo := mongodb.NewUserRepository(db)
	listingRepo := mongodb.NewListingRepository(db)
	orderRepo := mongodb.NewOrderRepository(db)
	activityRepo := mongodb.NewActivityRepository(db)
	for name, ensure := range map[string]func(context.Context) error{
		"users":    userRepo.EnsureIndexes,
		"listings": listingRepo.EnsureIndexes,
		"orders":   orderRepo.EnsureIndexes,
		"activity": activityRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Str("collection", name).Msg("index creation failed")
		}
	}

	// --- Redis ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	// --- Activity dispatcher ---
	dispatcher := queue.NewDispatcher(cfg.ActivityWorkers, activityRepo, log)
	dispatcher.Start(ctx)

	// --- HTTP server ---
	e := api.NewRouter(db, rdb, api.RouterConfig{
		Env:                cfg.Env,
		AccessSecret:       cfg.Auth.AccessSecret,
		RefreshSecret:      cfg.Auth.RefreshSecret,
		AccessTTL:          cfg.Auth.AccessTTL,
		RefreshTTL:         cfg.Auth.RefreshTTL,
		AllowedEmailDomain: cfg.AllowedEmailDomain,
	}, dispatcher, log)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	dispatcher.Wait()
	log.Info().Msg("shutdown complete")
}
