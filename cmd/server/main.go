package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley/internal/api"
	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/handlers"
	"github.com/parley-chat/parley/internal/hub"
	"github.com/parley-chat/parley/internal/presence"
	"github.com/parley-chat/parley/internal/relay"
	"github.com/parley-chat/parley/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	instance := ulid.Make().String()
	ctx := context.Background()

	// Initialize message history store
	var history store.HistoryStore
	switch {
	case cfg.RedisURL != "":
		redisStore, err := store.NewRedisStore(ctx, cfg.RedisURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		history = redisStore
		logger.Info().Msg("using redis history store")
	case cfg.SQLitePath != "":
		sqliteStore, err := store.NewSQLiteStore(cfg.SQLitePath, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		history = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using sqlite history store")
	default:
		history = store.NewFileStore(cfg.HistoryFile, logger)
		logger.Info().Str("path", cfg.HistoryFile).Msg("using file history store")
	}
	defer history.Close()

	// Wire the relay: registry and history are owned here and passed down
	registry := presence.NewRegistry()
	chatHub := hub.New(cfg.ClientOrigin, logger)
	router := relay.NewRouter(registry, history, chatHub, logger)
	chatHub.SetHandler(router)
	go chatHub.Run()

	// Create HTTP router
	h := handlers.NewHandler(history, registry, chatHub, instance)
	mux := api.NewRouter(logger, h, chatHub, cfg.ClientOrigin)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     mux,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("instance", instance).
			Str("client_origin", cfg.ClientOrigin).
			Msg("starting parley relay")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := chatHub.Shutdown(10 * time.Second); err != nil {
		logger.Error().Err(err).Msg("hub shutdown timed out")
	}

	logger.Info().Msg("server stopped")
}
