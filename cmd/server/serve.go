package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"go-relay/internal/chat"
	"go-relay/internal/db"
	"go-relay/internal/history"
	myMiddleware "go-relay/internal/middleware"
	"go-relay/internal/user"
	"go-relay/internal/voice"
)

func newServeCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *Config) error {
	log := newLogger(cfg.LogLevel)

	// 1. Storage (created once, immutable afterwards)
	logs, closeLogs, err := openHistory(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLogs()

	blobs, err := voice.NewLocalStore(cfg.VoiceDir)
	if err != nil {
		return fmt.Errorf("voice store: %w", err)
	}
	log.Info().Str("dir", cfg.VoiceDir).Msg("✅ Voice store ready")

	// 2. Relay
	registry := chat.NewRegistry()
	hub := chat.NewHub(registry, logs, blobs, log.With().Str("component", "hub").Logger())
	chatHandler := chat.NewHandler(hub, chat.Options{
		SendBuffer:        cfg.SendBuffer,
		WriteWait:         cfg.WriteWait,
		HeartbeatInterval: cfg.HeartbeatInterval,
		MaxFrameBytes:     cfg.MaxFrameBytes,
	}, log.With().Str("component", "client").Logger())

	voiceHandler := voice.NewHandler(blobs, log.With().Str("component", "voice").Logger())
	userHandler := user.NewHandler(user.NewService(registry, logs), log.With().Str("component", "user").Logger())

	// 3. Routes
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(myMiddleware.RequestLogger(log.With().Str("component", "http").Logger()))
	r.Use(middleware.Recoverer)

	r.Get("/ws", chatHandler.ServeWs)
	r.Mount(voice.RoutePrefix, voiceHandler.Routes())
	r.Get("/api/users/online", userHandler.Online)
	r.Get("/api/users/{name}/conversations", userHandler.Conversations)
	r.Get("/api/conversations/{a}/{b}", userHandler.Transcript)

	// 4. Serve until interrupted
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("🚀 Server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openHistory builds the configured conversation log backend.
func openHistory(ctx context.Context, cfg *Config, log zerolog.Logger) (history.Store, func(), error) {
	if cfg.HistoryBackend == "redis" {
		rdb, err := db.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("❌ Failed to connect to Redis: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("✅ Connected to Redis")
		return history.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
	}

	store, err := history.NewFileStore(cfg.LogDir)
	if err != nil {
		return nil, nil, fmt.Errorf("log store: %w", err)
	}
	log.Info().Str("dir", cfg.LogDir).Msg("✅ Conversation logs ready")
	return store, func() {}, nil
}
