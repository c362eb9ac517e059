package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumastream/chat-gateway/internal/account"
	"github.com/lumastream/chat-gateway/internal/auth"
	"github.com/lumastream/chat-gateway/internal/config"
	"github.com/lumastream/chat-gateway/internal/handler"
	"github.com/lumastream/chat-gateway/internal/history"
	"github.com/lumastream/chat-gateway/internal/hub"
	"github.com/lumastream/chat-gateway/internal/identity"
	"github.com/lumastream/chat-gateway/internal/presence"
	"github.com/lumastream/chat-gateway/internal/service"
	"github.com/lumastream/chat-gateway/internal/store"
	"github.com/lumastream/chat-gateway/internal/telemetry"
	"github.com/lumastream/chat-gateway/pkg/database"
	"github.com/lumastream/chat-gateway/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	log.Init(cfg.Log)
	l := log.L()
	l.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat gateway")

	if cfg.Metrics.Enabled {
		telemetry.Init()
	}

	// Shared store
	chatStore, err := store.NewRedisStore(cfg.Redis)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer chatStore.Close()
	l.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")

	// Account directory: optional. Without it every connection resolves to an
	// anonymous identity.
	var directory account.Directory = account.Disabled{}
	if cfg.Database.Driver != "" {
		db, err := database.New(&database.Config{
			Driver:          cfg.Database.Driver,
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			DBName:          cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			FilePath:        cfg.Database.FilePath,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			l.Fatal().Err(err).Msg("failed to connect to database")
		}
		directory = account.NewGormDirectory(db)
		l.Info().Str("driver", cfg.Database.Driver).Msg("connected to account database")
	} else {
		l.Warn().Msg("no database configured, all participants will be anonymous")
	}

	verifier := auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	resolver := identity.NewResolver(verifier, directory)

	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	tracker := presence.NewTracker(chatStore)
	hist := history.New(chatStore, cfg.History)

	chatSvc := service.NewChatService(wsHub, resolver, tracker, hist)

	wsHandler := handler.NewWSHandler(wsHub, chatSvc, cfg.WebSocket)

	mux := http.NewServeMux()
	wsHandler.RegisterRoutes(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info().Str("addr", server.Addr).Msg("chat gateway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down chat gateway")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("chat gateway stopped")
}
