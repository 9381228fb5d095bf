package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vncsmyrnk/ballot/internal/adapters/handler/http"
	"github.com/vncsmyrnk/ballot/internal/bootstrap"
	"github.com/vncsmyrnk/ballot/internal/config"
	"github.com/vncsmyrnk/ballot/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	flag.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	flag.StringVar(&cfg.Store.Backend, "store", cfg.Store.Backend, "Store backend (memory, sqlite, redis, postgres)")
	flag.StringVar(&cfg.Store.SQLitePath, "sqlite-path", cfg.Store.SQLitePath, "SQLite database file")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	logger := config.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := bootstrap.New(ctx, cfg, registry)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	sessions := services.NewSessionService(app.Store, []byte(cfg.JWTSecret), cfg.SessionTTL)
	handler := http.NewHandler(http.Handlers{
		Auth:    http.NewAuthHandler(sessions, cfg.SessionTTL, cfg.SecureCookies),
		User:    http.NewUserHandler(app.Store),
		Vote:    http.NewVoteHandler(app.Store),
		Results: http.NewResultsHandler(app.Store),
		Live:    http.NewLiveHandler(app.Store, app.Live),
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, sessions)

	server := &stdhttp.Server{Addr: cfg.HTTPAddr, Handler: handler}

	go func() {
		slog.Info("ballot server listening", "addr", cfg.HTTPAddr, "backend", cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	slog.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
