// Package main запускает HTTP-сервер сервиса заказов закусок.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/rsalgados/internal/cache"
	"github.com/mmeshcher/rsalgados/internal/config"
	"github.com/mmeshcher/rsalgados/internal/handler"
	"github.com/mmeshcher/rsalgados/internal/logger"
	"github.com/mmeshcher/rsalgados/internal/middleware"
	"github.com/mmeshcher/rsalgados/internal/repository"
	"github.com/mmeshcher/rsalgados/internal/service"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	sugar := log.Sugar()

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	var opts []service.Option
	if cfg.RedisAddress != "" {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := cache.NewRedisClient(pingCtx, cfg.RedisAddress)
		cancel()
		if err != nil {
			sugar.Fatalw("redis initialization error", "error", err.Error())
		}
		defer rdb.Close()

		opts = append(opts, service.WithClientCache(cache.NewClientCache(rdb, cfg.CacheTTL, log)))
		sugar.Infow("client cache enabled", "addr", cfg.RedisAddress, "ttl", cfg.CacheTTL)
	}

	svc := service.NewService(repo, log, opts...)
	defer svc.Close()

	if cfg.AuthSecret == "" {
		sugar.Warn("auth secret is not set, tokens will not survive restart")
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret, cfg.AuthTTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := handler.NewHandler(svc, log, authMiddleware, reg)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting rsalgados server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка сервера)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
