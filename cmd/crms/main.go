package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/crmsclient/internal"
	"github.com/DukeRupert/crmsclient/internal/domain"
	"github.com/DukeRupert/crmsclient/internal/tokenstore"
	"github.com/DukeRupert/crmsclient/internal/transport"
)

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Logs go to stderr so command output stays clean
	logger := internal.NewLogger(stderr, cfg.Env, cfg.LogLevel)

	// Initialize token persistence
	store, err := tokenstore.New(ctx, tokenstore.Config{
		Backend:  cfg.TokenStore,
		Dir:      cfg.StateDir,
		RedisURL: cfg.RedisURL,
		Prefix:   cfg.RedisPrefix,
	}, logger)
	if err != nil {
		return fmt.Errorf("token store initialization failed: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	// Initialize backend transport
	client, err := transport.New(transport.Config{
		BaseURL:   cfg.APIBaseURL,
		RateLimit: cfg.RateLimitRPS,
		Burst:     cfg.RateLimitBurst,
	}, logger)
	if err != nil {
		return fmt.Errorf("transport initialization failed: %w", err)
	}

	// Optional metrics endpoint
	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, logger)
		defer stop()
	}

	a, err := newApp(ctx, appConfig{
		Backend:  client,
		Store:    store,
		Debounce: cfg.SearchDebounce,
		MinChars: cfg.SearchMinChars,
		Stdin:    stdin,
		Stdout:   stdout,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Run(ctx, args); err != nil {
		logger.Debug("Command failed", "op", domain.ErrorOp(err), "error", err)
		return err
	}
	return nil
}

func serveMetrics(addr string, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Metrics endpoint started", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics endpoint failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics endpoint shutdown error", "error", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(exitCode(err))
	}
}
