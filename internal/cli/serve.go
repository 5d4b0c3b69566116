package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/coach"
	"github.com/aretw0/coach/internal/config"
	"github.com/aretw0/coach/internal/metrics"
	httpAdapter "github.com/aretw0/coach/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/coach/pkg/adapters/mcp"
	"github.com/aretw0/coach/pkg/conversation"
	"github.com/aretw0/coach/pkg/runner"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 5 * time.Second

// hostParts is what the HTTP and MCP hosts share: a coach, its turn service and metrics.
type hostParts struct {
	coach   *coach.Coach
	service *runner.Service
	metrics *metrics.Metrics
	close   func() error
}

func newHost(ctx context.Context, cfg *config.Config, logger *slog.Logger, debug bool, observer runner.Observer) (*hostParts, error) {
	m := metrics.New()
	hooks := m.Hooks()
	if debug {
		hooks = metrics.Combine(hooks, DebugHooks(logger))
	}

	c, err := NewCoach(ctx, cfg, logger, hooks)
	if err != nil {
		return nil, err
	}
	sessions, closeStore, err := NewSessions(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []runner.Option{
		runner.WithObserver(metrics.Observers(m.Observe, observer)),
		runner.WithConversationOptions(conversation.WithMaxInputSize(cfg.MaxInputSize)),
	}
	if cfg.InputRate > 0 {
		opts = append(opts, runner.WithRateLimit(rate.Limit(cfg.InputRate), cfg.InputBurst))
	}
	return &hostParts{coach: c, service: c.Service(sessions, opts...), metrics: m, close: closeStore}, nil
}

// RunServe serves the HTTP API until ctx is done, then shuts down gracefully.
func RunServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, debug bool) error {
	streams := httpAdapter.NewStreamManager()
	streams.SetLogger(logger)

	host, err := newHost(ctx, cfg, logger, debug, streams.Observe)
	if err != nil {
		return err
	}
	defer host.close()

	handler, err := httpAdapter.NewHandler(host.service, streams,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithMetricsHandler(host.metrics.Handler()),
		httpAdapter.WithVersion(coach.Version),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting Coach Server", "address", srv.Addr, "store", cfg.Store)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("Start shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		logger.Info("Coach Server stopped gracefully")
		return nil
	}
}

// RunMCP serves the conversation tools over stdio or SSE.
func RunMCP(ctx context.Context, cfg *config.Config, logger *slog.Logger, transport string, debug bool) error {
	host, err := newHost(ctx, cfg, logger, debug, nil)
	if err != nil {
		return err
	}
	defer host.close()

	srv := mcpAdapter.NewServer(host.service, host.coach.Script(), coach.Version, mcpAdapter.WithLogger(logger))

	switch transport {
	case "stdio":
		logger.Info("Starting Coach MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		logger.Info("Starting Coach MCP Server (SSE)", "port", cfg.Port)
		if err := srv.ServeSSE(ctx, cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP Server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	}
}
