package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/replyd/internal/config"
	"github.com/teemow/replyd/internal/gmail"
	"github.com/teemow/replyd/internal/google"
	"github.com/teemow/replyd/internal/instrumentation"
	"github.com/teemow/replyd/internal/ollama"
	"github.com/teemow/replyd/internal/server"
	"github.com/teemow/replyd/internal/suggest"
)

func newServeCmd() *cobra.Command {
	var (
		configPath  string
		addr        string
		metricsAddr string
		noMetrics   bool
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the replyd API server",
		Long: `Starts the REST API that lists emails, generates reply suggestions
through the local Ollama backend, and performs send, archive, delete, and
label operations against Gmail. Prometheus metrics are served on a separate
listener.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = config.DefaultPath()
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if metricsAddr != "" {
				cfg.Server.MetricsAddr = metricsAddr
			}

			logger := newLogger(logLevel)
			slog.SetDefault(logger)
			logger.Info("configuration loaded", slog.String("config", cfg.String()))

			return runServe(cmd.Context(), *cfg, logger, !noMetrics)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ~/.config/replyd/config.toml)")
	cmd.Flags().StringVar(&addr, "addr", "", "API listen address (overrides config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "metrics listen address (overrides config)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the metrics listener")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config, logger *slog.Logger, metricsEnabled bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation config: %w", err)
	}

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize instrumentation: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shut down instrumentation", slog.String("error", err.Error()))
		}
	}()
	metrics := provider.Metrics()

	mailbox, err := gmail.NewClient(ctx, cfg.Gmail, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create Gmail client (run 'replyd auth' first): %w", err)
	}

	generator := ollama.NewClient(cfg.Ollama, cfg.Suggest.BodyTruncationChars, logger, metrics)
	pipeline := suggest.NewPipeline(mailbox, generator, cfg.Suggest, logger, metrics)

	srv := server.NewServer(cfg, mailbox, pipeline, generator, google.HasToken, logger, metrics)

	var metricsServer *server.MetricsServer
	if metricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(cfg.Server.MetricsAddr, provider)
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
	}

	srv.Health().SetReady(true)
	err = srv.Start(ctx)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("failed to shut down metrics server", slog.String("error", shutdownErr.Error()))
		}
	}

	return err
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
