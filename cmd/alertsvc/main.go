// Command alertsvc is the SentinelSuite threshold alert service.
//
// Usage:
//
//	alertsvc serve
//	alertsvc version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/klvinai/sentinelsuite/internal/adminapi"
	"github.com/klvinai/sentinelsuite/internal/config"
	"github.com/klvinai/sentinelsuite/internal/service"
)

const version = "1.0.0"

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:   "alertsvc",
		Short: "SentinelSuite threshold alert service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run() // serve is the default action
		},
	}
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the service version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the alert service (ingress, classifier, notifier, admin API)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger.Info("connecting to database...")
	svc, err := service.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build service context", "error", err)
		os.Exit(1)
	}
	defer svc.Close()
	logger.Info("service context built", "server_url", cfg.ServerURL)

	go func() {
		if err := svc.Run(ctx); err != nil {
			logger.Error("service run loop failed", "error", err)
		}
	}()

	router := adminapi.NewRouter(svc.Pool, svc.Store, svc.Queues, svc.State, svc.Limiter,
		svc.Classifier.ThresholdsCacheStats, svc.Notifier.RecipientsCacheStats,
		adminapi.RouterConfig{
			CORSAllowOrigins:  cfg.AdminCORSAllowOrigins,
			RateLimitRequests: cfg.AdminRateLimitRequests,
			RateLimitWindow:   int(cfg.AdminRateLimitWindow.Seconds()),
			RateLimitEnabled:  cfg.AdminRateLimitRequests > 0,
		})

	addr := fmt.Sprintf("%s:%d", cfg.AdminHost, cfg.AdminPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting admin API", "addr", addr, "docs", fmt.Sprintf("http://%s/docs/", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin API server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin API shutdown error", "error", err)
	}
	logger.Info("service stopped")
	return nil
}
