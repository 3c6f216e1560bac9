package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"signet/internal/config"
	"signet/internal/devserver"
	"signet/internal/logging"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		addr         string
		secret       string
		challengeTTL time.Duration
		tokenTTL     time.Duration
		logCfg       config.LoggingConfig
	)
	cmd := &cobra.Command{
		Use:          "signet-relay",
		Short:        "In-memory signal server for local development",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(logCfg, os.Stderr)
			slog.SetDefault(logger)

			key := []byte(secret)
			if len(key) == 0 {
				key = []byte(os.Getenv("SIGNET_RELAY_SECRET"))
			}
			if len(key) == 0 {
				key = make([]byte, 32)
				if _, err := rand.Read(key); err != nil {
					return fmt.Errorf("generating token secret: %w", err)
				}
				logger.Warn("no token secret configured; using a random one")
			}

			srv := devserver.New(key,
				devserver.WithLogger(logger),
				devserver.WithChallengeTTL(challengeTTL),
				devserver.WithTokenTTL(tokenTTL),
			)
			return serve(cmd.Context(), logger, addr, srv.Handler())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret for channel tokens")
	cmd.Flags().DurationVar(&challengeTTL, "challenge-ttl", devserver.DefaultChallengeTTL, "how long a sign-in challenge stays valid")
	cmd.Flags().DurationVar(&tokenTTL, "token-ttl", devserver.DefaultTokenTTL, "lifetime of channel tokens")
	cmd.Flags().StringVar(&logCfg.Level, "log-level", "info", "debug, info, warn or error")
	cmd.Flags().StringVar(&logCfg.Format, "log-format", "text", "text or json")
	return cmd
}

// serve runs h on addr until ctx is cancelled, then shuts down gracefully.
func serve(ctx context.Context, logger *slog.Logger, addr string, h http.Handler) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("relay listening", "addr", addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
