package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/bloglist/internal/auth"
	"github.com/robalobadob/bloglist/internal/config"
	"github.com/robalobadob/bloglist/internal/httpserver"
	"github.com/robalobadob/bloglist/internal/ratelimit"
)

const shutdownGrace = 5 * time.Second

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *cfg)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.CheckSecret(); err != nil {
		return err
	}
	if cfg.Secret == config.DefaultSecret {
		log.Warn().Str("env", cfg.Env).Msg("SECRET not set, signing credentials with the development secret")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}()

	codec, err := auth.NewCodec([]byte(cfg.Secret), cfg.TokenTTL)
	if err != nil {
		return err
	}

	opts := []httpserver.Option{httpserver.WithCORSOrigins(cfg.ClientOrigins)}
	limiter, closeLimiter := newLimiter(cfg)
	defer func() {
		if err := closeLimiter(); err != nil {
			log.Warn().Err(err).Msg("closing login limiter")
		}
	}()
	if limiter != nil {
		opts = append(opts, httpserver.WithLimiter(limiter))
	}
	if fi, err := os.Stat(cfg.StaticDir); err == nil && fi.IsDir() {
		opts = append(opts, httpserver.WithStaticDir(cfg.StaticDir))
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpserver.New(st, codec, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("starting bloglist server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newLimiter returns the login limiter, or nil when throttling is disabled,
// along with a func releasing whatever client backs it.
func newLimiter(cfg config.Config) (ratelimit.Limiter, func() error) {
	noop := func() error { return nil }
	if cfg.Login.MaxAttempts <= 0 {
		return nil, noop
	}
	if cfg.RedisAddr != "" {
		log.Info().Str("addr", cfg.RedisAddr).Msg("login limiter backed by Redis")
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return ratelimit.NewRedis(client, cfg.Login.MaxAttempts, cfg.Login.Window), client.Close
	}
	return ratelimit.NewMemory(cfg.Login.MaxAttempts, cfg.Login.Window), noop
}
