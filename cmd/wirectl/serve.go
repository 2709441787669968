package main

import (
	"context"
	"flag"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/ethoswire/internal/admin"
	"github.com/danmuck/ethoswire/internal/gateway"
	"github.com/danmuck/ethoswire/internal/logging"
	"github.com/danmuck/ethoswire/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func runServe(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a TOML config file")
	addr := fs.String("addr", "", "gateway listen address override")
	adminAddr := fs.String("admin", "", "admin listen address override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := defaultServiceConfig()
	if path := strings.TrimSpace(*configPath); path != "" {
		loaded, err := loadServiceConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if v := strings.TrimSpace(*addr); v != "" {
		cfg.Gateway.Addr = v
	}
	if v := strings.TrimSpace(*adminAddr); v != "" {
		cfg.AdminAddr = v
	}

	logging.ConfigureRuntime()
	logger := observability.InitLogger("wirectl")

	handler := gateway.LogHandler(logger)
	if cfg.Keys.Len() > 0 {
		handler = gateway.AuthHandler(cfg.Keys, handler)
	}
	gw, err := gateway.NewServer(cfg.Gateway, handler, logger)
	if err != nil {
		return err
	}
	adm := admin.New("wirectl", gw, cfg.CORSOrigins, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		errCh <- gw.ListenAndServe()
	}()
	if cfg.AdminAddr != "" {
		go func() {
			errCh <- adm.ListenAndServe(cfg.AdminAddr)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := adm.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("admin shutdown")
	}
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("gateway shutdown")
	}
	return runErr
}
