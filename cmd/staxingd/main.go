package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openstax/staxing/internal/browser"
	"github.com/openstax/staxing/internal/config"
	"github.com/openstax/staxing/internal/runs"
	"github.com/openstax/staxing/internal/server"
	"github.com/openstax/staxing/internal/workflow"
)

const shutdownGrace = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	browsers, err := browser.NewManager(&cfg.Browser, sugar)
	if err != nil {
		sugar.Fatalw("browser manager", "error", err)
	}

	executor := workflow.NewExecutor(browsers, &cfg.Tutor, sugar)
	manager := runs.NewManager(executor, sugar)
	srv := server.NewServer(cfg, manager, sugar)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			sugar.Fatalw("server failed", "error", err)
		}
	case sig := <-stop:
		sugar.Infow("shutting down", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Errorw("server shutdown", "error", err)
	}
	if err := manager.Shutdown(ctx); err != nil {
		sugar.Errorw("run manager shutdown", "error", err)
	}
	sugar.Info("shutdown complete")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
