package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudx-io/openallocation/config"
	"github.com/cloudx-io/openallocation/logging"
)

func main() {
	cfg, err := loadConfig(os.Getenv("ALLOC_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(2)
	}
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "allocd")

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := NewAllocationServer(cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	if err := server.Start(ctx); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the file named by ALLOC_CONFIG. An explicit path must load;
// without one the default file is tried, then the environment.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOrEnv(""), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
