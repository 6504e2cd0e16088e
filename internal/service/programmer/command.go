package programmer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oshokin/roadrunner/internal/api/http/status"
	"github.com/oshokin/roadrunner/internal/config"
	"github.com/oshokin/roadrunner/internal/logger"
	"github.com/oshokin/roadrunner/internal/metrics"
	"github.com/oshokin/roadrunner/internal/version"
)

// Options controls the chip programmer process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Address overrides the configured bind address.
	Address string
	// StatusAddress overrides the configured HTTP status address.
	StatusAddress string
}

// Run starts the chip programmer and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "chip-programmer")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Configure(cfg.LogLevel); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}

	address := cfg.Programmer.Address
	if opts.Address != "" {
		address = opts.Address
	}

	statusAddress := cfg.Programmer.StatusAddress
	if opts.StatusAddress != "" {
		statusAddress = opts.StatusAddress
	}

	registry := prometheus.NewRegistry()

	collector, err := metrics.NewPrometheusCollector(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	logger.InfoKV(ctx, "Creating server", append([]any{"address", address}, version.Fields()...)...)

	server, err := NewServer(address, collector)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg        sync.WaitGroup
		statusErr error
	)

	if statusAddress != "" {
		router := status.NewRouter(registry, func() any { return server.Snapshot() })

		wg.Go(func() {
			if err := status.Serve(ctx, statusAddress, router); err != nil {
				statusErr = err

				cancel()
			}
		})
	}

	startErr := server.Start(ctx)

	cancel()
	wg.Wait()

	return errors.Join(startErr, statusErr)
}
