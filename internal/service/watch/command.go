package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-ps"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oshokin/roadrunner/internal/api/http/status"
	"github.com/oshokin/roadrunner/internal/config"
	"github.com/oshokin/roadrunner/internal/device/redispv"
	"github.com/oshokin/roadrunner/internal/device/serialfilter"
	"github.com/oshokin/roadrunner/internal/domain/interlock"
	"github.com/oshokin/roadrunner/internal/logger"
	"github.com/oshokin/roadrunner/internal/metrics"
	"github.com/oshokin/roadrunner/internal/version"
)

// Options controls the block watch process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Threshold overrides the configured minimum signal when positive.
	Threshold float64
	// StatusAddress overrides the configured HTTP status address.
	StatusAddress string
	// AllowMultiple skips the single-instance check.
	AllowMultiple bool
}

// Run loads the configuration, connects the devices and watches until ctx is cancelled.
//
//nolint:cyclop,funlen // Linear wiring of collaborators; splitting hides the startup order.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "blockwatch")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Configure(cfg.LogLevel); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}

	if !opts.AllowMultiple {
		executable := filepath.Base(os.Args[0])
		if err = ensureSingleInstance(ps.Processes, executable, os.Getpid()); err != nil {
			return err
		}
	}

	threshold := cfg.Watch.Threshold
	if opts.Threshold > 0 {
		threshold = opts.Threshold
	}

	statusAddress := cfg.Watch.StatusAddress
	if opts.StatusAddress != "" {
		statusAddress = opts.StatusAddress
	}

	logger.InfoKV(ctx, "Loading watcher", version.Fields()...)

	bus := redispv.New(cfg.Watch.RedisAddress)

	defer func() {
		_ = bus.Close()
	}()

	if err = bus.Ping(ctx); err != nil {
		return fmt.Errorf("%w: process variable bus %s: %w", ErrInvalidConfig, cfg.Watch.RedisAddress, err)
	}

	actuator, closeActuator, err := newActuator(&cfg.Watch, bus)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	defer func() {
		_ = closeActuator.Close()
	}()

	registry := prometheus.NewRegistry()

	collector, err := metrics.NewPrometheusCollector(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	monitor, err := NewMonitor(
		interlock.DefaultConfig(threshold),
		BusSignals(bus, &cfg.Watch),
		actuator,
		redispv.NewStatus(bus, cfg.Watch.Prefix),
		WithMetrics(collector),
		WithPollInterval(cfg.Watch.PollInterval),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg        sync.WaitGroup
		statusErr error
	)

	wg.Go(func() {
		if err := bus.Watch(ctx); err != nil {
			logger.ErrorKV(ctx, "Change notifications unavailable, polling only", "error", err)
		}
	})

	if statusAddress != "" {
		router := status.NewRouter(registry, func() any { return monitor.Snapshot() })

		wg.Go(func() {
			if err := status.Serve(ctx, statusAddress, router); err != nil {
				statusErr = err

				cancel()
			}
		})
	}

	logger.InfoKV(ctx, "Waiting for signals",
		"prefix", cfg.Watch.Prefix,
		"ai", cfg.Watch.AnalogInput,
		"filter", cfg.Watch.Filter,
		"sequencer", cfg.Watch.Sequencer,
		"threshold", threshold,
		"actuator", cfg.Watch.Actuator,
	)

	runErr := monitor.Run(ctx)

	cancel()
	wg.Wait()

	return errors.Join(runErr, statusErr)
}

// BusSignals maps the configured PV names onto signals of bus.
func BusSignals(bus *redispv.Bus, w *config.Watch) Signals {
	return Signals{
		Intensity:       bus.Signal(w.AnalogInput),
		SequencerStatus: bus.Signal(w.Sequencer + redispv.SuffixPlayState),
		SequencerStep:   bus.Signal(w.Sequencer + redispv.SuffixCurStep),
		Enable:          bus.Signal(w.Prefix + redispv.SuffixEnable),
	}
}

// nopCloser is returned for actuators that own no resources.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newActuator builds the configured filter driver.
//
//nolint:ireturn // Drivers differ; the watch only needs the interface.
func newActuator(w *config.Watch, bus *redispv.Bus) (Actuator, io.Closer, error) {
	switch w.Actuator {
	case config.ActuatorSerial:
		filter, err := serialfilter.Open(w.SerialPort, w.SerialBaud)
		if err != nil {
			return nil, nil, err
		}

		return filter, filter, nil
	default:
		return redispv.NewFilter(bus, w.Filter), nopCloser{}, nil
	}
}
