package watch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/oshokin/roadrunner/internal/domain/interlock"
	"github.com/oshokin/roadrunner/internal/logger"
	"github.com/oshokin/roadrunner/internal/metrics"
)

// Signal is a numeric input that announces its changes.
type Signal interface {
	Value(ctx context.Context) (float64, error)
	OnChange(handler func())
}

// Actuator moves the protective filter.
type Actuator interface {
	Block(ctx context.Context) error
	Remove(ctx context.Context) error
}

// Status receives the trip flags after every evaluation.
type Status interface {
	Publish(ctx context.Context, state interlock.State) error
}

// Signals groups the inputs sampled on every cycle.
type Signals struct {
	// Intensity is the RoadRunner analog input.
	Intensity Signal
	// SequencerStatus is the sequencer play status.
	SequencerStatus Signal
	// SequencerStep is the current sequencer step.
	SequencerStep Signal
	// Enable permits filter motion when equal to 1.
	Enable Signal
}

// all returns the signals in sampling order.
func (s Signals) all() []Signal {
	return []Signal{s.Intensity, s.SequencerStatus, s.SequencerStep, s.Enable}
}

// ErrInvalidConfig reports a monitor that cannot be constructed.
var ErrInvalidConfig = errors.New("invalid watch configuration")

// Option configures optional monitor behaviour.
type Option func(*Monitor)

// WithMetrics sets the telemetry collector.
func WithMetrics(collector metrics.Collector) Option {
	return func(m *Monitor) {
		if collector != nil {
			m.metrics = collector
		}
	}
}

// WithPollInterval sets the fallback evaluation period.
func WithPollInterval(interval time.Duration) Option {
	return func(m *Monitor) {
		if interval > 0 {
			m.pollInterval = interval
		}
	}
}

// defaultPollInterval is used when no interval is configured.
const defaultPollInterval = time.Second

// Snapshot is the externally visible state of the monitor.
type Snapshot struct {
	// State holds the trip flags.
	State interlock.State `json:"state"`
	// Phase is the phase name derived from State.
	Phase string `json:"phase"`
	// Readings is the last sampled input.
	Readings interlock.Readings `json:"readings"`
	// LastAction is the filter action requested by the last evaluation.
	LastAction string `json:"last_action"`
	// Evaluations counts completed evaluations.
	Evaluations uint64 `json:"evaluations"`
	// UpdatedAt is the time of the last evaluation.
	UpdatedAt time.Time `json:"updated_at"`
}

// Monitor owns the interlock state and reacts to input changes.
type Monitor struct {
	// config holds the decision parameters.
	config interlock.Config
	// signals are the sampled inputs.
	signals Signals
	// actuator moves the filter.
	actuator Actuator
	// status receives the trip flags.
	status Status
	// metrics records telemetry.
	metrics metrics.Collector
	// pollInterval is the fallback evaluation period.
	pollInterval time.Duration
	// changes coalesces change notifications into a single pending cycle.
	changes chan struct{}

	// mu protects the fields below, which Snapshot reads concurrently.
	mu          sync.RWMutex
	state       interlock.State
	readings    interlock.Readings
	lastAction  interlock.Action
	evaluations uint64
	updatedAt   time.Time
}

// NewMonitor validates the collaborators and registers the change handlers.
func NewMonitor(cfg interlock.Config, signals Signals, actuator Actuator, status Status, opts ...Option) (*Monitor, error) {
	for i, s := range signals.all() {
		if s == nil {
			return nil, fmt.Errorf("%w: signal %d is not set", ErrInvalidConfig, i)
		}
	}

	if actuator == nil {
		return nil, fmt.Errorf("%w: actuator is not set", ErrInvalidConfig)
	}

	if status == nil {
		return nil, fmt.Errorf("%w: status is not set", ErrInvalidConfig)
	}

	if math.IsNaN(cfg.Threshold) || math.IsInf(cfg.Threshold, 0) {
		return nil, fmt.Errorf("%w: threshold %v", ErrInvalidConfig, cfg.Threshold)
	}

	m := &Monitor{
		config:       cfg,
		signals:      signals,
		actuator:     actuator,
		status:       status,
		metrics:      metrics.Noop(),
		pollInterval: defaultPollInterval,
		changes:      make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(m)
	}

	for _, s := range signals.all() {
		s.OnChange(m.notify)
	}

	return m, nil
}

// notify schedules an evaluation without blocking the caller.
func (m *Monitor) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

// Run evaluates once, then on every change notification and on the fallback
// timer, until ctx is cancelled. Failed cycles are logged and skipped.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	m.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Watch interrupted, exiting")
			return nil
		case <-m.changes:
			m.cycle(ctx)
		case <-ticker.C:
			m.cycle(ctx)
		}
	}
}

// cycle runs one evaluation and logs its failure.
func (m *Monitor) cycle(ctx context.Context) {
	if err := m.ProcessEvent(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}

		logger.ErrorKV(ctx, "Watch cycle failed", "error", err)
	}
}

// ProcessEvent samples the signals, evaluates the interlock, commands the
// filter when enabled and publishes the trip flags.
func (m *Monitor) ProcessEvent(ctx context.Context) error {
	readings, err := m.read(ctx)
	if err != nil {
		m.metrics.IncCycleError()

		return fmt.Errorf("read signals: %w", err)
	}

	m.mu.Lock()
	prev := m.state
	next, action := m.config.Evaluate(prev, readings)
	m.state = next
	m.readings = readings
	m.lastAction = action
	m.evaluations++
	m.updatedAt = time.Now()
	m.mu.Unlock()

	m.metrics.IncEvaluation(next.Phase().String())

	if next != prev {
		logger.InfoKV(ctx, "Interlock state changed",
			"from", prev.Phase().String(),
			"to", next.Phase().String(),
			"soft_trip", next.SoftTrip,
			"hard_trip", next.HardTrip,
			"signal", readings.SignalValue,
			"sequencer_running", m.config.SequencerRunning(readings),
		)
	}

	var errs []error

	if err := m.actuate(ctx, action, readings.Enabled); err != nil {
		errs = append(errs, err)
	}

	if err := m.status.Publish(ctx, next); err != nil {
		errs = append(errs, fmt.Errorf("publish trips: %w", err))
	}

	soft, hard := next.Flags()
	m.metrics.SetTrips(soft, hard)

	if len(errs) > 0 {
		m.metrics.IncCycleError()

		return errors.Join(errs...)
	}

	return nil
}

// actuate forwards the action to the filter when the watch is enabled.
func (m *Monitor) actuate(ctx context.Context, action interlock.Action, enabled bool) error {
	if action == interlock.ActionNone {
		return nil
	}

	m.metrics.IncActuation(action.String(), enabled)

	if !enabled {
		logger.DebugKV(ctx, "Watch disabled, filter left in place", "action", action.String())
		return nil
	}

	var err error

	switch action {
	case interlock.ActionBlock:
		err = m.actuator.Block(ctx)
	case interlock.ActionRemove:
		err = m.actuator.Remove(ctx)
	case interlock.ActionNone:
	}

	if err != nil {
		return fmt.Errorf("%s filter: %w", action, err)
	}

	return nil
}

// read samples every signal into a Readings snapshot.
func (m *Monitor) read(ctx context.Context) (interlock.Readings, error) {
	values := make([]float64, 0, 4)

	for _, s := range m.signals.all() {
		v, err := s.Value(ctx)
		if err != nil {
			return interlock.Readings{}, err
		}

		values = append(values, v)
	}

	return interlock.Readings{
		SignalValue:     values[0],
		SequencerStatus: int(math.Round(values[1])),
		SequencerStep:   int(math.Round(values[2])),
		Enabled:         values[3] == 1,
	}, nil
}

// State returns the current trip flags.
func (m *Monitor) State() interlock.State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

// Snapshot returns the current state, readings and last action.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		State:       m.state,
		Phase:       m.state.Phase().String(),
		Readings:    m.readings,
		LastAction:  m.lastAction.String(),
		Evaluations: m.evaluations,
		UpdatedAt:   m.updatedAt,
	}
}
