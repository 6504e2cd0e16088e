package metrics

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector receives telemetry events from the services.
// Calls happen inline with the watch cycle and request dispatch.
type Collector interface {
	SetTrips(soft, hard int)
	IncEvaluation(phase string)
	IncActuation(action string, forwarded bool)
	IncCycleError()
	IncRequest(command string, success bool)
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector { //nolint:ireturn // Callers hold the interface.
	return noopCollector{}
}

func (noopCollector) SetTrips(int, int)         {}
func (noopCollector) IncEvaluation(string)      {}
func (noopCollector) IncActuation(string, bool) {}
func (noopCollector) IncCycleError()            {}
func (noopCollector) IncRequest(string, bool)   {}

// PrometheusCollector exposes the events as Prometheus metrics.
type PrometheusCollector struct {
	// trips is the current value of each trip flag.
	trips *prometheus.GaugeVec
	// evaluations counts evaluations per resulting phase.
	evaluations *prometheus.CounterVec
	// actuations counts filter commands, split by whether they reached the device.
	actuations *prometheus.CounterVec
	// cycleErrors counts watch cycles that failed to read or act.
	cycleErrors prometheus.Counter
	// requests counts chip programmer requests per command and outcome.
	requests *prometheus.CounterVec
}

// NewPrometheusCollector registers the metrics with reg.
// Metrics already registered by an earlier collector on the same registry are reused.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		trips: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "roadrunner_watch_trip",
			Help: "Current value of the block watch trip flags.",
		}, []string{"trip"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roadrunner_watch_evaluations_total",
			Help: "Number of interlock evaluations per resulting phase.",
		}, []string{"phase"}),
		actuations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roadrunner_watch_actuations_total",
			Help: "Number of filter commands, by action and whether the watch was enabled.",
		}, []string{"action", "forwarded"}),
		cycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadrunner_watch_cycle_errors_total",
			Help: "Number of watch cycles that failed to read signals or drive devices.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roadrunner_programmer_requests_total",
			Help: "Number of chip programmer requests per command and outcome.",
		}, []string{"command", "success"}),
	}

	var err error

	if c.trips, err = register(reg, c.trips); err != nil {
		return nil, err
	}

	if c.evaluations, err = register(reg, c.evaluations); err != nil {
		return nil, err
	}

	if c.actuations, err = register(reg, c.actuations); err != nil {
		return nil, err
	}

	if c.cycleErrors, err = register(reg, c.cycleErrors); err != nil {
		return nil, err
	}

	if c.requests, err = register(reg, c.requests); err != nil {
		return nil, err
	}

	return c, nil
}

// register adds collector to reg, returning the existing collector when an
// identical one is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}

	var zero T

	return zero, fmt.Errorf("register collector: %w", err)
}

// SetTrips records the published trip flags.
func (c *PrometheusCollector) SetTrips(soft, hard int) {
	c.trips.WithLabelValues("soft").Set(float64(soft))
	c.trips.WithLabelValues("hard").Set(float64(hard))
}

// IncEvaluation counts an evaluation ending in phase.
func (c *PrometheusCollector) IncEvaluation(phase string) {
	c.evaluations.WithLabelValues(phase).Inc()
}

// IncActuation counts a filter command.
func (c *PrometheusCollector) IncActuation(action string, forwarded bool) {
	c.actuations.WithLabelValues(action, strconv.FormatBool(forwarded)).Inc()
}

// IncCycleError counts a failed watch cycle.
func (c *PrometheusCollector) IncCycleError() {
	c.cycleErrors.Inc()
}

// IncRequest counts a dispatched request.
func (c *PrometheusCollector) IncRequest(command string, success bool) {
	c.requests.WithLabelValues(command, strconv.FormatBool(success)).Inc()
}
