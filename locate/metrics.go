package locate

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors updated by the Estimator. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	Cycles         *prometheus.CounterVec
	Pairs          *prometheus.CounterVec
	CycleDurations prometheus.Histogram
	Candidates     prometheus.Histogram
	PositionX      prometheus.Gauge
	PositionY      prometheus.Gauge
}

// NewMetrics registers the estimator metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	cycles, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledlocate_cycles_total",
		Help: "Estimation cycles, labeled by outcome.",
	}, []string{"outcome"}), "ledlocate_cycles_total")
	if err != nil {
		return nil, err
	}
	pairs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledlocate_pairs_total",
		Help: "Beacon pairs evaluated, labeled by outcome.",
	}, []string{"outcome"}), "ledlocate_pairs_total")
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledlocate_cycle_duration_seconds",
		Help:    "Estimation cycle latency in seconds.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}), "ledlocate_cycle_duration_seconds")
	if err != nil {
		return nil, err
	}
	candidates, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledlocate_cycle_candidates",
		Help:    "Candidate positions produced per cycle before odometry filtering.",
		Buckets: prometheus.LinearBuckets(0, 2, 8),
	}), "ledlocate_cycle_candidates")
	if err != nil {
		return nil, err
	}
	x, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledlocate_position_x_meters",
		Help: "X coordinate of the last estimated position.",
	}), "ledlocate_position_x_meters")
	if err != nil {
		return nil, err
	}
	y, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledlocate_position_y_meters",
		Help: "Y coordinate of the last estimated position.",
	}), "ledlocate_position_y_meters")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:       gatherer,
		Cycles:         cycles,
		Pairs:          pairs,
		CycleDurations: durations,
		Candidates:     candidates,
		PositionX:      x,
		PositionY:      y,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if m != nil && m.gatherer != nil {
		gatherer = m.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveCycle records the outcome of one cycle.
func (m *Metrics) ObserveCycle(res *Result, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Cycles.WithLabelValues(CycleOutcome(err)).Inc()
	m.CycleDurations.Observe(elapsed.Seconds())
	if res == nil {
		return
	}
	m.Candidates.Observe(float64(len(res.Candidates)))
	if err == nil && res.State == StateDone {
		m.PositionX.Set(res.Position.X)
		m.PositionY.Set(res.Position.Y)
	}
}

// ObservePair records the outcome of one beacon pair.
func (m *Metrics) ObservePair(err error) {
	if m == nil {
		return
	}
	m.Pairs.WithLabelValues(PairOutcomeLabel(err)).Inc()
}

// CycleOutcome maps a cycle error to its metric label.
func CycleOutcome(err error) string {
	switch {
	case err == nil:
		return "done"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrNoGoodCandidates):
		return "no_good_candidates"
	case IsConfigurationError(err):
		return "configuration_error"
	default:
		return "failed"
	}
}

// PairOutcomeLabel maps a pair error to its metric label.
func PairOutcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDegenerateTriangle):
		return "degenerate_triangle"
	case errors.Is(err, ErrNoGeometricSolution):
		return "no_geometric_solution"
	case errors.Is(err, ErrIncompleteObservation):
		return "incomplete_observation"
	case errors.Is(err, ErrAngleNormalization):
		return "angle_normalization"
	case errors.Is(err, ErrHeightOffsetDomain):
		return "height_offset_domain"
	case errors.Is(err, ErrSameColor):
		return "same_color"
	default:
		return "other"
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C, name string) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero C
		return zero, err
	}
	return c, nil
}
