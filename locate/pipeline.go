package locate

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle of one estimation cycle.
type State int

const (
	StateAwaitingObservations State = iota
	StateEstimating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingObservations:
		return "awaiting_observations"
	case StateEstimating:
		return "estimating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{StateAwaitingObservations, StateEstimating, StateDone, StateFailed} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Cycle is the input of one estimation: the readings taken during a camera
// sweep, the heading to north when they were taken and an optional odometry
// hint.
type Cycle struct {
	HeadingToNorth float64       `json:"headingToNorth"`
	Odometry       *OdometryHint `json:"odometry,omitempty"`
	Readings       []Reading     `json:"readings"`
}

// PairOutcome records what happened to one beacon pair.
type PairOutcome struct {
	Left       Color     `json:"left"`
	Right      Color     `json:"right"`
	Distances  []float64 `json:"distances,omitempty"`
	Candidates []Point   `json:"candidates,omitempty"`
	Err        error     `json:"-"`
}

// MarshalJSON adds the failure message, if any, as "error".
func (p PairOutcome) MarshalJSON() ([]byte, error) {
	type outcome PairOutcome
	msg := ""
	if p.Err != nil {
		msg = p.Err.Error()
	}
	return json.Marshal(struct {
		outcome
		Error string `json:"error,omitempty"`
	}{outcome(p), msg})
}

// Result is the outcome of one cycle. Position is only meaningful when State
// is StateDone.
type Result struct {
	CycleID    string        `json:"cycleId"`
	State      State         `json:"state"`
	Position   Point         `json:"position"`
	Candidates []Point       `json:"candidates"`
	Retained   []Point       `json:"retained"`
	Pairs      []PairOutcome `json:"pairs"`
	Timestamp  time.Time     `json:"timestamp"`
	Error      string        `json:"error,omitempty"`
}

// Estimator runs estimation cycles against a fixed Configuration. Cycles on
// one Estimator are serialized.
type Estimator struct {
	cfg     *Configuration
	seq     SequenceGenerator
	metrics *Metrics

	mu    sync.Mutex
	state State
}

// NewEstimator returns an Estimator for cfg. metrics may be nil.
func NewEstimator(cfg *Configuration, metrics *Metrics) *Estimator {
	return &Estimator{cfg: cfg, metrics: metrics}
}

// Configuration returns the configuration the estimator runs with.
func (e *Estimator) Configuration() *Configuration { return e.cfg }

// State returns the state of the last (or current) cycle.
func (e *Estimator) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Estimate runs one cycle. The returned Result is never nil; on failure it
// carries StateFailed, whatever partial candidates were found and the error
// message. Configuration errors (unknown colors) abort before any pair is
// evaluated. Pair-level geometry failures are recorded in Result.Pairs and
// the cycle goes on with the remaining pairs.
func (e *Estimator) Estimate(cycle Cycle) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	res := &Result{
		CycleID:   uuid.NewString(),
		State:     StateAwaitingObservations,
		Timestamp: start,
	}
	e.state = res.State

	err := e.run(cycle, res)
	if err != nil {
		res.State = StateFailed
		res.Error = err.Error()
		log.Printf("[ESTIMATE] cycle %s failed: %v", res.CycleID, err)
	} else {
		res.State = StateDone
		log.Printf("[ESTIMATE] cycle %s: %s from %d/%d candidates",
			res.CycleID, res.Position, len(res.Retained), len(res.Candidates))
	}
	e.state = res.State
	e.metrics.ObserveCycle(res, err, time.Since(start))
	return res, err
}

func (e *Estimator) run(cycle Cycle, res *Result) error {
	if len(cycle.Readings) < 2 {
		return fmt.Errorf("%w: need at least 2 readings, got %d", ErrInsufficientData, len(cycle.Readings))
	}

	observations := make([]*Observation, 0, len(cycle.Readings))
	for i, r := range cycle.Readings {
		o, err := e.cfg.NewObservation(&e.seq, cycle.HeadingToNorth, r)
		if err != nil {
			return fmt.Errorf("reading %d: %w", i, err)
		}
		observations = append(observations, o)
	}

	res.State = StateEstimating
	e.state = res.State

	for i := 0; i < len(observations); i++ {
		for j := i + 1; j < len(observations); j++ {
			outcome := e.evaluatePair(observations[i], observations[j])
			if outcome.Err != nil {
				log.Printf("[ESTIMATE] pair %s/%s skipped: %v", outcome.Left, outcome.Right, outcome.Err)
			}
			e.metrics.ObservePair(outcome.Err)
			res.Pairs = append(res.Pairs, outcome)
			res.Candidates = append(res.Candidates, outcome.Candidates...)
		}
	}

	candidates := res.Candidates
	if hint := e.hint(cycle.Odometry); hint != nil {
		candidates = FilterOdometry(candidates, hint)
		log.Printf("[ESTIMATE] odometry kept %d/%d candidates", len(candidates), len(res.Candidates))
	}

	position, retained, err := Consensus(candidates, e.cfg.tolerance, e.cfg.consensusThreshold)
	if err != nil {
		return err
	}
	res.Position = position
	res.Retained = retained
	return nil
}

// evaluatePair triangulates, refines and trilaterates one pair on copies of
// its observations, then keeps the intersections inside the perimeter.
func (e *Estimator) evaluatePair(left, right *Observation) PairOutcome {
	out := PairOutcome{Left: left.Landmark.Color, Right: right.Landmark.Color}
	o1, o2 := left.clone(), right.clone()

	d1, d2, err := e.cfg.triangulator.Distances(o1, o2)
	if err != nil {
		out.Err = err
		return out
	}
	if d1, err = o1.RefineDistance(d1); err != nil {
		out.Err = err
		return out
	}
	if d2, err = o2.RefineDistance(d2); err != nil {
		out.Err = err
		return out
	}
	out.Distances = []float64{d1, d2}

	points, err := TrilaterateObservations(o1, o2)
	if err != nil {
		out.Err = err
		return out
	}
	out.Candidates = e.cfg.perimeter.FilterInside(points)
	return out
}

// hint fills in the configured tolerance when the cycle's hint carries none.
func (e *Estimator) hint(h *OdometryHint) *OdometryHint {
	if h == nil {
		return nil
	}
	c := *h
	if c.Tolerance <= 0 {
		c.Tolerance = e.cfg.odometryTolerance
	}
	return &c
}

// IsPairError reports whether err is a geometry outcome local to one pair.
func IsPairError(err error) bool {
	return errors.Is(err, ErrDegenerateTriangle) ||
		errors.Is(err, ErrNoGeometricSolution) ||
		errors.Is(err, ErrIncompleteObservation) ||
		errors.Is(err, ErrAngleNormalization) ||
		errors.Is(err, ErrHeightOffsetDomain) ||
		errors.Is(err, ErrSameColor)
}
