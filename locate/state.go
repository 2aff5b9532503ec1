package locate

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// DefaultHistorySize is the number of results kept when none is configured.
const DefaultHistorySize = 50

// StateTracker keeps the last estimate and a bounded history of cycle
// results for the HTTP endpoints
type StateTracker struct {
	mu        sync.RWMutex
	last      *Result // last successful cycle
	history   []*Result
	limit     int
	cachePath string // path to the last-position cache file; empty disables persistence
}

// NewStateTracker creates a tracker keeping at most limit results
func NewStateTracker(limit int) *StateTracker {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &StateTracker{limit: limit}
}

// NewStateTrackerWithCache creates a tracker that persists the last
// successful result to cachePath. If the file exists, it is loaded on
// creation so the position survives restarts.
func NewStateTrackerWithCache(limit int, cachePath string) *StateTracker {
	st := NewStateTracker(limit)
	st.cachePath = cachePath
	if cachePath != "" {
		if res, err := LoadResult(cachePath); err == nil {
			st.last = res
		}
	}
	return st
}

// Record stores a cycle result. Successful results become the last position.
func (st *StateTracker) Record(res *Result) {
	if res == nil {
		return
	}

	st.mu.Lock()
	st.history = append(st.history, res)
	if over := len(st.history) - st.limit; over > 0 {
		st.history = append([]*Result(nil), st.history[over:]...)
	}
	done := res.State == StateDone
	if done {
		st.last = res
	}
	cachePath := st.cachePath
	st.mu.Unlock()

	if done && cachePath != "" {
		if err := SaveResult(res, cachePath); err != nil {
			log.Printf("warning: failed to save position cache: %v", err)
		}
	}
}

// Last returns the last successful result, or nil
func (st *StateTracker) Last() *Result {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.last
}

// LastPosition returns the last estimated position
func (st *StateTracker) LastPosition() (Point, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.last == nil {
		return Point{}, false
	}
	return st.last.Position, true
}

// History returns the recorded results, oldest first
func (st *StateTracker) History() []*Result {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Result, len(st.history))
	copy(out, st.history)
	return out
}

// OdometryHint builds a hint from the last position, or nil before the
// first successful cycle
func (st *StateTracker) OdometryHint(traveled, tolerance float64) *OdometryHint {
	pos, ok := st.LastPosition()
	if !ok {
		return nil
	}
	return &OdometryHint{LastPosition: pos, DistanceTraveled: traveled, Tolerance: tolerance}
}

// SaveResult writes a Result to disk as JSON.
func SaveResult(res *Result, path string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write position cache: %w", err)
	}
	return nil
}

// LoadResult reads a Result written by SaveResult.
func LoadResult(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read position cache: %w", err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("unmarshal position cache: %w", err)
	}
	return &res, nil
}
