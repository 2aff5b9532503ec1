package locate

import (
	"fmt"
	"math"
	"sync/atomic"
)

// SequenceGenerator hands out monotonically increasing observation ids. It
// is safe for concurrent use and is never reset.
type SequenceGenerator struct {
	next atomic.Uint64
}

// Next returns the next id.
func (g *SequenceGenerator) Next() uint64 {
	return g.next.Add(1) - 1
}

// Reading is one raw sample from the camera: the beacon seen, its bearing
// relative to the robot's current direction, and optionally a distance
// derived from the blob size.
type Reading struct {
	Color    Color    `json:"color"`
	Bearing  float64  `json:"bearing"`
	Distance *float64 `json:"distance,omitempty"`
}

// Observation is a reading bound to its landmark, with the bearing turned
// into the perimeter-edge convention.
type Observation struct {
	SequenceID uint64
	Bearing    float64
	Distance   *float64
	Landmark   Landmark
}

// HasDistance reports whether a distance has been measured or computed.
func (o *Observation) HasDistance() bool {
	return o.Distance != nil
}

// RefineDistance merges a new distance estimate into the observation. With
// no prior distance the estimate is adopted as is. Otherwise the prior
// (camera) distance is projected onto the ground plane using the landmark
// height offset and averaged with the estimate.
func (o *Observation) RefineDistance(estimate float64) (float64, error) {
	if o.Distance == nil {
		d := estimate
		o.Distance = &d
		return d, nil
	}

	prior := *o.Distance
	ratio := o.Landmark.HeightOffset / prior
	if prior == 0 || ratio < -1 || ratio > 1 || math.IsNaN(ratio) {
		return prior, fmt.Errorf("%w: height %.3f, distance %.3f",
			ErrHeightOffsetDomain, o.Landmark.HeightOffset, prior)
	}

	adjusted := prior * math.Cos(math.Asin(ratio))
	merged := (adjusted + estimate) / 2
	o.Distance = &merged
	return merged, nil
}

// clone returns a copy that does not share the distance with o.
func (o *Observation) clone() *Observation {
	c := *o
	if o.Distance != nil {
		d := *o.Distance
		c.Distance = &d
	}
	return &c
}

func (o *Observation) String() string {
	dist := "?"
	if o.Distance != nil {
		dist = fmt.Sprintf("%.3f", *o.Distance)
	}
	return fmt.Sprintf("#%d %s @%.2f° d=%s", o.SequenceID, o.Landmark.Color, o.Bearing, dist)
}
