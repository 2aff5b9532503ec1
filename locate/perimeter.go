package locate

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// boundaryEpsilon is the distance (meters) from an edge under which a point
// counts as on the boundary, and therefore outside.
const boundaryEpsilon = 1e-9

// Perimeter is the area the robot operates in, built from the registry
// landmarks flagged as on the perimeter.
type Perimeter struct {
	ring  orb.Ring
	bound orb.Bound
	mode  Mode
}

// NewPerimeter builds the perimeter polygon from the registry. At least
// three perimeter landmarks are required.
func NewPerimeter(registry *Registry, mode Mode) (*Perimeter, error) {
	corners := registry.Perimeter()
	if len(corners) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 perimeter landmarks, got %d",
			ErrInvalidPerimeter, len(corners))
	}

	ring := make(orb.Ring, 0, len(corners)+1)
	for _, lm := range corners {
		ring = append(ring, lm.Position.Orb())
	}
	ring = append(ring, ring[0])

	return &Perimeter{ring: ring, bound: ring.Bound(), mode: mode}, nil
}

// Corners returns the perimeter vertices in registry order.
func (p *Perimeter) Corners() []Point {
	out := make([]Point, 0, len(p.ring)-1)
	for _, c := range p.ring[:len(p.ring)-1] {
		out = append(out, pointFromOrb(c))
	}
	return out
}

// Bound returns the axis-aligned bounding box of the perimeter.
func (p *Perimeter) Bound() orb.Bound {
	return p.bound
}

// Contains reports whether pt lies strictly inside the perimeter. Rectangle
// mode tests against the bounding box; polygon mode against the polygon
// itself. Boundary points are outside in both cases.
func (p *Perimeter) Contains(pt Point) bool {
	if p.mode == RectangleMode {
		return pt.X > p.bound.Min[0] && pt.X < p.bound.Max[0] &&
			pt.Y > p.bound.Min[1] && pt.Y < p.bound.Max[1]
	}

	op := pt.Orb()
	if !p.bound.Contains(op) || !crossingOdd(p.ring, op) {
		return false
	}
	for i := 0; i < len(p.ring)-1; i++ {
		if planar.DistanceFromSegment(p.ring[i], p.ring[i+1], op) < boundaryEpsilon {
			return false
		}
	}
	return true
}

// crossingOdd casts a ray from pt towards +x and reports whether it crosses
// the closed ring an odd number of times. Points exactly on an edge may go
// either way; Contains rejects them separately.
func crossingOdd(ring orb.Ring, pt orb.Point) bool {
	x, y := pt[0], pt[1]
	inside := false
	for i, j := 0, len(ring)-2; i < len(ring)-1; j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a[1] > y) == (b[1] > y) {
			continue
		}
		xCross := a[0] + (y-a[1])*(b[0]-a[0])/(b[1]-a[1])
		if x < xCross {
			inside = !inside
		}
	}
	return inside
}

// FilterInside keeps the candidates lying strictly inside the perimeter.
func (p *Perimeter) FilterInside(candidates []Point) []Point {
	var kept []Point
	for _, c := range candidates {
		if p.Contains(c) {
			kept = append(kept, c)
		}
	}
	return kept
}
