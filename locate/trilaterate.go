package locate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Trilaterate intersects the circle of radius r1 around c1 with the circle
// of radius r2 around c2. It returns no point (and ErrNoGeometricSolution)
// when the circles are disjoint, nested or coincident, one point when they
// are tangent and otherwise two points ordered by descending angle seen
// from c1. Coordinates are rounded to Precision digits.
func Trilaterate(c1 Point, r1 float64, c2 Point, r2 float64) ([]Point, error) {
	dx := c2.X - c1.X
	dy := c2.Y - c1.Y
	d := Distance(c1, c2)

	switch {
	case d > r1+r2:
		return nil, fmt.Errorf("%w: circles do not intersect", ErrNoGeometricSolution)
	case d < math.Abs(r1-r2):
		return nil, fmt.Errorf("%w: one circle is contained within the other", ErrNoGeometricSolution)
	case d == 0 && r1 == r2:
		return nil, fmt.Errorf("%w: circles are coincident", ErrNoGeometricSolution)
	}

	// Distance from c1 to the chord joining the intersections.
	chord := (r1*r1 - r2*r2 + d*d) / (2 * d)
	half := math.Sqrt(math.Max(r1*r1-chord*chord, 0))
	midX := c1.X + chord*dx/d
	midY := c1.Y + chord*dy/d

	i1 := roundPoint(Point{X: midX + half*dy/d, Y: midY - half*dx/d})
	i2 := roundPoint(Point{X: midX - half*dy/d, Y: midY + half*dx/d})

	if d == r1+r2 || d == math.Abs(r1-r2) {
		return []Point{i1}, nil
	}

	theta1 := scalar.Round(math.Atan2(i1.Y-c1.Y, i1.X-c1.X)*180/math.Pi, Precision)
	theta2 := scalar.Round(math.Atan2(i2.Y-c1.Y, i2.X-c1.X)*180/math.Pi, Precision)
	if theta2 > theta1 {
		i1, i2 = i2, i1
	}
	return []Point{i1, i2}, nil
}

// TrilaterateObservations intersects the range circles of two observations.
// Both must carry a distance.
func TrilaterateObservations(o1, o2 *Observation) ([]Point, error) {
	if !o1.HasDistance() || !o2.HasDistance() {
		return nil, fmt.Errorf("%w: %s / %s", ErrIncompleteObservation, o1, o2)
	}
	return Trilaterate(o1.Landmark.Position, *o1.Distance, o2.Landmark.Position, *o2.Distance)
}

func roundPoint(p Point) Point {
	return Point{X: scalar.Round(p.X, Precision), Y: scalar.Round(p.Y, Precision)}
}
