package locate

import (
	"fmt"
	"math"
)

// maxAngleSteps bounds the 45 degree normalization loop: eight steps cover a
// full turn.
const maxAngleSteps = 8

// degenerateEpsilon is the sine magnitude under which the two bearings are
// treated as collinear.
const degenerateEpsilon = 1e-9

// Triangulator turns the bearings of two observations into the distance
// from the robot to each landmark.
type Triangulator interface {
	Distances(o1, o2 *Observation) (d1, d2 float64, err error)
}

// triangle is the scratch state of one side of the construction: the angle
// at the robot between the reference direction and the landmark, the
// landmark position, and how many 45 degree steps were applied.
type triangle struct {
	angle  float64
	anchor Point
	offset int
}

// polygonTriangulator measures bearings against the outward perpendicular of
// the segment joining the two landmarks. It works for any perimeter shape.
type polygonTriangulator struct {
	registry      *Registry
	initDirection Vector
}

func (t polygonTriangulator) Distances(o1, o2 *Observation) (float64, float64, error) {
	side, err := t.registry.VectorFromColors(o1.Landmark.Color, o2.Landmark.Color)
	if err != nil {
		return 0, 0, err
	}
	perpendicular := Rotate(side, 90)

	t1 := triangle{
		angle:  AngleBetween(Rotate(t.initDirection, o1.Bearing), perpendicular),
		anchor: o1.Landmark.Position,
	}
	t2 := triangle{
		angle:  AngleBetween(Rotate(t.initDirection, o2.Bearing), perpendicular),
		anchor: o2.Landmark.Position,
	}
	return solveTriangle(t1, t2)
}

// rectangleTriangulator assumes the robot was initialized facing a side of a
// rectangular perimeter, so bearings are already relative to a side normal
// up to a multiple of 45 degrees.
type rectangleTriangulator struct{}

func (rectangleTriangulator) Distances(o1, o2 *Observation) (float64, float64, error) {
	if o1.Landmark.Color == o2.Landmark.Color {
		return 0, 0, fmt.Errorf("%w: %s", ErrSameColor, o1.Landmark.Color)
	}
	t1 := triangle{angle: NormalizeBearing(o1.Bearing), anchor: o1.Landmark.Position}
	t2 := triangle{angle: NormalizeBearing(o2.Bearing), anchor: o2.Landmark.Position}
	if err := adjustAngles(&t1, &t2); err != nil {
		return 0, 0, err
	}
	return solveTriangle(t1, t2)
}

// adjustAngles rotates both angles by 45 degree steps until the robot lies
// between them (|a1|+|a2| <= 90), giving up after maxAngleSteps.
func adjustAngles(t1, t2 *triangle) error {
	for step := 0; math.Abs(t1.angle)+math.Abs(t2.angle) > 90; step++ {
		if step == maxAngleSteps {
			return fmt.Errorf("%w: %.2f° and %.2f° after %d steps",
				ErrAngleNormalization, t1.angle, t2.angle, maxAngleSteps)
		}
		t1.angle = rotateAngle(t1.angle)
		t2.angle = rotateAngle(t2.angle)
		t1.offset++
		t2.offset++
	}
	return nil
}

// solveTriangle applies the law of sines to the triangle formed by the two
// anchors and the robot. Distances are returned in argument order.
func solveTriangle(t1, t2 triangle) (float64, float64, error) {
	d := Distance(t1.anchor, t2.anchor)
	a1, a2 := t1.angle, t2.angle

	var d1, d2 float64
	if a1*a2 < 0 {
		// Robot inside the wedge: split the base at the foot of the height.
		abs1, abs2 := degToRad(math.Abs(a1)), degToRad(math.Abs(a2))
		x := d / (1 + math.Tan(abs2)/math.Tan(abs1))
		y := d - x
		d1 = x / math.Sin(abs1)
		d2 = y / math.Sin(abs2)
	} else {
		diff := degToRad(math.Abs(a1 - a2))
		sin := math.Sin(diff)
		if math.Abs(sin) < degenerateEpsilon {
			return 0, 0, fmt.Errorf("%w: bearings %.2f° and %.2f°", ErrDegenerateTriangle, a1, a2)
		}
		d1 = d * math.Cos(degToRad(a2)) / sin
		d2 = d * math.Cos(degToRad(a1)) / sin
	}

	if !validRange(d1) || !validRange(d2) {
		return 0, 0, fmt.Errorf("%w: bearings %.2f° and %.2f° give ranges %.3f, %.3f",
			ErrDegenerateTriangle, a1, a2, d1, d2)
	}
	return d1, d2, nil
}

func validRange(d float64) bool {
	return d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}
