package locate

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats/scalar"
)

// Precision is the number of decimal digits kept by Distance and by the
// trilateration output. Rounding keeps downstream comparisons stable.
const Precision = 4

// DefaultTolerance is the distance (meters) under which two points are
// considered the same position.
const DefaultTolerance = 0.15

// Point is a position on the plane, in meters.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Vector is a displacement on the plane.
type Vector struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%.4g, %.4g)", p.X, p.Y)
}

// Sub returns the vector going from other to p.
func (p Point) Sub(other Point) Vector {
	return Vector{X: p.X - other.X, Y: p.Y - other.Y}
}

// Orb converts the point for use with the orb geometry package.
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// pointFromOrb converts an orb point back to a Point.
func pointFromOrb(p orb.Point) Point {
	return Point{X: p[0], Y: p[1]}
}

// Length returns the norm of the vector.
func (v Vector) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// IsZero reports whether the vector has no direction.
func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Distance returns the Euclidean distance between a and b rounded to
// Precision decimal digits.
func Distance(a, b Point) float64 {
	return scalar.Round(math.Hypot(a.X-b.X, a.Y-b.Y), Precision)
}

// ApproximatelyEqual reports whether a and b are closer than tolerance.
// The relation is not transitive: two points may each be within tolerance of
// a third point while being further than tolerance apart.
func ApproximatelyEqual(a, b Point, tolerance float64) bool {
	return Distance(a, b) < tolerance
}

// Rotate rotates v by degrees. A positive angle rotates clockwise, which is
// the opposite of the usual mathematical convention.
func Rotate(v Vector, degrees float64) Vector {
	rad := degrees * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return Vector{
		X: v.X*cos + v.Y*sin,
		Y: v.Y*cos - v.X*sin,
	}
}

// AngleBetween returns the signed angle in degrees going from v1 to v2,
// normalized to (-180, 180].
func AngleBetween(v1, v2 Vector) float64 {
	diff := math.Atan2(v2.Y, v2.X) - math.Atan2(v1.Y, v1.X)
	return NormalizeBearing(diff * 180 / math.Pi)
}

// NormalizeBearing maps an angle in degrees to (-180, 180].
func NormalizeBearing(degrees float64) float64 {
	degrees = math.Mod(degrees, 360)
	if degrees <= -180 {
		degrees += 360
	} else if degrees > 180 {
		degrees -= 360
	}
	return degrees
}

// rotateAngle turns an angle in (-180, 180] by 45 degrees counter-clockwise,
// wrapping past 180.
func rotateAngle(alpha float64) float64 {
	if alpha+45 > 180 {
		alpha -= 360
	}
	return alpha + 45
}

func degToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}
