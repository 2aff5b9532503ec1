package locate

import "errors"

// Configuration-level errors. They point at a setup bug rather than at
// sensor noise and abort the cycle.
var (
	ErrUnknownLandmarkColor = errors.New("unknown landmark color")
	ErrInvalidRegistry      = errors.New("invalid beacon registry")
	ErrInvalidPerimeter     = errors.New("invalid perimeter configuration")
)

// ErrSameColor is returned when a pair query names one beacon twice.
var ErrSameColor = errors.New("same color given twice")

// Geometry-level outcomes. They are local to a beacon pair; the cycle goes
// on with the remaining pairs.
var (
	ErrIncompleteObservation = errors.New("observation has no resolved distance")
	ErrNoGeometricSolution   = errors.New("no geometric solution")
	ErrDegenerateTriangle    = errors.New("degenerate triangle")
	ErrHeightOffsetDomain    = errors.New("height offset out of range for distance")
	ErrAngleNormalization    = errors.New("angle normalization did not converge")
)

// Cycle-level soft failures: the caller simply has no estimate this cycle.
var (
	ErrInsufficientData = errors.New("insufficient observations")
	ErrNoGoodCandidates = errors.New("no good candidates")
)

// IsConfigurationError reports whether err comes from a misconfigured
// registry or an observation referencing an unknown beacon.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrUnknownLandmarkColor) ||
		errors.Is(err, ErrInvalidRegistry) ||
		errors.Is(err, ErrInvalidPerimeter)
}
