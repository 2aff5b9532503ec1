package locate

// DefaultOdometryTolerance is the slack (meters) allowed between the
// distance implied by a candidate and the distance reported by odometry.
const DefaultOdometryTolerance = 0.3

// OdometryHint is the dead-reckoning input for one cycle: where the robot
// was last located and how far it has travelled since.
type OdometryHint struct {
	LastPosition     Point   `json:"lastPosition"`
	DistanceTraveled float64 `json:"distanceTraveled"`
	Tolerance        float64 `json:"tolerance,omitempty"`
}

// NewOdometryHint returns a hint using DefaultOdometryTolerance.
func NewOdometryHint(last Point, traveled float64) OdometryHint {
	return OdometryHint{LastPosition: last, DistanceTraveled: traveled, Tolerance: DefaultOdometryTolerance}
}

// WithinRange reports whether p is consistent with the hint. Only candidates
// implying more travel than reported (plus tolerance) are rejected; a
// candidate closer to the last position always passes.
func (h OdometryHint) WithinRange(p Point) bool {
	return Distance(h.LastPosition, p)-h.DistanceTraveled < h.Tolerance
}

// FilterOdometry keeps the candidates consistent with the hint. A nil hint
// keeps every candidate.
func FilterOdometry(candidates []Point, hint *OdometryHint) []Point {
	if hint == nil {
		return candidates
	}
	var kept []Point
	for _, c := range candidates {
		if hint.WithinRange(c) {
			kept = append(kept, c)
		}
	}
	return kept
}
