package locate

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// DefaultConsensusThreshold is the share (percent) of the candidate list a
// candidate must agree with to be retained.
const DefaultConsensusThreshold = 80.0

// Consensus keeps the candidates that agree (within tolerance) with at least
// threshold percent of the list, counting themselves, and returns the mean of
// the retained set along with the set. An empty list or an empty retained set
// yields ErrNoGoodCandidates.
func Consensus(candidates []Point, tolerance, threshold float64) (Point, []Point, error) {
	if len(candidates) == 0 {
		return Point{}, nil, fmt.Errorf("%w: no candidates", ErrNoGoodCandidates)
	}

	total := float64(len(candidates))
	var retained []Point
	for _, c := range candidates {
		count := 0
		for _, other := range candidates {
			if ApproximatelyEqual(c, other, tolerance) {
				count++
			}
		}
		if 100*float64(count)/total >= threshold {
			retained = append(retained, c)
		}
	}

	if len(retained) == 0 {
		return Point{}, nil, fmt.Errorf("%w: no candidate reached %.0f%% agreement among %d",
			ErrNoGoodCandidates, threshold, len(candidates))
	}

	xs := make([]float64, len(retained))
	ys := make([]float64, len(retained))
	for i, p := range retained {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return Point{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}, retained, nil
}
