package locate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPoints(t *testing.T, want, got []Point) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 1e-4, "point %d X", i)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-4, "point %d Y", i)
	}
}

func TestTrilaterate(t *testing.T) {
	tests := []struct {
		name   string
		c1     Point
		r1     float64
		c2     Point
		r2     float64
		want   []Point
		wantOK bool
	}{
		{"two intersections", Point{0, 0}, 3.8, Point{10, 0}, 9.4, []Point{{1.304, 3.5693}, {1.304, -3.5693}}, true},
		{"symmetric", Point{0, 0}, 5, Point{8, 0}, 5, []Point{{4, 3}, {4, -3}}, true},
		{"tangent", Point{0, 0}, 5, Point{10, 0}, 5, []Point{{5, 0}}, true},
		{"disjoint", Point{0, 0}, 1, Point{10, 0}, 1, nil, false},
		{"nested", Point{0, 0}, 2, Point{1, 0}, 10, nil, false},
		{"coincident", Point{2, 2}, 3, Point{2, 2}, 3, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Trilaterate(tt.c1, tt.r1, tt.c2, tt.r2)
			if !tt.wantOK {
				assert.ErrorIs(t, err, ErrNoGeometricSolution)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assertPoints(t, tt.want, got)
		})
	}
}

func TestTrilaterateObservations(t *testing.T) {
	lms := squareLandmarks()
	r1, r2 := 5.0, 5.0
	o1 := &Observation{Distance: &r1, Landmark: lms[0]}
	o2 := &Observation{Distance: &r2, Landmark: lms[3]}

	got, err := TrilaterateObservations(o1, o2)
	require.NoError(t, err)
	assertPoints(t, []Point{{5, 0}}, got)

	o2.Distance = nil
	_, err = TrilaterateObservations(o1, o2)
	assert.ErrorIs(t, err, ErrIncompleteObservation)
}
