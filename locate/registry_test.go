package locate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// squareLandmarks is a 10m square listed clockwise from the origin.
func squareLandmarks() []Landmark {
	return []Landmark{
		{Color: Red, Position: Point{0, 0}, OnPerimeter: true},
		{Color: Yellow, Position: Point{0, 10}, OnPerimeter: true},
		{Color: Blue, Position: Point{10, 10}, OnPerimeter: true},
		{Color: Green, Position: Point{10, 0}, OnPerimeter: true},
	}
}

// quadLandmarks is an irregular quadrilateral listed clockwise.
func quadLandmarks() []Landmark {
	return []Landmark{
		{Color: Red, Position: Point{3, 3}, OnPerimeter: true},
		{Color: Yellow, Position: Point{13, 5}, OnPerimeter: true},
		{Color: Blue, Position: Point{11, 9}, OnPerimeter: true},
		{Color: Green, Position: Point{1, 10}, OnPerimeter: true},
	}
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(squareLandmarks())
	require.NoError(t, err)
	assert.Equal(t, 4, r.Len())
	assert.Len(t, r.Perimeter(), 4)

	lm, err := r.Lookup(Blue)
	require.NoError(t, err)
	assert.Equal(t, Point{10, 10}, lm.Position)

	// Landmarks returns a copy.
	lms := r.Landmarks()
	lms[0].Position = Point{99, 99}
	lm, _ = r.Lookup(Red)
	assert.Equal(t, Point{0, 0}, lm.Position)
}

func TestNewRegistry_Invalid(t *testing.T) {
	tooFew := squareLandmarks()[:3]

	dup := squareLandmarks()
	dup[3].Color = Red

	invalid := squareLandmarks()
	invalid[2].Color = ColorNone

	for name, lms := range map[string][]Landmark{
		"too few":       tooFew,
		"duplicate":     dup,
		"invalid color": invalid,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewRegistry(lms)
			assert.ErrorIs(t, err, ErrInvalidRegistry)
			assert.True(t, IsConfigurationError(err))
		})
	}
}

func TestRegistry_LookupUnknown(t *testing.T) {
	r, err := NewRegistry(squareLandmarks())
	require.NoError(t, err)

	_, err = r.Lookup(Magenta)
	assert.ErrorIs(t, err, ErrUnknownLandmarkColor)
}

func TestRegistry_IsAdjacent(t *testing.T) {
	r, err := NewRegistry(squareLandmarks())
	require.NoError(t, err)

	tests := []struct {
		a, b Color
		want bool
	}{
		{Red, Yellow, true},
		{Yellow, Red, true},
		{Yellow, Blue, true},
		{Blue, Green, true},
		{Green, Red, true}, // wraps around the end of the registry
		{Red, Green, true},
		{Red, Blue, false},
		{Yellow, Green, false},
	}
	for _, tt := range tests {
		got, err := r.IsAdjacent(tt.a, tt.b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "IsAdjacent(%s, %s)", tt.a, tt.b)
	}

	_, err = r.IsAdjacent(Red, Red)
	assert.ErrorIs(t, err, ErrSameColor)
	assert.False(t, IsConfigurationError(err))

	_, err = r.IsAdjacent(Red, Cyan)
	assert.ErrorIs(t, err, ErrUnknownLandmarkColor)
}

func TestRegistry_VectorFromColors(t *testing.T) {
	r, err := NewRegistry(squareLandmarks())
	require.NoError(t, err)

	tests := []struct {
		left, right Color
		want        Vector
	}{
		{Red, Yellow, Vector{0, 10}},
		{Yellow, Red, Vector{0, 10}},
		{Green, Red, Vector{-10, 0}},
		{Red, Green, Vector{-10, 0}},
		{Blue, Green, Vector{0, -10}},
		{Red, Blue, Vector{10, 10}},
		{Blue, Red, Vector{-10, -10}},
	}
	for _, tt := range tests {
		got, err := r.VectorFromColors(tt.left, tt.right)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "VectorFromColors(%s, %s)", tt.left, tt.right)
	}

	_, err = r.VectorFromColors(Green, Green)
	assert.True(t, errors.Is(err, ErrSameColor))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor(" Red ")
	require.NoError(t, err)
	assert.Equal(t, Red, c)

	c, err = ParseColor("MAGENTA")
	require.NoError(t, err)
	assert.Equal(t, Magenta, c)

	_, err = ParseColor("none")
	assert.ErrorIs(t, err, ErrUnknownLandmarkColor)

	_, err = ParseColor("purple")
	assert.ErrorIs(t, err, ErrUnknownLandmarkColor)

	_, err = ColorNone.MarshalText()
	assert.Error(t, err)
	assert.Len(t, AllColors(), 7)
}
