package locate

import "fmt"

// MinLandmarks is the smallest registry the estimator accepts.
const MinLandmarks = 4

// Landmark is a beacon with a known fixed position.
type Landmark struct {
	Color        Color   `json:"color"`
	Position     Point   `json:"position"`
	OnPerimeter  bool    `json:"onPerimeter"`
	HeightOffset float64 `json:"heightOffset"` // meters between camera and LED
}

// Registry is the ordered set of beacons. Landmarks are stored in clockwise
// order as seen looking down on the plane; adjacency and direction queries
// follow that order, not the geometry.
type Registry struct {
	landmarks []Landmark
	index     map[Color]int
}

// NewRegistry validates and stores landmarks in the given (clockwise) order.
func NewRegistry(landmarks []Landmark) (*Registry, error) {
	if len(landmarks) < MinLandmarks {
		return nil, fmt.Errorf("%w: need at least %d landmarks, got %d",
			ErrInvalidRegistry, MinLandmarks, len(landmarks))
	}

	r := &Registry{
		landmarks: make([]Landmark, len(landmarks)),
		index:     make(map[Color]int, len(landmarks)),
	}
	for i, lm := range landmarks {
		if !lm.Color.Valid() {
			return nil, fmt.Errorf("%w: landmark[%d] has invalid color %s", ErrInvalidRegistry, i, lm.Color)
		}
		if prev, dup := r.index[lm.Color]; dup {
			return nil, fmt.Errorf("%w: color %s used by landmark[%d] and landmark[%d]",
				ErrInvalidRegistry, lm.Color, prev, i)
		}
		r.index[lm.Color] = i
		r.landmarks[i] = lm
	}
	return r, nil
}

// Len returns the number of landmarks.
func (r *Registry) Len() int {
	return len(r.landmarks)
}

// Landmarks returns a copy of the landmarks in registry order.
func (r *Registry) Landmarks() []Landmark {
	out := make([]Landmark, len(r.landmarks))
	copy(out, r.landmarks)
	return out
}

// Perimeter returns the landmarks flagged as on the perimeter, in registry
// order.
func (r *Registry) Perimeter() []Landmark {
	var out []Landmark
	for _, lm := range r.landmarks {
		if lm.OnPerimeter {
			out = append(out, lm)
		}
	}
	return out
}

// Lookup returns the landmark with the given color.
func (r *Registry) Lookup(c Color) (Landmark, error) {
	i, ok := r.index[c]
	if !ok {
		return Landmark{}, fmt.Errorf("%w: %s", ErrUnknownLandmarkColor, c)
	}
	return r.landmarks[i], nil
}

func (r *Registry) indexOf(c Color) (int, error) {
	i, ok := r.index[c]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownLandmarkColor, c)
	}
	return i, nil
}

// IsAdjacent reports whether a and b are neighbours in the clockwise order,
// wrapping around the end of the registry. Passing the same color twice is
// an invalid query and returns ErrSameColor.
func (r *Registry) IsAdjacent(a, b Color) (bool, error) {
	if a == b {
		return false, fmt.Errorf("%w: %s", ErrSameColor, a)
	}
	ia, err := r.indexOf(a)
	if err != nil {
		return false, err
	}
	ib, err := r.indexOf(b)
	if err != nil {
		return false, err
	}
	gap := ia - ib
	if gap < 0 {
		gap = -gap
	}
	return gap == 1 || gap == len(r.landmarks)-1, nil
}

// VectorFromColors returns the direction between two landmarks given in
// left-to-right order as seen by the camera. Adjacent landmarks yield the
// clockwise travel direction between them whatever the argument order;
// other pairs yield the displacement from left to right. Swapping
// non-adjacent arguments flips the sign.
func (r *Registry) VectorFromColors(left, right Color) (Vector, error) {
	adjacent, err := r.IsAdjacent(left, right)
	if err != nil {
		return Vector{}, err
	}
	il, _ := r.indexOf(left)
	ir, _ := r.indexOf(right)
	pl := r.landmarks[il].Position
	pr := r.landmarks[ir].Position

	if !adjacent {
		return pr.Sub(pl), nil
	}

	// The landmark met first when scanning is the origin of the clockwise
	// step, except when the pair straddles the end of the registry.
	leftFirst := il < ir
	if il == 0 && ir == len(r.landmarks)-1 || ir == 0 && il == len(r.landmarks)-1 {
		leftFirst = !leftFirst
	}
	if leftFirst {
		return pr.Sub(pl), nil
	}
	return pl.Sub(pr), nil
}
