package locate

import (
	"fmt"
	"strings"
)

// Mode selects how the perimeter is interpreted. It is chosen once at
// configuration time.
type Mode int

const (
	// PolygonMode accepts any clockwise perimeter and measures bearings
	// against the side joining each observed pair of beacons.
	PolygonMode Mode = iota
	// RectangleMode assumes a rectangular perimeter with the robot
	// initialized facing one of its sides.
	RectangleMode
)

func (m Mode) String() string {
	switch m {
	case PolygonMode:
		return "polygon"
	case RectangleMode:
		return "rectangle"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts "polygon" or "rectangle" into a Mode. The empty string
// selects PolygonMode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "polygon":
		return PolygonMode, nil
	case "rectangle":
		return RectangleMode, nil
	default:
		return PolygonMode, fmt.Errorf("unknown mode %q (want polygon or rectangle)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// triangulator returns the triangulation strategy for the mode.
func (m Mode) triangulator(registry *Registry, initDirection Vector) Triangulator {
	if m == RectangleMode {
		return rectangleTriangulator{}
	}
	return polygonTriangulator{registry: registry, initDirection: initDirection}
}
