package locate

import (
	"fmt"
	"strings"
)

// Color identifies a beacon by the color of its LED.
type Color int

// The known beacon colors. ColorNone is the zero value and never valid in a
// registry.
const (
	ColorNone Color = iota
	Red
	Green
	Blue
	Yellow
	Cyan
	Magenta
	White
)

var colorNames = map[Color]string{
	ColorNone: "none",
	Red:       "red",
	Green:     "green",
	Blue:      "blue",
	Yellow:    "yellow",
	Cyan:      "cyan",
	Magenta:   "magenta",
	White:     "white",
}

// AllColors lists every valid beacon color in declaration order.
func AllColors() []Color {
	return []Color{Red, Green, Blue, Yellow, Cyan, Magenta, White}
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("color(%d)", int(c))
}

// Valid reports whether c is one of the beacon colors.
func (c Color) Valid() bool {
	return c >= Red && c <= White
}

// ParseColor converts a case-insensitive color name into a Color.
func ParseColor(name string) (Color, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range colorNames {
		if n == name && c != ColorNone {
			return c, nil
		}
	}
	return ColorNone, fmt.Errorf("%w: %q", ErrUnknownLandmarkColor, name)
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid color %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
