package limitless

import (
	"fmt"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Protocol value ranges for wifi bridge v6.
const (
	// MaxBrightness is the brightness byte for 100%.
	MaxBrightness = 0x64

	// MaxTemperature is the colour temperature byte for 100%.
	MaxTemperature = 0x64

	// MaxColor scales the HSV hue in [0,1) to the hue byte.
	MaxColor = 0xFF

	// hueDegrees is the full circle returned by colorful's Hsv.
	hueDegrees = 360.0

	// rgbComponentMax is the largest RGB component value.
	rgbComponentMax = 255

	// snapEpsilon absorbs binary representation error before rounding,
	// so 0.07 converts to 7 and not 8.
	snapEpsilon = 1e-9
)

// RGB is a colour with 8-bit components (0-255).
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// NewRGB builds an RGB from untyped integer components.
//
// Returns:
//   - RGB: The colour
//   - error: ErrInvalidInput if any component is outside 0-255
func NewRGB(r, g, b int) (RGB, error) {
	for _, c := range []struct {
		name  string
		value int
	}{{"r", r}, {"g", g}, {"b", b}} {
		if c.value < 0 || c.value > rgbComponentMax {
			return RGB{}, fmt.Errorf("%w: rgb component %s=%d (valid: 0-255)", ErrInvalidInput, c.name, c.value)
		}
	}
	return RGB{R: uint8(r), G: uint8(g), B: uint8(b)}, nil //nolint:gosec // range checked above
}

// ParseHexColor parses "#rrggbb" or "rrggbb".
func ParseHexColor(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: colour %q: %w", ErrInvalidInput, s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// Hex returns the colour as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Hue returns the HSV hue of the colour as a fraction in [0,1).
// Greys (no chroma) have hue 0.
func (c RGB) Hue() float64 {
	col := colorful.Color{
		R: float64(c.R) / rgbComponentMax,
		G: float64(c.G) / rgbComponentMax,
		B: float64(c.B) / rgbComponentMax,
	}
	h, _, _ := col.Hsv()
	return h / hueDegrees
}

// ConvertBrightness converts a brightness fraction (0.0-1.0) to the protocol byte.
//
// The result is rounded up, so any non-zero request produces at least 1:
// ConvertBrightness(0.001) == 1, ConvertBrightness(1.0) == 100.
//
// Returns:
//   - int: Brightness byte (0-100)
//   - error: ErrInvalidInput if b is NaN or outside 0.0-1.0
func ConvertBrightness(b float64) (int, error) {
	if err := checkFraction("brightness", b); err != nil {
		return 0, err
	}
	return int(math.Ceil(snap(b * MaxBrightness))), nil
}

// ConvertTemperature converts a colour temperature fraction (0.0-1.0) to the
// protocol byte, rounding up like ConvertBrightness.
func ConvertTemperature(t float64) (int, error) {
	if err := checkFraction("temperature", t); err != nil {
		return 0, err
	}
	return int(math.Ceil(snap(t * MaxTemperature))), nil
}

// ConvertColor converts an RGB colour to the protocol hue byte (0-254).
//
// Only the hue survives: saturation and value are discarded because the
// bridge's colour control is hue-only. Pure red maps to 0, green to 85,
// blue to 170.
func ConvertColor(c RGB) int {
	return int(math.Floor(snap(c.Hue() * MaxColor)))
}

// checkFraction rejects NaN and values outside 0.0-1.0.
func checkFraction(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %s=%v (valid: 0.0-1.0)", ErrInvalidInput, name, v)
	}
	return nil
}

// snap returns the nearest integer when v is within snapEpsilon of it.
// A positive v is never snapped to 0, so rounding up still yields at least 1.
func snap(v float64) float64 {
	r := math.Round(v)
	if r == 0 && v > 0 {
		return v
	}
	if math.Abs(v-r) < snapEpsilon {
		return r
	}
	return v
}
