package limitless

import (
	"encoding/json"
	"fmt"
	"math"
)

// percentScale converts a 0-100 level to a fraction.
const percentScale = 100.0

// rgbComponents is the length of an "rgb" parameter array.
const rgbComponents = 3

// ParseParam converts loosely typed command parameters (decoded JSON) into a Param.
//
// Accepted forms:
//
//	color:       {"rgb": [r, g, b]} or {"hex": "#rrggbb"}
//	brightness:  {"level": 0-100} or {"fraction": 0.0-1.0}
//	temperature: {"value": 0-255} (raw byte) or {"fraction": 0.0-1.0}
//
// Operations without a parameter ignore params.
//
// Returns:
//   - Param: Ready for CommandSet.Build
//   - error: ErrInvalidInput if a required parameter is missing or malformed
func ParseParam(op Operation, params map[string]any) (Param, error) {
	switch op {
	case OpColor:
		return parseColorParam(params)
	case OpBrightness:
		return parseBrightnessParam(params)
	case OpTemperature:
		return parseTemperatureParam(params)
	default:
		return Param{}, nil
	}
}

func parseColorParam(params map[string]any) (Param, error) {
	if raw, ok := params["hex"]; ok {
		s, ok := raw.(string)
		if !ok {
			return Param{}, fmt.Errorf("%w: 'hex' must be a string", ErrInvalidInput)
		}
		rgb, err := ParseHexColor(s)
		if err != nil {
			return Param{}, err
		}
		return Param{Color: rgb}, nil
	}

	raw, ok := params["rgb"]
	if !ok {
		return Param{}, fmt.Errorf("%w: missing 'rgb' or 'hex' parameter", ErrInvalidInput)
	}
	list, ok := raw.([]any)
	if !ok || len(list) != rgbComponents {
		return Param{}, fmt.Errorf("%w: 'rgb' must be an array of 3 numbers", ErrInvalidInput)
	}
	var comps [rgbComponents]int
	for i, v := range list {
		n, err := toNumber("rgb", v)
		if err != nil {
			return Param{}, err
		}
		if n != math.Trunc(n) {
			return Param{}, fmt.Errorf("%w: rgb component %v is not an integer", ErrInvalidInput, n)
		}
		if n < 0 || n > rgbComponentMax {
			return Param{}, fmt.Errorf("%w: rgb component %v (valid: 0-255)", ErrInvalidInput, n)
		}
		comps[i] = int(n)
	}
	rgb, err := NewRGB(comps[0], comps[1], comps[2])
	if err != nil {
		return Param{}, err
	}
	return Param{Color: rgb}, nil
}

func parseBrightnessParam(params map[string]any) (Param, error) {
	if raw, ok := params["fraction"]; ok {
		f, err := toNumber("fraction", raw)
		if err != nil {
			return Param{}, err
		}
		return Param{Value: f}, nil
	}

	raw, ok := params["level"]
	if !ok {
		return Param{}, fmt.Errorf("%w: missing 'level' or 'fraction' parameter", ErrInvalidInput)
	}
	level, err := toNumber("level", raw)
	if err != nil {
		return Param{}, err
	}
	if level < 0 || level > percentScale {
		return Param{}, fmt.Errorf("%w: 'level' must be 0-100, got %.2f", ErrInvalidInput, level)
	}
	return Param{Value: level / percentScale}, nil
}

func parseTemperatureParam(params map[string]any) (Param, error) {
	if raw, ok := params["value"]; ok {
		v, err := toNumber("value", raw)
		if err != nil {
			return Param{}, err
		}
		return Param{Value: v}, nil
	}

	raw, ok := params["fraction"]
	if !ok {
		return Param{}, fmt.Errorf("%w: missing 'value' or 'fraction' parameter", ErrInvalidInput)
	}
	f, err := toNumber("fraction", raw)
	if err != nil {
		return Param{}, err
	}
	t, err := ConvertTemperature(f)
	if err != nil {
		return Param{}, err
	}
	return Param{Value: float64(t)}, nil
}

// toNumber accepts the numeric types produced by encoding/json and by Go callers.
func toNumber(name string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: '%s': %w", ErrInvalidInput, name, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: '%s' must be a number", ErrInvalidInput, name)
	}
}

// stateFor returns the optimistic group state after op was sent.
func stateFor(op Operation, p Param) map[string]any {
	switch op {
	case OpOn:
		return map[string]any{"on": true}
	case OpOff:
		return map[string]any{"on": false}
	case OpWhite:
		return map[string]any{"on": true, "mode": "white"}
	case OpNightLight:
		return map[string]any{"on": true, "mode": "night_light"}
	case OpColor:
		return map[string]any{
			"on":    true,
			"mode":  "color",
			"color": p.Color.Hex(),
			"hue":   ConvertColor(p.Color),
		}
	case OpBrightness:
		level, _ := ConvertBrightness(p.Value) //nolint:errcheck // validated by Build
		return map[string]any{"level": level}
	case OpTemperature:
		return map[string]any{"temperature": int(p.Value)}
	default:
		return map[string]any{}
	}
}
