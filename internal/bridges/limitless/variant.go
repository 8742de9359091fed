package limitless

import (
	"fmt"
	"strings"
)

// Variant identifies a v6 device class. Each variant shares the frame
// template and differs only in its remote style byte and opcode table.
type Variant uint8

// Device variants supported by wifi bridge v6.
const (
	VariantBridgeLight Variant = iota + 1 // Light built into the bridge itself
	VariantWhite                          // Dual white (warm/cool) bulbs
	VariantRGBW                           // RGB + single white channel
	VariantRGBWW                          // RGB + warm/cool white ("RGB+CCT")
)

// Operation is a logical light command.
type Operation uint8

// Logical operations. Not every variant supports every operation.
const (
	OpOn Operation = iota + 1
	OpOff
	OpWhite
	OpNightLight
	OpColor
	OpBrightness
	OpTemperature
)

// allOperations lists operations in a stable order.
var allOperations = []Operation{OpOn, OpOff, OpWhite, OpNightLight, OpColor, OpBrightness, OpTemperature}

var operationNames = map[Operation]string{
	OpOn:          "on",
	OpOff:         "off",
	OpWhite:       "white",
	OpNightLight:  "night_light",
	OpColor:       "color",
	OpBrightness:  "brightness",
	OpTemperature: "temperature",
}

// String returns the wire name of the operation (e.g. "night_light").
func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("operation(%d)", uint8(o))
}

// ParseOperation converts a wire name to an Operation.
// "nightlight", "night-light" and "colour" are accepted as aliases.
func ParseOperation(name string) (Operation, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "nightlight", "night-light":
		return OpNightLight, nil
	case "colour":
		return OpColor, nil
	}
	for op, opName := range operationNames {
		if opName == n {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown operation %q", ErrUnsupportedOperation, name)
}

// paramKind describes how an operation's parameter becomes cmd2.
type paramKind uint8

const (
	paramNone        paramKind = iota // cmd2 is fixed
	paramColor                        // cmd2 = ConvertColor(rgb)
	paramBrightness                   // cmd2 = ConvertBrightness(fraction)
	paramRaw                          // cmd2 = parameter as given
)

// opcode is one entry of a variant's command table.
type opcode struct {
	cmd1  byte
	cmd2  byte // used when param == paramNone
	param paramKind
}

// variantSpec is the immutable definition of a device variant.
type variantSpec struct {
	name        string
	ledType     string
	remoteStyle byte
	ops         map[Operation]opcode
}

// variants holds the v6 opcode tables, indexed by Variant.
var variants = map[Variant]variantSpec{
	VariantBridgeLight: {
		name:        "BridgeLight",
		ledType:     "bridge-led",
		remoteStyle: 0x00,
		ops: map[Operation]opcode{
			OpOn:         {cmd1: 0x03, cmd2: 0x03},
			OpOff:        {cmd1: 0x03, cmd2: 0x04},
			OpWhite:      {cmd1: 0x03, cmd2: 0x05},
			OpColor:      {cmd1: 0x01, param: paramColor},
			OpBrightness: {cmd1: 0x02, param: paramBrightness},
		},
	},
	VariantWhite: {
		name:        "White",
		ledType:     "white",
		remoteStyle: 0x08,
		ops: map[Operation]opcode{
			OpOn:         {cmd1: 0x04, cmd2: 0x01},
			OpOff:        {cmd1: 0x04, cmd2: 0x02},
			OpNightLight: {cmd1: 0x04, cmd2: 0x05},
			OpBrightness: {cmd1: 0x03, param: paramBrightness},
			// Temperature is sent unconverted for wire compatibility with
			// existing deployments.
			OpTemperature: {cmd1: 0x05, param: paramRaw},
		},
	},
	VariantRGBW: {
		name:        "RGBW",
		ledType:     "rgbw",
		remoteStyle: 0x08,
		ops: map[Operation]opcode{
			OpOn:         {cmd1: 0x04, cmd2: 0x01},
			OpOff:        {cmd1: 0x04, cmd2: 0x02},
			OpWhite:      {cmd1: 0x05, cmd2: 0x64},
			OpNightLight: {cmd1: 0x04, cmd2: 0x05},
			OpColor:      {cmd1: 0x01, param: paramColor},
			OpBrightness: {cmd1: 0x03, param: paramBrightness},
		},
	},
	VariantRGBWW: {
		name:        "RGBWW",
		ledType:     "rgbww",
		remoteStyle: 0x07,
		ops: map[Operation]opcode{
			OpOn:         {cmd1: 0x03, cmd2: 0x01},
			OpOff:        {cmd1: 0x03, cmd2: 0x02},
			OpWhite:      {cmd1: 0x03, cmd2: 0x05},
			OpNightLight: {cmd1: 0x03, cmd2: 0x06},
			OpColor:      {cmd1: 0x01, param: paramColor},
			OpBrightness: {cmd1: 0x02, param: paramBrightness},
		},
	},
}

// Variants returns all known variants in declaration order.
func Variants() []Variant {
	return []Variant{VariantBridgeLight, VariantWhite, VariantRGBW, VariantRGBWW}
}

// ParseVariant maps an LED type name to a Variant.
//
// Accepted names: "bridge-led" (or "bridge_led", "bridge"), "white", "rgbw", "rgbww".
func ParseVariant(ledType string) (Variant, error) {
	n := strings.ToLower(strings.TrimSpace(ledType))
	switch n {
	case "bridge_led", "bridge", "bridgelight":
		return VariantBridgeLight, nil
	}
	for v, spec := range variants {
		if spec.ledType == n {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, ledType)
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	_, ok := variants[v]
	return ok
}

// String returns the variant name (e.g. "RGBWW").
func (v Variant) String() string {
	if spec, ok := variants[v]; ok {
		return spec.name
	}
	return fmt.Sprintf("variant(%d)", uint8(v))
}

// LEDType returns the configuration name of the variant (e.g. "rgbww").
func (v Variant) LEDType() string {
	return variants[v].ledType
}

// RemoteStyle returns the byte that identifies the device class inside a frame.
func (v Variant) RemoteStyle() byte {
	return variants[v].remoteStyle
}

// Supports reports whether the variant defines op.
func (v Variant) Supports(op Operation) bool {
	_, ok := variants[v].ops[op]
	return ok
}

// Operations returns the operations the variant supports, in a stable order.
func (v Variant) Operations() []Operation {
	spec := variants[v]
	ops := make([]Operation, 0, len(spec.ops))
	for _, op := range allOperations {
		if _, ok := spec.ops[op]; ok {
			ops = append(ops, op)
		}
	}
	return ops
}

// BrightnessSteps returns the number of distinct brightness levels (0-100).
func (v Variant) BrightnessSteps() int {
	return MaxBrightness + 1
}

// HueSteps returns the number of distinct hue values.
func (v Variant) HueSteps() int {
	return MaxColor + 1
}

// TemperatureSteps returns the number of distinct colour temperature levels.
func (v Variant) TemperatureSteps() int {
	return MaxTemperature + 1
}

// lookup returns the opcode for op or ErrUnsupportedOperation.
func (v Variant) lookup(op Operation) (opcode, error) {
	spec, ok := variants[v]
	if !ok {
		return opcode{}, fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}
	oc, ok := spec.ops[op]
	if !ok {
		return opcode{}, fmt.Errorf("%w: %s on %s", ErrUnsupportedOperation, op, spec.name)
	}
	return oc, nil
}
