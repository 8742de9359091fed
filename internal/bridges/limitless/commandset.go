package limitless

import (
	"fmt"
	"math"
)

// BridgeVersion is the wifi bridge protocol revision implemented by this package.
const BridgeVersion = 6

// Param carries the operation-specific parameter of a command.
//
// Color is used by OpColor. Value is a fraction (0.0-1.0) for OpBrightness;
// for OpTemperature on white lights it is the raw protocol byte.
type Param struct {
	Color RGB
	Value float64
}

// CommandSet builds frames for one device variant in one zone.
//
// It holds no mutable state: each build reads one snapshot from the
// SessionSource, so a CommandSet is safe for concurrent use as long as
// the source returns consistent snapshots.
type CommandSet struct {
	variant Variant
	zone    int
	session SessionSource
}

// NewCommandSet creates a command set for a variant and zone.
//
// Parameters:
//   - variant: Device variant to address
//   - zone: Zone (group) number; 0 addresses all zones by convention
//   - src: Source of the live transport session values
//
// Returns:
//   - *CommandSet: Ready to build frames
//   - error: If the variant is unknown, the zone does not fit in a byte, or src is nil
func NewCommandSet(variant Variant, zone int, src SessionSource) (*CommandSet, error) {
	if !variant.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	if _, err := toByte("zone", zone); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("session source is required")
	}
	return &CommandSet{variant: variant, zone: zone, session: src}, nil
}

// NewCommandSetFor selects the command set for a bridge version and LED type name.
//
// Only bridge version 6 is implemented; other versions return ErrUnsupportedVersion.
func NewCommandSetFor(bridgeVersion int, ledType string, zone int, src SessionSource) (*CommandSet, error) {
	if bridgeVersion != BridgeVersion {
		return nil, fmt.Errorf("%w: %d (supported: %d)", ErrUnsupportedVersion, bridgeVersion, BridgeVersion)
	}
	variant, err := ParseVariant(ledType)
	if err != nil {
		return nil, err
	}
	return NewCommandSet(variant, zone, src)
}

// Variant returns the device variant.
func (c *CommandSet) Variant() Variant {
	return c.variant
}

// Zone returns the zone the command set addresses.
func (c *CommandSet) Zone() int {
	return c.zone
}

// On builds the command for turning the lights on.
func (c *CommandSet) On() (Frame, error) {
	return c.Build(OpOn, Param{})
}

// Off builds the command for turning the lights off.
func (c *CommandSet) Off() (Frame, error) {
	return c.Build(OpOff, Param{})
}

// White builds the command for switching to white mode.
func (c *CommandSet) White() (Frame, error) {
	return c.Build(OpWhite, Param{})
}

// NightLight builds the command for switching to night light mode.
func (c *CommandSet) NightLight() (Frame, error) {
	return c.Build(OpNightLight, Param{})
}

// Color builds the command for setting the hue.
func (c *CommandSet) Color(rgb RGB) (Frame, error) {
	return c.Build(OpColor, Param{Color: rgb})
}

// Brightness builds the command for setting brightness (0.0-1.0).
func (c *CommandSet) Brightness(brightness float64) (Frame, error) {
	return c.Build(OpBrightness, Param{Value: brightness})
}

// Temperature builds the command for setting colour temperature.
// White lights take the raw protocol byte.
func (c *CommandSet) Temperature(temperature float64) (Frame, error) {
	return c.Build(OpTemperature, Param{Value: temperature})
}

// Build maps op to its command bytes and assembles the frame.
//
// Returns:
//   - Frame: The complete frame for the command set's zone
//   - error: ErrUnsupportedOperation, ErrInvalidInput or ErrInvalidByteValue;
//     no frame is returned on error
func (c *CommandSet) Build(op Operation, p Param) (Frame, error) {
	oc, err := c.variant.lookup(op)
	if err != nil {
		return Frame{}, err
	}

	cmd2, err := oc.resolve(p)
	if err != nil {
		return Frame{}, fmt.Errorf("%s: %w", op, err)
	}

	return BuildFrame(FrameParams{
		RemoteStyle:   int(c.variant.RemoteStyle()),
		Cmd1:          int(oc.cmd1),
		Cmd2:          cmd2,
		PasswordByte1: PasswordByte1,
		PasswordByte2: PasswordByte2,
		Session:       c.session.Session(),
		Zone:          c.zone,
	})
}

// resolve computes cmd2 for the opcode.
func (oc opcode) resolve(p Param) (int, error) {
	switch oc.param {
	case paramColor:
		return ConvertColor(p.Color), nil
	case paramBrightness:
		return ConvertBrightness(p.Value)
	case paramRaw:
		v := p.Value
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: raw value %v must be an integer", ErrInvalidInput, v)
		}
		if v < 0 || v > 0xFF {
			return 0, fmt.Errorf("%w: cmd2=%v (valid: 0-255)", ErrInvalidByteValue, v)
		}
		return int(v), nil
	default:
		return int(oc.cmd2), nil
	}
}
