package limitless

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Frame layout constants for wifi bridge protocol v6.
const (
	// FrameLength is the size of every v6 command frame:
	// 10-byte preamble + 9-byte command + 2-byte zone selector + 1-byte checksum.
	FrameLength = 22

	// commandOffset is where the checksummed region starts (the 0x31 marker).
	commandOffset = 10

	// checksumOffset is the position of the trailing checksum byte.
	checksumOffset = 21

	// cmd2Offset is the first of the four repeated cmd2 bytes.
	cmd2Offset = 15

	// cmd2Repeat is how many times cmd2 is repeated in the command body.
	cmd2Repeat = 4

	// zoneOffset is the zone byte of the zone selector.
	zoneOffset = 19

	// commandMarker opens the command body of every v6 light command.
	commandMarker byte = 0x31

	// PasswordByte1 and PasswordByte2 are fixed to zero in this protocol revision.
	PasswordByte1 byte = 0x00
	PasswordByte2 byte = 0x00
)

// Session is a snapshot of the transport session values that appear in a frame.
//
// The transport owns and mutates these across the session lifetime (the
// sequence byte advances per datagram). The frame builder only reads a snapshot.
type Session struct {
	// SessionByte1 and SessionByte2 are assigned by the bridge during the
	// session handshake.
	SessionByte1 byte `json:"session_byte1"`
	SessionByte2 byte `json:"session_byte2"`

	// Sequence is the per-datagram sequence number.
	Sequence byte `json:"sequence"`
}

// Session returns the snapshot itself, so a Session value is a static SessionSource.
func (s Session) Session() Session {
	return s
}

// SessionSource supplies the current transport session at frame-build time.
//
// Implementations that mutate the session concurrently (e.g. a UDP client
// advancing the sequence byte) must return a consistent snapshot.
type SessionSource interface {
	Session() Session
}

// FrameParams holds every input of the shared v6 frame template.
//
// Integer fields are range-checked by BuildFrame; session and password
// fields are bytes by construction.
type FrameParams struct {
	RemoteStyle   int
	Cmd1          int
	Cmd2          int
	PasswordByte1 byte
	PasswordByte2 byte
	Session       Session
	Zone          int
}

// Frame is a complete, checksummed v6 command frame plus the zone it targets.
//
// Frames are immutable values; Bytes returns a copy of the wire bytes.
type Frame struct {
	raw  [FrameLength]byte
	zone int
}

// FrameCommand is the decoded view of a frame, used for logging and diagnostics.
type FrameCommand struct {
	Session       Session `json:"session"`
	PasswordByte1 byte    `json:"password_byte1"`
	PasswordByte2 byte    `json:"password_byte2"`
	RemoteStyle   byte    `json:"remote_style"`
	Cmd1          byte    `json:"cmd1"`
	Cmd2          byte    `json:"cmd2"`
	Zone          int     `json:"zone"`
	Checksum      byte    `json:"checksum"`
}

// BuildFrame assembles the 22-byte v6 frame.
//
// Layout (0-indexed):
//
//	[0]=0x80 [1..3]=0x00 [4]=0x11 [5]=session1 [6]=session2 [7]=0x00
//	[8]=sequence [9]=0x00 [10]=0x31 [11]=password1 [12]=password2
//	[13]=remote style [14]=cmd1 [15..18]=cmd2 x4 [19]=zone [20]=0x00
//	[21]=checksum
//
// The checksum is the low byte of the sum of bytes 10-20 and is computed
// fresh on every call.
//
// Returns:
//   - Frame: The assembled frame
//   - error: ErrInvalidByteValue if an integer field is outside 0-255
func BuildFrame(p FrameParams) (Frame, error) {
	remoteStyle, err := toByte("remote style", p.RemoteStyle)
	if err != nil {
		return Frame{}, err
	}
	cmd1, err := toByte("cmd1", p.Cmd1)
	if err != nil {
		return Frame{}, err
	}
	cmd2, err := toByte("cmd2", p.Cmd2)
	if err != nil {
		return Frame{}, err
	}
	zone, err := toByte("zone", p.Zone)
	if err != nil {
		return Frame{}, err
	}

	s := p.Session
	f := Frame{
		raw: [FrameLength]byte{
			// Preamble
			0x80, 0x00, 0x00, 0x00, 0x11, s.SessionByte1, s.SessionByte2, 0x00, s.Sequence, 0x00,
			// Command
			commandMarker, p.PasswordByte1, p.PasswordByte2, remoteStyle, cmd1, cmd2, cmd2, cmd2, cmd2,
			// Zone selector
			zone, 0x00,
			// Checksum (filled below)
			0x00,
		},
		zone: p.Zone,
	}
	f.raw[checksumOffset] = Checksum(f.raw[commandOffset:checksumOffset])

	return f, nil
}

// Checksum returns the additive checksum of data, truncated to 8 bits.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// toByte range-checks an integer frame field.
func toByte(field string, v int) (byte, error) {
	if v < 0 || v > 0xFF {
		return 0, fmt.Errorf("%w: %s=%d (valid: 0-255)", ErrInvalidByteValue, field, v)
	}
	return byte(v), nil
}

// ParseFrame validates raw bytes as a v6 command frame.
//
// It checks the length, the fixed preamble and zone-selector bytes, the
// command marker, that cmd2 is repeated four times, and the checksum.
//
// Returns:
//   - Frame: The parsed frame
//   - error: ErrInvalidFrame or ErrChecksumMismatch
func ParseFrame(data []byte) (Frame, error) {
	if len(data) != FrameLength {
		return Frame{}, fmt.Errorf("%w: length %d, want %d", ErrInvalidFrame, len(data), FrameLength)
	}

	fixed := []struct {
		pos  int
		want byte
	}{
		{0, 0x80}, {1, 0x00}, {2, 0x00}, {3, 0x00}, {4, 0x11},
		{7, 0x00}, {9, 0x00}, {commandOffset, commandMarker}, {zoneOffset + 1, 0x00},
	}
	for _, fb := range fixed {
		if data[fb.pos] != fb.want {
			return Frame{}, fmt.Errorf("%w: byte %d is 0x%02X, want 0x%02X",
				ErrInvalidFrame, fb.pos, data[fb.pos], fb.want)
		}
	}

	cmd2 := data[cmd2Offset]
	for i := 1; i < cmd2Repeat; i++ {
		if data[cmd2Offset+i] != cmd2 {
			return Frame{}, fmt.Errorf("%w: cmd2 not repeated (byte %d is 0x%02X, want 0x%02X)",
				ErrInvalidFrame, cmd2Offset+i, data[cmd2Offset+i], cmd2)
		}
	}

	want := Checksum(data[commandOffset:checksumOffset])
	if data[checksumOffset] != want {
		return Frame{}, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrChecksumMismatch, data[checksumOffset], want)
	}

	var f Frame
	copy(f.raw[:], data)
	f.zone = int(data[zoneOffset])
	return f, nil
}

// ParseFrameHex parses a hex-encoded frame. Spaces and colons are ignored.
func ParseFrameHex(s string) (Frame, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "\n", "").Replace(s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	return ParseFrame(data)
}

// Bytes returns a copy of the wire bytes.
func (f Frame) Bytes() []byte {
	out := make([]byte, FrameLength)
	copy(out, f.raw[:])
	return out
}

// Zone returns the zone (group) the frame targets.
func (f Frame) Zone() int {
	return f.zone
}

// Checksum returns the frame's checksum byte.
func (f Frame) Checksum() byte {
	return f.raw[checksumOffset]
}

// Command decodes the variable fields of the frame.
func (f Frame) Command() FrameCommand {
	return FrameCommand{
		Session: Session{
			SessionByte1: f.raw[5],
			SessionByte2: f.raw[6],
			Sequence:     f.raw[8],
		},
		PasswordByte1: f.raw[11],
		PasswordByte2: f.raw[12],
		RemoteStyle:   f.raw[13],
		Cmd1:          f.raw[14],
		Cmd2:          f.raw[cmd2Offset],
		Zone:          f.zone,
		Checksum:      f.raw[checksumOffset],
	}
}

// IsZero reports whether f is the zero Frame (never a built frame).
func (f Frame) IsZero() bool {
	return f.raw[0] == 0
}

// String returns the frame as space-separated upper-case hex.
func (f Frame) String() string {
	return fmt.Sprintf("% X", f.raw[:])
}

// MarshalText encodes the frame as lower-case hex without separators.
func (f Frame) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(f.raw[:])), nil
}
