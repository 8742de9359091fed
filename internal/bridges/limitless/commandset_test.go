package limitless

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestCommandSet(t *testing.T, v Variant, zone int) *CommandSet {
	t.Helper()
	cs, err := NewCommandSet(v, zone, testSession)
	if err != nil {
		t.Fatalf("NewCommandSet(%s, %d) error = %v", v, zone, err)
	}
	return cs
}

func TestCommandSetEndToEnd(t *testing.T) {
	cs := newTestCommandSet(t, VariantBridgeLight, 3)

	f, err := cs.On()
	if err != nil {
		t.Fatalf("On() error = %v", err)
	}
	if diff := cmp.Diff(frameOnZone3, f.Bytes()); diff != "" {
		t.Errorf("On() bytes mismatch (-want +got):\n%s", diff)
	}
	if f.Zone() != 3 {
		t.Errorf("Zone() = %d, want 3", f.Zone())
	}
}

func TestCommandSetOpcodes(t *testing.T) {
	tests := []struct {
		v      Variant
		op     Operation
		p      Param
		remote byte
		cmd1   byte
		cmd2   byte
	}{
		{VariantBridgeLight, OpOn, Param{}, 0x00, 0x03, 0x03},
		{VariantBridgeLight, OpOff, Param{}, 0x00, 0x03, 0x04},
		{VariantBridgeLight, OpWhite, Param{}, 0x00, 0x03, 0x05},
		{VariantBridgeLight, OpColor, Param{Color: RGB{G: 255}}, 0x00, 0x01, 85},
		{VariantBridgeLight, OpBrightness, Param{Value: 0.5}, 0x00, 0x02, 50},

		{VariantWhite, OpOn, Param{}, 0x08, 0x04, 0x01},
		{VariantWhite, OpOff, Param{}, 0x08, 0x04, 0x02},
		{VariantWhite, OpNightLight, Param{}, 0x08, 0x04, 0x05},
		{VariantWhite, OpBrightness, Param{Value: 1.0}, 0x08, 0x03, 100},
		{VariantWhite, OpTemperature, Param{Value: 32}, 0x08, 0x05, 32},

		{VariantRGBW, OpOn, Param{}, 0x08, 0x04, 0x01},
		{VariantRGBW, OpOff, Param{}, 0x08, 0x04, 0x02},
		{VariantRGBW, OpWhite, Param{}, 0x08, 0x05, 0x64},
		{VariantRGBW, OpNightLight, Param{}, 0x08, 0x04, 0x05},
		{VariantRGBW, OpColor, Param{Color: RGB{B: 255}}, 0x08, 0x01, 170},
		{VariantRGBW, OpBrightness, Param{Value: 0.001}, 0x08, 0x03, 1},

		{VariantRGBWW, OpOn, Param{}, 0x07, 0x03, 0x01},
		{VariantRGBWW, OpOff, Param{}, 0x07, 0x03, 0x02},
		{VariantRGBWW, OpWhite, Param{}, 0x07, 0x03, 0x05},
		{VariantRGBWW, OpNightLight, Param{}, 0x07, 0x03, 0x06},
		{VariantRGBWW, OpColor, Param{Color: RGB{R: 255}}, 0x07, 0x01, 0},
		{VariantRGBWW, OpBrightness, Param{Value: 0.0}, 0x07, 0x02, 0},
	}

	for _, tt := range tests {
		t.Run(tt.v.String()+"/"+tt.op.String(), func(t *testing.T) {
			cs := newTestCommandSet(t, tt.v, 2)

			f, err := cs.Build(tt.op, tt.p)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}

			data := f.Bytes()
			if len(data) != FrameLength {
				t.Fatalf("len = %d, want %d", len(data), FrameLength)
			}
			if data[13] != tt.remote || data[14] != tt.cmd1 {
				t.Errorf("remote/cmd1 = 0x%02X/0x%02X, want 0x%02X/0x%02X", data[13], data[14], tt.remote, tt.cmd1)
			}
			for i := 15; i <= 18; i++ {
				if data[i] != tt.cmd2 {
					t.Errorf("byte %d = 0x%02X, want cmd2 0x%02X", i, data[i], tt.cmd2)
				}
			}
			if data[19] != 2 || data[20] != 0 {
				t.Errorf("zone selector = %02X %02X, want 02 00", data[19], data[20])
			}
			if got, want := data[21], Checksum(data[10:21]); got != want {
				t.Errorf("checksum = 0x%02X, want 0x%02X", got, want)
			}

			// The frame must survive validation.
			if _, err := ParseFrame(data); err != nil {
				t.Errorf("ParseFrame() error = %v", err)
			}
		})
	}
}

func TestCommandSetConvenienceMethods(t *testing.T) {
	cs := newTestCommandSet(t, VariantRGBWW, 1)

	builds := map[string]func() (Frame, error){
		"on":          cs.On,
		"off":         cs.Off,
		"white":       cs.White,
		"night_light": cs.NightLight,
		"color":       func() (Frame, error) { return cs.Color(RGB{R: 255}) },
		"brightness":  func() (Frame, error) { return cs.Brightness(0.5) },
	}
	for name, build := range builds {
		op, err := ParseOperation(name)
		if err != nil {
			t.Fatalf("ParseOperation(%q) error = %v", name, err)
		}
		p, err := ParseParam(op, map[string]any{"rgb": []any{255.0, 0.0, 0.0}, "fraction": 0.5})
		if err != nil {
			t.Fatalf("ParseParam(%s) error = %v", op, err)
		}

		got, err := build()
		if err != nil {
			t.Fatalf("%s() error = %v", name, err)
		}
		want, err := cs.Build(op, p)
		if err != nil {
			t.Fatalf("Build(%s) error = %v", op, err)
		}
		if diff := cmp.Diff(want.Bytes(), got.Bytes()); diff != "" {
			t.Errorf("%s() differs from Build (-want +got):\n%s", name, diff)
		}
	}
}

func TestCommandSetUnsupported(t *testing.T) {
	tests := []struct {
		v  Variant
		op Operation
	}{
		{VariantBridgeLight, OpNightLight},
		{VariantBridgeLight, OpTemperature},
		{VariantWhite, OpWhite},
		{VariantWhite, OpColor},
		{VariantRGBW, OpTemperature},
		{VariantRGBWW, OpTemperature},
	}

	for _, tt := range tests {
		t.Run(tt.v.String()+"/"+tt.op.String(), func(t *testing.T) {
			cs := newTestCommandSet(t, tt.v, 1)
			f, err := cs.Build(tt.op, Param{})
			if !errors.Is(err, ErrUnsupportedOperation) {
				t.Fatalf("Build() error = %v, want ErrUnsupportedOperation", err)
			}
			if !f.IsZero() {
				t.Error("Build() returned a frame on error")
			}
		})
	}
}

func TestCommandSetInvalidParams(t *testing.T) {
	white := newTestCommandSet(t, VariantWhite, 1)
	rgbw := newTestCommandSet(t, VariantRGBW, 1)

	tests := []struct {
		name    string
		cs      *CommandSet
		op      Operation
		p       Param
		wantErr error
	}{
		{"brightness above 1", rgbw, OpBrightness, Param{Value: 1.5}, ErrInvalidInput},
		{"brightness negative", rgbw, OpBrightness, Param{Value: -0.1}, ErrInvalidInput},
		{"brightness NaN", rgbw, OpBrightness, Param{Value: math.NaN()}, ErrInvalidInput},
		{"temperature fractional raw", white, OpTemperature, Param{Value: 0.5}, ErrInvalidInput},
		{"temperature NaN", white, OpTemperature, Param{Value: math.NaN()}, ErrInvalidInput},
		{"temperature too large", white, OpTemperature, Param{Value: 256}, ErrInvalidByteValue},
		{"temperature negative", white, OpTemperature, Param{Value: -1}, ErrInvalidByteValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.cs.Build(tt.op, tt.p)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
			}
			if !f.IsZero() {
				t.Error("Build() returned a frame on error")
			}
		})
	}
}

func TestCommandSetDeterministic(t *testing.T) {
	cs := newTestCommandSet(t, VariantRGBW, 4)

	a, err := cs.Color(RGB{R: 10, G: 200, B: 30})
	if err != nil {
		t.Fatalf("Color() error = %v", err)
	}
	b, err := cs.Color(RGB{R: 10, G: 200, B: 30})
	if err != nil {
		t.Fatalf("Color() error = %v", err)
	}
	if diff := cmp.Diff(a.Bytes(), b.Bytes()); diff != "" {
		t.Errorf("same inputs produced different frames (-a +b):\n%s", diff)
	}
}

// countingSource returns a new sequence number on every call.
type countingSource struct {
	mu  sync.Mutex
	seq byte
}

func (c *countingSource) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return Session{SessionByte1: 0xAA, SessionByte2: 0xBB, Sequence: c.seq}
}

func TestCommandSetReadsSessionPerBuild(t *testing.T) {
	src := &countingSource{}
	cs, err := NewCommandSet(VariantRGBWW, 1, src)
	if err != nil {
		t.Fatalf("NewCommandSet() error = %v", err)
	}

	first, _ := cs.On()  //nolint:errcheck // checked via Command below
	second, _ := cs.On() //nolint:errcheck // checked via Command below

	if first.Command().Session.Sequence != 1 || second.Command().Session.Sequence != 2 {
		t.Errorf("sequences = %d, %d; want 1, 2",
			first.Command().Session.Sequence, second.Command().Session.Sequence)
	}
	// Session bytes live outside the checksum domain.
	if first.Checksum() != second.Checksum() {
		t.Errorf("checksum changed with sequence: 0x%02X vs 0x%02X", first.Checksum(), second.Checksum())
	}
}

func TestCommandSetConcurrentBuilds(t *testing.T) {
	cs := newTestCommandSet(t, VariantRGBWW, 1)
	want, err := cs.Brightness(0.42)
	if err != nil {
		t.Fatalf("Brightness() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cs.Brightness(0.42)
			if err != nil {
				t.Errorf("Brightness() error = %v", err)
				return
			}
			if got.String() != want.String() {
				t.Errorf("concurrent build = %s, want %s", got, want)
			}
		}()
	}
	wg.Wait()
}

func TestNewCommandSet(t *testing.T) {
	if _, err := NewCommandSet(Variant(0), 1, testSession); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("unknown variant error = %v, want ErrUnknownVariant", err)
	}
	if _, err := NewCommandSet(VariantRGBW, 256, testSession); !errors.Is(err, ErrInvalidByteValue) {
		t.Errorf("zone 256 error = %v, want ErrInvalidByteValue", err)
	}
	if _, err := NewCommandSet(VariantRGBW, 1, nil); err == nil {
		t.Error("nil session source accepted")
	}

	cs := newTestCommandSet(t, VariantRGBW, 0)
	if cs.Variant() != VariantRGBW || cs.Zone() != 0 {
		t.Errorf("Variant/Zone = %s/%d", cs.Variant(), cs.Zone())
	}
}

func TestNewCommandSetFor(t *testing.T) {
	cs, err := NewCommandSetFor(6, "rgbww", 2, testSession)
	if err != nil {
		t.Fatalf("NewCommandSetFor() error = %v", err)
	}
	if cs.Variant() != VariantRGBWW {
		t.Errorf("Variant() = %s, want RGBWW", cs.Variant())
	}

	if _, err := NewCommandSetFor(5, "rgbww", 2, testSession); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("version 5 error = %v, want ErrUnsupportedVersion", err)
	}
	if _, err := NewCommandSetFor(6, "dimmer", 2, testSession); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("unknown led type error = %v, want ErrUnknownVariant", err)
	}
}
