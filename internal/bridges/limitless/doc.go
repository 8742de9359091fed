// Package limitless implements the LimitlessLED (MiLight) wifi bridge v6
// frame encoder and its MQTT bridge for Gray Logic.
//
// The encoder is a pure function of its inputs: given a device variant, a
// zone and a session snapshot supplied by the transport, it produces the
// exact 22-byte frame the bridge firmware expects. Network I/O lives in
// package ibox.
//
// # Architecture
//
//	┌─────────────────┐          ┌─────────────────┐          ┌──────────────┐
//	│   Gray Logic    │   MQTT   │   LED Bridge    │   UDP    │  wifi bridge │
//	│      Core       │◄────────►│   (this pkg)    │─────────►│  (iBox v6)   │
//	└─────────────────┘          └─────────────────┘          └──────────────┘
//
// # Frames
//
// Every command shares one template: a 10-byte preamble carrying the
// session bytes and sequence number, a 9-byte command body, a 2-byte zone
// selector and an additive checksum over the body and zone selector.
//
//	cs, err := limitless.NewCommandSetFor(6, "rgbww", 1, session)
//	if err != nil {
//	    return err
//	}
//	frame, err := cs.Brightness(0.5)
//
// # Device Variants
//
//   - bridge-led: the light built into the bridge (remote style 0x00)
//   - white: dual white bulbs (0x08)
//   - rgbw: RGB plus one white channel (0x08)
//   - rgbww: RGB plus warm/cool white (0x07)
//
// Operations a variant does not define fail with ErrUnsupportedOperation.
//
// # Thread Safety
//
// CommandSet and Bridge are safe for concurrent use. The bridge serialises
// build and send so every frame carries a distinct sequence number.
package limitless
