// Package ibox is the UDP transport to a LimitlessLED wifi bridge v6 ("iBox").
//
// The client opens a session with the bridge, keeps it alive, and sends
// the frames built by package limitless. It owns the session bytes and the
// sequence number that every frame carries, and exposes them through
// Session() so the encoder can read a consistent snapshot.
//
// # Protocol
//
//   - Session request: fixed 27-byte datagram to UDP port 5987
//   - Session response: starts with 0x28; bytes 19 and 20 are the session bytes
//   - Keep-alive: D0 00 00 00 02 sb1 sb2, answered with D8 ...
//   - Commands: 22-byte frames; the sequence byte advances after each send
//
// Command acknowledgements from the bridge are read and counted but never
// awaited, and frames are not retried.
package ibox
