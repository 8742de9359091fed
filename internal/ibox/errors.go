package ibox

import "errors"

// Domain errors for the wifi bridge transport.
var (
	// ErrNotConnected is returned when a frame is sent without a live session.
	ErrNotConnected = errors.New("ibox: not connected to wifi bridge")

	// ErrConnectionFailed is returned when the UDP socket cannot be opened.
	ErrConnectionFailed = errors.New("ibox: connection to wifi bridge failed")

	// ErrHandshakeFailed is returned when the bridge does not answer the
	// session request with usable session bytes.
	ErrHandshakeFailed = errors.New("ibox: session handshake failed")

	// ErrInvalidFrame is returned when Send is given a frame that was never built.
	ErrInvalidFrame = errors.New("ibox: not a command frame")

	// ErrInvalidResponse is returned when a datagram from the bridge is malformed.
	ErrInvalidResponse = errors.New("ibox: invalid response")
)
