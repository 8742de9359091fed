package ibox

import "fmt"

// DefaultPort is the UDP port of the v6 command service.
const DefaultPort = 5987

// Datagram type bytes (first byte of each datagram).
const (
	typeSessionRequest  byte = 0x20
	typeSessionResponse byte = 0x28
	typeKeepAlive       byte = 0xD0
	typeKeepAliveReply  byte = 0xD8
	typeCommand         byte = 0x80
	typeCommandAck      byte = 0x88
)

// sessionRequest asks the bridge for session bytes.
var sessionRequest = []byte{
	typeSessionRequest, 0x00, 0x00, 0x00, 0x16, 0x02, 0x62, 0x3A, 0xD5, 0xED, 0xA3, 0x01, 0xAE,
	0x08, 0x2D, 0x46, 0x61, 0x41, 0xA7, 0xF6, 0xDC, 0xAF, 0xD3, 0xE6, 0x00, 0x00, 0x1E,
}

// Session response layout.
const (
	sessionByte1Offset = 19
	sessionByte2Offset = 20
	minSessionResponse = sessionByte2Offset + 1
)

// keepAlivePreamble precedes the session bytes in a keep-alive datagram.
var keepAlivePreamble = []byte{typeKeepAlive, 0x00, 0x00, 0x00, 0x02}

// keepAlive returns the keep-alive datagram for a session.
func keepAlive(sb1, sb2 byte) []byte {
	msg := make([]byte, 0, len(keepAlivePreamble)+2)
	msg = append(msg, keepAlivePreamble...)
	return append(msg, sb1, sb2)
}

// checkCommand rejects datagrams that are not v6 command frames.
func checkCommand(data []byte) error {
	if len(data) == 0 || data[0] != typeCommand {
		return ErrInvalidFrame
	}
	return nil
}

// parseSessionResponse extracts the session bytes from a session response.
func parseSessionResponse(data []byte) (sb1, sb2 byte, err error) {
	if len(data) < minSessionResponse {
		return 0, 0, fmt.Errorf("%w: session response of %d bytes", ErrInvalidResponse, len(data))
	}
	if data[0] != typeSessionResponse {
		return 0, 0, fmt.Errorf("%w: type 0x%02X, want 0x%02X", ErrInvalidResponse, data[0], typeSessionResponse)
	}
	return data[sessionByte1Offset], data[sessionByte2Offset], nil
}
