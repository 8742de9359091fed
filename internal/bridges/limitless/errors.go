package limitless

import "errors"

// Domain errors for the LimitlessLED bridge package.
var (
	// ErrUnsupportedOperation is returned when an operation is not defined
	// for the selected device variant (e.g. temperature on the bridge light).
	ErrUnsupportedOperation = errors.New("limitless: operation not supported by device variant")

	// ErrInvalidInput is returned when a parameter is outside its contracted
	// range (fraction outside 0.0-1.0, RGB component outside 0-255).
	ErrInvalidInput = errors.New("limitless: invalid input")

	// ErrInvalidByteValue is returned when a frame field would not fit in a
	// single byte. Correct conversions never produce this.
	ErrInvalidByteValue = errors.New("limitless: value does not fit in a byte")

	// ErrInvalidFrame is returned when raw bytes do not form a v6 command frame.
	ErrInvalidFrame = errors.New("limitless: invalid frame")

	// ErrChecksumMismatch is returned when a parsed frame carries a wrong checksum.
	ErrChecksumMismatch = errors.New("limitless: checksum mismatch")

	// ErrUnknownVariant is returned when an LED type name has no command set.
	ErrUnknownVariant = errors.New("limitless: unknown led type")

	// ErrUnsupportedVersion is returned when a bridge version has no command set.
	ErrUnsupportedVersion = errors.New("limitless: unsupported bridge version")

	// ErrGroupNotConfigured is returned when a command targets an unknown group.
	ErrGroupNotConfigured = errors.New("limitless: group not configured")

	// ErrSendFailed is returned when the transport could not send a frame.
	ErrSendFailed = errors.New("limitless: frame send failed")
)
