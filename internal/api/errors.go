package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-ledbridge/internal/bridges/limitless"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeInternal        = "internal_error"
	ErrCodeValidation      = "validation_error"
	ErrCodeMethodNotAllow  = "method_not_allowed"
	ErrCodeUnsupported     = "unsupported_operation"
	ErrCodeBridgeFailure   = "bridge_unreachable"
	ErrCodeInvalidFrame    = "invalid_frame"
	ErrCodeUnknownLEDType  = "unknown_led_type"
	ErrCodeVersionMismatch = "unsupported_version"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeLimitlessError maps an encoder or bridge error to a response.
func writeLimitlessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, limitless.ErrGroupNotConfigured):
		writeNotFound(w, err.Error())
	case errors.Is(err, limitless.ErrUnsupportedOperation):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeUnsupported, err.Error())
	case errors.Is(err, limitless.ErrInvalidInput), errors.Is(err, limitless.ErrInvalidByteValue):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, limitless.ErrUnknownVariant):
		writeError(w, http.StatusBadRequest, ErrCodeUnknownLEDType, err.Error())
	case errors.Is(err, limitless.ErrUnsupportedVersion):
		writeError(w, http.StatusBadRequest, ErrCodeVersionMismatch, err.Error())
	case errors.Is(err, limitless.ErrInvalidFrame), errors.Is(err, limitless.ErrChecksumMismatch):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidFrame, err.Error())
	case errors.Is(err, limitless.ErrSendFailed):
		writeError(w, http.StatusBadGateway, ErrCodeBridgeFailure, err.Error())
	default:
		writeInternalError(w, "internal error")
	}
}
