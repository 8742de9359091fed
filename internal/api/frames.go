package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nerrad567/gray-logic-ledbridge/internal/bridges/limitless"
)

// PreviewRequest describes a frame to build without sending it.
type PreviewRequest struct {
	BridgeVersion int               `json:"bridge_version,omitempty"`
	LEDType       string            `json:"led_type"`
	Zone          int               `json:"zone"`
	Command       string            `json:"command"`
	Parameters    map[string]any    `json:"parameters,omitempty"`
	Session       limitless.Session `json:"session"`
}

// DecodeRequest carries a frame in hex, with or without separators.
type DecodeRequest struct {
	Frame string `json:"frame"`
}

// FrameResponse is the API view of a frame.
type FrameResponse struct {
	Frame   limitless.Frame        `json:"frame"`
	Bytes   string                 `json:"bytes"`
	Length  int                    `json:"length"`
	Fields  limitless.FrameCommand `json:"fields"`
	Variant string                 `json:"variant,omitempty"`
	Command string                 `json:"command,omitempty"`
}

func newFrameResponse(f limitless.Frame) FrameResponse {
	return FrameResponse{
		Frame:  f,
		Bytes:  f.String(),
		Length: limitless.FrameLength,
		Fields: f.Command(),
	}
}

// handlePreviewFrame builds the frame a command would produce.
//
// POST /api/v1/frames/preview
// Body: {"led_type": "rgbww", "zone": 1, "command": "on", "session": {...}}
func (s *Server) handlePreviewFrame(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.LEDType == "" || req.Command == "" {
		writeBadRequest(w, "led_type and command fields are required")
		return
	}
	if req.BridgeVersion == 0 {
		req.BridgeVersion = limitless.BridgeVersion
	}

	cs, err := limitless.NewCommandSetFor(req.BridgeVersion, req.LEDType, req.Zone, req.Session)
	if err != nil {
		writeLimitlessError(w, err)
		return
	}
	op, err := limitless.ParseOperation(req.Command)
	if err != nil {
		writeLimitlessError(w, err)
		return
	}
	p, err := limitless.ParseParam(op, req.Parameters)
	if err != nil {
		writeLimitlessError(w, err)
		return
	}
	frame, err := cs.Build(op, p)
	if err != nil {
		writeLimitlessError(w, err)
		return
	}

	resp := newFrameResponse(frame)
	resp.Variant = cs.Variant().String()
	resp.Command = op.String()
	writeJSON(w, http.StatusOK, resp)
}

// handleDecodeFrame parses a captured frame and verifies its checksum.
//
// POST /api/v1/frames/decode
// Body: {"frame": "80 00 00 00 11 ..."}
func (s *Server) handleDecodeFrame(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Frame) == "" {
		writeBadRequest(w, "frame field is required")
		return
	}

	frame, err := limitless.ParseFrameHex(req.Frame)
	if err != nil {
		writeLimitlessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newFrameResponse(frame))
}
