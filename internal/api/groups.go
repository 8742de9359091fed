package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-ledbridge/internal/bridges/limitless"
)

// GroupResponse is the API view of a configured light group.
type GroupResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Zone        int      `json:"zone"`
	LEDType     string   `json:"led_type"`
	Variant     string   `json:"variant"`
	RemoteStyle byte     `json:"remote_style"`
	Operations  []string `json:"operations"`
	Brightness  int      `json:"brightness_steps"`
	Hue         int      `json:"hue_steps,omitempty"`
	Temperature int      `json:"temperature_steps,omitempty"`
}

func newGroupResponse(g limitless.Group) GroupResponse {
	ops := g.Variant.Operations()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}
	resp := GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Zone:        g.Zone,
		LEDType:     g.Variant.LEDType(),
		Variant:     g.Variant.String(),
		RemoteStyle: g.Variant.RemoteStyle(),
		Operations:  names,
		Brightness:  g.Variant.BrightnessSteps(),
	}
	if g.Variant.Supports(limitless.OpColor) {
		resp.Hue = g.Variant.HueSteps()
	}
	if g.Variant.Supports(limitless.OpTemperature) {
		resp.Temperature = g.Variant.TemperatureSteps()
	}
	return resp
}

// CommandRequest is the body of a group command.
type CommandRequest struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// CommandResponse reports a frame that was sent.
type CommandResponse struct {
	CommandID string          `json:"command_id"`
	Group     string          `json:"group"`
	Command   string          `json:"command"`
	Zone      int             `json:"zone"`
	Frame     limitless.Frame `json:"frame"`
	Sequence  byte            `json:"sequence"`
	Checksum  byte            `json:"checksum"`
}

// handleListGroups returns all configured groups.
//
// GET /api/v1/groups
// Response: {"groups": [...], "count": N}
func (s *Server) handleListGroups(w http.ResponseWriter, _ *http.Request) {
	groups := s.bridge.Groups()
	out := make([]GroupResponse, len(groups))
	for i, g := range groups {
		out[i] = newGroupResponse(g)
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": out, "count": len(out)})
}

// handleGetGroup returns a single group.
//
// GET /api/v1/groups/{id}
func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	g, ok := s.bridge.Group(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, newGroupResponse(g))
}

// handleGroupCommand builds a frame for the group and sends it.
//
// POST /api/v1/groups/{id}/commands
// Body: {"command": "brightness", "parameters": {"level": 50}}
// Response: 200 with the frame that was sent
func (s *Server) handleGroupCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.bridge.Group(id); !ok {
		writeNotFound(w, "group not found")
		return
	}

	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Command == "" {
		writeBadRequest(w, "command field is required")
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

	frame, err := s.bridge.Execute(r.Context(), id, op, p)
	if err != nil {
		s.logger.Warn("group command failed",
			"group", id,
			"command", op.String(),
			"error", err,
			"request_id", requestID(r),
		)
		writeLimitlessError(w, err)
		return
	}

	cmd := frame.Command()
	writeJSON(w, http.StatusOK, CommandResponse{
		CommandID: uuid.NewString(),
		Group:     id,
		Command:   op.String(),
		Zone:      frame.Zone(),
		Frame:     frame,
		Sequence:  cmd.Session.Sequence,
		Checksum:  cmd.Checksum,
	})
}
