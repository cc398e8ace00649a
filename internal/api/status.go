package api

import (
	"net/http"
	"strconv"

	"github.com/ashdown-labs/sentinel-core/internal/audit"
	"github.com/ashdown-labs/sentinel-core/internal/sensor"
)

// statusResponse is the response body for GET /status.
type statusResponse struct {
	DeviceID string         `json:"device_id"`
	Enrolled bool           `json:"enrolled"`
	Mode     string         `json:"mode"`
	Sensor   *sensor.Status `json:"sensor,omitempty"`
	MQTT     string         `json:"mqtt,omitempty"`
}

// handleStatus returns a point-in-time view of the device.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.currentStatus())
}

// currentStatus assembles the status payload shared by /status and the
// WebSocket stream.
func (s *Server) currentStatus() statusResponse {
	resp := statusResponse{
		DeviceID: s.deviceID,
		Enrolled: s.vault.Enrolled(),
		Mode:     s.settings.Mode().String(),
	}
	if s.sensor != nil {
		snap := s.sensor.Snapshot()
		resp.Sensor = &snap
	}
	if s.mqtt != nil {
		resp.MQTT = "disconnected"
		if s.mqtt.IsConnected() {
			resp.MQTT = "connected"
		}
	}
	return resp
}

// handleAudit returns recent audit events. 404 when the trail is not
// configured.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeNotFound(w, "audit trail not enabled")
		return
	}

	filter := audit.Filter{Kind: r.URL.Query().Get("kind")}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("audit query failed", "error", err)
		writeInternalError(w, "failed to query audit trail")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
