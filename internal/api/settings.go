package api

import (
	"encoding/json"
	"net/http"

	"github.com/ashdown-labs/sentinel-core/internal/audit"
	"github.com/ashdown-labs/sentinel-core/internal/nvram"
	"github.com/ashdown-labs/sentinel-core/internal/settings"
)

// modeRequest is the request body for POST /config/mode.
type modeRequest struct {
	Token string `json:"token"`
	Mode  string `json:"mode"`
}

// slotsRequest is the request body for POST /config/slots.
type slotsRequest struct {
	Token  string      `json:"token"`
	Phones []slotEntry `json:"phones"`
}

// slotEntry mirrors the portal's phone/message pair.
type slotEntry struct {
	Phone   string `json:"phone"`
	Message string `json:"msg"`
}

// configResponse is the response body for GET /config.
type configResponse struct {
	Mode     string      `json:"mode"`
	Enrolled bool        `json:"enrolled"`
	Phones   []slotEntry `json:"phones"`
}

// handleSetMode persists the alarm mode flag.
func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !s.validateBodyToken(w, r, req.Token) {
		return
	}

	var mode nvram.Mode
	switch req.Mode {
	case "full":
		mode = nvram.ModeFull
	case "beep":
		mode = nvram.ModeBeep
	default:
		writeError(w, http.StatusBadRequest, ErrCodeValidation, `mode must be "full" or "beep"`)
		return
	}

	if err := s.settings.SetMode(mode); err != nil {
		s.logger.Error("mode change failed", "error", err)
		writeInternalError(w, "failed to store mode")
		return
	}

	s.recordAudit(r.Context(), audit.KindModeSet, "", true, req.Mode)
	if s.notifier != nil {
		s.notifier.PublishMode(mode)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleSaveSlots persists the notification slots.
func (s *Server) handleSaveSlots(w http.ResponseWriter, r *http.Request) {
	var req slotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !s.validateBodyToken(w, r, req.Token) {
		return
	}

	entries := make([]settings.Entry, 0, len(req.Phones))
	for _, p := range req.Phones {
		entries = append(entries, settings.Entry{Phone: p.Phone, Message: p.Message})
	}

	if err := s.settings.SaveSlots(entries); err != nil {
		s.logger.Error("slot save failed", "error", err)
		writeInternalError(w, "failed to store slots")
		return
	}

	s.recordAudit(r.Context(), audit.KindSlotsSet, "", true, "")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleGetConfig returns the current mode and notification slots.
func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	slots := s.settings.Slots()
	phones := make([]slotEntry, 0, len(slots))
	for _, slot := range slots {
		phones = append(phones, slotEntry{Phone: slot.Phone, Message: slot.Message})
	}

	writeJSON(w, http.StatusOK, configResponse{
		Mode:     s.settings.Mode().String(),
		Enrolled: s.vault.Enrolled(),
		Phones:   phones,
	})
}

// handleReset restores factory defaults and revokes the session.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !s.validateBodyToken(w, r, req.Token) {
		return
	}

	if err := s.settings.ResetAll(); err != nil {
		s.logger.Error("factory reset failed", "error", err)
		writeInternalError(w, "failed to reset device")
		return
	}

	s.recordAudit(r.Context(), audit.KindReset, "", true, "")
	s.clearSessionCookie(w)
	s.logger.Info("factory reset complete")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// validateBodyToken checks the body token (cookie fallback) and writes
// a 401 on failure.
func (s *Server) validateBodyToken(w http.ResponseWriter, r *http.Request, token string) bool {
	if token == "" {
		token = tokenFromRequest(r)
	}
	if token == "" || !s.session.Validate(token) {
		writeUnauthorized(w, "valid session required")
		return false
	}
	return true
}
