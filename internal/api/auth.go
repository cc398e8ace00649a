package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ashdown-labs/sentinel-core/internal/audit"
	"github.com/ashdown-labs/sentinel-core/internal/auth"
)

// signupRequest is the request body for POST /auth/signup.
type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// tokenRequest carries the session token in the body for POST
// endpoints. The session cookie is the fallback.
type tokenRequest struct {
	Token string `json:"token"`
}

// handleSignup performs the one-shot credential enrollment.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	err := s.vault.Signup(req.Username, req.Password)
	s.recordAudit(r.Context(), audit.KindSignup, req.Username, err == nil, auditDetail(err))

	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]any{"success": true})
	case errors.Is(err, auth.ErrAlreadyEnrolled):
		writeConflict(w, "device already enrolled")
	case errors.Is(err, auth.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "username must be 3-20 characters")
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "password must be 6-20 characters with upper, lower and digit")
	default:
		s.logger.Error("signup failed", "error", err)
		writeInternalError(w, "failed to store credentials")
	}
}

// handleLogin authenticates the enrolled user and issues the session
// token. A fresh token replaces any previous session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	token, err := s.session.Login(req.Username, req.Password)

	switch {
	case err == nil:
		s.recordAudit(r.Context(), audit.KindLogin, req.Username, true, "")
		s.recordAuthOutcome(true, false)
		s.setSessionCookie(w, token)
		writeJSON(w, http.StatusOK, loginResponse{
			Success:   true,
			Token:     token,
			ExpiresIn: int(s.session.Timeout().Seconds()),
		})
	case errors.Is(err, auth.ErrLockedOut):
		s.recordAudit(r.Context(), audit.KindLockout, req.Username, false, "cooldown active")
		s.recordAuthOutcome(false, true)
		writeLockedOut(w, "too many failed attempts, try again later")
	default:
		s.recordAudit(r.Context(), audit.KindLogin, req.Username, false, "invalid credentials")
		s.recordAuthOutcome(false, false)
		writeUnauthorized(w, "invalid credentials")
	}
}

// handleRefresh revalidates the session token, extending the sliding
// expiration window.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token := s.tokenFromBody(r)
	if token == "" || !s.session.Validate(token) {
		writeUnauthorized(w, "invalid or expired session")
		return
	}

	// Re-arm the cookie lifetime alongside the server-side window.
	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleLogout invalidates the session. Idempotent: logging out an
// already-dead session still succeeds.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := s.tokenFromBody(r)
	if token != "" && s.session.Validate(token) {
		s.session.Invalidate()
		s.recordAudit(r.Context(), audit.KindLogout, "", true, "")
	}

	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// tokenFromBody reads the token field from the JSON body, falling back
// to the cookie or Authorization header.
func (s *Server) tokenFromBody(r *http.Request) string {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Token != "" {
		return req.Token
	}
	return tokenFromRequest(r)
}

// setSessionCookie sets the session cookie with the sliding-window
// lifetime.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.session.Timeout().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie expires the session cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// recordAudit writes an event to the audit trail when enabled.
func (s *Server) recordAudit(ctx context.Context, kind, username string, success bool, detail string) {
	if s.audit == nil {
		return
	}
	event := &audit.Event{
		Kind:     kind,
		Username: username,
		Success:  success,
		Detail:   detail,
	}
	if err := s.audit.Create(ctx, event); err != nil {
		s.logger.Warn("audit write failed", "kind", kind, "error", err)
	}
}

// recordAuthOutcome feeds the optional diagnostics sink.
func (s *Server) recordAuthOutcome(success, lockedOut bool) {
	if s.influx == nil {
		return
	}
	s.influx.WriteAuthOutcome(s.deviceID, success, lockedOut)
}

// auditDetail renders the failure reason for audit entries.
func auditDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ticketTTL is how long a WebSocket ticket is valid.
const ticketTTL = 60 * time.Second

// ticketStore holds pending WebSocket authentication tickets.
// Tickets are single-use and expire after ticketTTL.
type ticketStore struct {
	tickets map[string]time.Time
	mu      sync.Mutex
}

func newTicketStore() *ticketStore {
	return &ticketStore{tickets: make(map[string]time.Time)}
}

// handleWSTicket generates a single-use WebSocket authentication
// ticket. The client uses it to authenticate the WebSocket connection
// without exposing the session token in the URL.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	token := s.tokenFromBody(r)
	if token == "" || !s.session.Validate(token) {
		writeUnauthorized(w, "valid session required")
		return
	}

	ticket := generateTicket()

	s.tickets.mu.Lock()
	s.tickets.tickets[ticket] = time.Now().Add(ticketTTL)
	s.tickets.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expires_in": int(ticketTTL.Seconds()),
	})
}

// consume checks if a ticket is valid and removes it (single-use).
func (t *ticketStore) consume(ticket string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	expiresAt, ok := t.tickets[ticket]
	if !ok {
		return false
	}
	delete(t.tickets, ticket)
	return time.Now().Before(expiresAt)
}

// cleanLoop removes expired tickets periodically until the context is
// cancelled.
func (t *ticketStore) cleanLoop(ctx context.Context) {
	ticker := time.NewTicker(ticketTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			now := time.Now()
			for ticket, expiresAt := range t.tickets {
				if now.After(expiresAt) {
					delete(t.tickets, ticket)
				}
			}
			t.mu.Unlock()
		}
	}
}

// ticketBytes is the number of random bytes used for WebSocket tickets.
const ticketBytes = 32

// generateTicket creates a cryptographically random ticket string.
func generateTicket() string {
	b := make([]byte, ticketBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}
