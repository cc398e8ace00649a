package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ashdown-labs/sentinel-core/internal/auth"
	"github.com/ashdown-labs/sentinel-core/internal/infrastructure/config"
	"github.com/ashdown-labs/sentinel-core/internal/infrastructure/logging"
	"github.com/ashdown-labs/sentinel-core/internal/nvram"
	"github.com/ashdown-labs/sentinel-core/internal/settings"
)

// testCooldown keeps lockout recovery fast in end-to-end tests.
const testCooldown = 100 * time.Millisecond

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	store, _, err := nvram.Open(nvram.NewMemRegion())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	vault := auth.NewVault(store)
	guard := auth.NewGuard(5, testCooldown)
	session := auth.NewSession(vault, guard, 5*time.Minute)

	s, err := New(Deps{
		Config:   config.APIConfig{},
		Logger:   logging.Default(),
		Session:  session,
		Vault:    vault,
		Settings: settings.New(store, session),
		DeviceID: "panel-test",
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.hub = newHub(s.logger)

	ts := httptest.NewServer(s.buildRouter())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) (int, map[string]any) {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s error = %v", path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	//nolint:errcheck // some responses are intentionally empty
	json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func getJSON(t *testing.T, ts *httptest.Server, path, token string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s error = %v", path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	//nolint:errcheck // some responses are intentionally empty
	json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestPortalEndToEnd(t *testing.T) {
	_, ts := testServer(t)

	// Health needs no auth.
	if status, _ := getJSON(t, ts, "/api/v1/health", ""); status != http.StatusOK {
		t.Fatalf("health status = %d", status)
	}

	// Weak password rejected before enrollment.
	if status, _ := postJSON(t, ts, "/api/v1/auth/signup", map[string]string{
		"username": "alice", "password": "secret",
	}); status != http.StatusBadRequest {
		t.Fatalf("weak-password signup status = %d, want 400", status)
	}

	// Enrollment.
	if status, _ := postJSON(t, ts, "/api/v1/auth/signup", map[string]string{
		"username": "alice", "password": "Secret1",
	}); status != http.StatusCreated {
		t.Fatalf("signup status = %d, want 201", status)
	}

	// Enrollment is one-shot.
	if status, _ := postJSON(t, ts, "/api/v1/auth/signup", map[string]string{
		"username": "bob", "password": "Secret2",
	}); status != http.StatusConflict {
		t.Fatalf("second signup status = %d, want 409", status)
	}

	// Five wrong passwords.
	for i := 0; i < 5; i++ {
		status, _ := postJSON(t, ts, "/api/v1/auth/login", map[string]string{
			"username": "alice", "password": "wrong",
		})
		if status != http.StatusUnauthorized {
			t.Fatalf("bad login %d status = %d, want 401", i+1, status)
		}
	}

	// Locked out even with correct credentials.
	if status, _ := postJSON(t, ts, "/api/v1/auth/login", map[string]string{
		"username": "alice", "password": "Secret1",
	}); status != http.StatusTooManyRequests {
		t.Fatalf("locked-out login status = %d, want 429", status)
	}

	// After the cooldown the correct login succeeds.
	time.Sleep(testCooldown + 50*time.Millisecond)
	status, body := postJSON(t, ts, "/api/v1/auth/login", map[string]string{
		"username": "alice", "password": "Secret1",
	})
	if status != http.StatusOK {
		t.Fatalf("login after cooldown status = %d, want 200", status)
	}
	token, _ := body["token"].(string)
	if len(token) != auth.TokenLength {
		t.Fatalf("token = %q, want %d alphanumeric chars", token, auth.TokenLength)
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			t.Fatalf("token contains non-alphanumeric byte %q", c)
		}
	}

	// Save five phone/message pairs.
	phones := make([]map[string]string, 0, 5)
	for i := 1; i <= 5; i++ {
		phones = append(phones, map[string]string{
			"phone": fmt.Sprintf("0770090000%d", i),
			"msg":   fmt.Sprintf("zone %d breach", i),
		})
	}
	if status, _ := postJSON(t, ts, "/api/v1/config/slots", map[string]any{
		"token": token, "phones": phones,
	}); status != http.StatusOK {
		t.Fatalf("save slots status = %d, want 200", status)
	}

	// Switch to beep mode.
	if status, _ := postJSON(t, ts, "/api/v1/config/mode", map[string]any{
		"token": token, "mode": "beep",
	}); status != http.StatusOK {
		t.Fatalf("set mode status = %d, want 200", status)
	}

	// Read the configuration back.
	status, cfg := getJSON(t, ts, "/api/v1/config", token)
	if status != http.StatusOK {
		t.Fatalf("get config status = %d, want 200", status)
	}
	if cfg["mode"] != "beep" {
		t.Errorf("mode = %v, want beep", cfg["mode"])
	}
	got, _ := cfg["phones"].([]any)
	if len(got) != 5 {
		t.Fatalf("phones length = %d, want 5", len(got))
	}
	first, _ := got[0].(map[string]any)
	if first["phone"] != "07700900001" || first["msg"] != "zone 1 breach" {
		t.Errorf("first slot = %v", first)
	}

	// Factory reset wipes everything and kills the session.
	if status, _ := postJSON(t, ts, "/api/v1/system/reset", map[string]string{
		"token": token,
	}); status != http.StatusOK {
		t.Fatalf("reset status = %d, want 200", status)
	}
	if status, _ := getJSON(t, ts, "/api/v1/config", token); status != http.StatusUnauthorized {
		t.Errorf("get config after reset status = %d, want 401", status)
	}

	// The device is back to factory state: enrollment works again.
	if status, _ := postJSON(t, ts, "/api/v1/auth/signup", map[string]string{
		"username": "bob", "password": "Secret2",
	}); status != http.StatusCreated {
		t.Errorf("re-enrollment after reset status = %d, want 201", status)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	_, ts := testServer(t)

	postJSON(t, ts, "/api/v1/auth/signup", map[string]string{
		"username": "alice", "password": "Secret1",
	})
	_, body := postJSON(t, ts, "/api/v1/auth/login", map[string]string{
		"username": "alice", "password": "Secret1",
	})
	token, _ := body["token"].(string)

	if status, _ := postJSON(t, ts, "/api/v1/auth/refresh", map[string]string{
		"token": token,
	}); status != http.StatusOK {
		t.Errorf("refresh status = %d, want 200", status)
	}
	if status, _ := postJSON(t, ts, "/api/v1/auth/refresh", map[string]string{
		"token": "0123456789abcdef",
	}); status != http.StatusUnauthorized {
		t.Errorf("refresh with bad token status = %d, want 401", status)
	}

	// Logout is idempotent.
	for i := 0; i < 2; i++ {
		if status, _ := postJSON(t, ts, "/api/v1/auth/logout", map[string]string{
			"token": token,
		}); status != http.StatusOK {
			t.Errorf("logout %d status = %d, want 200", i+1, status)
		}
	}
	if status, _ := getJSON(t, ts, "/api/v1/config", token); status != http.StatusUnauthorized {
		t.Errorf("get config after logout status = %d, want 401", status)
	}
}

func TestProtectedEndpointsRejectWithoutSession(t *testing.T) {
	_, ts := testServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/config"},
		{http.MethodGet, "/api/v1/status"},
		{http.MethodGet, "/api/v1/audit"},
	}
	for _, p := range paths {
		if status, _ := getJSON(t, ts, p.path, ""); status != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", p.method, p.path, status)
		}
	}

	if status, _ := postJSON(t, ts, "/api/v1/config/mode", map[string]string{
		"mode": "beep",
	}); status != http.StatusUnauthorized {
		t.Errorf("set mode without session status = %d, want 401", status)
	}
	if status, _ := postJSON(t, ts, "/api/v1/system/reset", map[string]string{}); status != http.StatusUnauthorized {
		t.Errorf("reset without session status = %d, want 401", status)
	}
}

func TestWSTicketIsSingleUse(t *testing.T) {
	_, ts := testServer(t)

	postJSON(t, ts, "/api/v1/auth/signup", map[string]string{
		"username": "alice", "password": "Secret1",
	})
	_, body := postJSON(t, ts, "/api/v1/auth/login", map[string]string{
		"username": "alice", "password": "Secret1",
	})
	token, _ := body["token"].(string)

	status, ticketBody := postJSON(t, ts, "/api/v1/auth/ws-ticket", map[string]string{
		"token": token,
	})
	if status != http.StatusOK {
		t.Fatalf("ws-ticket status = %d, want 200", status)
	}
	ticket, _ := ticketBody["ticket"].(string)
	if ticket == "" {
		t.Fatal("empty ticket")
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws?ticket=" + ticket
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	conn.Close()

	// Second use of the same ticket must fail.
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("ticket accepted twice")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("ticket reuse status = %v, want 401", resp)
	}
}

func TestWSTicketRequiresSession(t *testing.T) {
	_, ts := testServer(t)

	if status, _ := postJSON(t, ts, "/api/v1/auth/ws-ticket", map[string]string{
		"token": "nope",
	}); status != http.StatusUnauthorized {
		t.Errorf("ws-ticket without session status = %d, want 401", status)
	}
}
