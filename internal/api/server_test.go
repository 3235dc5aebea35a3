package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/averen/sigil/internal/api"
	"github.com/averen/sigil/internal/audit"
	"github.com/averen/sigil/internal/authz"
	"github.com/averen/sigil/internal/config"
	"github.com/averen/sigil/internal/core"
	"github.com/averen/sigil/internal/credentials"
	"github.com/averen/sigil/internal/service"
	"github.com/averen/sigil/internal/token"
)

const signingKey = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T) (*httptest.Server, *audit.InMemoryAuditor) {
	t.Helper()

	hash := func(password string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hashing password: %v", err)
		}
		return string(h)
	}

	store, err := credentials.NewStaticStore([]config.UserConfig{
		{
			"username":      "alice",
			"password_hash": hash("s3cret"),
			"roles":         []string{"Admin"},
		},
		{
			"username":      "bob",
			"password_hash": hash("hunter2"),
			"roles":         []string{"Manager"},
		},
	})
	if err != nil {
		t.Fatalf("building user store: %v", err)
	}

	issuer, err := token.NewIssuer([]byte(signingKey), "sigil", "api", time.Hour)
	if err != nil {
		t.Fatalf("building issuer: %v", err)
	}
	verifier := token.NewVerifier([]byte(signingKey), "sigil", "api", 0)

	registry, err := authz.NewRegistry([]core.Policy{
		{Name: "AdminOnly", Requirements: []core.Requirement{
			{Kind: core.KindRole, Roles: []string{"Admin"}},
		}},
	})
	if err != nil {
		t.Fatalf("building policy registry: %v", err)
	}

	auditor := audit.NewInMemoryAuditor()
	svc := service.NewAuthService(store, issuer, verifier, registry, auditor)

	server := api.NewServer(svc, registry, auditor, map[string]string{
		api.ListAuditsRoute: "AdminOnly",
	})
	handler, err := server.Routes()
	if err != nil {
		t.Fatalf("building routes: %v", err)
	}

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts, auditor
}

func login(t *testing.T, ts *httptest.Server, username, password string) (*http.Response, service.LoginResponse) {
	t.Helper()

	body, _ := json.Marshal(service.LoginRequest{Username: username, Password: password})
	resp, err := http.Post(ts.URL+api.LoginRoute, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", api.LoginRoute, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var result service.LoginResponse
	if resp.StatusCode == http.StatusCreated {
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("decoding login response: %v", err)
		}
	}
	return resp, result
}

func get(t *testing.T, ts *httptest.Server, route, bearer string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL+route, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", route, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := get(t, ts, api.HealthCheckRoute, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}
}

func TestLogin(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, result := login(t, ts, "alice", "s3cret")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("login status = %d, want 201", resp.StatusCode)
	}
	if result.AccessToken == "" {
		t.Error("login response has empty access token")
	}
	if result.TokenType != "Bearer" {
		t.Errorf("token type = %q, want Bearer", result.TokenType)
	}
	if result.ExpiresIn <= 0 {
		t.Errorf("expires_in = %d, want positive", result.ExpiresIn)
	}
	if resp.Header.Get("X-Correlation-ID") == "" {
		t.Error("response is missing the correlation ID header")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"Wrong Password", "alice", "guess"},
		{"Unknown User", "mallory", "s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := login(t, ts, tt.username, tt.password)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("login status = %d, want 401", resp.StatusCode)
			}
		})
	}
}

func TestLogin_BadPayload(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"Not JSON", "{"},
		{"Missing Password", `{"username": "alice"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+api.LoginRoute, "application/json", bytes.NewReader([]byte(tt.body)))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("login status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestWhoami(t *testing.T) {
	ts, _ := newTestServer(t)
	_, loginResult := login(t, ts, "alice", "s3cret")

	resp := get(t, ts, api.WhoamiRoute, loginResult.AccessToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("whoami status = %d, want 200", resp.StatusCode)
	}

	var result service.WhoamiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding whoami response: %v", err)
	}
	if result.Subject != "alice" {
		t.Errorf("subject = %q, want alice", result.Subject)
	}
	if len(result.Roles) != 1 || result.Roles[0] != "Admin" {
		t.Errorf("roles = %v, want [Admin]", result.Roles)
	}
}

func TestWhoami_Unauthenticated(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{"No Token", ""},
		{"Garbage Token", "not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts, api.WhoamiRoute, tt.token)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("whoami status = %d, want 401", resp.StatusCode)
			}
		})
	}
}

func TestAdminAudits_Policy(t *testing.T) {
	ts, _ := newTestServer(t)

	_, adminLogin := login(t, ts, "alice", "s3cret")
	_, managerLogin := login(t, ts, "bob", "hunter2")

	resp := get(t, ts, api.ListAuditsRoute, adminLogin.AccessToken)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("admin request status = %d, want 200", resp.StatusCode)
	}

	resp = get(t, ts, api.ListAuditsRoute, managerLogin.AccessToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("manager request status = %d, want 403", resp.StatusCode)
	}

	// the deny reason stays out of the response body
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if !strings.Contains(errResp.Error, "access denied") {
		t.Errorf("error message = %q, want the generic 'access denied'", errResp.Error)
	}
	if strings.Contains(errResp.Error, "roles") {
		t.Errorf("error message %q leaks the deny reason", errResp.Error)
	}
}

func TestAuditTrail(t *testing.T) {
	ts, auditor := newTestServer(t)
	login(t, ts, "alice", "s3cret")
	login(t, ts, "alice", "guess")

	entries, err := auditor.GetRecent(10)
	if err != nil {
		t.Fatalf("GetRecent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d audit entries, want 2", len(entries))
	}

	var successes, failures int
	for _, entry := range entries {
		if entry.Action != core.ActionLogin {
			t.Errorf("entry action = %q, want %q", entry.Action, core.ActionLogin)
		}
		if entry.Subject != "alice" {
			t.Errorf("entry subject = %q, want alice", entry.Subject)
		}
		if entry.Success {
			successes++
			if entry.TokenFingerprint == "" {
				t.Error("successful login entry is missing the token fingerprint")
			}
		} else {
			failures++
		}
	}
	if successes != 1 || failures != 1 {
		t.Errorf("got %d successes and %d failures, want 1 and 1", successes, failures)
	}
}

func TestRoutes_UnattachedProtectedRoute(t *testing.T) {
	registry, err := authz.NewRegistry(nil)
	if err != nil {
		t.Fatalf("building policy registry: %v", err)
	}
	server := api.NewServer(nil, registry, audit.NewNoopAuditor(), nil)
	if _, err := server.Routes(); err == nil {
		t.Error("Routes() expected error for protected route without policy attachment")
	}
}

func TestRoutes_UnknownPolicyAttachment(t *testing.T) {
	registry, err := authz.NewRegistry(nil)
	if err != nil {
		t.Fatalf("building policy registry: %v", err)
	}
	server := api.NewServer(nil, registry, audit.NewNoopAuditor(), map[string]string{
		api.ListAuditsRoute: "ghost",
	})
	if _, err := server.Routes(); err == nil {
		t.Error("Routes() expected error for attachment naming an unknown policy")
	}
}
