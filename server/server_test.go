package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gingerhealthcare/profilegen/catalog"
	"github.com/gingerhealthcare/profilegen/config"
	"github.com/gingerhealthcare/profilegen/data"
	"github.com/gingerhealthcare/profilegen/document"
	"github.com/gingerhealthcare/profilegen/handlers"
	"github.com/gingerhealthcare/profilegen/health"
	"github.com/gingerhealthcare/profilegen/matcher"
	"github.com/gingerhealthcare/profilegen/session"
	"github.com/gingerhealthcare/profilegen/validation"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8000",
		Address:        "127.0.0.1",
		Env:            "test",
		LogLevel:       "error",
		MaxRequestBody: 1048576,
		MaxHeaderSize:  1048576,
		AdminUsername:  "admin",
		AdminPassword:  "secret",
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	container := data.NewCatalogContainer()
	entries := []catalog.ProcedureEntry{
		{Name: "Coronary Angioplasty", Specialty: "Cardiology"},
	}
	container.UpdateCatalog(entries, catalog.SpecialtyIndex(entries))

	sessions := session.NewStore(time.Hour)
	t.Cleanup(sessions.Close)

	cfg := testConfig()
	deps := &handlers.Deps{
		Store:     container,
		Health:    health.NewHealthChecker(container),
		Sessions:  sessions,
		Matcher:   matcher.New(nil, 15),
		Builder:   document.NewBuilder(),
		Validator: validation.NewDataValidator(),
		Config:    cfg,
	}

	srv := NewServer(cfg, deps)
	t.Cleanup(srv.rateLimiter.Close)
	return srv
}

func TestHealthRouteIsPublic(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rec.Code)
	}
}

func TestMetricsRouteIsPublic(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d, want 200", rec.Code)
	}
}

func TestDashboardAPIRequiresLogin(t *testing.T) {
	srv := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/generate"},
		{http.MethodPost, "/create-document"},
		{http.MethodGet, "/api/prompt"},
		{http.MethodGet, "/api/procedures"},
	}

	for _, p := range paths {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(p.method, p.path, nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without session = %d, want 401", p.method, p.path, rec.Code)
		}
	}
}

func TestLoginLogoutFlow(t *testing.T) {
	srv := newTestServer(t)

	// Login
	body := `{"username":"admin","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one session cookie, got %d", len(cookies))
	}

	// Authenticated catalogue read
	req = httptest.NewRequest(http.MethodGet, "/api/procedures", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/procedures with session = %d, want 200", rec.Code)
	}

	// Logout
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("logout = %d, want 200", rec.Code)
	}

	// Session is gone
	req = httptest.NewRequest(http.MethodGet, "/api/procedures", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/procedures after logout = %d, want 401", rec.Code)
	}
}

func TestRateLimitHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Header().Get("X-RateLimit-Limit") == "" {
		t.Error("X-RateLimit-Limit header missing")
	}
	if rec.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("X-RateLimit-Remaining header missing")
	}
}

func TestRateLimitExhaustion(t *testing.T) {
	srv := newTestServer(t)

	// The login endpoint costs 50 tokens, the bucket holds 1000
	var lastCode int
	for i := 0; i < 30; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"x","password":"y"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.9.8.7:1234"
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("expected 429 after exhausting the bucket, got %d", lastCode)
	}
}

func TestRequestSizeLimit(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Length", "99999999")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body = %d, want 413", rec.Code)
	}
}

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		path string
		want int64
	}{
		{"/", 0},
		{"/dashboard", 0},
		{"/health", 5},
		{"/login", 50},
		{"/generate", 200},
		{"/create-document", 100},
		{"/api/procedures", 20},
		{"/other", 20},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if got := getTokenCost(req); got != tt.want {
			t.Errorf("getTokenCost(%s) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestRealIPMiddleware(t *testing.T) {
	var gotAddr string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAddr = r.RemoteAddr
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	RealIPMiddleware(next).ServeHTTP(httptest.NewRecorder(), req)

	if gotAddr != "203.0.113.7" {
		t.Errorf("RemoteAddr = %q, want first forwarded IP", gotAddr)
	}
}
