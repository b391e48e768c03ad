package shield

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/buildflow/buildflow/dbopen"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(DefaultHeaders())(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/designs", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("X-Content-Type-Options not set")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("X-Frame-Options not set")
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "frame-ancestors 'none'") {
		t.Errorf("CSP = %q", csp)
	}
}

func TestSecurityHeadersSkipsEmpty(t *testing.T) {
	h := SecurityHeaders(HeaderConfig{XFrameOptions: "DENY"})(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Header().Get("Content-Security-Policy") != "" {
		t.Error("empty CSP should not be set")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("configured header missing")
	}
}

func TestMaxJSONBody(t *testing.T) {
	h := MaxJSONBody(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		_, err := r.Body.Read(buf)
		if err != nil && err.Error() != "EOF" {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	small := httptest.NewRequest("POST", "/api/designs", strings.NewReader(`{"a":1}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, small)
	if rec.Code != http.StatusOK {
		t.Errorf("small body = %d", rec.Code)
	}

	big := httptest.NewRequest("POST", "/api/designs", strings.NewReader(strings.Repeat("x", 1024)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body = %d", rec.Code)
	}
}

func TestRateLimiterEnforcesWindow(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	if _, err := db.Exec(
		`INSERT INTO rate_limits (endpoint, max_requests, window_seconds, enabled) VALUES (?, ?, ?, 1)`,
		"POST /api/import", 2, 1); err != nil {
		t.Fatal(err)
	}

	rl := NewRateLimiter(db)

	if !rl.allow("10.0.0.1", "POST /api/import") {
		t.Fatal("first request blocked")
	}
	if !rl.allow("10.0.0.1", "POST /api/import") {
		t.Fatal("second request blocked")
	}
	if rl.allow("10.0.0.1", "POST /api/import") {
		t.Error("third request allowed past the limit")
	}

	// Other IPs and unruled endpoints are unaffected.
	if !rl.allow("10.0.0.2", "POST /api/import") {
		t.Error("different IP shares a bucket")
	}
	if !rl.allow("10.0.0.1", "GET /api/designs") {
		t.Error("endpoint without a rule got limited")
	}

	// The window resets the bucket.
	time.Sleep(1100 * time.Millisecond)
	if !rl.allow("10.0.0.1", "POST /api/import") {
		t.Error("bucket not reset after window")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	if _, err := db.Exec(
		`INSERT INTO rate_limits (endpoint, max_requests, window_seconds, enabled) VALUES (?, 1, 60, 1)`,
		"GET /api/designs"); err != nil {
		t.Fatal(err)
	}

	rl := NewRateLimiter(db, "/health")
	h := rl.Middleware(okHandler())

	req := httptest.NewRequest("GET", "/api/designs", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("blocked response content type = %q", ct)
	}

	// Excluded prefixes always pass.
	health := httptest.NewRequest("GET", "/health", nil)
	health.RemoteAddr = "10.0.0.1:5555"
	for i := 0; i < 5; i++ {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, health)
		if rec.Code != http.StatusOK {
			t.Fatalf("excluded path blocked on attempt %d", i)
		}
	}
}

func TestExtractIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:4321"
	if got := ExtractIP(r); got != "192.0.2.10" {
		t.Errorf("from RemoteAddr = %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ExtractIP(r); got != "203.0.113.7" {
		t.Errorf("from X-Forwarded-For = %q", got)
	}
}
