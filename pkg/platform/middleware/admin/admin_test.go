package admin

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func protected(token string) http.Handler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return RequireAdminToken(token, logger)(next)
}

func TestRequireAdminToken(t *testing.T) {
	h := protected("secret")

	req := httptest.NewRequest(http.MethodGet, "/territories", nil)
	req.Header.Set("X-Admin-Token", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/territories", nil)
	req.Header.Set("X-Admin-Token", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/territories", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with missing token, got %d", rec.Code)
	}
}

func TestRequireAdminToken_NoTokenConfigured(t *testing.T) {
	// An empty expected token locks the endpoints rather than opening them.
	h := protected("")

	req := httptest.NewRequest(http.MethodGet, "/territories", nil)
	req.Header.Set("X-Admin-Token", "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when no admin token is configured, got %d", rec.Code)
	}
}
