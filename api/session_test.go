package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
)

func TestBearerToken(t *testing.T) {
	for header, want := range map[string]string{
		"Bearer abc-123":     "abc-123",
		"bearer abc-123":     "abc-123",
		"  Bearer abc-123  ": "abc-123",
		"":                   "",
		"Bearer":             "",
		"Bearer ":            "",
		"Token abc-123":      "",
		"abc-123":            "",
	} {
		if got := bearerToken(header); got != want {
			t.Fatalf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestIdentityFromRequest(t *testing.T) {
	sessions := newFakeSessions()
	token := seedSession(sessions, domain.Identity{ID: "u1", Username: "ann"})

	newCtx := func(header string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		return echo.New().NewContext(req, httptest.NewRecorder())
	}

	ident, err := identityFromRequest(newCtx("Bearer "+token), sessions)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ident == nil || ident.ID != "u1" {
		t.Fatalf("unexpected identity: %#v", ident)
	}

	for name, header := range map[string]string{
		"absent":    "",
		"malformed": "Token " + token,
		"unknown":   "Bearer no-such-token",
	} {
		t.Run(name, func(t *testing.T) {
			ident, err := identityFromRequest(newCtx(header), sessions)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if ident != nil {
				t.Fatalf("expected nil identity, got %#v", ident)
			}
		})
	}
}
