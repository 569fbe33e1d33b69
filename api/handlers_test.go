package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"

	"taskboard-api/domain"
)

func newTestAPI(t *testing.T) (*echo.Echo, *fakeStore, *fakeSessions) {
	t.Helper()
	e := echo.New()
	store := newFakeStore()
	sessions := newFakeSessions()
	logger, _ := test.NewNullLogger()
	Register(e, store, sessions, logger)
	return e, store, sessions
}

func doJSON(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := sonic.ConfigStd.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func seedSession(sessions *fakeSessions, ident domain.Identity) string {
	sessions.n++
	token := "seeded-token"
	sessions.created[token] = ident
	return token
}

func TestRegisterLoginMeOverHTTP(t *testing.T) {
	e, _, _ := newTestAPI(t)

	rec := doJSON(e, http.MethodPost, "/api/register", "",
		`{"username":"ann","email":"a@x.com","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("register status %d: %s", rec.Code, rec.Body.String())
	}
	var reg UserResult
	decodeInto(t, rec, &reg)
	if reg.Error != nil || reg.User == nil || reg.User.Username != "ann" {
		t.Fatalf("unexpected register envelope: %s", rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/api/login", "",
		`{"email":"a@x.com","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rec.Code, rec.Body.String())
	}
	var login LoginResult
	decodeInto(t, rec, &login)
	if login.Error != nil || login.Token == "" {
		t.Fatalf("unexpected login envelope: %s", rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, "/api/me", login.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("me status %d: %s", rec.Code, rec.Body.String())
	}
	var me UserResult
	decodeInto(t, rec, &me)
	if me.Error != nil || me.User == nil || me.User.Email != "a@x.com" {
		t.Fatalf("unexpected me envelope: %s", rec.Body.String())
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	e, _, sessions := newTestAPI(t)
	token := seedSession(sessions, domain.Identity{ID: "u1", Username: "ann", Email: "a@x.com"})

	rec := doJSON(e, http.MethodPost, "/api/tasks", token,
		`{"title":"buy milk","description":"2 liters"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}
	var created TaskResult
	decodeInto(t, rec, &created)
	if created.Error != nil || created.Task == nil || created.Task.Completed {
		t.Fatalf("unexpected create envelope: %s", rec.Body.String())
	}
	id := created.Task.ID

	rec = doJSON(e, http.MethodGet, "/api/tasks", token, "")
	var listing TasksResult
	decodeInto(t, rec, &listing)
	if listing.Error != nil || len(listing.Tasks) != 1 || listing.Tasks[0].ID != id {
		t.Fatalf("unexpected listing: %s", rec.Body.String())
	}

	rec = doJSON(e, http.MethodPatch, "/api/tasks/"+id, token, `{"completed":true}`)
	var updated TaskResult
	decodeInto(t, rec, &updated)
	if updated.Error != nil || updated.Task == nil || !updated.Task.Completed {
		t.Fatalf("unexpected patch envelope: %s", rec.Body.String())
	}
	if updated.Task.Title != "buy milk" {
		t.Fatalf("patch touched unsupplied fields: %s", rec.Body.String())
	}

	rec = doJSON(e, http.MethodDelete, "/api/tasks/"+id, token, "")
	var deleted DeleteResult
	decodeInto(t, rec, &deleted)
	if deleted.Error != nil || !deleted.Success {
		t.Fatalf("unexpected delete envelope: %s", rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, "/api/tasks/"+id, token, "")
	var gone TaskResult
	decodeInto(t, rec, &gone)
	if gone.Error == nil || *gone.Error != msgTaskNotFound {
		t.Fatalf("expected deleted task to be gone: %s", rec.Body.String())
	}
}

func TestMissingTokenIsInBandError(t *testing.T) {
	e, _, _ := newTestAPI(t)

	rec := doJSON(e, http.MethodGet, "/api/tasks", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected in-band error at 200, got %d", rec.Code)
	}
	var listing TasksResult
	decodeInto(t, rec, &listing)
	if listing.Error == nil || *listing.Error != msgAuthRequired {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}

	rec = doJSON(e, http.MethodGet, "/api/me", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected in-band error at 200, got %d", rec.Code)
	}
	var me UserResult
	decodeInto(t, rec, &me)
	if me.Error == nil || *me.Error != msgNotAuthenticated {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
}

func TestUnknownTokenIsInBandError(t *testing.T) {
	e, _, _ := newTestAPI(t)

	rec := doJSON(e, http.MethodGet, "/api/tasks", "stale-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected in-band error at 200, got %d", rec.Code)
	}
	var listing TasksResult
	decodeInto(t, rec, &listing)
	if listing.Error == nil || *listing.Error != msgAuthRequired {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	e, _, sessions := newTestAPI(t)
	token := seedSession(sessions, domain.Identity{ID: "u1"})

	for name, tc := range map[string]struct {
		method, path, token, body string
	}{
		"register_truncated": {http.MethodPost, "/api/register", "", `{"username":`},
		"register_unknown":   {http.MethodPost, "/api/register", "", `{"username":"a","email":"a@x.com","password":"p","role":"admin"}`},
		"login_truncated":    {http.MethodPost, "/api/login", "", `{`},
		"create_unknown":     {http.MethodPost, "/api/tasks", token, `{"title":"x","owner":"someone-else"}`},
	} {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(e, tc.method, tc.path, tc.token, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestStoreFailureIsInternalError(t *testing.T) {
	e, store, sessions := newTestAPI(t)
	token := seedSession(sessions, domain.Identity{ID: "u1"})
	store.failing = errors.New("table unavailable")

	for _, path := range []string{"/api/tasks"} {
		rec := doJSON(e, http.MethodGet, path, token, "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500 for %s, got %d: %s", path, rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(e, http.MethodPost, "/api/login", "", `{"email":"a@x.com","password":"p"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for login, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSessionLookupFailureIsInternalError(t *testing.T) {
	e, _, sessions := newTestAPI(t)
	sessions.err = errors.New("redis unavailable")

	rec := doJSON(e, http.MethodGet, "/api/tasks", "any-token", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	e, _, _ := newTestAPI(t)
	rec := doJSON(e, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
