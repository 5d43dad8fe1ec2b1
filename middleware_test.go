package sesh

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/barapp/sesh/pkg/domain"
)

func TestAnonymousRequestPassesMiddleware(t *testing.T) {
	env := newTestEnv(t)

	var called bool
	handler := env.sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if UserFromContext(r.Context()) != nil {
			t.Fatal("there should be no user")
		}
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if !called {
		t.Fatal("anonymous requests should reach unprotected handlers")
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatal("an anonymous request without a cookie should not get one")
	}
}

func TestExpiredSessionIsRejected(t *testing.T) {
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	env := newTestEnv(t, CustomClock(func() time.Time { return now }))

	r := httptest.NewRequest("GET", "/me", nil)
	created, err := env.sessions.AuthenticateUserAndAddToTestRequest(r, 42)
	if err != nil {
		t.Fatal(err)
	}

	now = created.ExpiresAt.Add(time.Minute)

	handler := env.sessions.ProtectedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should never be called, the session expired.")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatal("expected 401", w.Code)
	}

	exists, err := env.store.ExistsByID(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("the expired session row should be deleted")
	}

	if cleared := sessionCookieFrom(t, w); cleared == nil || cleared.MaxAge >= 0 {
		t.Fatal("the expired cookie should be cleared")
	}
}

func TestMissingUserKeepsSession(t *testing.T) {
	env := newTestEnv(t)

	r := httptest.NewRequest("GET", "/me", nil)
	created, err := env.sessions.AuthenticateUserAndAddToTestRequest(r, 42)
	if err != nil {
		t.Fatal(err)
	}
	env.users.Remove(42)

	handler := env.sessions.ProtectedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should never be called, the user is gone.")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatal("expected 401", w.Code)
	}
	if sessionCookieFrom(t, w) != nil {
		t.Fatal("the cookie is left alone when the user is missing")
	}

	exists, err := env.store.ExistsByID(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatal("the session row is kept when the user is missing")
	}
}

func TestContextWithTestAuth(t *testing.T) {
	env := newTestEnv(t)

	r := httptest.NewRequest("GET", "/me", nil)
	auth := env.sessions.Manager().Begin(discardJar{})
	if _, err := auth.Login(r.Context(), 42, "::1"); err != nil {
		t.Fatal(err)
	}

	var seen *User
	handler := env.sessions.ProtectedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), r.WithContext(ContextWithTestAuth(r.Context(), auth)))

	if seen == nil || seen.ID != 42 {
		t.Fatal("the protected handler should see the test auth", seen)
	}
}

// discardJar is a CookieJar with no cookies that drops everything written to it.
type discardJar struct{}

func (discardJar) HasCookie(string) bool { return false }

func (discardJar) GetCookie(string) (string, bool) { return "", false }

func (discardJar) SetCookie(string, string, time.Time) error { return nil }

func (discardJar) DeleteCookie(string) {}

var _ domain.CookieJar = discardJar{}

func TestStorageFailureIs500(t *testing.T) {
	env := newTestEnv(t)

	r := httptest.NewRequest("GET", "/", nil)
	if _, err := env.sessions.AuthenticateUserAndAddToTestRequest(r, 42); err != nil {
		t.Fatal(err)
	}
	env.store.FailWith(errors.New("connection refused"))

	handler := env.sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should never be called, there will be an error.")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatal("storage failures should be 500", w.Code)
	}
}

func TestAdministrativeRemoveSignsOut(t *testing.T) {
	env := newTestEnv(t)

	r := httptest.NewRequest("GET", "/", nil)
	created, err := env.sessions.AuthenticateUserAndAddToTestRequest(r, 42)
	if err != nil {
		t.Fatal(err)
	}

	if err := env.sessions.Manager().Remove(r.Context(), created.ID); err != nil {
		t.Fatal(err)
	}

	handler := env.sessions.ProtectedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should never be called, the session was removed.")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatal("expected 401", w.Code)
	}
}
