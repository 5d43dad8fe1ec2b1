package sesh

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/barapp/sesh/pkg/domain"
)

// TestCustomFailureHandler tests that a custom failure handler can be called
func TestCustomFailureHandler(t *testing.T) {
	var customCalled bool
	var passedErr error
	failureHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customCalled = true
		passedErr = ErrorFromContext(r.Context())
		w.WriteHeader(http.StatusForbidden)
	})

	protectedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Println("should never be called, there is no one logged in.")
	})

	env := newTestEnv(t, CustomErrorHandler(failureHandler))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/something/protected", nil)

	env.sessions.ProtectedMiddleware(protectedHandler).ServeHTTP(w, r)

	if !customCalled {
		t.Fatal("Our custom error handler wasn't even called.")
	}

	if !errors.Is(passedErr, ErrNoSession) {
		t.Fatal("Didn't get the right error out: ", passedErr)
	}

	if w.Code != http.StatusForbidden {
		t.Fatal("the custom handler should decide the status", w.Code)
	}
}

func TestDefaultFailureHandler(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/something/protected", nil)

	env.sessions.ProtectedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should never be called, there is no one logged in.")
	})).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatal("expected 401", w.Code)
	}

	var body struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Errors) != 1 || body.Errors[0].Message != "Unauthorized" {
		t.Fatal("unexpected body", w.Body.String())
	}

	if _, err := env.log.GetOnlyMatchingMessage("Unauthorized Request Made."); err != nil {
		t.Fatal(err)
	}
	if _, err := env.log.GetOnlyMatchingMessage(domain.RequestIsMissingSessionCookie); err != nil {
		t.Fatal(err)
	}
}

func TestOptionErrorStopsConstruction(t *testing.T) {
	failing := func(*config) error { return errors.New("bad option") }

	_, err := NewSessions(nil, nil, testCookieConfig(), failing)
	if err == nil {
		t.Fatal("an option error should be returned")
	}
}
