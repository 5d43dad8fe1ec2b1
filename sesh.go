// Package sesh is an authenticated user session management library.
// It validates the session cookie of every request, provides a ProtectedMiddleware
// to keep anonymous users out of handlers, limits a browser to a single session,
// and logs all session lifecycle events.
package sesh

import (
	"context"
	"fmt"
	"net/http"

	"github.com/barapp/sesh/pkg/session"
	"github.com/barapp/sesh/pkg/seshttp"
)

// Sessions manages user sessions over HTTP.
type Sessions struct {
	manager    *session.Manager
	cookies    *seshttp.CookieTransport
	middleware *seshttp.SessionMiddleware
	trustProxy bool
}

// Manager returns the session manager, for administrative operations.
func (s Sessions) Manager() *session.Manager {
	return s.manager
}

// Middleware validates the session cookie of every request and stores the
// result in the context, where AuthFromContext finds it. Anonymous requests
// are passed on.
func (s Sessions) Middleware(next http.Handler) http.Handler {
	return s.middleware.Middleware(next)
}

// ProtectedMiddleware only lets authenticated requests through. Anything else
// is handed to the error handler with ErrNoSession.
func (s Sessions) ProtectedMiddleware(next http.Handler) http.Handler {
	return s.middleware.ProtectedMiddleware(next)
}

// UserDidAuthenticate creates a new session for user and writes the session
// cookie. A session the request already had is removed.
func (s Sessions) UserDidAuthenticate(w http.ResponseWriter, r *http.Request, user UserID) (Session, error) {
	auth, err := s.middleware.AuthForRequest(w, r)
	if err != nil {
		return Session{}, fmt.Errorf("failed to check the current session for login: %w", err)
	}

	created, err := auth.Login(r.Context(), user, seshttp.ClientIP(r, s.trustProxy))
	if err != nil {
		return Session{}, err
	}

	return created, nil
}

// UserDidLogout destroys the session of the request and removes the session cookie.
// Logging out an anonymous request does nothing.
func (s Sessions) UserDidLogout(w http.ResponseWriter, r *http.Request) error {
	auth, err := s.middleware.AuthForRequest(w, r)
	if err != nil {
		return fmt.Errorf("failed to check the current session for logout: %w", err)
	}

	return auth.Logout(r.Context())
}

// AuthFromContext returns the session state the middleware stored for this request.
func AuthFromContext(ctx context.Context) (*session.Auth, bool) {
	return seshttp.AuthFromContext(ctx)
}

// UserFromContext returns the authenticated user of the request, or nil.
func UserFromContext(ctx context.Context) *User {
	auth, ok := AuthFromContext(ctx)
	if !ok {
		return nil
	}
	return auth.ActiveUser()
}

// ErrorFromContext returns the error that caused the error handler to be called.
// It is ErrNoSession for anonymous requests to protected handlers, or a wrapped
// storage error.
func ErrorFromContext(ctx context.Context) error {
	return seshttp.ErrorFromContext(ctx)
}
