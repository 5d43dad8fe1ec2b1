package sesh

// Everything exported in this file is intended to be used to make testing code that is protected by sesh easier.

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/barapp/sesh/pkg/session"
	"github.com/barapp/sesh/pkg/seshttp"
)

// AuthenticateUserAndAddToTestRequest is not used in the operation of sesh. It is intended to
// be used in your tests to create a valid session for a request, alleviating you from having to make a login request
// as part of the test.
func (s Sessions) AuthenticateUserAndAddToTestRequest(r *http.Request, user UserID) (Session, error) {
	auth := s.manager.Begin(s.cookies.ForRequest(httptest.NewRecorder(), r))

	created, err := auth.Login(r.Context(), user, seshttp.ClientIP(r, s.trustProxy))
	if err != nil {
		return Session{}, err
	}

	if err := s.cookies.AddToRequest(r, session.SessionCookieName, created.Key); err != nil {
		return Session{}, err
	}

	return created, nil
}

// ContextWithTestAuth is not used in the operation of sesh. It is intended to
// be used in your tests, to mimic what Middleware does for a request that has
// already been validated.
func ContextWithTestAuth(ctx context.Context, auth *session.Auth) context.Context {
	return seshttp.SetAuthInContext(ctx, auth)
}
