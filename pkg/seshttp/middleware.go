// Package seshttp connects sessions to net/http: cookie transport, middleware and JSON errors.
package seshttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/barapp/sesh/pkg/domain"
	"github.com/barapp/sesh/pkg/session"
)

// ErrNoSession is handed to the error handler when a protected handler is requested without a valid session.
var ErrNoSession = errors.New("this session is not authenticated")

// SessionMiddleware resolves the session of every request.
type SessionMiddleware struct {
	log          domain.LogService
	manager      *session.Manager
	cookies      *CookieTransport
	errorHandler http.Handler
}

// NewSessionMiddleware returns a configured SessionMiddleware. A nil errorHandler responds with StatusForError.
func NewSessionMiddleware(log domain.LogService, manager *session.Manager, cookies *CookieTransport, errorHandler http.Handler) *SessionMiddleware {
	if errorHandler == nil {
		errorHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := ErrorFromContext(r.Context())
			status := StatusForError(err)
			RespondWithStructuredError(w, http.StatusText(status), status)
		})
	}

	return &SessionMiddleware{
		log:          log,
		manager:      manager,
		cookies:      cookies,
		errorHandler: errorHandler,
	}
}

// Middleware validates the session cookie and stores the resulting Auth in the request context.
// Anonymous requests pass through; only storage failures go to the error handler.
func (m SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, err := m.validate(w, r)
		if err != nil {
			m.fail(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetAuthInContext(r.Context(), auth)))
	})
}

// ProtectedMiddleware only calls next for authenticated requests. It validates
// the session itself when Middleware has not run before it.
func (m SessionMiddleware) ProtectedMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, err := m.AuthForRequest(w, r)
		if err != nil {
			m.fail(w, r, err)
			return
		}

		if !auth.IsLoggedIn() {
			if !m.cookies.ForRequest(w, r).HasCookie(session.SessionCookieName) {
				m.log.Info(domain.RequestIsMissingSessionCookie, domain.LogFields{"path": r.URL.Path})
			}
			m.errorHandler.ServeHTTP(w, reqWithValue(r, errorContextKey, ErrNoSession))
			return
		}

		next.ServeHTTP(w, r.WithContext(SetAuthInContext(r.Context(), auth)))
	})
}

// AuthForRequest returns the Auth stored by Middleware, or validates the request now.
func (m SessionMiddleware) AuthForRequest(w http.ResponseWriter, r *http.Request) (*session.Auth, error) {
	if auth, ok := AuthFromContext(r.Context()); ok {
		return auth, nil
	}
	return m.validate(w, r)
}

// Begin returns an anonymous Auth for the request without reading its cookie.
func (m SessionMiddleware) Begin(w http.ResponseWriter, r *http.Request) *session.Auth {
	return m.manager.Begin(m.cookies.ForRequest(w, r))
}

func (m SessionMiddleware) validate(w http.ResponseWriter, r *http.Request) (*session.Auth, error) {
	auth := m.Begin(w, r)
	if err := auth.ValidateIncoming(r.Context()); err != nil {
		return nil, err
	}
	return auth, nil
}

func (m SessionMiddleware) fail(w http.ResponseWriter, r *http.Request, err error) {
	m.log.WarnError(domain.SessionUnexpectedError, err, domain.LogFields{"path": r.URL.Path})
	m.errorHandler.ServeHTTP(w, reqWithValue(r, errorContextKey, err))
}

// StatusForError maps a middleware error to an HTTP status.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithStructuredError writes an error code and a json error response
func RespondWithStructuredError(w http.ResponseWriter, errorMessage string, code int) {
	errorStruct := newStructuredErrors(newStructuredError(errorMessage))
	// Marshal first so a failure can still be answered with a 500.
	jsonBytes, err := json.Marshal(errorStruct)
	if err != nil {
		http.Error(w, "Internal Server Error: failed to encode error json", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write(append(jsonBytes, '\n'))
}

type structuredError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type structuredErrors struct {
	Errors []structuredError `json:"errors"`
}

func newStructuredError(message string) structuredError {
	return structuredError{
		Message: message,
	}
}

func newStructuredErrors(errors ...structuredError) structuredErrors {
	return structuredErrors{
		Errors: errors,
	}
}
