package seshttp

import (
	"context"
	"net/http"

	"github.com/barapp/sesh/pkg/session"
)

// -- Context Storage
type seshContextKey string

const (
	authContextKey  seshContextKey = "auth"
	errorContextKey seshContextKey = "error"
)

// SetAuthInContext returns a copy of ctx that carries auth.
func SetAuthInContext(ctx context.Context, auth *session.Auth) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext returns the Auth the session middleware stored for this request.
func AuthFromContext(ctx context.Context) (*session.Auth, bool) {
	auth, ok := ctx.Value(authContextKey).(*session.Auth)
	return auth, ok && auth != nil
}

// ErrorFromContext returns the error that made the middleware call the error handler, or nil.
func ErrorFromContext(ctx context.Context) error {
	err, _ := ctx.Value(errorContextKey).(error)
	return err
}

func reqWithValue(r *http.Request, key seshContextKey, value any) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), key, value))
}
