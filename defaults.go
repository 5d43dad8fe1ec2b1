package sesh

import (
	"errors"
	"net/http"
	"os"

	"github.com/barapp/sesh/pkg/domain"
	"github.com/barapp/sesh/pkg/logger"
	"github.com/barapp/sesh/pkg/seshttp"
)

// defaultErrorHandler is the error handler used if no optional one is provided
type defaultErrorHandler struct {
	logger domain.LogService
}

func (h defaultErrorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := ErrorFromContext(r.Context())

	status := seshttp.StatusForError(err)
	if errors.Is(err, ErrNoSession) {
		h.logger.Info("Unauthorized Request Made.", domain.LogFields{"path": r.URL.Path})
	}

	seshttp.RespondWithStructuredError(w, http.StatusText(status), status)
}

func newDefaultErrorHandler(logger domain.LogService) defaultErrorHandler {
	return defaultErrorHandler{logger: logger}
}

// newDefaultLogger is the logger that is used if no optional one is provided.
func newDefaultLogger() domain.LogService {
	return logger.NewPrintLogger(os.Stdout)
}
