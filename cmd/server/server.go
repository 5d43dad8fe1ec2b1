package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/barapp/sesh"
	"github.com/barapp/sesh/pkg/domain"
	"github.com/barapp/sesh/pkg/mailverify"
	"github.com/barapp/sesh/pkg/seshttp"
)

// This is a server for trying out the session flow.

// /login?user=ID -- redirect to protected
// /logout -- redirect to /, also when already logged out
// /protected -- logout button
// / -- login button and protected button
// /mail/verifications -- start verifying a mail address (logged in)
// /mail/verify?id=ID&key=KEY -- complete a verification
// /admin/sessions -- stored session count (logged in)

type testServer struct {
	sessions sesh.Sessions
	mail     *mailverify.Service
	log      zerolog.Logger
}

func newTestServer(sessions sesh.Sessions, mail *mailverify.Service, log zerolog.Logger) testServer {
	return testServer{
		sessions,
		mail,
		log,
	}
}

func (s testServer) routes(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(s.sessions.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/", s.homepage)
	r.Get("/login", s.login)
	r.Get("/logout", s.logout)
	r.Get("/mail/verify", s.verifyMail)

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.ProtectedMiddleware)

		r.Get("/protected", s.protected)
		r.Post("/mail/verifications", s.createMailVerification)
		r.Get("/admin/sessions", s.adminSessions)
	})

	return r
}

func (s testServer) homepage(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, `
	<html>
	<head>
	<title>frontpage</title>
	</head>
	<body>
	<h1>Front Page</h1>
	<p><a href="/login?user=1">Login</a></p>
	<p><a href="/protected">Protected</a></p>
	</body>
	</html>
	`)
}

func (s testServer) login(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
	if err != nil {
		seshttp.RespondWithStructuredError(w, "user must be a number", http.StatusBadRequest)
		return
	}

	s.log.Info().Int64("user_id", userID).Msg("logging in user")

	if _, err := s.sessions.UserDidAuthenticate(w, r, domain.UserID(userID)); err != nil {
		s.log.Error().Err(err).Msg("error creating session")
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	http.Redirect(w, r, "/protected", http.StatusTemporaryRedirect)
}

func (s testServer) protected(w http.ResponseWriter, r *http.Request) {
	user := sesh.UserFromContext(r.Context())

	fmt.Fprintf(w, `
	<html>
	<head>
	<title>protected</title>
	</head>
	<body>
	<h1>Protected Page</h1>
	<p>Hello userID: %d!</p>
	<p><a href="/logout">Logout</a></p>
	</body>
	</html>
	`, user.ID)
}

func (s testServer) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.UserDidLogout(w, r); err != nil {
		s.log.Error().Err(err).Msg("error logging out user")
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

type mailVerificationResponse struct {
	ID     int64  `json:"id"`
	Mail   string `json:"mail"`
	Link   string `json:"link,omitempty"`
	UserID int64  `json:"user_id"`
}

// createMailVerification answers with the verification link. A real
// deployment would mail it instead.
func (s testServer) createMailVerification(w http.ResponseWriter, r *http.Request) {
	user := sesh.UserFromContext(r.Context())

	v, err := s.mail.Create(r.Context(), user.ID, r.FormValue("mail"), nil)
	if err != nil {
		status := seshttp.StatusForError(err)
		seshttp.RespondWithStructuredError(w, http.StatusText(status), status)
		return
	}

	writeJSON(w, http.StatusCreated, mailVerificationResponse{
		ID:     v.ID,
		Mail:   v.Mail,
		Link:   fmt.Sprintf("/mail/verify?id=%d&key=%s", v.ID, v.Key),
		UserID: int64(v.UserID),
	})
}

func (s testServer) verifyMail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		seshttp.RespondWithStructuredError(w, "id must be a number", http.StatusBadRequest)
		return
	}

	v, err := s.mail.Verify(r.Context(), id, r.URL.Query().Get("key"))
	if err != nil {
		s.log.Error().Err(err).Msg("error verifying mail")
		seshttp.RespondWithStructuredError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if v == nil {
		seshttp.RespondWithStructuredError(w, "invalid or expired verification", http.StatusNotFound)
		return
	}

	// the key is single use
	if err := s.mail.Delete(r.Context(), v.ID); err != nil {
		s.log.Error().Err(err).Msg("error deleting used mail verification")
	}

	writeJSON(w, http.StatusOK, mailVerificationResponse{
		ID:     v.ID,
		Mail:   v.Mail,
		UserID: int64(v.UserID),
	})
}

func (s testServer) adminSessions(w http.ResponseWriter, r *http.Request) {
	count, err := s.sessions.Manager().Count(r.Context())
	if err != nil {
		seshttp.RespondWithStructuredError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"sessions": count})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
