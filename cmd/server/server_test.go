package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barapp/sesh"
	"github.com/barapp/sesh/pkg/logger"
	"github.com/barapp/sesh/pkg/mailverify"
	"github.com/barapp/sesh/pkg/memstore"
	"github.com/barapp/sesh/pkg/metrics"
	"github.com/barapp/sesh/pkg/seshttp"
)

type testApp struct {
	handler  http.Handler
	sessions sesh.Sessions
	mail     *mailverify.Service
}

func newTestApp(t *testing.T) testApp {
	t.Helper()

	reg := prometheus.NewRegistry()
	sessionLog := metrics.NewCountingLogger(logger.NewLogRecorder(nil), reg)

	sessions, err := sesh.NewSessions(memstore.NewSessionStore(), memstore.NewUserStore(1), seshttp.CookieConfig{
		HashKey: bytes.Repeat([]byte("s"), 32),
	}, sesh.CustomLogger(sessionLog))
	require.NoError(t, err)

	mail := mailverify.NewService(memstore.NewMailVerificationStore(), sessionLog)

	return testApp{
		handler:  newTestServer(sessions, mail, zerolog.Nop()).routes(reg),
		sessions: sessions,
		mail:     mail,
	}
}

func (a testApp) do(t *testing.T, r *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}

func TestLoginProtectedLogout(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, httptest.NewRequest("GET", "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, httptest.NewRequest("GET", "/login?user=1", nil))
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/protected", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	w = app.do(t, httptest.NewRequest("GET", "/protected", nil), cookies...)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hello userID: 1!")

	w = app.do(t, httptest.NewRequest("GET", "/admin/sessions", nil), cookies...)
	assert.JSONEq(t, `{"sessions":1}`, w.Body.String())

	w = app.do(t, httptest.NewRequest("GET", "/logout", nil), cookies...)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)

	w = app.do(t, httptest.NewRequest("GET", "/protected", nil), cookies...)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// logging out again is not an error
	w = app.do(t, httptest.NewRequest("GET", "/logout", nil), cookies...)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestLoginRejectsBadUser(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, httptest.NewRequest("GET", "/login?user=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// user ids must be positive
	w = app.do(t, httptest.NewRequest("GET", "/login?user=0", nil))
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestMailVerificationFlow(t *testing.T) {
	app := newTestApp(t)

	r := httptest.NewRequest("POST", "/mail/verifications", strings.NewReader(url.Values{"mail": {"bar@example.com"}}.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err := app.sessions.AuthenticateUserAndAddToTestRequest(r, 1)
	require.NoError(t, err)

	w := app.do(t, r)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created mailVerificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "bar@example.com", created.Mail)

	w = app.do(t, httptest.NewRequest("GET", "/mail/verify?id=1&key=wrong", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, httptest.NewRequest("GET", created.Link, nil))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// single use
	w = app.do(t, httptest.NewRequest("GET", created.Link, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)

	app.do(t, httptest.NewRequest("GET", "/login?user=1", nil))

	w := app.do(t, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `sesh_session_events_total{event="created"} 1`)
}

type countingPurger struct {
	calls chan struct{}
}

func (p countingPurger) PurgeExpired(ctx context.Context) (int64, error) {
	select {
	case p.calls <- struct{}{}:
	default:
	}
	return 0, nil
}

func TestReaperRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := countingPurger{calls: make(chan struct{}, 1)}

	done := make(chan struct{})
	go func() {
		runReaper(ctx, 5*time.Millisecond, zerolog.Nop(), p)
		close(done)
	}()

	select {
	case <-p.calls:
	case <-time.After(time.Second):
		t.Fatal("the reaper never ran")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("the reaper did not stop")
	}
}
