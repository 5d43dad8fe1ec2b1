package sesh

import (
	"net/http"
	"time"

	"github.com/barapp/sesh/pkg/domain"
	"github.com/barapp/sesh/pkg/session"
	"github.com/barapp/sesh/pkg/seshttp"
)

// NewSessions returns a configured Sessions
func NewSessions(sessions domain.SessionStore, users domain.UserStore, cookies seshttp.CookieConfig, options ...Option) (Sessions, error) {
	transport, err := seshttp.NewCookieTransport(cookies)
	if err != nil {
		return Sessions{}, err
	}

	cfg := config{
		logger: newDefaultLogger(),
	}

	for _, option := range options {
		if err := option(&cfg); err != nil {
			return Sessions{}, err
		}
	}

	if cfg.errorHandler == nil {
		cfg.errorHandler = newDefaultErrorHandler(cfg.logger)
	}

	var managerOptions []session.Option
	if cfg.now != nil {
		managerOptions = append(managerOptions, session.WithClock(cfg.now))
	}

	manager := session.NewManager(sessions, users, cfg.logger, managerOptions...)

	return Sessions{
		manager:    manager,
		cookies:    transport,
		middleware: seshttp.NewSessionMiddleware(cfg.logger, manager, transport, cfg.errorHandler),
		trustProxy: cfg.trustProxy,
	}, nil
}

type config struct {
	logger       domain.LogService
	errorHandler http.Handler
	now          func() time.Time
	trustProxy   bool
}

type Option func(*config) error

func CustomLogger(logger domain.LogService) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

func CustomErrorHandler(errorHandler http.Handler) Option {
	return func(c *config) error {
		c.errorHandler = errorHandler
		return nil
	}
}

// CustomClock replaces the clock sessions are created and validated with.
func CustomClock(now func() time.Time) Option {
	return func(c *config) error {
		c.now = now
		return nil
	}
}

// TrustProxyHeaders records the client address of new sessions from the
// X-Forwarded-For and X-Real-IP headers. Only use it behind a proxy that sets them.
func TrustProxyHeaders() Option {
	return func(c *config) error {
		c.trustProxy = true
		return nil
	}
}
