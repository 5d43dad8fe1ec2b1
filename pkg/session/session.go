// Package session issues, validates and revokes login sessions.
//
// A Manager is shared by every request. Each request gets its own Auth from
// Manager.Begin, which tracks whether that request is authenticated.
package session

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/barapp/sesh/pkg/domain"
	"github.com/barapp/sesh/pkg/token"
)

const (
	// SessionKeyLength is the number of characters in a session key.
	SessionKeyLength = 64

	// SessionKeyAlphabet is the set of characters session keys are drawn from.
	SessionKeyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_-+=[]{}\\|/?<>,.`~"

	// SessionCookieName is the cookie the session key travels in, before any prefix.
	SessionCookieName = "session_key"

	// SessionExpiryYears is how many calendar years a session stays valid.
	SessionExpiryYears = 1
)

// ErrUserNotFound is logged when a valid session points at a user that is gone.
var ErrUserNotFound = errors.New("session user does not exist")

// SessionExpiry returns the expiry time of a session created at created.
func SessionExpiry(created time.Time) time.Time {
	return created.AddDate(SessionExpiryYears, 0, 0)
}

// Manager holds the collaborators every Auth needs.
type Manager struct {
	sessions  domain.SessionStore
	users     domain.UserStore
	log       domain.LogService
	generator token.Generator
	now       func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces the clock used for session lifetimes and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithKeyAttempts bounds how many keys are drawn before a login gives up.
func WithKeyAttempts(attempts int) Option {
	return func(m *Manager) {
		m.generator.MaxAttempts = attempts
	}
}

// NewManager returns a Manager
func NewManager(sessions domain.SessionStore, users domain.UserStore, log domain.LogService, opts ...Option) *Manager {
	m := &Manager{
		sessions: sessions,
		users:    users,
		log:      log,
		generator: token.Generator{
			Length:   SessionKeyLength,
			Alphabet: SessionKeyAlphabet,
		},
		now: func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Begin starts the session state of one request. The returned Auth is anonymous
// until ValidateIncoming or Login succeeds.
func (m *Manager) Begin(cookies domain.CookieJar) *Auth {
	return &Auth{
		manager: m,
		cookies: cookies,
	}
}

// Sessions lists every stored session, expired or not.
func (m *Manager) Sessions(ctx context.Context) ([]domain.Session, error) {
	return m.sessions.List(ctx)
}

// Count returns how many sessions are stored.
func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.sessions.Count(ctx)
}

// Exists reports whether a session with this ID is stored.
func (m *Manager) Exists(ctx context.Context, id string) (bool, error) {
	return m.sessions.ExistsByID(ctx, id)
}

// Remove deletes a session by ID, signing out whoever holds it.
func (m *Manager) Remove(ctx context.Context, id string) error {
	if err := m.sessions.DeleteByID(ctx, id); err != nil {
		return err
	}

	m.log.Info(domain.SessionRemoved, domain.LogFields{"session_id": id})
	return nil
}

// PurgeExpired deletes every expired session and returns how many were removed.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := m.sessions.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, err
	}

	if purged > 0 {
		m.log.Info(domain.SessionPurged, domain.LogFields{"count": strconv.FormatInt(purged, 10)})
	}
	return purged, nil
}

func (m *Manager) issuer(user domain.UserID, ip string) token.Issuer[domain.Session] {
	return token.Issuer[domain.Session]{
		Generator: m.generator,
		Exists:    m.sessions.ExistsByKey,
		Expiry:    SessionExpiry,
		Now:       m.now,
		Create: func(ctx context.Context, key string, lifetime domain.Lifetime) (domain.Session, error) {
			return m.sessions.Insert(ctx, domain.NewSession{
				UserID:   user,
				Key:      key,
				CreateIP: ip,
				Lifetime: lifetime,
			})
		},
	}
}

// hashSessionKey returns a short, stable fingerprint of a key that is safe to log.
func hashSessionKey(sessionKey string) string {
	hashed := sha512.Sum512([]byte(sessionKey))
	hexEncoded := hex.EncodeToString(hashed[:])
	return hexEncoded[:12]
}

func userField(user domain.UserID) string {
	return strconv.FormatInt(int64(user), 10)
}
