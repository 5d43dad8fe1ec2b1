package session

import (
	"context"
	"fmt"

	"github.com/barapp/sesh/pkg/domain"
)

// Auth is the session state of a single request.
// It must not be shared between requests.
type Auth struct {
	manager *Manager
	cookies domain.CookieJar
	session *domain.Session
}

// IsLoggedIn reports whether the request carries a valid session.
func (a *Auth) IsLoggedIn() bool {
	return a.session != nil
}

// CurrentSession returns a copy of the validated session, or nil.
func (a *Auth) CurrentSession() *domain.Session {
	if a.session == nil {
		return nil
	}
	s := *a.session
	return &s
}

// CurrentUser returns the owner of the current session, or nil.
func (a *Auth) CurrentUser() *domain.User {
	if a.session == nil {
		return nil
	}
	u := a.session.User()
	return &u
}

// ActiveUser returns the user the request acts as. There is no user
// switching, so this is always the current user.
func (a *Auth) ActiveUser() *domain.User {
	return a.CurrentUser()
}

// ValidateIncoming resolves the session cookie of the request.
//
// Every outcome that is not a valid session leaves the Auth anonymous and is
// not an error. Only storage failures are returned.
func (a *Auth) ValidateIncoming(ctx context.Context) error {
	m := a.manager
	a.session = nil

	if !a.cookies.HasCookie(SessionCookieName) {
		a.cookies.DeleteCookie(SessionCookieName)
		return nil
	}

	sessionKey, ok := a.cookies.GetCookie(SessionCookieName)
	if !ok || sessionKey == "" {
		m.log.Info(domain.RequestHasInvalidCookie, domain.LogFields{})
		a.cookies.DeleteCookie(SessionCookieName)
		return nil
	}

	fields := domain.LogFields{"session_hash": hashSessionKey(sessionKey)}

	session, err := m.sessions.FindByKey(ctx, sessionKey)
	if err != nil {
		m.log.WarnError(domain.SessionUnexpectedError, err, fields)
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if session == nil {
		m.log.Info(domain.SessionDoesNotExist, fields)
		a.cookies.DeleteCookie(SessionCookieName)
		return nil
	}

	if session.IsExpired(m.now()) {
		if err := m.sessions.DeleteByID(ctx, session.ID); err != nil {
			m.log.WarnError(domain.SessionUnexpectedError, err, fields)
			return fmt.Errorf("failed to delete expired session: %w", err)
		}
		m.log.Info(domain.SessionExpired, fields)
		a.cookies.DeleteCookie(SessionCookieName)
		return nil
	}

	exists, err := m.users.ExistsByID(ctx, session.UserID)
	if err != nil {
		m.log.WarnError(domain.SessionUnexpectedError, err, fields)
		return fmt.Errorf("failed to look up session user: %w", err)
	}

	// The row and the cookie are left in place.
	if !exists {
		fields["user_id"] = userField(session.UserID)
		m.log.WarnError(domain.SessionUserDoesNotExist, ErrUserNotFound, fields)
		return nil
	}

	a.session = session
	return nil
}

// Login creates a new session for user and sends its key to the browser.
// If the request was already authenticated, the previous session is removed.
func (a *Auth) Login(ctx context.Context, user domain.UserID, ip string) (domain.Session, error) {
	m := a.manager

	if user <= 0 {
		return domain.Session{}, fmt.Errorf("%w: user id must be positive, got %d", domain.ErrInvalidArgument, user)
	}

	created, err := m.issuer(user, ip).Issue(ctx)
	if err != nil {
		m.log.WarnError(domain.SessionCreationFailed, err, domain.LogFields{"user_id": userField(user)})
		return domain.Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	if err := a.cookies.SetCookie(SessionCookieName, created.Key, created.ExpiresAt); err != nil {
		m.log.WarnError(domain.SessionCreationFailed, err, domain.LogFields{"user_id": userField(user)})
		// Without the cookie nobody can use the row.
		if delErr := m.sessions.DeleteByID(ctx, created.ID); delErr != nil {
			m.log.WarnError("Unexpectedly failed to delete a session whose cookie could not be set", delErr, domain.LogFields{"user_id": userField(user)})
		}
		return domain.Session{}, fmt.Errorf("failed to set session cookie: %w", err)
	}

	previous := a.session
	a.session = &created

	m.log.Info(domain.SessionCreated, domain.LogFields{
		"session_hash": hashSessionKey(created.Key),
		"user_id":      userField(user),
	})

	if previous != nil {
		m.log.Info(domain.SessionConcurrentLogin, domain.LogFields{"prev_session_hash": hashSessionKey(previous.Key)})
		if err := m.sessions.DeleteByID(ctx, previous.ID); err != nil {
			// The new session is in place, the old row expires on its own.
			m.log.WarnError("Unexpectedly failed to delete the previous session during authentication", err, domain.LogFields{"user_id": userField(user)})
		}
	}

	return created, nil
}

// Logout deletes the current session and clears the cookie.
// It does nothing when the request is anonymous.
func (a *Auth) Logout(ctx context.Context) error {
	m := a.manager

	if a.session == nil {
		return nil
	}

	if err := m.sessions.DeleteByID(ctx, a.session.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	a.cookies.DeleteCookie(SessionCookieName)
	m.log.Info(domain.SessionDestroyed, domain.LogFields{"session_hash": hashSessionKey(a.session.Key)})
	a.session = nil

	return nil
}
