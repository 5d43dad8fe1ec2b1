package domain

import "time"

// Lifetime is the creation and expiry time of an opaque token.
// ExpiresAt is fixed when the token is created and never recomputed.
type Lifetime struct {
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the token is no longer valid at now.
// A token expires at the exact instant of ExpiresAt.
func (l Lifetime) IsExpired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// Remaining returns how long the token stays valid after now, or zero.
func (l Lifetime) Remaining(now time.Time) time.Duration {
	if l.IsExpired(now) {
		return 0
	}
	return l.ExpiresAt.Sub(now)
}

// UserID identifies a user in the user store.
type UserID int64

// User is the identity of an account. Sessions only hold a reference to it.
type User struct {
	ID UserID
}

// Session is one persisted login session. Rows are created and deleted, never updated.
type Session struct {
	ID       string
	UserID   UserID
	Key      string
	CreateIP string
	Lifetime
}

// User returns the user that owns this session.
func (s Session) User() User {
	return User{ID: s.UserID}
}

// NewSession holds the values a store needs to insert a session row.
type NewSession struct {
	UserID   UserID
	Key      string
	CreateIP string
	Lifetime
}

// MailVerification proves that a user owns a mail address.
type MailVerification struct {
	ID             int64
	UserID         UserID
	Mail           string
	Key            string
	PreviousMailID *int64
	Lifetime
}

// HasPreviousMail reports whether this verification supersedes an earlier mail address.
func (v MailVerification) HasPreviousMail() bool {
	return v.PreviousMailID != nil
}

// NewMailVerification holds the values a store needs to insert a mail verification row.
type NewMailVerification struct {
	UserID         UserID
	Mail           string
	Key            string
	PreviousMailID *int64
	Lifetime
}
