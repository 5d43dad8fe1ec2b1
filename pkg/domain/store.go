package domain

import (
	"context"
	"time"
)

// SessionStore persists sessions.
// Absence is never an error: FindByKey returns nil, nil when no row matches.
// Every query failure is returned wrapping ErrStorage.
type SessionStore interface {
	List(ctx context.Context) ([]Session, error)
	Count(ctx context.Context) (int, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByKey(ctx context.Context, key string) (bool, error)
	FindByKey(ctx context.Context, key string) (*Session, error)

	// Insert stores a new session and returns it with its assigned ID.
	// A duplicate key is reported as ErrCollision.
	Insert(ctx context.Context, session NewSession) (Session, error)
	DeleteByID(ctx context.Context, id string) error

	// DeleteExpired removes every session that is expired at now and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// UserStore answers whether a user still exists.
type UserStore interface {
	ExistsByID(ctx context.Context, id UserID) (bool, error)
}

// MailVerificationStore persists mail verifications.
type MailVerificationStore interface {
	Find(ctx context.Context, id int64) (*MailVerification, error)
	FindByKey(ctx context.Context, key string) (*MailVerification, error)
	ExistsByKey(ctx context.Context, key string) (bool, error)
	ListByUser(ctx context.Context, user UserID) ([]MailVerification, error)
	Insert(ctx context.Context, verification NewMailVerification) (MailVerification, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CookieJar reads the cookies of one request and writes the cookies of its response.
// Names are given without any configured prefix.
type CookieJar interface {
	HasCookie(name string) bool
	// GetCookie returns false when the cookie is missing or its value cannot be read.
	GetCookie(name string) (string, bool)
	// SetCookie fails when the value cannot be written; the response then carries no cookie.
	SetCookie(name, value string, expires time.Time) error
	DeleteCookie(name string)
}
