package domain

import (
	"testing"
	"time"
)

func TestLifetimeIsExpired(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	lifetime := Lifetime{CreatedAt: now.Add(-time.Hour), ExpiresAt: now}

	if !lifetime.IsExpired(now) {
		t.Fatal("a token should be expired at the instant of its expiry")
	}

	if lifetime.IsExpired(now.Add(-time.Nanosecond)) {
		t.Fatal("a token should be valid right before its expiry")
	}

	if lifetime.Remaining(now) != 0 {
		t.Fatal("an expired token has no time remaining")
	}

	if lifetime.Remaining(now.Add(-time.Minute)) != time.Minute {
		t.Fatal("wrong remaining time", lifetime.Remaining(now.Add(-time.Minute)))
	}
}

func TestSessionUser(t *testing.T) {
	session := Session{ID: "abc", UserID: 42}
	if session.User().ID != 42 {
		t.Fatal("session should reference its owning user")
	}
}

func TestMailVerificationHasPreviousMail(t *testing.T) {
	var v MailVerification
	if v.HasPreviousMail() {
		t.Fatal("no previous mail was set")
	}

	previous := int64(7)
	v.PreviousMailID = &previous
	if !v.HasPreviousMail() {
		t.Fatal("previous mail was set")
	}
}
