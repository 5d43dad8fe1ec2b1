package sesh

import (
	"github.com/barapp/sesh/pkg/domain"
	"github.com/barapp/sesh/pkg/seshttp"
)

// Session is one persisted login session.
type Session = domain.Session

// User is the identity a session belongs to.
type User = domain.User

// UserID identifies a user.
type UserID = domain.UserID

// LogFields are the structured fields attached to a log line.
type LogFields = domain.LogFields

// LogService is the interface that is used for logging all session lifecycle events. Supply your own with CustomLogger()
type LogService = domain.LogService

// Errors for the error handler
var (
	ErrNoSession = seshttp.ErrNoSession
)
