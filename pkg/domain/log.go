package domain

// log messages
const (
	SessionCreated         = "New Session Created"
	SessionDestroyed       = "Session Was Destroyed"
	SessionConcurrentLogin = "User logged in again with a concurrent active session"
	SessionPurged          = "Expired sessions were purged"
	SessionRemoved         = "Session was removed by an administrator"

	SessionExpired                = "Auth failed because of an expired session"
	SessionDoesNotExist           = "Auth failed because of an invalid session"
	SessionUserDoesNotExist       = "Auth failed because the session user no longer exists"
	SessionUnexpectedError        = "An unexpected error occurred while checking the session."
	SessionCreationFailed         = "An unexpected error occurred creating a session"
	RequestIsMissingSessionCookie = "Request is missing a session cookie"
	RequestHasInvalidCookie       = "Request has a session cookie that could not be decoded"

	MailVerificationCreated = "New Mail Verification Created"
	MailVerificationExpired = "Mail verification expired"
	MailVerificationDeleted = "Mail Verification Was Deleted"
)

// LogFields are the structured fields attached to a log line.
type LogFields map[string]string

// LogService is the interface that is used for logging all session lifecycle events.
type LogService interface {
	Info(message string, fields LogFields)
	WarnError(message string, err error, fields LogFields)
}
