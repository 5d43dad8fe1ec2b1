// Package metrics counts session lifecycle events for prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/barapp/sesh/pkg/domain"
)

// eventLabels maps log messages to the event label they are counted under.
var eventLabels = map[string]string{
	domain.SessionCreated:                "created",
	domain.SessionDestroyed:              "destroyed",
	domain.SessionConcurrentLogin:        "concurrent_login",
	domain.SessionPurged:                 "purged",
	domain.SessionRemoved:                "removed",
	domain.SessionExpired:                "expired",
	domain.SessionDoesNotExist:           "not_found",
	domain.SessionUserDoesNotExist:       "user_missing",
	domain.SessionUnexpectedError:        "unexpected_error",
	domain.SessionCreationFailed:         "creation_failed",
	domain.RequestIsMissingSessionCookie: "missing_cookie",
	domain.RequestHasInvalidCookie:       "invalid_cookie",
	domain.MailVerificationCreated:       "mail_created",
	domain.MailVerificationExpired:       "mail_expired",
	domain.MailVerificationDeleted:       "mail_deleted",
}

// EventLabel returns the label a log message is counted under.
func EventLabel(message string) string {
	if label, ok := eventLabels[message]; ok {
		return label
	}
	return "other"
}

// CountingLogger counts every line before handing it to the wrapped LogService.
type CountingLogger struct {
	domain.LogService
	events *prometheus.CounterVec
}

// NewCountingLogger registers sesh_session_events_total on reg.
func NewCountingLogger(wrapped domain.LogService, reg prometheus.Registerer) *CountingLogger {
	return &CountingLogger{
		LogService: wrapped,
		events: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sesh_session_events_total",
				Help: "Total number of session lifecycle events",
			},
			[]string{"event"},
		),
	}
}

func (l *CountingLogger) Info(message string, fields domain.LogFields) {
	l.events.WithLabelValues(EventLabel(message)).Inc()
	l.LogService.Info(message, fields)
}

func (l *CountingLogger) WarnError(message string, err error, fields domain.LogFields) {
	l.events.WithLabelValues(EventLabel(message)).Inc()
	l.LogService.WarnError(message, err, fields)
}
