package logger

import (
	"fmt"
	"sync"

	"github.com/barapp/sesh/pkg/domain"
)

// LogLine is a recorded log line
type LogLine struct {
	Level   string
	Message string
	Err     error
	Fields  domain.LogFields
}

// LogRecorder records every line it is given and forwards it to the wrapped LogService, if any.
// It is safe for concurrent use.
type LogRecorder struct {
	domain.LogService

	mu      sync.Mutex
	lines   []LogLine
	globals domain.LogFields
}

// NewLogRecorder constructs a LogRecorder. wrapped may be nil.
func NewLogRecorder(wrapped domain.LogService) *LogRecorder {
	return &LogRecorder{
		LogService: wrapped,
	}
}

// RecordLine records and returns a new LogLine with its level, message, and fields.
func (r *LogRecorder) RecordLine(level string, message string, err error, fields domain.LogFields) LogLine {
	r.mu.Lock()
	defer r.mu.Unlock()

	newLine := LogLine{
		Level:   level,
		Message: message,
		Err:     err,
		Fields:  domain.LogFields{},
	}

	for k, v := range r.globals {
		newLine.Fields[k] = v
	}

	for k, v := range fields {
		newLine.Fields[k] = v
	}

	r.lines = append(r.lines, newLine)

	return newLine
}

// Info records new LogLine as INFO level
func (r *LogRecorder) Info(message string, fields domain.LogFields) {
	line := r.RecordLine("INFO", message, nil, fields)
	if r.LogService != nil {
		r.LogService.Info(line.Message, line.Fields)
	}
}

// WarnError records new LogLine as WARN level
func (r *LogRecorder) WarnError(message string, err error, fields domain.LogFields) {
	line := r.RecordLine("WARN", message, err, fields)
	if r.LogService != nil {
		r.LogService.WarnError(line.Message, err, line.Fields)
	}
}

// AddField adds a field that is attached to every following line
func (r *LogRecorder) AddField(name string, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.globals == nil {
		r.globals = domain.LogFields{}
	}
	r.globals[name] = value
}

// GetOnlyMatchingMessage returns singular LogLine that matches message or errors
func (r *LogRecorder) GetOnlyMatchingMessage(message string) (LogLine, error) {
	messages := r.MatchingMessages(message)
	if len(messages) != 1 {
		return LogLine{}, fmt.Errorf("didn't find only one line for message: %s (%v)", message, messages)
	}
	return messages[0], nil
}

// MatchingMessages returns every recorded LogLine with this message
func (r *LogRecorder) MatchingMessages(message string) []LogLine {
	r.mu.Lock()
	defer r.mu.Unlock()

	matches := []LogLine{}
	for _, line := range r.lines {
		if line.Message == message {
			matches = append(matches, line)
		}
	}
	return matches
}

// Lines returns a copy of everything recorded so far
func (r *LogRecorder) Lines() []LogLine {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]LogLine(nil), r.lines...)
}
