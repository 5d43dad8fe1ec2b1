package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barapp/sesh/pkg/domain"
	"github.com/barapp/sesh/pkg/logger"
)

func TestCountingLogger(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := logger.NewLogRecorder(nil)
	log := NewCountingLogger(recorder, reg)

	log.Info(domain.SessionCreated, nil)
	log.Info(domain.SessionCreated, nil)
	log.WarnError(domain.SessionUnexpectedError, errors.New("boom"), nil)
	log.Info("Unexpectedly something else", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(log.events.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(log.events.WithLabelValues("unexpected_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(log.events.WithLabelValues("other")))

	// every line still reaches the wrapped logger
	assert.Len(t, recorder.Lines(), 4)

	expected := `
# HELP sesh_session_events_total Total number of session lifecycle events
# TYPE sesh_session_events_total counter
sesh_session_events_total{event="created"} 2
sesh_session_events_total{event="other"} 1
sesh_session_events_total{event="unexpected_error"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "sesh_session_events_total"))
}

func TestEventLabelsAreUnique(t *testing.T) {
	seen := map[string]string{}
	for message, label := range eventLabels {
		if other, ok := seen[label]; ok {
			t.Fatalf("label %q used for %q and %q", label, message, other)
		}
		seen[label] = message
	}
}
