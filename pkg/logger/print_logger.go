package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/barapp/sesh/pkg/domain"
)

// PrintLogger writes plain text lines. It is meant for demos and local runs.
type PrintLogger struct {
	out io.Writer
}

func NewPrintLogger(out io.Writer) PrintLogger {
	if out == nil {
		out = os.Stdout
	}
	return PrintLogger{out: out}
}

func (l PrintLogger) Info(message string, fields domain.LogFields) {
	fmt.Fprintln(l.out, "SESH INFO: "+message+formatFields(fields))
}

func (l PrintLogger) WarnError(message string, err error, fields domain.LogFields) {
	fmt.Fprintln(l.out, "SESH WARN: "+message+formatFields(fields)+fmt.Sprintf(" error=%q", errString(err)))
}

func formatFields(fields domain.LogFields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, fields[k])
	}
	return b.String()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
