package logger

import (
	"fmt"
	"strings"
	"testing"

	"github.com/arloliu/mcint/types"
)

// TestLogger routes records to t.Logf so they show up next to the failing test.
type TestLogger struct {
	t testing.TB
}

var _ types.Logger = (*TestLogger)(nil)

// NewTest creates a logger bound to t.
//
// Example:
//
//	func TestIntegrate(t *testing.T) {
//	    engine, err := mcint.NewEngine(cfg, comm, mcint.WithLogger(logger.NewTest(t)))
//	    ...
//	}
func NewTest(t testing.TB) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) Debug(msg string, keysAndValues ...any) {
	l.t.Helper()
	l.t.Logf("DEBUG: %s%s", msg, formatKeyValues(keysAndValues))
}

func (l *TestLogger) Info(msg string, keysAndValues ...any) {
	l.t.Helper()
	l.t.Logf("INFO: %s%s", msg, formatKeyValues(keysAndValues))
}

func (l *TestLogger) Warn(msg string, keysAndValues ...any) {
	l.t.Helper()
	l.t.Logf("WARN: %s%s", msg, formatKeyValues(keysAndValues))
}

func (l *TestLogger) Error(msg string, keysAndValues ...any) {
	l.t.Helper()
	l.t.Logf("ERROR: %s%s", msg, formatKeyValues(keysAndValues))
}

// Fatal logs and fails the test immediately.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.t.Helper()
	l.t.Fatalf("FATAL: %s%s", msg, formatKeyValues(keysAndValues))
}

func formatKeyValues(keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return ""
	}

	var sb strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&sb, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&sb, " %v=<missing>", keysAndValues[i])
		}
	}

	return sb.String()
}
