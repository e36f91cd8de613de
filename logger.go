package goslink

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger is the three-severity sink the session uses: Log for routine
// progress, Diag for low-priority diagnostics (stream mismatches, INFO
// noise), Error for conditions the caller should notice.
type Logger interface {
	Log(format string, args ...interface{})
	Diag(format string, args ...interface{})
	Error(format string, args ...interface{})

	// Component returns a Logger scoped to a named subsystem, the way the
	// teacher's sdo_client.go tags sub-roles within a larger component
	// (e.g. [CLIENT][RX]). Client uses this to give negotiation, the
	// session state machine, and stream bookkeeping each their own
	// "component" field value ("negotiate", "collect", "stream");
	// persistence logs under "persist" through DefaultLogger.
	Component(name string) Logger
}

// processLog is the process-wide fallback logger, used by any Client built
// without an explicit Logger. This is the only mutable package-level state
// the library carries.
var processLog = logrus.StandardLogger()

// SetDefaultOutput redirects the process-wide fallback logger's output.
func SetDefaultOutput(out *logrus.Logger) {
	processLog = out
}

type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogger builds a Logger over out, tagging every line with a
// "component" field, mirroring the bracketed [TAG] convention used
// throughout the session's internals.
func NewLogger(out *logrus.Logger, component string) Logger {
	if out == nil {
		out = processLog
	}
	return &logrusLogger{entry: out.WithField("component", component)}
}

// DefaultLogger returns a Logger over the process-wide fallback, tagged
// with component.
func DefaultLogger(component string) Logger {
	return NewLogger(processLog, component)
}

func (l *logrusLogger) Log(format string, args ...interface{}) {
	l.entry.Info(fmt.Sprintf(format, args...))
}

func (l *logrusLogger) Diag(format string, args ...interface{}) {
	l.entry.Debug(fmt.Sprintf(format, args...))
}

func (l *logrusLogger) Error(format string, args ...interface{}) {
	l.entry.Error(fmt.Sprintf(format, args...))
}

func (l *logrusLogger) Component(name string) Logger {
	return &logrusLogger{entry: l.entry.WithField("component", name)}
}
