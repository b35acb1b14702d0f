// Package monitoring holds the process-wide diagnostic loggers used by the
// bridge packages.
package monitoring

import (
	"io"
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

var debugLogger atomic.Pointer[log.Logger]

// SetDebugLogger installs a logger that receives per-revolution diagnostics.
// Pass nil to disable debug logging.
func SetDebugLogger(w io.Writer) {
	if w == nil {
		debugLogger.Store(nil)
		return
	}
	debugLogger.Store(log.New(w, "[debug] ", log.LstdFlags|log.Lmicroseconds))
}

// DebugEnabled reports whether a debug logger is installed.
func DebugEnabled() bool {
	return debugLogger.Load() != nil
}

// Debugf logs formatted debug messages when a debug logger is configured.
func Debugf(format string, args ...interface{}) {
	if l := debugLogger.Load(); l != nil {
		l.Printf(format, args...)
	}
}
