/*
 * mixforge - a declarative JVM bytecode transformation engine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace is the diagnostic sink the spec (§7) calls out as the
// default destination for anything short of a fatal classfile-read error:
// every per-directive warning and failure is reported here and execution
// continues. It mirrors the teacher's own trace.Trace/trace.Error calling
// convention, backed by a real structured logger rather than a bare
// fmt.Fprintf to stderr.
package trace

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.Mutex
	logger *zap.SugaredLogger
	level  = INFO
)

// Level mirrors the teacher's named severities (SEVERE, WARNING, INFO,
// FINE, TRACE_INST), collapsed to the subset this engine actually emits.
type Level int

const (
	SEVERE Level = iota
	WARNING
	INFO
	FINE
)

func (l Level) String() string {
	switch l {
	case SEVERE:
		return "SEVERE"
	case WARNING:
		return "WARNING"
	case INFO:
		return "INFO"
	case FINE:
		return "FINE"
	default:
		return "UNKNOWN"
	}
}

// Init builds the package logger. Calling it more than once replaces the
// prior logger; it is not safe to call concurrently with Trace/Error/Warn.
func Init(verbose bool) {
	mu.Lock()
	defer mu.Unlock()

	var z *zap.Logger
	var err error
	if verbose {
		z, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.DisableStacktrace = true
		z, err = cfg.Build()
	}
	if err != nil {
		// Logging must never be the reason a transform fails, so fall back
		// to a no-op logger rather than propagating the error.
		z = zap.NewNop()
	}
	logger = z.Sugar()
}

// SetLevel sets the minimum severity that is actually emitted, matching the
// teacher's log.SetLogLevel().
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

func ensure() *zap.SugaredLogger {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l == nil {
		Init(false)
		mu.Lock()
		l = logger
		mu.Unlock()
	}
	return l
}

func emit(l Level, msg string) {
	if l > currentLevel() {
		return
	}
	s := ensure()
	switch l {
	case SEVERE:
		s.Error(msg)
	case WARNING:
		s.Warn(msg)
	case INFO:
		s.Info(msg)
	case FINE:
		s.Debug(msg)
	}
}

func currentLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return level
}

// Error reports a severe condition. Used for the fatal classfile-malformed
// case and any other error the caller wants to surface loudly.
func Error(msg string) { emit(SEVERE, msg) }

// Warn reports a recoverable condition, such as a directive whose target
// method could not be found (spec §4.6 error policy, case 2).
func Warn(msg string) { emit(WARNING, msg) }

// Info reports a normal, expected event.
func Info(msg string) { emit(INFO, msg) }

// Trace reports fine-grained, high-volume detail, analogous to the
// teacher's log.FINE / log.TRACE_INST levels.
func Trace(msg string) { emit(FINE, msg) }

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	if l := ensure(); l != nil {
		_ = l.Sync()
	}
}
