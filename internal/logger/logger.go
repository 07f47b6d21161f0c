// Package logger provides verbose logging for feedsync.
// When verbose mode is enabled via the --verbose flag or the logging.verbose
// setting, debug messages are printed to stderr to show what the feed manager
// and the engine are doing. Errors are printed regardless of verbosity.
//
// Components log through a Named logger so every line carries its origin:
//
//	[DEBUG] feed: batch of 4 documents
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level orders messages by severity.
type Level int

const (
	LevelDebug Level = iota
	LevelWarn
	LevelError
)

// String returns the tag printed in front of a message.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Logger writes messages tagged with a component name.
// The zero value logs without a component.
type Logger struct {
	component string
}

// Named returns a logger whose messages are prefixed with component.
func Named(component string) *Logger {
	return &Logger{component: component}
}

// Debug prints a message if verbose mode is enabled.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Warn prints a warning if verbose mode is enabled.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error prints an error. Errors are printed even when verbose mode is
// disabled.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

func (l *Logger) log(level Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if level < LevelError && !verbose {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.component != "" {
		fmt.Fprintf(output, "[%s] %s: %s\n", level, l.component, msg)
		return
	}
	fmt.Fprintf(output, "[%s] %s\n", level, msg)
}

var root = &Logger{}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	root.Debug(format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	root.Warn(format, args...)
}

// Error prints an error message. Errors are printed even when verbose mode is
// disabled.
func Error(format string, args ...any) {
	root.Error(format, args...)
}
