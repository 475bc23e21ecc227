// Package logger provides verbose logging for sercha-rag.
//
// With --verbose, the query and ingest pipelines narrate each step
// (routing, retrieval, generation, chunking) on stderr. Errors are printed
// whether or not verbose mode is on.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is the severity of a log line.
type Level int

// Levels, lowest first.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the tag printed in front of a log line.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
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

// IsVerbose reports whether verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func emit(level Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose && level < LevelError {
		return
	}
	fmt.Fprintf(output, "["+level.String()+"] "+format+"\n", args...)
}

// Debug logs a pipeline detail in verbose mode.
func Debug(format string, args ...any) { emit(LevelDebug, format, args...) }

// Info logs a pipeline outcome in verbose mode.
func Info(format string, args ...any) { emit(LevelInfo, format, args...) }

// Warn logs a recoverable failure in verbose mode.
func Warn(format string, args ...any) { emit(LevelWarn, format, args...) }

// Error always logs.
func Error(format string, args ...any) { emit(LevelError, format, args...) }

// Section prints a header separating one pipeline run from the next.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed starts a stopwatch for a pipeline step. Calling the returned
// function logs the step with its elapsed time at debug level.
//
//	defer logger.Timed("ingest: rebuild")()
func Timed(step string) func() {
	start := time.Now()
	return func() {
		emit(LevelDebug, "%s took %s", step, time.Since(start).Round(time.Microsecond))
	}
}
