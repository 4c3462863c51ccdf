// Package debug provides conditional debug logging for dv.
//
// Debug logging is enabled by setting the DV_DEBUG environment variable:
//
//	DV_DEBUG=1 dv --repo https://github.com/org/repo
//
// When enabled, Log, LogTiming and Section write timestamped lines to the
// current output (stderr by default). When disabled they are no-ops.
// Errorf is always written: load failures must leave a trace even when
// diagnostics are off. The TUI redirects the output to a log file with
// SetOutput so the alternate screen stays intact.
package debug

import (
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	enabled bool
	logger  = newLogger(os.Stderr)
)

func init() {
	if os.Getenv("DV_DEBUG") != "" {
		enabled = true
	}
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "[DV] ", log.Ltime|log.Lmicroseconds)
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	mu.Lock()
	enabled = e
	mu.Unlock()
}

// SetOutput redirects all log output. A nil writer discards output.
func SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	mu.Lock()
	logger = newLogger(w)
	mu.Unlock()
}

func current() (*log.Logger, bool) {
	mu.Lock()
	defer mu.Unlock()
	return logger, enabled
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	l, on := current()
	if !on {
		return
	}
	l.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	l, on := current()
	if !on {
		return
	}
	l.Printf("%s took %v", name, d)
}

// Errorf always writes, regardless of DV_DEBUG.
func Errorf(format string, args ...any) {
	l, _ := current()
	l.Printf("ERROR "+format, args...)
}

// Section logs a section header for visual organization in debug output.
func Section(name string) {
	l, on := current()
	if !on {
		return
	}
	l.Printf("=== %s ===", name)
}
