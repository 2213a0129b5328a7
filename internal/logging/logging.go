// Package logging hands out component loggers that share one level and sink.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu    sync.RWMutex
	level = log.WarnLevel
	out   io.Writer = os.Stderr
)

// Levels lists the accepted --log-level values.
var Levels = []string{"debug", "info", "warn", "error"}

// SetLevel changes the level for loggers created afterwards.
func SetLevel(name string) error {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return fmt.Errorf("unsupported log level %q (must be one of: %s)", name, strings.Join(Levels, ", "))
	}
	mu.Lock()
	level = lvl
	mu.Unlock()
	return nil
}

// SetOutput redirects loggers created afterwards.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// New returns a logger prefixed with component.
func New(component string) *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log.NewWithOptions(out, log.Options{
		Prefix: component,
		Level:  level,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
