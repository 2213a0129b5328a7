package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// ConsoleSink prints module results as they arrive. Text mode prints one
// coloured status line per module followed by its diagnostics; json and
// ndjson share the structured encoding of the other sinks.
type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	mu              sync.Mutex
	stream          *structuredStream // nil in text mode
	allowedStatuses map[Status]bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses ...string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}
	if format != "text" {
		// An unsupported format leaves stream nil; Write and Close report it.
		s.stream, _ = newStructuredStream(w, format)
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[Status]bool)
		for _, st := range filterStatuses {
			s.allowedStatuses[Status(strings.ToUpper(strings.TrimSpace(st)))] = true
		}
	}

	return s
}

var statusColors = map[Status]*color.Color{
	StatusOK:   color.New(color.FgGreen),
	StatusWarn: color.New(color.FgYellow),
	StatusFail: color.New(color.FgRed, color.Bold),
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(v)
}

func (s *ConsoleSink) writeLocked(v any) error {
	printf := func(format string, args ...any) error {
		_, err := fmt.Fprintf(s.writer, format, args...)
		return err
	}

	// Apply filtering if configured
	if len(s.allowedStatuses) > 0 {
		if r, ok := v.(ModuleResult); ok {
			if !s.allowedStatuses[r.Status] {
				return nil
			}
		}
	}

	switch s.format {
	case "json", "ndjson":
		if s.stream == nil {
			return fmt.Errorf("unsupported console format: %s", s.format)
		}
		return s.stream.write(v)
	case "text":
		r, ok := v.(ModuleResult)
		if !ok {
			// Ignore events in text mode.
			return nil
		}
		tag := "[" + string(r.Status) + "]"
		if c, ok := statusColors[r.Status]; ok {
			tag = c.Sprint(tag)
		}
		if err := printf("%s %s", tag, r.Module); err != nil {
			return err
		}
		if r.Message != "" {
			if err := printf(" - %s", r.Message); err != nil {
				return err
			}
		}
		if err := printf("\n"); err != nil {
			return err
		}
		for _, d := range r.Diagnostics {
			if err := printf("    %s\n", d.Error()); err != nil {
				return err
			}
		}
		return flush(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "text":
		return nil
	case "json", "ndjson":
		if s.stream != nil {
			return s.stream.finish()
		}
	}
	return fmt.Errorf("unsupported console format: %s", s.format)
}
