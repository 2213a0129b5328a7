package output

import (
	"errors"
	"fmt"
	"sync"
)

// Sink is a destination for module results and build events. Write receives
// either a ModuleResult or an Event.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager fans every write out to its sinks. It is safe for concurrent use;
// sinks see writes one at a time and in the order they were made.
type Manager struct {
	mu     sync.Mutex
	sinks  []Sink
	closed bool
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("output manager is closed")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

// WriteResult reports one module outcome.
func (m *Manager) WriteResult(r ModuleResult) error {
	return m.Write(r)
}

// WriteEvent reports a lifecycle event or a standalone diagnostic.
func (m *Manager) WriteEvent(e Event) error {
	return m.Write(e)
}

func (m *Manager) Write(v any) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("output manager is closed")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

// Close closes every sink once. Later calls are no-ops.
func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}
