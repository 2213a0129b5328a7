package output

import (
	"fmt"
	"io"
	"sync"
)

// EmitSink writes an additional structured stream, usually to stdout.
//
// Formats:
//   - json: aggregates module results and writes a single JSON array on Close
//   - ndjson: streams Event values (one JSON object per line)
type EmitSink struct {
	mu     sync.Mutex
	stream *structuredStream
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	stream, err := newStructuredStream(w, format)
	if err != nil {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{stream: stream}, nil
}

func (s *EmitSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream.write(v)
}

func (s *EmitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream.finish()
}
