package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileSink writes the structured stream to --out. The file is created up
// front so that a bad path fails the build before any module loads.
type FileSink struct {
	path   string
	mu     sync.Mutex
	file   *os.File
	stream *structuredStream
}

// inferFileFormat maps an --out extension to a structured format.
func inferFileFormat(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return "json", nil
	case ".ndjson", ".jsonl":
		return "ndjson", nil
	}
	return "", fmt.Errorf("cannot infer output format from file extension %q", ext)
}

func NewFileSink(path string, format string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}
	if format == "" {
		inferred, err := inferFileFormat(path)
		if err != nil {
			return nil, err
		}
		format = inferred
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	stream, err := newStructuredStream(f, format)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FileSink{path: path, file: f, stream: stream}, nil
}

func (s *FileSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream.write(v)
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.stream.finish()
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
