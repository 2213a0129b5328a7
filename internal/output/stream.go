package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// structuredStream is the machine-readable encoding shared by the console,
// emit and file sinks.
//
//   - json: module results are buffered and written on finish as one array,
//     ordered by module id. Events are dropped.
//   - ndjson: every event and result is written as one line as it arrives;
//     results are wrapped in module.done / module.failed events.
//
// Callers serialize access.
type structuredStream struct {
	w       io.Writer
	format  string
	results []ModuleResult
}

func newStructuredStream(w io.Writer, format string) (*structuredStream, error) {
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported structured format: %s", format)
	}
	return &structuredStream{w: w, format: format}, nil
}

func (s *structuredStream) write(v any) error {
	if s.format == "json" {
		if r, ok := v.(ModuleResult); ok {
			s.results = append(s.results, r)
		}
		return nil
	}

	var line any
	switch t := v.(type) {
	case Event:
		line = t
	case ModuleResult:
		line = eventFromResult(t)
	default:
		return nil
	}
	if err := json.NewEncoder(s.w).Encode(line); err != nil {
		return err
	}
	return flush(s.w)
}

func (s *structuredStream) finish() error {
	if s.format != "json" {
		return nil
	}
	results := s.results
	if results == nil {
		results = []ModuleResult{}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return moduleOrdinal(results[i].ID) < moduleOrdinal(results[j].ID)
	})
	encoder := json.NewEncoder(s.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return err
	}
	return flush(s.w)
}

// moduleOrdinal turns "m12" into 12. Unknown ids sort last.
func moduleOrdinal(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "m"))
	if err != nil || !strings.HasPrefix(id, "m") {
		return int(^uint(0) >> 1)
	}
	return n
}

// flush pushes buffered bytes through writers such as *bufio.Writer so
// streamed lines reach a reader as soon as they are written.
func flush(w io.Writer) error {
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
