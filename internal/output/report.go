package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"bundlecore/internal/diag"
)

// ReportSink renders a Markdown build report on Close.
type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	results      []ModuleResult
	diagnostics  []*diag.BuildError
	entries      int
	exitCode     int
	haveExitCode bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{
		path: path,
		file: f,
	}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case ModuleResult:
		s.results = append(s.results, t)
	case Event:
		switch t.Type {
		case EventBuildStarted:
			s.entries = t.Entries
		case EventDiagnostic:
			if t.Diagnostic != nil {
				s.diagnostics = append(s.diagnostics, t.Diagnostic)
			}
		case EventBuildFinished:
			s.exitCode = t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeErr := func(err error) error {
		_ = s.file.Close()
		return err
	}

	results := append([]ModuleResult(nil), s.results...)
	sort.SliceStable(results, func(i, j int) bool { return results[i].Module < results[j].Module })

	var fails []ModuleResult
	var entries []string
	counts := map[Status]int{}
	for _, r := range results {
		counts[r.Status]++
		if r.Status == StatusFail {
			fails = append(fails, r)
		}
		if r.Entry {
			entries = append(entries, r.Module)
		}
	}
	warnings := collectWarnings(results, s.diagnostics)
	se := computeSideEffectStats(results)

	var b strings.Builder
	b.WriteString("# Build Report\n\n")

	// --- Summary ---
	b.WriteString("## Summary\n\n")
	b.WriteString(fmt.Sprintf("- Entries: %d\n", max(s.entries, len(entries))))
	b.WriteString(fmt.Sprintf("- Modules: %d (%d OK, %d WARN, %d FAIL)\n", len(results), counts[StatusOK], counts[StatusWarn], counts[StatusFail]))
	b.WriteString(fmt.Sprintf("- Warnings: %d\n", len(warnings)))
	if s.haveExitCode {
		b.WriteString(fmt.Sprintf("- Exit code: %d (%s)\n", s.exitCode, describeExitCode(s.exitCode)))
	}
	b.WriteString("\n")

	// --- Entries ---
	b.WriteString("## Entries\n\n")
	if len(entries) == 0 {
		b.WriteString("- None\n\n")
	} else {
		for _, e := range entries {
			b.WriteString(fmt.Sprintf("- %s\n", e))
		}
		b.WriteString("\n")
	}

	// --- Failed modules ---
	b.WriteString("## Failed modules\n\n")
	if len(fails) == 0 {
		b.WriteString("- None\n\n")
	} else {
		for _, r := range fails {
			b.WriteString(fmt.Sprintf("### %s\n", r.Module))
			if r.Message != "" {
				b.WriteString(fmt.Sprintf("- %s\n", normalizeErrorReason(r.Message)))
			}
			for _, d := range r.Diagnostics {
				if d.IsWarning() {
					continue
				}
				b.WriteString(fmt.Sprintf("- **%s**: %s\n", d.Kind, d.Message))
			}
			b.WriteString("\n")
		}
	}

	// --- Warnings ---
	b.WriteString("## Warnings\n\n")
	if len(warnings) == 0 {
		b.WriteString("- None\n\n")
	} else {
		byKind := make(map[diag.Kind][]string)
		for _, w := range warnings {
			subject := w.Importer
			if w.Specifier != "" {
				subject = fmt.Sprintf("%s (%s)", w.Importer, w.Specifier)
			}
			byKind[w.Kind] = append(byKind[w.Kind], subject)
		}
		kinds := make([]string, 0, len(byKind))
		for k := range byKind {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			affected := byKind[diag.Kind(k)]
			sort.Strings(affected)
			b.WriteString(fmt.Sprintf("- **%s**: %s\n", k, formatModuleList(affected, 5)))
		}
		b.WriteString("\n")
	}

	// --- Side effects ---
	b.WriteString("## Side effects\n\n")
	b.WriteString("| Classification | Modules |\n")
	b.WriteString("| --- | ---: |\n")
	for _, row := range se {
		b.WriteString(fmt.Sprintf("| %s | %d |\n", row.Name, row.Count))
	}
	b.WriteString("\n")

	// --- Modules ---
	b.WriteString("## Modules\n")
	b.WriteString("| Module | Status | Exports | Side effects | Imports |\n")
	b.WriteString("| --- | --- | --- | --- | ---: |\n")
	for _, r := range results {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d |\n",
			r.Module, r.Status, orDash(r.ExportsKind), orDash(r.SideEffects), len(r.Imports)+len(r.DynamicImports)))
	}
	b.WriteString("\n")

	if _, err := s.file.WriteString(b.String()); err != nil {
		return writeErr(err)
	}
	return s.file.Close()
}
