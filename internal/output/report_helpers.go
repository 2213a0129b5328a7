package output

import (
	"fmt"
	"sort"
	"strings"

	"bundlecore/internal/diag"
)

// normalizeErrorReason collapses whitespace, strips stage prefixes, and truncates.
func normalizeErrorReason(errText string) string {
	s := strings.TrimSpace(errText)
	// Collapse whitespace
	fields := strings.Fields(s)
	s = strings.Join(fields, " ")

	// Heuristic: a leading "stage: " or "stage name: " carries no information
	// once the report already groups by module.
	for _, prefix := range []string{"load: ", "transform: ", "parse: ", "resolve dependencies: ", "moduleParsed: "} {
		s = strings.TrimPrefix(s, prefix)
	}

	// Fallback truncation
	if len(s) > 160 {
		return s[:157] + "..."
	}
	return s
}

func describeExitCode(code int) string {
	switch code {
	case 0:
		return "success"
	case 1:
		return "warnings"
	case 2:
		return "module failures"
	case 3:
		return "fatal"
	default:
		return "unknown"
	}
}

// collectWarnings merges per-module warnings with standalone diagnostic events,
// dropping exact duplicates.
func collectWarnings(results []ModuleResult, extra []*diag.BuildError) []*diag.BuildError {
	seen := make(map[string]bool)
	var out []*diag.BuildError
	add := func(d *diag.BuildError) {
		if d == nil || !d.IsWarning() {
			return
		}
		key := string(d.Kind) + "\x00" + d.Importer + "\x00" + d.Specifier + "\x00" + d.Message
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, d)
	}
	for _, r := range results {
		for _, d := range r.Diagnostics {
			add(d)
		}
	}
	for _, d := range extra {
		add(d)
	}
	return out
}

type sideEffectRow struct {
	Name  string
	Count int
}

func computeSideEffectStats(results []ModuleResult) []sideEffectRow {
	counts := make(map[string]int)
	for _, r := range results {
		if r.SideEffects == "" {
			continue
		}
		counts[r.SideEffects]++
	}
	rows := make([]sideEffectRow, 0, len(counts))
	for name, n := range counts {
		rows = append(rows, sideEffectRow{Name: name, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatModuleList(modules []string, max int) string {
	if len(modules) == 0 {
		return ""
	}
	if len(modules) <= max {
		return fmt.Sprintf("%d modules (%s)", len(modules), strings.Join(modules, ", "))
	}
	return fmt.Sprintf("%d modules (%s, +%d more)", len(modules), strings.Join(modules[:max], ", "), len(modules)-max)
}
