package engine

import (
	"path/filepath"
	"strings"

	"bundlecore/internal/config"

	"github.com/bmatcuk/doublestar/v4"
)

// FilterEntries drops entries matching any --exclude-entry pattern.
func FilterEntries(entries []string, cfg *config.Config) []string {
	if cfg == nil {
		panic("engine.FilterEntries: cfg must not be nil")
	}
	if len(cfg.Input.EntryExclude) == 0 {
		return entries
	}

	var filtered []string
	for _, e := range entries {
		if matchesAnyEntryPattern(cfg.Input.EntryExclude, e) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered
}

func matchesAnyEntryPattern(patterns []string, entry string) bool {
	subject := strings.TrimPrefix(filepath.ToSlash(entry), "./")
	for _, p := range patterns {
		p = strings.TrimPrefix(strings.TrimSpace(p), "./")
		if p == "" {
			continue
		}
		if matched, _ := doublestar.Match(p, subject); matched {
			return true
		}
	}
	return false
}
