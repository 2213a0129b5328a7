package engine

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"bundlecore/internal/config"
	"bundlecore/internal/module"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// DiscoverEntries expands glob entries against the file system, drops
// excluded entries and removes duplicates. Entries without glob characters
// pass through untouched so that bare package names and virtual ids still
// reach the resolver.
func DiscoverEntries(fsys afero.Fs, cwd string, cfg *config.Config) ([]string, error) {
	if cfg == nil {
		panic("engine.DiscoverEntries: cfg must not be nil")
	}

	var entries []string
	for _, raw := range cfg.Input.Entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if !isGlobEntry(entry) {
			entries = append(entries, entry)
			continue
		}
		matches, err := expandEntryGlob(fsys, cwd, entry)
		if err != nil {
			return nil, err
		}
		entries = append(entries, matches...)
	}

	entries = dedupeEntries(FilterEntries(entries, cfg))
	if len(entries) == 0 {
		return nil, fmt.Errorf("no entries left after applying --exclude-entry")
	}
	return entries, nil
}

func isGlobEntry(entry string) bool {
	if entry == module.RuntimeModuleID || module.IsVirtualID(entry) {
		return false
	}
	return strings.ContainsAny(entry, "*?[{")
}

func expandEntryGlob(fsys afero.Fs, cwd, pattern string) ([]string, error) {
	rel := strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	if filepath.IsAbs(pattern) || rel == ".." || strings.HasPrefix(rel, "../") {
		return nil, fmt.Errorf("entry pattern %q must be relative to the working directory", pattern)
	}
	if !doublestar.ValidatePattern(rel) {
		return nil, fmt.Errorf("invalid entry pattern %q", pattern)
	}

	root := afero.NewIOFS(afero.NewBasePathFs(fsys, cwd))
	matches, err := doublestar.Glob(root, rel, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, fmt.Errorf("expand entry pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("entry pattern %q matched no files", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}

func dedupeEntries(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		key := normalizeEntryKey(e)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// normalizeEntryKey makes "./src/a.js" and "src/a.js" compare equal.
func normalizeEntryKey(entry string) string {
	if isGlobEntry(entry) || module.IsVirtualID(entry) || entry == module.RuntimeModuleID {
		return entry
	}
	if filepath.IsAbs(entry) {
		return filepath.ToSlash(filepath.Clean(entry))
	}
	cleaned := path.Clean(filepath.ToSlash(entry))
	if cleaned == "." {
		return entry
	}
	return cleaned
}
