package plugin

import (
	"path/filepath"
	"strings"

	"bundlecore/internal/module"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter limits which module ids a plugin's load and transform hooks see.
// Patterns are doublestar globs matched against the slash form of the id
// without its query.
type Filter struct {
	Include []string
	Exclude []string
}

// Options returns the standard configuration options for filtering.
func (f *Filter) Options() []Option {
	return []Option{
		{
			Name:        "filter.include",
			Description: "Comma-separated globs of module ids the plugin applies to (e.g. **/*.js). Empty means all.",
		},
		{
			Name:        "filter.exclude",
			Description: "Comma-separated globs of module ids the plugin never applies to (e.g. **/node_modules/**).",
		},
	}
}

// Configure parses the configuration options to populate the Filter.
func (f *Filter) Configure(opts map[string]string) {
	f.Include = splitPatterns(opts["filter.include"])
	f.Exclude = splitPatterns(opts["filter.exclude"])
}

func splitPatterns(val string) []string {
	var out []string
	for _, s := range strings.Split(val, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Matches reports whether id passes the filter. Virtual ids beginning with a
// NUL byte only pass when no include patterns are set.
func (f *Filter) Matches(id string) bool {
	if len(f.Include) == 0 && len(f.Exclude) == 0 {
		return true
	}
	if strings.HasPrefix(id, "\x00") {
		return len(f.Include) == 0
	}
	p := filepath.ToSlash(module.ParseResolvedPath(id).Path)
	if matchAny(f.Exclude, p) {
		return false
	}
	return len(f.Include) == 0 || matchAny(f.Include, p)
}

// matchAny also tries p without its leading slash so that relative-looking
// patterns such as **/*.js match absolute ids.
func matchAny(patterns []string, p string) bool {
	trimmed := strings.TrimPrefix(p, "/")
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, p); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, trimmed); matched {
			return true
		}
	}
	return false
}
