package module

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ResolvedPath is the output of resolution: an absolute (or virtual) path and
// an optional query/fragment suffix such as "?raw" or "#hash".
type ResolvedPath struct {
	Path  string `json:"path"`
	Query string `json:"query,omitempty"`
}

// ParseResolvedPath splits id at the first '?' or '#'. Ids beginning with a
// NUL byte are virtual and kept whole.
func ParseResolvedPath(id string) ResolvedPath {
	if strings.HasPrefix(id, "\x00") {
		return ResolvedPath{Path: id}
	}
	if i := strings.IndexAny(id, "?#"); i > 0 {
		return ResolvedPath{Path: id[:i], Query: id[i:]}
	}
	return ResolvedPath{Path: id}
}

func (p ResolvedPath) String() string {
	return p.Path + p.Query
}

// IsVirtual reports whether the path does not name a file on disk.
func (p ResolvedPath) IsVirtual() bool {
	return IsVirtualID(p.Path)
}

// IsVirtualID reports whether id is a plugin-provided virtual id: it either
// starts with NUL or uses a "scheme:" prefix that is not a Windows drive.
func IsVirtualID(id string) bool {
	if strings.HasPrefix(id, "\x00") {
		return true
	}
	if filepath.IsAbs(id) {
		return false
	}
	if i := strings.Index(id, ":"); i > 1 {
		return !strings.ContainsAny(id[:i], `/\`)
	}
	return false
}

// DebugDisplay renders the path relative to cwd for diagnostics.
func (p ResolvedPath) DebugDisplay(cwd string) string {
	return string(ResourceID(p.Path).Stabilize(cwd)) + p.Query
}

// ResourceID is the module's path as used for identification.
type ResourceID string

// StableResourceID is a cwd-relative, slash-separated id that is identical
// across machines and runs. Virtual ids are kept unchanged.
type StableResourceID string

// Stabilize converts an absolute id to a cwd-relative slash path.
func (id ResourceID) Stabilize(cwd string) StableResourceID {
	s := string(id)
	if IsVirtualID(s) || !filepath.IsAbs(s) || cwd == "" {
		return StableResourceID(filepath.ToSlash(s))
	}
	rel, err := filepath.Rel(cwd, s)
	if err != nil {
		return StableResourceID(filepath.ToSlash(s))
	}
	return StableResourceID(filepath.ToSlash(rel))
}

// RepresentativeName derives a valid JS identifier from a path, used to name
// the module's namespace and default export. An "index" file is named after
// its directory.
func RepresentativeName(p string) string {
	p = ParseResolvedPath(strings.TrimPrefix(p, "\x00")).Path
	base := filepath.Base(p)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "index" {
		if dir := filepath.Base(filepath.Dir(p)); dir != "." && dir != string(filepath.Separator) && dir != "" {
			stem = dir
		}
	}
	if i := strings.LastIndex(stem, ":"); i >= 0 {
		stem = stem[i+1:]
	}
	if stem == "." || stem == string(filepath.Separator) {
		stem = ""
	}
	return legitimizeIdentifier(stem)
}

func legitimizeIdentifier(s string) string {
	var b strings.Builder
	for i, r := range s {
		valid := r == '_' || r == '$' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r))
		if !valid {
			if i == 0 && unicode.IsDigit(r) {
				b.WriteRune('_')
				b.WriteRune(r)
				continue
			}
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "module"
	}
	return b.String()
}
