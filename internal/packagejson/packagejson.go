package packagejson

import (
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

const FileName = "package.json"

// PackageJSON is the subset of package.json the loader cares about.
// Values are read-only once Load returns; instances are shared between tasks.
type PackageJSON struct {
	// Path is the absolute path of the package.json file.
	Path string

	Name    string
	Version string
	Type    string
	Main    string
	Module  string

	sideEffects sideEffects
}

type sideEffectsKind int

const (
	sideEffectsUnset sideEffectsKind = iota
	sideEffectsBool
	sideEffectsGlobs
)

type sideEffects struct {
	kind  sideEffectsKind
	value bool
	globs []string
}

type rawPackageJSON struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Type        string          `json:"type"`
	Main        string          `json:"main"`
	Module      string          `json:"module"`
	SideEffects json.RawMessage `json:"sideEffects"`
}

// Load reads and parses the package.json at p.
func Load(fsys afero.Fs, p string) (*PackageJSON, error) {
	data, err := afero.ReadFile(fsys, p)
	if err != nil {
		return nil, err
	}
	pkg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	pkg.Path = p
	return pkg, nil
}

// Parse decodes package.json content. Path is left empty.
func Parse(data []byte) (*PackageJSON, error) {
	var raw rawPackageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	pkg := &PackageJSON{
		Name:    raw.Name,
		Version: raw.Version,
		Type:    raw.Type,
		Main:    raw.Main,
		Module:  raw.Module,
	}
	se, err := parseSideEffects(raw.SideEffects)
	if err != nil {
		return nil, err
	}
	pkg.sideEffects = se
	return pkg, nil
}

func parseSideEffects(raw json.RawMessage) (sideEffects, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return sideEffects{}, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return sideEffects{kind: sideEffectsBool, value: b}, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return sideEffects{kind: sideEffectsGlobs, globs: normalizeGlobs([]string{one})}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return sideEffects{}, fmt.Errorf("invalid sideEffects field: %s", s)
	}
	return sideEffects{kind: sideEffectsGlobs, globs: normalizeGlobs(many)}, nil
}

// normalizeGlobs applies the bundler convention that a pattern without a
// slash matches a file name anywhere in the package.
func normalizeGlobs(globs []string) []string {
	out := make([]string, 0, len(globs))
	for _, g := range globs {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		g = strings.TrimPrefix(g, "./")
		if !strings.Contains(g, "/") {
			g = "**/" + g
		}
		out = append(out, g)
	}
	return out
}

// Dir returns the directory containing the package.json.
func (p *PackageJSON) Dir() string {
	if p == nil || p.Path == "" {
		return ""
	}
	return filepath.Dir(p.Path)
}

// IsModuleType reports whether the package declares "type": "module".
func (p *PackageJSON) IsModuleType() bool {
	return p != nil && p.Type == "module"
}

// HasSideEffectsField reports whether sideEffects was declared at all.
func (p *PackageJSON) HasSideEffectsField() bool {
	return p != nil && p.sideEffects.kind != sideEffectsUnset
}

// CheckSideEffectsFor evaluates the sideEffects field for the module at
// modulePath. ok is false when the package does not declare sideEffects.
//
// Glob patterns are matched against modulePath made relative to the package
// directory. A relative modulePath is taken to be relative to that directory
// already.
func (p *PackageJSON) CheckSideEffectsFor(modulePath string) (value bool, ok bool) {
	if p == nil {
		return false, false
	}
	switch p.sideEffects.kind {
	case sideEffectsBool:
		return p.sideEffects.value, true
	case sideEffectsGlobs:
		rel := modulePath
		if filepath.IsAbs(modulePath) && p.Dir() != "" {
			r, err := filepath.Rel(p.Dir(), modulePath)
			if err != nil {
				return false, true
			}
			rel = r
		}
		rel = path.Clean(filepath.ToSlash(rel))
		for _, g := range p.sideEffects.globs {
			if matched, err := doublestar.Match(g, rel); err == nil && matched {
				return true, true
			}
		}
		return false, true
	default:
		return false, false
	}
}
