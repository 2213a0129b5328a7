package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bundlecore/internal/module"

	"github.com/bmatcuk/doublestar/v4"
)

// ExternalFunc decides whether a specifier is left out of the graph. It is
// asked once before resolution (resolved=false, specifier as written) and
// once after (resolved=true, specifier is the resolved path).
type ExternalFunc func(ctx context.Context, specifier, importer string, resolved bool) (bool, error)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in sync:
	// - CLI flags in internal/cli/build.go
	// - config file keys in internal/config/load.go
	Input   Input
	Resolve Resolve
	Plugins Plugins
	Output  Output
	Runtime Runtime
}

type Input struct {
	// Entries are the user defined entry modules (positional args of build).
	Entries []string

	// EntryExclude drops entries matching these doublestar globs after glob
	// entries are expanded (see --exclude-entry).
	EntryExclude []string

	// Cwd is the project root. Relative entries and stable ids are relative to it.
	Cwd string

	// ModuleTypes overrides the extension table as ext=type pairs (see --module-type).
	// Values may be provided as repeated flags and/or comma-separated lists.
	ModuleTypes []string

	// External lists specifiers or doublestar globs that are never bundled (see --external).
	// A pattern without glob characters also matches deep imports ("react" matches "react/jsx-runtime").
	External []string

	// ExternalFunc replaces External when set. It is only settable from code.
	ExternalFunc ExternalFunc

	moduleTypes map[string]module.ModuleType
}

type Resolve struct {
	// Extensions probed for extensionless specifiers, in order (see --resolve-extensions).
	Extensions []string

	// MainFields read from package.json for bare specifiers, in order (see --main-fields).
	MainFields []string

	// Alias rewrites specifier prefixes as find=replace pairs (see --alias).
	Alias []string

	alias map[string]string
}

type Plugins struct {
	// Selector selects which registered plugins run, in order.
	// Empty means none (see --plugins).
	Selector string

	// Set provides per-plugin option overrides.
	// Entries are of the form plugin.option=value (repeatable; comma-separated accepted; see --set).
	Set []string
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterStatus filters console output by module status (see --console-filter-status).
	// Allowed values: OK, WARN, FAIL.
	ConsoleFilterStatus []string

	// Report writes a Markdown build report to this path (see --report).
	Report string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Concurrency bounds how many modules load at once (see --concurrency).
	// Must be >= 1.
	Concurrency int

	// ResolveConcurrency bounds concurrent dependency resolutions within one
	// module (see --resolve-concurrency). 0 means unbounded.
	ResolveConcurrency int

	// FileConcurrency bounds concurrent file reads across the build (see --file-concurrency).
	// Must be >= 1.
	FileConcurrency int

	// Timeout is the global build timeout (see --timeout). Must be > 0.
	Timeout time.Duration

	// FailFast stops the build on the first failed module (see --fail-fast).
	FailFast bool

	// LogLevel is the level of component logs written to stderr (see --log-level).
	// Allowed values: debug, info, warn, error.
	LogLevel string

	// Verbose forces debug logging and detailed failure output.
	Verbose bool
}

var validModuleStatuses = map[string]bool{"OK": true, "WARN": true, "FAIL": true}

func New() *Config {
	return &Config{
		Input: Input{
			moduleTypes: module.DefaultModuleTypes(),
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency:     8,
			FileConcurrency: 64,
			Timeout:         10 * time.Minute,
			LogLevel:        "warn",
		},
	}
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Input.Entries = splitCommaList(c.Input.Entries)
	c.Input.EntryExclude = splitCommaList(c.Input.EntryExclude)
	c.Input.ModuleTypes = splitCommaList(c.Input.ModuleTypes)
	c.Input.External = splitCommaList(c.Input.External)
	c.Resolve.Extensions = splitCommaList(c.Resolve.Extensions)
	c.Resolve.MainFields = splitCommaList(c.Resolve.MainFields)
	c.Resolve.Alias = splitCommaList(c.Resolve.Alias)
	c.Plugins.Set = splitCommaList(c.Plugins.Set)
	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)

	// Input validation
	if len(c.Input.Entries) == 0 {
		return errors.New("at least one entry module must be provided")
	}
	if c.Input.Cwd != "" {
		abs, err := filepath.Abs(c.Input.Cwd)
		if err != nil {
			return fmt.Errorf("invalid --cwd value: %w", err)
		}
		c.Input.Cwd = abs
	}

	table := module.DefaultModuleTypes()
	for _, raw := range c.Input.ModuleTypes {
		ext, name, ok := strings.Cut(raw, "=")
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if !ok || ext == "" {
			return fmt.Errorf("invalid --module-type entry %q: expected ext=type", raw)
		}
		mt, err := module.ParseModuleType(name)
		if err != nil {
			return fmt.Errorf("invalid --module-type entry %q: %w", raw, err)
		}
		table[strings.ToLower(ext)] = mt
	}
	c.Input.moduleTypes = table

	for _, p := range c.Input.EntryExclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid --exclude-entry pattern %q", p)
		}
	}
	for _, p := range c.Input.External {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid --external pattern %q", p)
		}
	}

	// Resolve validation
	for i, ext := range c.Resolve.Extensions {
		if !strings.HasPrefix(ext, ".") {
			c.Resolve.Extensions[i] = "." + ext
		}
	}
	alias, err := ParseAliasEntries(c.Resolve.Alias)
	if err != nil {
		return err
	}
	c.Resolve.alias = alias

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for i, st := range c.Output.ConsoleFilterStatus {
		v := strings.ToUpper(strings.TrimSpace(st))
		if !validModuleStatuses[v] {
			return fmt.Errorf("unsupported --console-filter-status: %s (must be one of: OK, WARN, FAIL)", st)
		}
		c.Output.ConsoleFilterStatus[i] = v
	}

	for _, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v == "" {
			return errors.New("--emit must be one of: json, ndjson")
		}
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", v)
		}
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.ResolveConcurrency < 0 {
		return errors.New("--resolve-concurrency must be >= 0")
	}
	if c.Runtime.FileConcurrency <= 0 {
		return errors.New("--file-concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	c.Runtime.LogLevel = normalizeEnumValue(c.Runtime.LogLevel)
	if c.Runtime.Verbose {
		c.Runtime.LogLevel = "debug"
	}
	switch c.Runtime.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported --log-level: %s (must be one of: debug, info, warn, error)", c.Runtime.LogLevel)
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else {
			if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
				return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
			}
		}
	}

	// Plugin option syntax validation (plugin.option=value)
	if len(c.Plugins.Set) > 0 {
		if _, err := ParsePluginOptionAssignments(c.Plugins.Set); err != nil {
			return err
		}
	}

	return nil
}

// ModuleTypeTable is the extension table after --module-type overrides.
func (c *Config) ModuleTypeTable() map[string]module.ModuleType {
	if c.Input.moduleTypes == nil {
		return module.DefaultModuleTypes()
	}
	return c.Input.moduleTypes
}

// AliasMap is the parsed --alias table.
func (c *Config) AliasMap() map[string]string {
	return c.Resolve.alias
}

// ExternalClassifier returns the configured classifier, or nil when nothing
// is external.
func (c *Config) ExternalClassifier() ExternalFunc {
	if c.Input.ExternalFunc != nil {
		return c.Input.ExternalFunc
	}
	if len(c.Input.External) == 0 {
		return nil
	}
	patterns := append([]string(nil), c.Input.External...)
	return func(_ context.Context, specifier, _ string, resolved bool) (bool, error) {
		subject := specifier
		if resolved {
			subject = filepath.ToSlash(specifier)
		}
		for _, p := range patterns {
			if matchExternal(p, subject, resolved) {
				return true, nil
			}
		}
		return false, nil
	}
}

func matchExternal(pattern, subject string, resolved bool) bool {
	if !strings.ContainsAny(pattern, "*?[{") {
		if resolved {
			return false
		}
		return subject == pattern || strings.HasPrefix(subject, pattern+"/")
	}
	if ok, err := doublestar.Match(pattern, subject); err == nil && ok {
		return true
	}
	if resolved && strings.HasPrefix(subject, "/") {
		ok, err := doublestar.Match(pattern, strings.TrimPrefix(subject, "/"))
		return err == nil && ok
	}
	return false
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParsePluginOptionAssignments parses values of the form "plugin.option=value".
//
// Notes:
// - Entries may be provided via repeated flags and/or comma-delimited lists.
// - This validates syntax only (no validation of plugin names or option names).
// - Empty values are allowed ("plugin.option=").
// - The option part may itself contain dots ("virtual.module.entry=...").
func ParsePluginOptionAssignments(values []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	for _, raw := range splitCommaList(values) {
		left, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set entry %q: expected plugin.option=value", raw)
		}
		left = strings.TrimSpace(left)
		value = strings.TrimSpace(value)
		name, opt, ok := strings.Cut(left, ".")
		if !ok {
			return nil, fmt.Errorf("invalid --set entry %q: expected plugin.option=value", raw)
		}
		name = strings.TrimSpace(name)
		opt = strings.TrimSpace(opt)
		if name == "" || opt == "" {
			return nil, fmt.Errorf("invalid --set entry %q: expected non-empty plugin and option", raw)
		}
		if _, ok := out[name]; !ok {
			out[name] = make(map[string]string)
		}
		out[name][opt] = value
	}
	return out, nil
}

// ParseAliasEntries parses find=replace pairs. Later entries win.
func ParseAliasEntries(values []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, raw := range splitCommaList(values) {
		find, replace, ok := strings.Cut(raw, "=")
		find = strings.TrimSpace(find)
		replace = strings.TrimSpace(replace)
		if !ok || find == "" || replace == "" {
			return nil, fmt.Errorf("invalid --alias entry %q: expected find=replace", raw)
		}
		out[find] = replace
	}
	return out, nil
}

// SortedKeys is a small helper for deterministic iteration over option maps.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
