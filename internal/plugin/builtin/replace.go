package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"bundlecore/internal/plugin"
)

// ReplacePlugin substitutes literal strings in module code, typically to
// inline compile-time constants.
type ReplacePlugin struct {
	values    [][2]string
	replacer  *strings.Replacer
	sourcemap bool
}

func NewReplace(values map[string]string) *ReplacePlugin {
	p := &ReplacePlugin{sourcemap: true}
	for k, v := range values {
		p.values = append(p.values, [2]string{k, v})
	}
	p.build()
	return p
}

func (p *ReplacePlugin) Name() string {
	return "replace"
}

func (p *ReplacePlugin) Description() string {
	return "Replaces literal strings in module code (e.g. process.env.NODE_ENV)."
}

func (p *ReplacePlugin) Options() []plugin.Option {
	return []plugin.Option{
		{
			Name:        "values",
			Description: "Comma-separated find=replacement pairs (e.g. __DEV__=false).",
		},
		{
			Name:        "sourcemap",
			Description: "Record a source map entry for modules that changed.",
			Default:     "true",
		},
	}
}

func (p *ReplacePlugin) Configure(opts map[string]string) error {
	pairs, err := parsePairs(opts["values"])
	if err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	p.values = pairs
	p.sourcemap = true
	if raw, ok := opts["sourcemap"]; ok && strings.TrimSpace(raw) != "" {
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("replace: invalid sourcemap value %q", raw)
		}
		p.sourcemap = v
	}
	p.build()
	return nil
}

func (p *ReplacePlugin) build() {
	sort.SliceStable(p.values, func(i, j int) bool {
		return len(p.values[i][0]) > len(p.values[j][0])
	})
	var oldnew []string
	for _, kv := range p.values {
		oldnew = append(oldnew, kv[0], kv[1])
	}
	p.replacer = strings.NewReplacer(oldnew...)
}

func (p *ReplacePlugin) Transform(_ context.Context, args *plugin.TransformArgs) (*plugin.TransformOutput, error) {
	if len(p.values) == 0 {
		return nil, nil
	}
	code := p.replacer.Replace(args.Code)
	if code == args.Code {
		return nil, nil
	}
	out := &plugin.TransformOutput{Code: code}
	if p.sourcemap {
		out.Map = emptySourceMap(args.ID)
	}
	return out, nil
}

// emptySourceMap is a valid v3 map without mappings; consumers fall back to
// the previous map in the chain.
func emptySourceMap(id string) string {
	b, _ := json.Marshal(struct {
		Version  int      `json:"version"`
		Sources  []string `json:"sources"`
		Names    []string `json:"names"`
		Mappings string   `json:"mappings"`
	}{Version: 3, Sources: []string{id}, Names: []string{}, Mappings: ""})
	return string(b)
}

func init() {
	plugin.Register("replace", func() plugin.Plugin { return NewReplace(nil) })
}
