package builtin

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"bundlecore/internal/module"
	"bundlecore/internal/plugin"

	"github.com/bmatcuk/doublestar/v4"
)

// SideEffectsPlugin declares side effects for modules matched by glob,
// overriding package.json and statement analysis.
type SideEffectsPlugin struct {
	pure        []string
	noTreeshake []string
}

func (p *SideEffectsPlugin) Name() string {
	return "side-effects"
}

func (p *SideEffectsPlugin) Description() string {
	return "Marks modules matching globs as side-effect free or exempt from tree-shaking."
}

func (p *SideEffectsPlugin) Options() []plugin.Option {
	return []plugin.Option{
		{
			Name:        "false",
			Description: "Comma-separated globs of modules without side effects (e.g. **/utils/**).",
		},
		{
			Name:        "no-treeshake",
			Description: "Comma-separated globs of modules that are never tree-shaken.",
		},
	}
}

func (p *SideEffectsPlugin) Configure(opts map[string]string) error {
	p.pure = splitList(opts["false"])
	p.noTreeshake = splitList(opts["no-treeshake"])
	for _, pattern := range append(append([]string(nil), p.pure...), p.noTreeshake...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("side-effects: invalid glob %q", pattern)
		}
	}
	return nil
}

func (p *SideEffectsPlugin) Transform(_ context.Context, args *plugin.TransformArgs) (*plugin.TransformOutput, error) {
	id := filepath.ToSlash(module.ParseResolvedPath(args.ID).Path)
	var decl module.HookSideEffects
	switch {
	case matchGlobs(p.noTreeshake, id):
		decl = module.HookSideEffectsNoTreeshake
	case matchGlobs(p.pure, id):
		decl = module.HookSideEffectsFalse
	default:
		return nil, nil
	}
	return &plugin.TransformOutput{Code: args.Code, SideEffects: decl.Ptr()}, nil
}

func matchGlobs(patterns []string, id string) bool {
	trimmed := strings.TrimPrefix(id, "/")
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, id); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, trimmed); ok {
			return true
		}
	}
	return false
}

func init() {
	plugin.Register("side-effects", func() plugin.Plugin { return &SideEffectsPlugin{} })
}
