package builtin

import (
	"context"
	"sort"
	"strings"

	"bundlecore/internal/module"
	"bundlecore/internal/plugin"
)

const (
	virtualPrefix   = "virtual:"
	virtualIDPrefix = "\x00" + virtualPrefix
)

// VirtualPlugin serves in-memory modules under "virtual:<name>" specifiers.
type VirtualPlugin struct {
	modules map[string]string
}

func NewVirtual(modules map[string]string) *VirtualPlugin {
	p := &VirtualPlugin{modules: map[string]string{}}
	for name, code := range modules {
		p.modules[name] = code
	}
	return p
}

func (p *VirtualPlugin) Name() string {
	return "virtual"
}

func (p *VirtualPlugin) Description() string {
	return "Serves in-memory modules imported as virtual:<name>."
}

func (p *VirtualPlugin) Options() []plugin.Option {
	return []plugin.Option{
		{
			Name:        "module.<name>",
			Description: "Source code of the module imported as virtual:<name>.",
		},
	}
}

func (p *VirtualPlugin) Configure(opts map[string]string) error {
	p.modules = map[string]string{}
	for k, v := range opts {
		if name, ok := strings.CutPrefix(k, "module."); ok && name != "" {
			p.modules[name] = v
		}
	}
	return nil
}

// Names lists the configured virtual modules.
func (p *VirtualPlugin) Names() []string {
	names := make([]string, 0, len(p.modules))
	for name := range p.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *VirtualPlugin) ResolveID(_ context.Context, args *plugin.ResolveIDArgs) (*plugin.ResolveIDOutput, error) {
	name, ok := strings.CutPrefix(args.Specifier, virtualPrefix)
	if !ok {
		return nil, nil
	}
	if _, exists := p.modules[name]; !exists {
		return nil, nil
	}
	return &plugin.ResolveIDOutput{ID: virtualIDPrefix + name, Format: module.FormatEsmMjs}, nil
}

func (p *VirtualPlugin) Load(_ context.Context, args *plugin.LoadArgs) (*plugin.LoadOutput, error) {
	name, ok := strings.CutPrefix(args.ID, virtualIDPrefix)
	if !ok {
		return nil, nil
	}
	code, exists := p.modules[name]
	if !exists {
		return nil, nil
	}
	return &plugin.LoadOutput{Code: code, ModuleType: module.ModuleTypeJs}, nil
}

func init() {
	plugin.Register("virtual", func() plugin.Plugin { return NewVirtual(nil) })
}
