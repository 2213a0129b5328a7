package plugin

import (
	"context"

	"bundlecore/internal/module"
	"bundlecore/internal/packagejson"
)

// Plugin is the base every plugin implements. Hooks are separate capability
// interfaces; the driver only calls the ones a plugin implements.
type Plugin interface {
	Name() string
	Description() string
}

type Option struct {
	Name        string
	Description string
	Default     string
}

type ConfigurablePlugin interface {
	Plugin
	Options() []Option
	Configure(opts map[string]string) error
}

// ResolveIDHook maps a specifier to a module id. Returning a nil output
// passes the specifier on to the next plugin.
type ResolveIDHook interface {
	ResolveID(ctx context.Context, args *ResolveIDArgs) (*ResolveIDOutput, error)
}

// LoadHook supplies module content. A nil output falls through.
type LoadHook interface {
	Load(ctx context.Context, args *LoadArgs) (*LoadOutput, error)
}

// TransformHook rewrites module content. A nil output leaves it unchanged.
type TransformHook interface {
	Transform(ctx context.Context, args *TransformArgs) (*TransformOutput, error)
}

// ModuleParsedHook observes a fully analysed module.
type ModuleParsedHook interface {
	ModuleParsed(ctx context.Context, info *module.ModuleInfo) error
}

// ResolveFunc resolves a specifier through the plugins after the calling one
// and then the default resolver.
type ResolveFunc func(ctx context.Context, specifier string) (*ResolveIDOutput, error)

type ResolveIDArgs struct {
	Specifier string
	Importer  string
	Kind      module.ImportKind
	IsEntry   bool

	// Resolve is set by the driver.
	Resolve ResolveFunc
}

type ResolveIDOutput struct {
	ID          string
	External    bool
	SideEffects *module.HookSideEffects
	// Format is optional; it is derived from the id when empty.
	Format      module.ModuleDefFormat
	PackageJSON *packagejson.PackageJSON
}

type LoadArgs struct {
	ID         string
	ModuleType module.ModuleType
}

type LoadOutput struct {
	Code string
	// Map is a raw JSON source map for Code, if the plugin produced one.
	Map         string
	SideEffects *module.HookSideEffects
	// ModuleType overrides the extension-based classification when set.
	ModuleType module.ModuleType
}

type TransformArgs struct {
	ID         string
	Code       string
	ModuleType module.ModuleType
}

type TransformOutput struct {
	Code        string
	Map         string
	SideEffects *module.HookSideEffects
	ModuleType  module.ModuleType
}
