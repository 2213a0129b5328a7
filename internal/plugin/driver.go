package plugin

import (
	"context"
	"fmt"

	"bundlecore/internal/diag"
	"bundlecore/internal/module"
	"bundlecore/internal/resolver"
)

// Driver dispatches hooks over an ordered plugin list. It holds no mutable
// state and is shared by every load task.
type Driver struct {
	plugins  []Plugin
	fallback resolver.Resolver
}

// NewDriver builds a driver. fallback backs ResolveIDArgs.Resolve for plugins
// that delegate resolution; it may be nil.
func NewDriver(fallback resolver.Resolver, plugins ...Plugin) *Driver {
	return &Driver{
		plugins:  append([]Plugin(nil), plugins...),
		fallback: fallback,
	}
}

func (d *Driver) Plugins() []Plugin {
	return append([]Plugin(nil), d.plugins...)
}

// ResolveID asks each resolveId hook in order; the first non-nil output
// wins. A nil output means no plugin claimed the specifier.
func (d *Driver) ResolveID(ctx context.Context, args ResolveIDArgs) (*ResolveIDOutput, error) {
	return d.resolveIDFrom(ctx, args, 0)
}

func (d *Driver) resolveIDFrom(ctx context.Context, args ResolveIDArgs, start int) (*ResolveIDOutput, error) {
	for i := start; i < len(d.plugins); i++ {
		h, ok := d.plugins[i].(ResolveIDHook)
		if !ok {
			continue
		}
		next := i + 1
		hookArgs := args
		hookArgs.Resolve = func(ctx context.Context, specifier string) (*ResolveIDOutput, error) {
			nested := args
			nested.Specifier = specifier
			out, err := d.resolveIDFrom(ctx, nested, next)
			if err != nil || out != nil {
				return out, err
			}
			return d.resolveWithFallback(ctx, nested)
		}
		out, err := h.ResolveID(ctx, &hookArgs)
		if err != nil {
			return nil, hookError(d.plugins[i].Name(), "resolveId", err)
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

func (d *Driver) resolveWithFallback(ctx context.Context, args ResolveIDArgs) (*ResolveIDOutput, error) {
	if d.fallback == nil {
		return nil, nil
	}
	res, err := d.fallback.Resolve(ctx, args.Specifier, args.Importer, args.Kind)
	if err != nil {
		return nil, err
	}
	return &ResolveIDOutput{
		ID:          res.Path.String(),
		Format:      res.Format,
		PackageJSON: res.PackageJSON,
	}, nil
}

// LoadResult is the first load hook output, tagged with its producer.
type LoadResult struct {
	Code        string
	ModuleType  module.ModuleType
	SideEffects *module.HookSideEffects
	Sourcemap   *module.SourceMap
	Plugin      string
}

// Load returns nil when no plugin supplies content for id.
func (d *Driver) Load(ctx context.Context, id string, mt module.ModuleType) (*LoadResult, error) {
	for _, p := range d.plugins {
		h, ok := p.(LoadHook)
		if !ok {
			continue
		}
		out, err := h.Load(ctx, &LoadArgs{ID: id, ModuleType: mt})
		if err != nil {
			return nil, hookError(p.Name(), "load", err)
		}
		if out == nil {
			continue
		}
		res := &LoadResult{
			Code:        out.Code,
			ModuleType:  out.ModuleType,
			SideEffects: out.SideEffects,
			Plugin:      p.Name(),
		}
		if out.Map != "" {
			res.Sourcemap = &module.SourceMap{Plugin: p.Name(), JSON: out.Map}
		}
		return res, nil
	}
	return nil, nil
}

// TransformResult is the outcome of the whole transform chain.
type TransformResult struct {
	Code           string
	ModuleType     module.ModuleType
	SideEffects    *module.HookSideEffects
	SourcemapChain []module.SourceMap
}

// Transform threads code through every transform hook in order. With no
// participating plugin the result equals the input.
func (d *Driver) Transform(ctx context.Context, id, code string, mt module.ModuleType, sideEffects *module.HookSideEffects) (*TransformResult, error) {
	res := &TransformResult{Code: code, ModuleType: mt, SideEffects: sideEffects}
	for _, p := range d.plugins {
		h, ok := p.(TransformHook)
		if !ok {
			continue
		}
		out, err := h.Transform(ctx, &TransformArgs{ID: id, Code: res.Code, ModuleType: res.ModuleType})
		if err != nil {
			return nil, hookError(p.Name(), "transform", err)
		}
		if out == nil {
			continue
		}
		res.Code = out.Code
		if out.Map != "" {
			res.SourcemapChain = append(res.SourcemapChain, module.SourceMap{Plugin: p.Name(), JSON: out.Map})
		}
		if out.SideEffects != nil {
			res.SideEffects = out.SideEffects
		}
		if out.ModuleType != "" {
			res.ModuleType = out.ModuleType
		}
	}
	return res, nil
}

// ModuleParsed notifies every plugin; the first error stops the chain.
func (d *Driver) ModuleParsed(ctx context.Context, info *module.ModuleInfo) error {
	for _, p := range d.plugins {
		h, ok := p.(ModuleParsedHook)
		if !ok {
			continue
		}
		if err := h.ModuleParsed(ctx, info); err != nil {
			return hookError(p.Name(), "moduleParsed", err)
		}
	}
	return nil
}

// hookError attributes err to a plugin. Build errors keep their type so the
// loader can report them as diagnostics.
func hookError(name, hook string, err error) error {
	if be, ok := diag.AsBuildError(err); ok {
		if be.Plugin != "" {
			return err
		}
		// Plugins may return shared errors; attribute a copy.
		attributed := *be
		attributed.Plugin = name
		return &attributed
	}
	return fmt.Errorf("plugin %s: %s hook: %w", name, hook, err)
}
