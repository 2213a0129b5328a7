package engine

import (
	"context"
	"fmt"

	"bundlecore/internal/module"
	"bundlecore/internal/plugin"
	"bundlecore/internal/resolver"
)

// resolveID resolves one specifier written in importer. The runtime module is
// answered directly; otherwise the external classifier gets a first look, then
// the resolveId hooks, then the resolver, and the classifier a second look at
// the resolved path. Failures keep their resolver.Error kind.
func resolveID(ctx context.Context, tc *TaskContext, specifier, importer string, kind module.ImportKind, isEntry bool) (module.ResolvedRequestInfo, error) {
	if specifier == module.RuntimeModuleID {
		return runtimeRequest(), nil
	}

	if tc.external != nil {
		ok, err := tc.external(ctx, specifier, importer, false)
		if err != nil {
			return module.ResolvedRequestInfo{}, fmt.Errorf("external check for %q: %w", specifier, err)
		}
		if ok {
			return module.ExternalRequest(specifier), nil
		}
	}

	info, err := resolveWithPlugins(ctx, tc, specifier, importer, kind, isEntry)
	if err != nil {
		return module.ResolvedRequestInfo{}, err
	}

	if !info.IsExternal && tc.external != nil {
		ok, err := tc.external(ctx, info.Path.String(), importer, true)
		if err != nil {
			return module.ResolvedRequestInfo{}, fmt.Errorf("external check for %q: %w", info.Path.String(), err)
		}
		if ok {
			info.IsExternal = true
		}
	}
	return info, nil
}

func resolveWithPlugins(ctx context.Context, tc *TaskContext, specifier, importer string, kind module.ImportKind, isEntry bool) (module.ResolvedRequestInfo, error) {
	out, err := tc.Driver.ResolveID(ctx, plugin.ResolveIDArgs{
		Specifier: specifier,
		Importer:  importer,
		Kind:      kind,
		IsEntry:   isEntry,
	})
	if err != nil {
		return module.ResolvedRequestInfo{}, err
	}
	if out != nil {
		return fromHookOutput(tc, out), nil
	}

	res, err := tc.Resolver.Resolve(ctx, specifier, importer, kind)
	if err != nil {
		return module.ResolvedRequestInfo{}, err
	}
	return module.ResolvedRequestInfo{
		Path:        res.Path,
		ModuleType:  res.Format,
		PackageJSON: res.PackageJSON,
	}, nil
}

// fromHookOutput completes what a plugin left out: the package.json and format
// of a real file are looked up the same way the resolver would.
func fromHookOutput(tc *TaskContext, out *plugin.ResolveIDOutput) module.ResolvedRequestInfo {
	p := module.ParseResolvedPath(out.ID)
	if out.External {
		return module.ResolvedRequestInfo{
			Path:        p,
			ModuleType:  module.FormatUnknown,
			IsExternal:  true,
			SideEffects: out.SideEffects,
		}
	}
	pkg := out.PackageJSON
	if pkg == nil && !p.IsVirtual() {
		pkg = tc.nearestPackageJSON(p.Path)
	}
	format := out.Format
	if format == "" {
		if p.IsVirtual() {
			format = module.FormatUnknown
		} else {
			format = resolver.DetectFormat(p.Path, pkg)
		}
	}
	return module.ResolvedRequestInfo{
		Path:        p,
		ModuleType:  format,
		PackageJSON: pkg,
		SideEffects: out.SideEffects,
	}
}
