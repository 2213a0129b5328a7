package plugin

import (
	"context"

	"bundlecore/internal/module"
)

// FilterWrapper wraps a Plugin to provide include/exclude filtering of its
// load and transform hooks.
type FilterWrapper struct {
	Plugin
	filter Filter
}

// Unwrap returns the inner plugin.
func (w *FilterWrapper) Unwrap() Plugin {
	return w.Plugin
}

func (w *FilterWrapper) ResolveID(ctx context.Context, args *ResolveIDArgs) (*ResolveIDOutput, error) {
	h, ok := w.Plugin.(ResolveIDHook)
	if !ok {
		return nil, nil
	}
	return h.ResolveID(ctx, args)
}

func (w *FilterWrapper) Load(ctx context.Context, args *LoadArgs) (*LoadOutput, error) {
	h, ok := w.Plugin.(LoadHook)
	if !ok || !w.filter.Matches(args.ID) {
		return nil, nil
	}
	return h.Load(ctx, args)
}

func (w *FilterWrapper) Transform(ctx context.Context, args *TransformArgs) (*TransformOutput, error) {
	h, ok := w.Plugin.(TransformHook)
	if !ok || !w.filter.Matches(args.ID) {
		return nil, nil
	}
	return h.Transform(ctx, args)
}

func (w *FilterWrapper) ModuleParsed(ctx context.Context, info *module.ModuleInfo) error {
	h, ok := w.Plugin.(ModuleParsedHook)
	if !ok || !w.filter.Matches(info.ID) {
		return nil
	}
	return h.ModuleParsed(ctx, info)
}

// Options returns the combined options of the filter and the inner plugin (if configurable).
func (w *FilterWrapper) Options() []Option {
	opts := w.filter.Options()
	if cp, ok := w.Plugin.(ConfigurablePlugin); ok {
		opts = append(opts, cp.Options()...)
	}
	return opts
}

// Configure configures the filter and the inner plugin (if configurable).
func (w *FilterWrapper) Configure(opts map[string]string) error {
	w.filter.Configure(opts)
	if cp, ok := w.Plugin.(ConfigurablePlugin); ok {
		return cp.Configure(opts)
	}
	return nil
}
