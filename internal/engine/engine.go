package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bundlecore/internal/config"
	"bundlecore/internal/logging"
	"bundlecore/internal/output"
	"bundlecore/internal/plugin"

	"github.com/spf13/afero"
)

func exitCodeForRun(fatal, partial, wrongs bool) int {
	// Exit code contract:
	// 0 = clean build, no warnings
	// 1 = warnings emitted
	// 2 = partial failure (some modules failed to load)
	// 3 = fatal error (build did not run to completion)
	if fatal {
		return 3
	}
	if partial {
		return 2
	}
	if wrongs {
		return 1
	}
	return 0
}

func setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(nil, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterStatus...)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(os.Stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(rs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// applyPluginOptionsIfAny applies per-plugin configuration supplied via
// repeated --set flags to the selected plugin instances.
//
// --set values are parsed as "plugin.option=value" and routed to the matching
// plugin's Configure method. Every instance accepts the include/exclude filter
// options; anything else requires plugin.ConfigurablePlugin.
//
// Example:
//
//	bundlecore build src/index.js --plugins replace --set replace.values=__DEV__=false
func applyPluginOptionsIfAny(cfg *config.Config, selected []plugin.Plugin) error {
	if len(cfg.Plugins.Set) == 0 {
		return nil
	}

	assignments, err := config.ParsePluginOptionAssignments(cfg.Plugins.Set)
	if err != nil {
		return err
	}

	byName := make(map[string]plugin.Plugin, len(selected))
	for _, p := range selected {
		byName[p.Name()] = p
	}

	for _, name := range config.SortedKeys(assignments) {
		opts := assignments[name]
		p, ok := byName[name]
		if !ok {
			return fmt.Errorf("plugin %q is not selected (see --plugins)", name)
		}
		cp, ok := p.(plugin.ConfigurablePlugin)
		if !ok {
			return fmt.Errorf("plugin %q does not support options", name)
		}

		allowed := make(map[string]struct{})
		for _, opt := range cp.Options() {
			allowed[opt.Name] = struct{}{}
		}
		for opt := range opts {
			if _, ok := allowed[opt]; !ok {
				return fmt.Errorf("unknown option %q for plugin %q", opt, name)
			}
		}

		if err := cp.Configure(opts); err != nil {
			return fmt.Errorf("configure plugin %q: %w", name, err)
		}
	}

	return nil
}

type Engine struct {
	// Fs is the file system modules are read from. Nil means the OS.
	Fs afero.Fs

	// loadGraph is a test seam for graph loading.
	// If nil, Engine uses the real ModuleLoader.
	loadGraph func(ctx context.Context, tc *TaskContext, onMsg func(Msg)) (*Graph, error)
}

func NewEngine(fsys afero.Fs) *Engine {
	return &Engine{
		Fs: fsys,
	}
}

func (e *Engine) loadModules(ctx context.Context, tc *TaskContext, entries []string, onMsg func(Msg)) (*Graph, error) {
	if e.loadGraph != nil {
		return e.loadGraph(ctx, tc, onMsg)
	}
	loader := NewModuleLoader(tc)
	loader.OnMsg = onMsg
	return loader.Load(ctx, entries)
}

func resolveAndConfigurePlugins(cfg *config.Config) ([]plugin.Plugin, bool) {
	if !cfg.Output.NoConsole {
		fmt.Fprintln(os.Stderr, "Resolving plugins...")
	}
	selected, err := plugin.Resolve(cfg.Plugins.Selector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving plugins: %v\n", err)
		return nil, false
	}

	if err := applyPluginOptionsIfAny(cfg, selected); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring plugins: %v\n", err)
		return nil, false
	}

	if !cfg.Output.NoConsole {
		fmt.Fprintf(os.Stderr, "Selected %d plugins.\n", len(selected))
	}
	return selected, true
}

// resultWriter turns task messages into module results and forwards them to
// the sinks as they arrive.
type resultWriter struct {
	outMgr  *output.Manager
	cwd     string
	verbose bool
}

func (w *resultWriter) observe(msg Msg) {
	switch m := msg.(type) {
	case *Done:
		res := moduleResultFromDone(m)
		_ = w.outMgr.WriteResult(res)
		for _, d := range m.Warnings {
			_ = w.outMgr.WriteEvent(output.Event{Type: output.EventDiagnostic, Module: res.Module, Diagnostic: d})
		}
	case *BuildErrors:
		pres := presentFailure(m, w.cwd, w.verbose)
		_ = w.outMgr.WriteResult(output.ModuleResult{
			ID:          m.ModuleID.String(),
			Module:      m.Path.DebugDisplay(w.cwd),
			Status:      output.StatusFail,
			Message:     pres.message,
			Diagnostics: m.Errors,
		})
	case *Fatal:
		pres := presentFailure(m, w.cwd, w.verbose)
		_ = w.outMgr.WriteResult(output.ModuleResult{
			ID:      m.ModuleID.String(),
			Module:  m.Path.DebugDisplay(w.cwd),
			Status:  output.StatusFail,
			Message: pres.message,
		})
	}
}

func moduleResultFromDone(m *Done) output.ModuleResult {
	mod := m.Module
	status := output.StatusOK
	if len(m.Warnings) > 0 {
		status = output.StatusWarn
	}
	return output.ModuleResult{
		ID:             mod.ID.String(),
		Module:         string(mod.StableResourceID),
		Status:         status,
		Entry:          mod.IsUserDefinedEntry,
		ExportsKind:    string(mod.ExportsKind),
		SideEffects:    mod.SideEffects.String(),
		Imports:        mod.ImportedIDs,
		DynamicImports: mod.DynamicallyImportedIDs,
		Diagnostics:    m.Warnings,
	}
}

func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	if err := logging.SetLevel(cfg.Runtime.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %v\n", err)
		return exitCodeForRun(true, false, false)
	}

	selected, ok := resolveAndConfigurePlugins(cfg)
	if !ok {
		return exitCodeForRun(true, false, false)
	}

	tc, err := NewTaskContext(cfg, TaskContextOptions{Fs: e.Fs, Plugins: selected})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing build: %v\n", err)
		return exitCodeForRun(true, false, false)
	}

	entries, err := DiscoverEntries(tc.Fs, tc.Cwd, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error discovering entries: %v\n", err)
		return exitCodeForRun(true, false, false)
	}

	outMgr, err := setupOutputManager(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output sinks: %v\n", err)
		return exitCodeForRun(true, false, false)
	}
	defer outMgr.Close()

	_ = outMgr.WriteEvent(output.Event{Type: output.EventBuildStarted, Entries: len(entries)})

	if cfg.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Runtime.Timeout)
		defer cancel()
	}

	if !cfg.Output.NoConsole {
		fmt.Fprintf(os.Stderr, "Loading modules from %d entries...\n", len(entries))
	}
	w := &resultWriter{outMgr: outMgr, cwd: tc.Cwd, verbose: cfg.Runtime.Verbose}
	graph, err := e.loadModules(ctx, tc, entries, w.observe)

	fatal := false
	if err != nil {
		fatal = true
		if errors.Is(err, context.DeadlineExceeded) {
			fmt.Fprintf(os.Stderr, "Error: build timed out after %s\n", cfg.Runtime.Timeout)
		} else {
			fmt.Fprintf(os.Stderr, "Error: build failed: %v\n", err)
		}
	}

	finished := output.Event{Type: output.EventBuildFinished}
	partial, wrongs := false, false
	if graph != nil {
		partial = graph.Failed()
		wrongs = len(graph.Warnings) > 0
		finished.Modules = len(graph.Modules)
		finished.Warnings = len(graph.Warnings)
		finished.Failures = len(graph.BuildErrors) + len(graph.Fatals)
	}

	code := exitCodeForRun(fatal, partial, wrongs)
	finished.ExitCode = code
	_ = outMgr.WriteEvent(finished)
	return code
}
