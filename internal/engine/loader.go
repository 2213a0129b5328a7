package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"bundlecore/internal/diag"
	"bundlecore/internal/module"
	"bundlecore/internal/resolver"
)

// Graph is the result of loading every module reachable from the entries.
type Graph struct {
	// Modules are the successfully loaded modules sorted by id.
	Modules []*module.NormalModule
	Entries []module.ModuleID
	// ResolvedDeps holds each module's dependency array, index aligned with
	// its import records.
	ResolvedDeps map[module.ModuleID][]module.ResolvedRequestInfo
	Symbols      map[module.ModuleID]*module.AstSymbols

	Warnings    []*diag.BuildError
	BuildErrors []*diag.BuildError
	Fatals      []*Fatal
}

// Module returns the loaded module with id, if any.
func (g *Graph) Module(id module.ModuleID) (*module.NormalModule, bool) {
	i := sort.Search(len(g.Modules), func(i int) bool { return g.Modules[i].ID >= id })
	if i < len(g.Modules) && g.Modules[i].ID == id {
		return g.Modules[i], true
	}
	return nil, false
}

// Failed reports whether any module could not be loaded.
func (g *Graph) Failed() bool {
	return len(g.BuildErrors) > 0 || len(g.Fatals) > 0
}

// ModuleLoader walks the module graph. Ids are handed out in discovery order
// with the entries first; results are placed by id, not by arrival order.
type ModuleLoader struct {
	tc *TaskContext

	// OnMsg observes every task message on the consumer goroutine.
	OnMsg func(Msg)
}

func NewModuleLoader(tc *TaskContext) *ModuleLoader {
	return &ModuleLoader{tc: tc}
}

type loadState struct {
	ids     map[string]module.ModuleID
	paths   []module.ResolvedPath
	results map[module.ModuleID]Msg

	importers        map[module.ModuleID]map[string]struct{}
	dynamicImporters map[module.ModuleID]map[string]struct{}
}

func (s *loadState) intern(p module.ResolvedPath) (module.ModuleID, bool) {
	key := p.String()
	if id, ok := s.ids[key]; ok {
		return id, false
	}
	id := module.ModuleID(len(s.paths))
	s.ids[key] = id
	s.paths = append(s.paths, p)
	return id, true
}

func addImporter(m map[module.ModuleID]map[string]struct{}, id module.ModuleID, importer string) {
	set, ok := m[id]
	if !ok {
		set = make(map[string]struct{})
		m[id] = set
	}
	set[importer] = struct{}{}
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// resolveEntry treats a plain entry such as "main.js" as a file in the
// working directory first and only then as a package name.
func (l *ModuleLoader) resolveEntry(ctx context.Context, entry string) (module.ResolvedRequestInfo, error) {
	if isPlainEntry(entry) {
		info, err := resolveID(ctx, l.tc, "./"+entry, "", module.ImportKindImport, true)
		if err == nil || !resolver.IsNotFound(err) {
			return info, err
		}
	}
	return resolveID(ctx, l.tc, entry, "", module.ImportKindImport, true)
}

func isPlainEntry(entry string) bool {
	switch {
	case entry == module.RuntimeModuleID, module.IsVirtualID(entry), filepath.IsAbs(entry):
		return false
	case strings.HasPrefix(entry, "./"), strings.HasPrefix(entry, "../"), entry == ".", entry == "..":
		return false
	}
	return true
}

// Load resolves entries relative to the working directory and loads the
// graph. Entry resolution failures are returned as errors; module failures
// are collected on the graph. On cancellation the partial graph is returned
// with the context error.
func (l *ModuleLoader) Load(ctx context.Context, entries []string) (*Graph, error) {
	if l == nil || l.tc == nil {
		return nil, errors.New("module loader is not initialized")
	}
	if len(entries) == 0 {
		return nil, errors.New("no entries")
	}
	cfg := l.tc.Config

	state := &loadState{
		ids:              make(map[string]module.ModuleID),
		results:          make(map[module.ModuleID]Msg),
		importers:        make(map[module.ModuleID]map[string]struct{}),
		dynamicImporters: make(map[module.ModuleID]map[string]struct{}),
	}
	graph := &Graph{
		ResolvedDeps: make(map[module.ModuleID][]module.ResolvedRequestInfo),
		Symbols:      make(map[module.ModuleID]*module.AstSymbols),
	}

	var reqs []TaskRequest
	for _, entry := range entries {
		info, err := l.resolveEntry(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("resolve entry %q: %w", entry, err)
		}
		if info.IsExternal {
			return nil, fmt.Errorf("entry %q cannot be external", entry)
		}
		id, isNew := state.intern(info.Path)
		if !isNew {
			continue
		}
		graph.Entries = append(graph.Entries, id)
		reqs = append(reqs, TaskRequest{
			Path:        info.Path,
			Format:      info.ModuleType,
			IsEntry:     true,
			PackageJSON: info.PackageJSON,
			SideEffects: info.SideEffects,
		})
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	concurrency := cfg.Runtime.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	tx := make(chan Msg, concurrency)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	pending := 0

	spawn := func(id module.ModuleID, req TaskRequest) {
		pending++
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				// acquired
			case <-runCtx.Done():
				return
			}
			defer func() { <-sem }()
			NewNormalModuleTask(l.tc, tx, id, req).Run(runCtx)
		}()
	}

	for i, req := range reqs {
		spawn(graph.Entries[i], req)
	}

	var loopErr error
	failFast := false
consumeLoop:
	for pending > 0 {
		select {
		case msg := <-tx:
			pending--
			if l.OnMsg != nil {
				l.OnMsg(msg)
			}
			id := msg.TaskID()
			if _, dup := state.results[id]; dup {
				loopErr = fmt.Errorf("module %s reported twice", id)
				cancel()
				break consumeLoop
			}
			state.results[id] = msg

			switch m := msg.(type) {
			case *Done:
				graph.Warnings = append(graph.Warnings, m.Warnings...)
				importer := string(m.Module.ResourceID)
				for i, dep := range m.ResolvedDeps {
					if dep.IsExternal {
						continue
					}
					depID, isNew := state.intern(dep.Path)
					if m.RawImportRecords[i].Kind.IsStatic() {
						addImporter(state.importers, depID, importer)
					} else {
						addImporter(state.dynamicImporters, depID, importer)
					}
					if isNew {
						spawn(depID, TaskRequest{
							Path:        dep.Path,
							Format:      dep.ModuleType,
							PackageJSON: dep.PackageJSON,
							SideEffects: dep.SideEffects,
						})
					}
				}
			case *BuildErrors:
				graph.BuildErrors = append(graph.BuildErrors, m.Errors...)
				if cfg.Runtime.FailFast {
					failFast = true
					cancel()
					break consumeLoop
				}
			case *Fatal:
				graph.Fatals = append(graph.Fatals, m)
				if cfg.Runtime.FailFast {
					failFast = true
					cancel()
					break consumeLoop
				}
			}
		case <-runCtx.Done():
			break consumeLoop
		}
	}

	cancel()
	wg.Wait()

	for id, msg := range state.results {
		done, ok := msg.(*Done)
		if !ok {
			continue
		}
		done.Module.Importers = sortedSet(state.importers[id])
		done.Module.DynamicImporters = sortedSet(state.dynamicImporters[id])
		graph.Modules = append(graph.Modules, done.Module)
		graph.ResolvedDeps[id] = done.ResolvedDeps
		graph.Symbols[id] = done.Symbols
	}
	sort.Slice(graph.Modules, func(i, j int) bool { return graph.Modules[i].ID < graph.Modules[j].ID })

	if loopErr != nil {
		return graph, loopErr
	}
	if !failFast && ctx.Err() != nil {
		return graph, ctx.Err()
	}
	return graph, nil
}
