package engine

import (
	"context"
	"fmt"

	"bundlecore/internal/diag"
	"bundlecore/internal/module"
	"bundlecore/internal/packagejson"
	"bundlecore/internal/parser"
	"bundlecore/internal/scanner"

	"github.com/charmbracelet/log"
)

// TaskRequest is what the graph builder knows about a module before loading it.
type TaskRequest struct {
	Path        module.ResolvedPath
	Format      module.ModuleDefFormat
	IsEntry     bool
	PackageJSON *packagejson.PackageJSON
	SideEffects *module.HookSideEffects
}

// NormalModuleTask loads and analyses one module and reports the outcome on
// tx. It is single use.
type NormalModuleTask struct {
	tc     *TaskContext
	tx     chan<- Msg
	id     module.ModuleID
	req    TaskRequest
	stable module.StableResourceID
	logger *log.Logger
}

func NewNormalModuleTask(tc *TaskContext, tx chan<- Msg, id module.ModuleID, req TaskRequest) *NormalModuleTask {
	stable := module.ResourceID(req.Path.Path).Stabilize(tc.Cwd)
	return &NormalModuleTask{
		tc:     tc,
		tx:     tx,
		id:     id,
		req:    req,
		stable: stable,
		logger: tc.Logger.With("module", string(stable), "id", id.String()),
	}
}

// Run sends exactly one message, unless ctx is cancelled first.
func (t *NormalModuleTask) Run(ctx context.Context) {
	var msg Msg
	done, err := t.run(ctx)
	if err != nil {
		msg = t.failure(err)
	} else {
		msg = done
	}
	select {
	case t.tx <- msg:
	case <-ctx.Done():
		t.logger.Debug("build cancelled before result was delivered")
	}
}

// failure turns any stage error into the task's single Fatal message.
// Plugin diagnostics stay reachable through errors.As on Err.
func (t *NormalModuleTask) failure(err error) Msg {
	t.logger.Debug("module failed", "err", err)
	return &Fatal{ModuleID: t.id, Path: t.req.Path, Err: err}
}

func stageErr(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}

func (t *NormalModuleTask) run(ctx context.Context) (*Done, error) {
	id := t.req.Path.String()
	mt := module.ClassifyModuleType(t.req.Path.Path, t.tc.Config.ModuleTypeTable())
	hookSideEffects := t.req.SideEffects
	var sourcemaps []module.SourceMap

	// load
	source, loaded, err := t.load(ctx, id, mt)
	if err != nil {
		return nil, stageErr(StageLoad, err)
	}
	if loaded != nil {
		if loaded.ModuleType != "" {
			mt = loaded.ModuleType
		}
		if loaded.Sourcemap != nil {
			sourcemaps = append(sourcemaps, *loaded.Sourcemap)
		}
		if loaded.SideEffects != nil {
			hookSideEffects = loaded.SideEffects
		}
	}

	// transform
	tr, err := t.tc.Driver.Transform(ctx, id, source, mt, hookSideEffects)
	if err != nil {
		return nil, stageErr(StageTransform, err)
	}
	source = tr.Code
	mt = tr.ModuleType
	hookSideEffects = tr.SideEffects
	sourcemaps = append(sourcemaps, tr.SourcemapChain...)

	// parse
	prog, err := parser.Parse(id, source, mt)
	if err != nil {
		return nil, stageErr(StageParse, err)
	}

	// scan
	scan, scopes, symbols := scanner.New(t.id, t.req.Path.Path, string(t.stable), t.req.Format).Scan(prog)
	warnings := append([]*diag.BuildError(nil), scan.Warnings...)

	deps, depWarnings, err := resolveDependencies(ctx, t.tc, id, string(t.stable), scan.ImportRecords)
	if err != nil {
		return nil, stageErr(StageResolveDeps, err)
	}
	warnings = append(warnings, depWarnings...)

	sideEffects := determineSideEffects(hookSideEffects, t.packageSideEffects, scan.HasSideEffectStmt)

	imported, dynamic := partitionImportedIDs(scan.ImportRecords, deps)
	recordIDs := make([]module.ImportRecordID, len(scan.ImportRecords))
	for i := range recordIDs {
		recordIDs[i] = module.ImportRecordID(i)
	}

	m := &module.NormalModule{
		ID:                     t.id,
		Source:                 prog.Source,
		ReprName:               scan.ReprName,
		ResourceID:             module.ResourceID(id),
		StableResourceID:       t.stable,
		DebugResourceID:        t.req.Path.DebugDisplay(t.tc.Cwd),
		ModuleType:             mt,
		DefFormat:              t.req.Format,
		IsUserDefinedEntry:     t.req.IsEntry,
		NamedImports:           scan.NamedImports,
		NamedExports:           scan.NamedExports,
		StmtInfos:              scan.StmtInfos,
		Imports:                scan.Imports,
		StarExports:            scan.StarExports,
		DefaultExportRef:       scan.DefaultExportRef,
		NamespaceRef:           scan.NamespaceRef,
		ExportsKind:            scan.ExportsKind,
		Scope:                  scopes,
		SourcemapChain:         sourcemaps,
		SideEffects:            sideEffects,
		ImportedIDs:            imported,
		DynamicallyImportedIDs: dynamic,
		ExecOrder:              module.ExecOrderUnset,
		ImportRecords:          recordIDs,
	}

	if err := t.tc.Driver.ModuleParsed(ctx, m.ToModuleInfo()); err != nil {
		return nil, stageErr(StageModuleParsed, err)
	}

	t.logger.Debug("module loaded", "imports", len(deps), "side_effects", sideEffects.String())
	return &Done{
		ModuleID:         t.id,
		Module:           m,
		Symbols:          symbols,
		ResolvedDeps:     deps,
		RawImportRecords: scan.ImportRecords,
		Warnings:         warnings,
	}, nil
}

// load asks the load hooks first. Without a plugin answer the runtime module
// comes from the binary and everything else from the file system.
func (t *NormalModuleTask) load(ctx context.Context, id string, mt module.ModuleType) (string, *loadedByPlugin, error) {
	res, err := t.tc.Driver.Load(ctx, id, mt)
	if err != nil {
		return "", nil, err
	}
	if res != nil {
		return res.Code, &loadedByPlugin{ModuleType: res.ModuleType, Sourcemap: res.Sourcemap, SideEffects: res.SideEffects}, nil
	}
	if t.req.Path.Path == module.RuntimeModuleID {
		return RuntimeSource(), nil, nil
	}
	if t.req.Path.IsVirtual() {
		return "", nil, fmt.Errorf("no plugin loaded virtual module %q", id)
	}
	data, err := t.tc.readFile(ctx, t.req.Path.Path)
	if err != nil {
		return "", nil, err
	}
	return string(data), nil, nil
}

type loadedByPlugin struct {
	ModuleType  module.ModuleType
	Sourcemap   *module.SourceMap
	SideEffects *module.HookSideEffects
}

func (t *NormalModuleTask) packageSideEffects() (bool, bool) {
	if t.req.Path.IsVirtual() {
		return false, false
	}
	pkg := t.req.PackageJSON
	if pkg == nil {
		pkg = t.tc.nearestPackageJSON(t.req.Path.Path)
	}
	return pkg.CheckSideEffectsFor(t.req.Path.Path)
}

// partitionImportedIDs splits resolved ids by import kind, keeping record
// order within each list.
func partitionImportedIDs(records []module.RawImportRecord, deps []module.ResolvedRequestInfo) (imported, dynamic []string) {
	imported = []string{}
	dynamic = []string{}
	for i, rec := range records {
		id := deps[i].Path.String()
		if rec.Kind.IsStatic() {
			imported = append(imported, id)
		} else {
			dynamic = append(dynamic, id)
		}
	}
	return imported, dynamic
}
