package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"bundlecore/internal/config"
	"bundlecore/internal/logging"
	"bundlecore/internal/module"
	"bundlecore/internal/plugin"
	"bundlecore/internal/resolver"

	"github.com/spf13/afero"
)

func newTestFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for p, content := range files {
		if err := afero.WriteFile(fsys, p, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%s): %v", p, err)
		}
	}
	return fsys
}

func newTestConfig(t *testing.T, entries ...string) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Input.Cwd = "/proj"
	cfg.Input.Entries = entries
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func newTestTaskContext(t *testing.T, cfg *config.Config, opts TaskContextOptions) *TaskContext {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	tc, err := NewTaskContext(cfg, opts)
	if err != nil {
		t.Fatalf("NewTaskContext: %v", err)
	}
	return tc
}

func fileRequest(p string, isEntry bool) TaskRequest {
	return TaskRequest{
		Path:    module.ResolvedPath{Path: p},
		Format:  module.FormatFromPath(p),
		IsEntry: isEntry,
	}
}

// runTask runs one task to completion and returns its only message. It fails
// the test if the task reported more than once.
func runTask(t *testing.T, tc *TaskContext, req TaskRequest) Msg {
	t.Helper()
	tx := make(chan Msg, 2)
	NewNormalModuleTask(tc, tx, 0, req).Run(context.Background())
	if len(tx) != 1 {
		t.Fatalf("expected exactly one message, got %d", len(tx))
	}
	return <-tx
}

func mustDone(t *testing.T, msg Msg) *Done {
	t.Helper()
	done, ok := msg.(*Done)
	if !ok {
		t.Fatalf("expected *Done, got %T: %v", msg, msg)
	}
	return done
}

// countingResolver records every Resolve call and answers with fn.
type countingResolver struct {
	calls atomic.Int32
	mu    sync.Mutex
	seen  []string
	fn    func(specifier, importer string) (*resolver.Resolution, error)
}

func (r *countingResolver) Resolve(_ context.Context, specifier, importer string, _ module.ImportKind) (*resolver.Resolution, error) {
	r.calls.Add(1)
	r.mu.Lock()
	r.seen = append(r.seen, specifier)
	r.mu.Unlock()
	if r.fn == nil {
		return nil, &resolver.Error{Kind: resolver.KindNotFound, Specifier: specifier, Importer: importer}
	}
	return r.fn(specifier, importer)
}

// stubPlugin implements every hook; nil funcs decline.
type stubPlugin struct {
	name         string
	resolveID    func(args *plugin.ResolveIDArgs) (*plugin.ResolveIDOutput, error)
	load         func(args *plugin.LoadArgs) (*plugin.LoadOutput, error)
	transform    func(args *plugin.TransformArgs) (*plugin.TransformOutput, error)
	moduleParsed func(info *module.ModuleInfo) error
}

func (p *stubPlugin) Name() string        { return p.name }
func (p *stubPlugin) Description() string { return "test plugin" }

func (p *stubPlugin) ResolveID(_ context.Context, args *plugin.ResolveIDArgs) (*plugin.ResolveIDOutput, error) {
	if p.resolveID == nil {
		return nil, nil
	}
	return p.resolveID(args)
}

func (p *stubPlugin) Load(_ context.Context, args *plugin.LoadArgs) (*plugin.LoadOutput, error) {
	if p.load == nil {
		return nil, nil
	}
	return p.load(args)
}

func (p *stubPlugin) Transform(_ context.Context, args *plugin.TransformArgs) (*plugin.TransformOutput, error) {
	if p.transform == nil {
		return nil, nil
	}
	return p.transform(args)
}

func (p *stubPlugin) ModuleParsed(_ context.Context, info *module.ModuleInfo) error {
	if p.moduleParsed == nil {
		return nil
	}
	return p.moduleParsed(info)
}
