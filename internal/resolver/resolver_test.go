package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bundlecore/internal/module"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

func newTestFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for p, content := range files {
		if err := afero.WriteFile(fsys, p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	return fsys
}

func TestFSResolver_Resolve(t *testing.T) {
	fsys := newTestFs(t, map[string]string{
		"/proj/src/a.js":                            "",
		"/proj/src/b.ts":                            "",
		"/proj/src/util/index.js":                   "",
		"/proj/src/esm.mjs":                         "",
		"/proj/src/legacy.cjs":                      "",
		"/proj/src/logo.svg":                        "",
		"/proj/node_modules/lib/package.json":       `{"name":"lib","main":"./cjs/index.js","module":"./esm/index.js"}`,
		"/proj/node_modules/lib/cjs/index.js":       "",
		"/proj/node_modules/lib/esm/index.js":       "",
		"/proj/node_modules/lib/extra.js":           "",
		"/proj/node_modules/@scope/pkg/index.js":    "",
		"/proj/node_modules/typed/package.json":     `{"name":"typed","type":"module","main":"main.js"}`,
		"/proj/node_modules/typed/main.js":          "",
		"/proj/src/nested/node_modules/lib/index.js": "",
	})
	r := NewFSResolver(fsys, Options{Cwd: "/proj"})

	tests := []struct {
		name      string
		specifier string
		importer  string
		kind      module.ImportKind
		wantPath  module.ResolvedPath
		wantFmt   module.ModuleDefFormat
	}{
		{"relative exact", "./a.js", "/proj/src/main.js", module.ImportKindImport, module.ResolvedPath{Path: "/proj/src/a.js"}, module.FormatJs},
		{"extension probe", "./b", "/proj/src/main.js", module.ImportKindImport, module.ResolvedPath{Path: "/proj/src/b.ts"}, module.FormatJs},
		{"index probe", "./util", "/proj/src/main.js", module.ImportKindImport, module.ResolvedPath{Path: "/proj/src/util/index.js"}, module.FormatJs},
		{"mjs", "./esm.mjs", "/proj/src/main.js", module.ImportKindImport, module.ResolvedPath{Path: "/proj/src/esm.mjs"}, module.FormatEsmMjs},
		{"cjs", "./legacy.cjs", "/proj/src/main.js", module.ImportKindImport, module.ResolvedPath{Path: "/proj/src/legacy.cjs"}, module.FormatCjs},
		{"query kept", "./logo.svg?raw", "/proj/src/main.js", module.ImportKindImport, module.ResolvedPath{Path: "/proj/src/logo.svg", Query: "?raw"}, module.FormatJs},
		{"entry from cwd", "./src/a.js", "", module.ImportKindImport, module.ResolvedPath{Path: "/proj/src/a.js"}, module.FormatJs},
		{"bare module field", "lib", "/proj/src/main.js", module.ImportKindImport, module.ResolvedPath{Path: "/proj/node_modules/lib/esm/index.js"}, module.FormatJs},
		{"bare main for require", "lib", "/proj/src/main.js", module.ImportKindRequire, module.ResolvedPath{Path: "/proj/node_modules/lib/cjs/index.js"}, module.FormatJs},
		{"bare subpath", "lib/extra", "/proj/src/main.js", module.ImportKindImport, module.ResolvedPath{Path: "/proj/node_modules/lib/extra.js"}, module.FormatJs},
		{"scoped package", "@scope/pkg", "/proj/src/main.js", module.ImportKindImport, module.ResolvedPath{Path: "/proj/node_modules/@scope/pkg/index.js"}, module.FormatJs},
		{"package type module", "typed", "/proj/src/main.js", module.ImportKindImport, module.ResolvedPath{Path: "/proj/node_modules/typed/main.js"}, module.FormatEsmPackageJSON},
		{"closest node_modules wins", "lib", "/proj/src/nested/x.js", module.ImportKindImport, module.ResolvedPath{Path: "/proj/src/nested/node_modules/lib/index.js"}, module.FormatJs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), tt.specifier, tt.importer, tt.kind)
			if err != nil {
				t.Fatalf("Resolve(%q) failed: %v", tt.specifier, err)
			}
			if diff := cmp.Diff(tt.wantPath, res.Path); diff != "" {
				t.Fatalf("path mismatch (-want +got):\n%s", diff)
			}
			if res.Format != tt.wantFmt {
				t.Fatalf("format = %q, want %q", res.Format, tt.wantFmt)
			}
		})
	}
}

func TestFSResolver_PackageJSONAttached(t *testing.T) {
	fsys := newTestFs(t, map[string]string{
		"/proj/package.json": `{"name":"app","sideEffects":false}`,
		"/proj/src/a.js":     "",
	})
	r := NewFSResolver(fsys, Options{Cwd: "/proj"})

	res, err := r.Resolve(context.Background(), "./a", "/proj/src/main.js", module.ImportKindImport)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.PackageJSON == nil || res.PackageJSON.Name != "app" {
		t.Fatalf("expected nearest package.json to be attached, got %+v", res.PackageJSON)
	}
	if v, ok := res.PackageJSON.CheckSideEffectsFor(res.Path.Path); !ok || v {
		t.Fatalf("CheckSideEffectsFor = (%v, %v), want (false, true)", v, ok)
	}
}

func TestFSResolver_Errors(t *testing.T) {
	fsys := newTestFs(t, map[string]string{
		"/proj/src/a.js":                     "",
		"/proj/node_modules/bad/package.json": `{"sideEffects": 42}`,
	})
	r := NewFSResolver(fsys, Options{
		Cwd:   "/proj",
		Alias: map[string]string{"loop-a": "loop-b", "loop-b": "loop-a"},
	})
	ctx := context.Background()

	tests := []struct {
		name      string
		specifier string
		want      ErrorKind
	}{
		{"missing relative", "./missing.js", KindNotFound},
		{"missing package", "nope", KindNotFound},
		{"virtual id", "virtual:thing", KindNotFound},
		{"empty", "  ", KindInvalidSpecifier},
		{"bad scope", "@scope", KindInvalidSpecifier},
		{"alias cycle", "loop-a", KindCyclic},
		{"broken package.json", "bad", KindPackageJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(ctx, tt.specifier, "/proj/src/main.js", module.ImportKindImport)
			var rerr *Error
			if !errors.As(err, &rerr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if rerr.Kind != tt.want {
				t.Fatalf("kind = %q, want %q (%v)", rerr.Kind, tt.want, err)
			}
			if rerr.Specifier != tt.specifier {
				t.Fatalf("specifier = %q, want %q", rerr.Specifier, tt.specifier)
			}
			if got := IsNotFound(err); got != (tt.want == KindNotFound) {
				t.Fatalf("IsNotFound = %v", got)
			}
		})
	}
}

func TestFSResolver_Alias(t *testing.T) {
	fsys := newTestFs(t, map[string]string{
		"/proj/src/components/button.js": "",
		"/proj/src/react-shim.js":        "",
	})
	r := NewFSResolver(fsys, Options{
		Cwd: "/proj",
		Alias: map[string]string{
			"@":     "/proj/src",
			"react": "/proj/src/react-shim.js",
		},
	})

	for spec, want := range map[string]string{
		"@/components/button": "/proj/src/components/button.js",
		"react":               "/proj/src/react-shim.js",
	} {
		res, err := r.Resolve(context.Background(), spec, "/proj/src/main.js", module.ImportKindImport)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", spec, err)
		}
		if res.Path.Path != want {
			t.Fatalf("Resolve(%q) = %q, want %q", spec, res.Path.Path, want)
		}
	}
}

func TestFSResolver_CachesSuccess(t *testing.T) {
	fsys := newTestFs(t, map[string]string{"/proj/a.js": ""})
	r := NewFSResolver(fsys, Options{Cwd: "/proj"})
	ctx := context.Background()

	first, err := r.Resolve(ctx, "./a", "/proj/main.js", module.ImportKindImport)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := fsys.Remove("/proj/a.js"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	second, err := r.Resolve(ctx, "./a", "/proj/other.js", module.ImportKindImport)
	if err != nil {
		t.Fatalf("cached Resolve failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached resolution to be reused")
	}
}

func TestFSResolver_ConcurrentLookups(t *testing.T) {
	fsys := newTestFs(t, map[string]string{"/proj/a.js": ""})
	r := NewFSResolver(fsys, Options{Cwd: "/proj"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Resolve(context.Background(), "./a.js", "/proj/main.js", module.ImportKindImport)
			if err != nil {
				t.Errorf("Resolve failed: %v", err)
				return
			}
			if res.Path.Path != "/proj/a.js" {
				t.Errorf("got %q", res.Path.Path)
			}
		}()
	}
	wg.Wait()
}

func TestExpandAlias(t *testing.T) {
	alias := map[string]string{"a": "b", "b": "c", "lib": "lib-es", "lib/x": "override"}
	tests := map[string]string{
		"a":      "c",
		"lib/y":  "lib-es/y",
		"lib/x":  "override",
		"libz":   "libz",
		"./rel":  "./rel",
		"lib-es": "lib-es",
	}
	for in, want := range tests {
		got, err := expandAlias(in, alias)
		if err != nil {
			t.Fatalf("expandAlias(%q) failed: %v", in, err)
		}
		if got != want {
			t.Fatalf("expandAlias(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSingleFlight(t *testing.T) {
	var g singleflight.Group
	var calls int32

	fn := func() (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(100 * time.Millisecond)
		return "result", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err, _ := g.Do("key", fn)
			if err != nil {
				t.Errorf("Do error: %v", err)
			}
			if val != "result" {
				t.Errorf("got %v, want %v", val, "result")
			}
		}()
	}

	wg.Wait()

	if calls != 1 {
		t.Errorf("got %d calls, want 1", calls)
	}
}
