package scanner

import (
	"strings"
	"testing"

	"bundlecore/internal/diag"
	"bundlecore/internal/module"
	"bundlecore/internal/parser"

	"github.com/google/go-cmp/cmp"
)

func scan(t *testing.T, path, src string, format module.ModuleDefFormat) (*Result, *module.AstScopes, *module.AstSymbols) {
	t.Helper()
	prog, err := parser.Parse(path, src, module.ModuleTypeJs)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return New(7, path, path, format).Scan(prog)
}

func specifiers(res *Result) []string {
	out := make([]string, 0, len(res.ImportRecords))
	for _, rec := range res.ImportRecords {
		out = append(out, rec.Specifier)
	}
	return out
}

func warningKinds(res *Result) []diag.Kind {
	var out []diag.Kind
	for _, w := range res.Warnings {
		out = append(out, w.Kind)
	}
	return out
}

func TestScan_ImportRecordsInSourceOrder(t *testing.T) {
	src := `import a from "./a.js";
import { b as bb, c } from './b.js';
import * as ns from "./ns.js";
export { d } from "./d.js";
export * from "./star.js";
const lazy = () => import("./lazy.js");
const legacy = require("./legacy.js");
`
	res, _, _ := scan(t, "/src/main.js", src, module.FormatJs)

	want := []string{"./a.js", "./b.js", "./ns.js", "./d.js", "./star.js", "./lazy.js", "./legacy.js"}
	if diff := cmp.Diff(want, specifiers(res)); diff != "" {
		t.Fatalf("specifiers mismatch (-want +got):\n%s", diff)
	}

	kinds := []module.ImportKind{}
	for _, rec := range res.ImportRecords {
		kinds = append(kinds, rec.Kind)
	}
	wantKinds := []module.ImportKind{
		module.ImportKindImport, module.ImportKindImport, module.ImportKindImport,
		module.ImportKindImport, module.ImportKindImport,
		module.ImportKindDynamicImport, module.ImportKindRequire,
	}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}

	if !res.ImportRecords[3].IsReExport || res.ImportRecords[3].IsStarReExport {
		t.Fatalf("record 3 should be a named re-export: %+v", res.ImportRecords[3])
	}
	if !res.ImportRecords[4].IsStarReExport {
		t.Fatalf("record 4 should be a star re-export: %+v", res.ImportRecords[4])
	}
	if diff := cmp.Diff([]module.ImportRecordID{4}, res.StarExports); diff != "" {
		t.Fatalf("star exports mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_SpansCoverSpecifierLiterals(t *testing.T) {
	src := `import x from "./x.js";
console.log(require("./x.js"));
`
	res, _, _ := scan(t, "/src/main.js", src, module.FormatJs)
	if len(res.ImportRecords) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.ImportRecords))
	}
	for i, rec := range res.ImportRecords {
		got := src[rec.Span.Start:rec.Span.End]
		if got != `"./x.js"` {
			t.Fatalf("record %d span = %q", i, got)
		}
		if id, ok := res.Imports[rec.Span]; !ok || id != module.ImportRecordID(i) {
			t.Fatalf("Imports[%v] = (%d, %v)", rec.Span, id, ok)
		}
	}
	if res.ImportRecords[0].Span == res.ImportRecords[1].Span {
		t.Fatalf("identical literals must get distinct spans")
	}
}

func lineOf(src string, offset uint32) int {
	return strings.Count(src[:offset], "\n") + 1
}

func TestScan_SpansSkipCommentsAndPlainStrings(t *testing.T) {
	src := "// see './dep.js' for details\n" +
		"const hint = './dep.js';\n" +
		"import x from './dep.js';\n" +
		"require('./dep.js');\n"

	res, _, _ := scan(t, "/src/main.js", src, module.FormatJs)
	if len(res.ImportRecords) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.ImportRecords))
	}
	for i, wantLine := range []int{3, 4} {
		rec := res.ImportRecords[i]
		if got := src[rec.Span.Start:rec.Span.End]; got != `'./dep.js'` {
			t.Fatalf("record %d span = %q", i, got)
		}
		if got := lineOf(src, rec.Span.Start); got != wantLine {
			t.Errorf("record %d on line %d, want %d", i, got, wantLine)
		}
	}
}

func TestSpecifierSites(t *testing.T) {
	src := `/* import "./no.js" */
const re = /"from '\.\/no.js'"/g;
const tpl = ` + "`require(\"./no.js\")`" + `;
export * from "./star.js";
import "./side.js";
const m = import('./lazy.js');
const r = require("./cjs.js");
const s = call("./arg.js");
`
	var got []string
	for _, site := range specifierSites(src) {
		if src[site.span.Start:site.span.End] != site.raw {
			t.Fatalf("span %v does not cover %q", site.span, site.raw)
		}
		got = append(got, site.raw)
	}
	want := []string{`"./star.js"`, `"./side.js"`, `'./lazy.js'`, `"./cjs.js"`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sites mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_NamedImportsAndExports(t *testing.T) {
	src := `import def, { x as y } from "./dep.js";
import * as ns from "./ns.js";
export const a = 1, b = 2;
export function f() {}
export { y as renamed };
export default class Widget {}
`
	res, _, symbols := scan(t, "/src/widget.js", src, module.FormatJs)

	imported := map[string]string{}
	for ref, imp := range res.NamedImports {
		sym, ok := symbols.Get(ref)
		if !ok {
			t.Fatalf("named import refers to unknown symbol %v", ref)
		}
		imported[sym.Name] = imp.Imported
	}
	wantImported := map[string]string{"def": "default", "y": "x", "ns": "*"}
	if diff := cmp.Diff(wantImported, imported); diff != "" {
		t.Fatalf("named imports mismatch (-want +got):\n%s", diff)
	}

	exported := map[string]string{}
	for name, exp := range res.NamedExports {
		sym, _ := symbols.Get(exp.Local)
		exported[name] = sym.Name
	}
	wantExported := map[string]string{"a": "a", "b": "b", "f": "f", "renamed": "y", "default": "Widget"}
	if diff := cmp.Diff(wantExported, exported); diff != "" {
		t.Fatalf("named exports mismatch (-want +got):\n%s", diff)
	}

	nsRef := res.ImportRecords[1].NamespaceRef
	if sym, _ := symbols.Get(nsRef); sym.Name != "ns" {
		t.Fatalf("namespace import record should point at ns, got %q", sym.Name)
	}
	if res.ExportsKind != module.ExportsKindEsm {
		t.Fatalf("exports kind = %q", res.ExportsKind)
	}
	if res.ReprName != "widget" {
		t.Fatalf("repr name = %q", res.ReprName)
	}
}

func TestScan_FacadeSymbols(t *testing.T) {
	res, scopes, symbols := scan(t, "/src/util/index.js", "export default 42;\n", module.FormatJs)

	ns, _ := symbols.Get(res.NamespaceRef)
	def, _ := symbols.Get(res.DefaultExportRef)
	if ns.Name != "util_exports" || ns.Kind != module.SymbolKindNamespace {
		t.Fatalf("namespace symbol = %+v", ns)
	}
	if def.Name != "util_default" || def.Kind != module.SymbolKindFacade {
		t.Fatalf("default symbol = %+v", def)
	}
	if res.NamedExports["default"].Local != res.DefaultExportRef {
		t.Fatalf("anonymous default export should bind the facade symbol")
	}
	if res.NamespaceRef.Owner != 7 {
		t.Fatalf("symbols must be owned by the scanned module")
	}
	if scopes.Root() == nil || scopes.Root().Kind != module.ScopeKindModule {
		t.Fatalf("missing module scope")
	}
}

func TestScan_FunctionScopes(t *testing.T) {
	_, scopes, symbols := scan(t, "/src/a.js", "function add(x, { y }, ...rest) { return x + y; }\n", module.FormatJs)
	if scopes.Len() != 2 {
		t.Fatalf("expected module and function scope, got %d", scopes.Len())
	}
	fn := scopes.Scopes[1]
	if fn.Parent != module.RootScopeID || fn.Kind != module.ScopeKindFunction {
		t.Fatalf("function scope = %+v", fn)
	}
	var names []string
	for name := range fn.Bindings {
		names = append(names, name)
	}
	if len(names) != 3 {
		t.Fatalf("expected 3 parameter bindings, got %v", names)
	}
	if _, ok := scopes.Root().Bindings["add"]; !ok {
		t.Fatalf("function name must be bound in the module scope")
	}
	if len(symbols.Symbols) < 6 {
		t.Fatalf("expected facades, function and params to be declared, got %d symbols", len(symbols.Symbols))
	}
}

func TestScan_StatementSideEffects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"literal const", "const a = 1;", false},
		{"object literal", "const o = { a: [1, 2], b: () => 1 };", false},
		{"function declaration", "function f() { sideEffect(); }", false},
		{"pure class", "class A {}", false},
		{"import", `import "./a.js";`, false},
		{"export list", "const a = 1; export { a };", false},
		{"call", "console.log(1);", true},
		{"assignment", "globalThis.x = 1;", true},
		{"new", "const x = new Map();", true},
		{"destructuring", "const { a } = obj;", true},
		{"delete", "delete obj.a;", true},
		{"class extends call", "class A extends mixin() {}", true},
		{"default export call", "export default run();", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, _ := scan(t, "/src/a.js", tt.src, module.FormatJs)
			if got := res.HasSideEffectStmt(); got != tt.want {
				t.Fatalf("HasSideEffectStmt(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestScan_StmtInfosTrackRecords(t *testing.T) {
	src := `import a from "./a.js";
const b = 1;
export const c = import("./c.js");
`
	res, _, _ := scan(t, "/src/main.js", src, module.FormatJs)
	if len(res.StmtInfos) != 3 {
		t.Fatalf("expected 3 stmt infos, got %d", len(res.StmtInfos))
	}
	if diff := cmp.Diff([]module.ImportRecordID{0}, res.StmtInfos[0].ImportRecords); diff != "" {
		t.Fatalf("stmt 0 records (-want +got):\n%s", diff)
	}
	if len(res.StmtInfos[1].ImportRecords) != 0 || len(res.StmtInfos[1].DeclaredSymbols) != 1 {
		t.Fatalf("stmt 1 = %+v", res.StmtInfos[1])
	}
	if diff := cmp.Diff([]module.ImportRecordID{1}, res.StmtInfos[2].ImportRecords); diff != "" {
		t.Fatalf("stmt 2 records (-want +got):\n%s", diff)
	}
}

func TestScan_ExportsKind(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		format module.ModuleDefFormat
		want   module.ExportsKind
	}{
		{"esm syntax", "export const a = 1;", module.FormatJs, module.ExportsKindEsm},
		{"module.exports", "module.exports = { a: 1 };", module.FormatJs, module.ExportsKindCommonJS},
		{"exports property", "exports.a = 1;", module.FormatJs, module.ExportsKindCommonJS},
		{"cjs extension", "const a = 1;", module.FormatCjs, module.ExportsKindCommonJS},
		{"mjs extension", "const a = 1;", module.FormatEsmMjs, module.ExportsKindEsm},
		{"plain script", "const a = 1;", module.FormatJs, module.ExportsKindNone},
		{"shadowed module", "function f(module) { return module.id; }", module.FormatJs, module.ExportsKindNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, _ := scan(t, "/src/a.js", tt.src, tt.format)
			if res.ExportsKind != tt.want {
				t.Fatalf("ExportsKind = %q, want %q", res.ExportsKind, tt.want)
			}
		})
	}
}

func TestScan_Warnings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []diag.Kind
	}{
		{"eval", `eval("1 + 1");`, []diag.Kind{diag.KindEval}},
		{"duplicate export", "const a = 1; export { a }; export { a };", []diag.Kind{diag.KindDuplicateExport}},
		{"missing binding", "export { nope };", []diag.Kind{diag.KindMissingExportBinding}},
		{"mixed exports", "export const a = 1; module.exports = {};", []diag.Kind{diag.KindMixedExports}},
		{"clean", "export const a = 1;", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, _ := scan(t, "/src/a.js", tt.src, module.FormatJs)
			if diff := cmp.Diff(tt.want, warningKinds(res)); diff != "" {
				t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
			}
			for _, w := range res.Warnings {
				if !w.IsWarning() || w.Importer != "/src/a.js" {
					t.Fatalf("warning should be a warning about /src/a.js: %+v", w)
				}
			}
		})
	}
}

func TestScan_ComputedRequireIgnored(t *testing.T) {
	res, _, _ := scan(t, "/src/a.js", "const name = 'x'; require(name); require(`./t.js`);", module.FormatJs)
	if len(res.ImportRecords) != 0 {
		t.Fatalf("computed specifiers must not be recorded: %v", specifiers(res))
	}
}

func TestUnquote(t *testing.T) {
	tests := map[string]string{
		`"./a.js"`:    "./a.js",
		`'./b.js'`:    "./b.js",
		`"abc"`:       "abc",
		`'it\'s'`:     "it's",
		`ident`:       "ident",
		`"`:           `"`,
		`'say "hi"'`:  `say "hi"`,
		`"tab\there"`: "tab\there",
	}
	for in, want := range tests {
		if got := unquote([]byte(in)); got != want {
			t.Errorf("unquote(%s) = %q, want %q", in, got, want)
		}
	}
}
