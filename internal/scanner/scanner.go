// Package scanner extracts scopes, symbols and import/export metadata from a
// parsed module.
package scanner

import (
	"strconv"
	"strings"

	"bundlecore/internal/diag"
	"bundlecore/internal/module"
	"bundlecore/internal/parser"

	"github.com/tdewolff/parse/v2/js"
)

// Result is everything the loader keeps from a scan. It is destructured into
// the module record and not retained.
type Result struct {
	ReprName         string
	NamedImports     map[module.SymbolRef]module.NamedImport
	NamedExports     map[string]module.LocalExport
	StmtInfos        []module.StmtInfo
	ImportRecords    []module.RawImportRecord
	StarExports      []module.ImportRecordID
	DefaultExportRef module.SymbolRef
	NamespaceRef     module.SymbolRef
	Imports          map[module.Span]module.ImportRecordID
	ExportsKind      module.ExportsKind
	Warnings         []*diag.BuildError
}

// HasSideEffectStmt reports whether any top-level statement is flagged.
func (r *Result) HasSideEffectStmt() bool {
	for _, info := range r.StmtInfos {
		if info.SideEffect {
			return true
		}
	}
	return false
}

// AstScanner walks one module. It is single use.
type AstScanner struct {
	id       module.ModuleID
	path     string
	importer string
	source   string
	format   module.ModuleDefFormat

	scopes  *module.AstScopes
	symbols *module.AstSymbols
	result  *Result

	sites     []specifierSite
	site      int
	cursor    int
	hasESM    bool
	hasESMExp bool
	usesCJS   bool
	sawEval   bool
}

// New prepares a scanner. importer is the display path used in warnings.
func New(id module.ModuleID, path, importer string, format module.ModuleDefFormat) *AstScanner {
	return &AstScanner{
		id:       id,
		path:     path,
		importer: importer,
		format:   format,
	}
}

// Scan never fails; anomalies are reported as warnings on the result.
func (s *AstScanner) Scan(prog *parser.Program) (*Result, *module.AstScopes, *module.AstSymbols) {
	s.source = prog.Source
	s.sites = specifierSites(prog.Source)
	s.scopes = &module.AstScopes{Scopes: []module.Scope{{
		ID:       module.RootScopeID,
		Parent:   module.RootScopeID,
		Kind:     module.ScopeKindModule,
		Bindings: map[string]module.SymbolID{},
	}}}
	s.symbols = &module.AstSymbols{Owner: s.id}

	repr := module.RepresentativeName(s.path)
	s.result = &Result{
		ReprName:     repr,
		NamedImports: map[module.SymbolRef]module.NamedImport{},
		NamedExports: map[string]module.LocalExport{},
		Imports:      map[module.Span]module.ImportRecordID{},
	}
	s.result.NamespaceRef = s.symbols.Declare(repr+"_exports", module.RootScopeID, module.SymbolKindNamespace)
	s.result.DefaultExportRef = s.symbols.Declare(repr+"_default", module.RootScopeID, module.SymbolKindFacade)

	stmts := prog.AST.BlockStmt.List
	declared := make([][]module.SymbolRef, len(stmts))
	for i, stmt := range stmts {
		declared[i] = s.declareTopLevel(stmt)
	}
	for i, stmt := range stmts {
		s.scanStmt(i, stmt, declared[i])
	}

	s.result.ExportsKind = s.exportsKind()
	if s.hasESMExp && s.usesCJS {
		s.warn(diag.MixedExports(s.importer))
	}
	if s.sawEval {
		s.warn(diag.Eval(s.importer))
	}
	return s.result, s.scopes, s.symbols
}

func (s *AstScanner) exportsKind() module.ExportsKind {
	switch {
	case s.hasESM:
		return module.ExportsKindEsm
	case s.usesCJS || s.format.IsCommonJS():
		return module.ExportsKindCommonJS
	case s.format.IsEsm():
		return module.ExportsKindEsm
	default:
		return module.ExportsKindNone
	}
}

func (s *AstScanner) warn(w *diag.BuildError) {
	s.result.Warnings = append(s.result.Warnings, w)
}

func (s *AstScanner) root() *module.Scope {
	return s.scopes.Root()
}

// declareRoot binds name in the module scope, reusing an existing binding so
// redeclared vars share a symbol.
func (s *AstScanner) declareRoot(name string, kind module.SymbolKind) module.SymbolRef {
	if id, ok := s.root().Bindings[name]; ok {
		return module.SymbolRef{Owner: s.id, Symbol: id}
	}
	ref := s.symbols.Declare(name, module.RootScopeID, kind)
	s.root().Bindings[name] = ref.Symbol
	return ref
}

func (s *AstScanner) lookupRoot(name string) (module.SymbolRef, bool) {
	id, ok := s.root().Bindings[name]
	return module.SymbolRef{Owner: s.id, Symbol: id}, ok
}

// declareTopLevel registers the module-scope bindings a statement introduces.
// It runs over every statement before any export is resolved, so exports may
// refer to later declarations.
func (s *AstScanner) declareTopLevel(stmt js.IStmt) []module.SymbolRef {
	var refs []module.SymbolRef
	switch n := stmt.(type) {
	case *js.ImportStmt:
		if len(n.Default) > 0 {
			refs = append(refs, s.declareRoot(string(n.Default), module.SymbolKindImport))
		}
		for _, alias := range n.List {
			if len(alias.Binding) > 0 && !isStar(alias.Binding) {
				refs = append(refs, s.declareRoot(string(alias.Binding), module.SymbolKindImport))
			}
		}
	case *js.ExportStmt:
		if n.Decl != nil && n.Module == nil {
			for _, name := range declNames(n.Decl) {
				refs = append(refs, s.declareRoot(name, module.SymbolKindDeclared))
			}
		}
	default:
		for _, name := range declNames(stmt) {
			refs = append(refs, s.declareRoot(name, module.SymbolKindDeclared))
		}
		if fn, ok := stmt.(*js.FuncDecl); ok {
			s.declareFunctionScope(fn)
		}
	}
	return refs
}

func (s *AstScanner) declareFunctionScope(fn *js.FuncDecl) {
	scope := module.Scope{
		ID:       module.ScopeID(len(s.scopes.Scopes)),
		Parent:   module.RootScopeID,
		Kind:     module.ScopeKindFunction,
		Bindings: map[string]module.SymbolID{},
	}
	var names []string
	for _, el := range fn.Params.List {
		names = append(names, bindingNames(el.Binding)...)
	}
	names = append(names, bindingNames(fn.Params.Rest)...)
	for _, name := range names {
		ref := s.symbols.Declare(name, scope.ID, module.SymbolKindDeclared)
		scope.Bindings[name] = ref.Symbol
	}
	s.scopes.Scopes = append(s.scopes.Scopes, scope)
}

func (s *AstScanner) scanStmt(index int, stmt js.IStmt, declared []module.SymbolRef) {
	info := module.StmtInfo{StmtIndex: index, DeclaredSymbols: declared}

	switch n := stmt.(type) {
	case *js.ImportStmt:
		s.hasESM = true
		info.ImportRecords = append(info.ImportRecords, s.scanImport(n))
	case *js.ExportStmt:
		s.hasESM = true
		s.hasESMExp = true
		if n.Module != nil {
			info.ImportRecords = append(info.ImportRecords, s.scanReExport(n, &info))
			break
		}
		switch {
		case n.Default:
			s.scanDefaultExport(n.Decl, &info)
		case n.Decl != nil:
			for _, ref := range declared {
				sym, _ := s.symbols.Get(ref)
				s.addExport(sym.Name, module.LocalExport{Exported: sym.Name, Local: ref})
			}
			info.SideEffect = stmtHasSideEffects(n.Decl)
		default:
			s.scanExportList(n.List)
		}
		if n.Decl != nil {
			info.ImportRecords = append(info.ImportRecords, s.scanNested(n.Decl)...)
		}
	default:
		info.SideEffect = stmtHasSideEffects(stmt)
		info.ImportRecords = append(info.ImportRecords, s.scanNested(stmt)...)
	}

	s.result.StmtInfos = append(s.result.StmtInfos, info)
}

func (s *AstScanner) scanImport(n *js.ImportStmt) module.ImportRecordID {
	rid := s.addRecord(n.Module, module.ImportKindImport)
	if len(n.Default) > 0 {
		ref, _ := s.lookupRoot(string(n.Default))
		s.result.NamedImports[ref] = module.NamedImport{Imported: "default", Local: ref, RecordID: rid}
	}
	for _, alias := range n.List {
		if len(alias.Binding) == 0 {
			continue
		}
		ref, _ := s.lookupRoot(string(alias.Binding))
		imported := string(alias.Binding)
		if alias.Name != nil {
			imported = unquote(alias.Name)
		}
		if isStar(alias.Name) {
			imported = "*"
			s.result.ImportRecords[rid].NamespaceRef = ref
		}
		s.result.NamedImports[ref] = module.NamedImport{Imported: imported, Local: ref, RecordID: rid}
	}
	return rid
}

func (s *AstScanner) scanReExport(n *js.ExportStmt, info *module.StmtInfo) module.ImportRecordID {
	rid := s.addRecord(n.Module, module.ImportKindImport)
	rec := &s.result.ImportRecords[rid]
	rec.IsReExport = true

	for _, alias := range n.List {
		if isStarAlias(alias) {
			if name := starAliasName(alias); name != "" {
				ref := s.symbols.Declare(name, module.RootScopeID, module.SymbolKindNamespace)
				rec.NamespaceRef = ref
				info.DeclaredSymbols = append(info.DeclaredSymbols, ref)
				s.addExport(name, module.LocalExport{Exported: name, Local: ref, RecordID: rid, IsReExport: true})
				continue
			}
			rec.IsStarReExport = true
			s.result.StarExports = append(s.result.StarExports, rid)
			continue
		}
		imported := unquote(alias.Binding)
		if alias.Name != nil {
			imported = unquote(alias.Name)
		}
		exported := unquote(alias.Binding)
		ref := s.symbols.Declare(imported, module.RootScopeID, module.SymbolKindImport)
		info.DeclaredSymbols = append(info.DeclaredSymbols, ref)
		s.result.NamedImports[ref] = module.NamedImport{Imported: imported, Local: ref, RecordID: rid}
		s.addExport(exported, module.LocalExport{Exported: exported, Local: ref, RecordID: rid, IsReExport: true})
	}
	return rid
}

func (s *AstScanner) scanDefaultExport(decl js.IExpr, info *module.StmtInfo) {
	local := s.result.DefaultExportRef
	switch d := decl.(type) {
	case *js.FuncDecl:
		if d.Name != nil {
			local = s.declareRoot(string(d.Name.Data), module.SymbolKindDeclared)
		}
	case *js.ClassDecl:
		if d.Name != nil {
			local = s.declareRoot(string(d.Name.Data), module.SymbolKindDeclared)
		}
		info.SideEffect = d.Extends != nil && exprHasSideEffects(d.Extends)
	default:
		info.SideEffect = exprHasSideEffects(decl)
	}
	info.DeclaredSymbols = append(info.DeclaredSymbols, s.result.DefaultExportRef)
	s.addExport("default", module.LocalExport{Exported: "default", Local: local})
}

func (s *AstScanner) scanExportList(list []js.Alias) {
	for _, alias := range list {
		local := unquote(alias.Binding)
		if alias.Name != nil {
			local = unquote(alias.Name)
		}
		exported := unquote(alias.Binding)
		ref, ok := s.lookupRoot(local)
		if !ok {
			s.warn(diag.MissingExportBinding(local, s.importer))
			continue
		}
		s.addExport(exported, module.LocalExport{Exported: exported, Local: ref})
	}
}

func (s *AstScanner) addExport(name string, exp module.LocalExport) {
	if _, exists := s.result.NamedExports[name]; exists {
		s.warn(diag.DuplicateExport(name, s.importer))
		return
	}
	s.result.NamedExports[name] = exp
}

// addRecord appends an import record for the quoted specifier literal raw.
func (s *AstScanner) addRecord(raw []byte, kind module.ImportKind) module.ImportRecordID {
	rid := module.ImportRecordID(len(s.result.ImportRecords))
	span := s.locate(string(raw))
	s.result.ImportRecords = append(s.result.ImportRecords, module.RawImportRecord{
		Specifier:    unquote(raw),
		Kind:         kind,
		Span:         span,
		NamespaceRef: s.symbols.Declare("import_"+module.RepresentativeName(unquote(raw)), module.RootScopeID, module.SymbolKindNamespace),
	})
	s.result.Imports[span] = rid
	return rid
}

func isStar(b []byte) bool {
	return len(b) == 1 && b[0] == '*'
}

func isStarAlias(a js.Alias) bool {
	return isStar(a.Name) || (a.Name == nil && isStar(a.Binding))
}

func starAliasName(a js.Alias) string {
	if isStar(a.Name) && len(a.Binding) > 0 && !isStar(a.Binding) {
		return unquote(a.Binding)
	}
	return ""
}

// unquote strips string literal quotes. Identifiers pass through unchanged.
func unquote(b []byte) string {
	s := string(b)
	if len(s) < 2 {
		return s
	}
	q := s[0]
	if (q != '"' && q != '\'' && q != '`') || s[len(s)-1] != q {
		return s
	}
	body := s[1 : len(s)-1]
	if !strings.Contains(body, `\`) {
		return body
	}
	if q != '"' {
		body = strings.ReplaceAll(body, `\`+string(q), string(q))
		s = `"` + strings.ReplaceAll(body, `"`, `\"`) + `"`
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return body
}
