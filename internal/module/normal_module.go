package module

import (
	"math"
	"sort"
)

// ExecOrderUnset marks a module whose execution order has not been assigned
// by the graph builder yet.
const ExecOrderUnset = math.MaxUint32

// NamedImport is a local binding introduced by an import declaration.
type NamedImport struct {
	// Imported is the exported name in the target module; "*" for namespace
	// imports and "default" for default imports.
	Imported string         `json:"imported"`
	Local    SymbolRef      `json:"local"`
	RecordID ImportRecordID `json:"record_id"`
}

// LocalExport binds an exported name to a symbol of this module.
type LocalExport struct {
	Exported string    `json:"exported"`
	Local    SymbolRef `json:"local"`
	// RecordID is set when the export re-exports a binding from another module.
	RecordID   ImportRecordID `json:"record_id,omitempty"`
	IsReExport bool           `json:"is_re_export,omitempty"`
}

// StmtInfo describes one top-level statement.
type StmtInfo struct {
	StmtIndex       int              `json:"stmt_index"`
	SideEffect      bool             `json:"side_effect"`
	DeclaredSymbols []SymbolRef      `json:"declared_symbols,omitempty"`
	ImportRecords   []ImportRecordID `json:"import_records,omitempty"`
}

// SourceMap is one entry of a module's sourcemap chain: the raw JSON map a
// load or transform hook produced, tagged with its producer.
type SourceMap struct {
	Plugin string `json:"plugin"`
	JSON   string `json:"json"`
}

// NormalModule is the immutable record a load task hands to the graph
// builder. Fields marked as placeholders are filled in by the builder.
type NormalModule struct {
	ID                 ModuleID         `json:"id"`
	Source             string           `json:"-"`
	ReprName           string           `json:"repr_name"`
	ResourceID         ResourceID       `json:"resource_id"`
	StableResourceID   StableResourceID `json:"stable_resource_id"`
	DebugResourceID    string           `json:"debug_resource_id"`
	ModuleType         ModuleType       `json:"module_type"`
	DefFormat          ModuleDefFormat  `json:"def_format"`
	IsUserDefinedEntry bool             `json:"is_user_defined_entry"`

	NamedImports     map[SymbolRef]NamedImport `json:"-"`
	NamedExports     map[string]LocalExport    `json:"-"`
	StmtInfos        []StmtInfo                `json:"-"`
	Imports          map[Span]ImportRecordID   `json:"-"`
	StarExports      []ImportRecordID          `json:"-"`
	DefaultExportRef SymbolRef                 `json:"-"`
	NamespaceRef     SymbolRef                 `json:"-"`
	ExportsKind      ExportsKind               `json:"exports_kind"`
	Scope            *AstScopes                `json:"-"`

	SourcemapChain []SourceMap           `json:"-"`
	SideEffects    DeterminedSideEffects `json:"side_effects"`

	ImportedIDs            []string `json:"imported_ids"`
	DynamicallyImportedIDs []string `json:"dynamically_imported_ids"`

	// Placeholders.
	ExecOrder        uint32           `json:"-"`
	IsIncluded       bool             `json:"-"`
	Importers        []string         `json:"importers,omitempty"`
	DynamicImporters []string         `json:"dynamic_importers,omitempty"`
	ImportRecords    []ImportRecordID `json:"-"`
}

// ModuleInfo is the read-only view of a module handed to plugins.
type ModuleInfo struct {
	ID                     string
	Code                   string
	IsEntry                bool
	ImportedIDs            []string
	DynamicallyImportedIDs []string
	Exports                []string
	SideEffects            DeterminedSideEffects
}

// ToModuleInfo copies the plugin-visible fields so hooks cannot mutate the
// record.
func (m *NormalModule) ToModuleInfo() *ModuleInfo {
	exports := make([]string, 0, len(m.NamedExports))
	for name := range m.NamedExports {
		exports = append(exports, name)
	}
	sort.Strings(exports)
	return &ModuleInfo{
		ID:                     string(m.ResourceID),
		Code:                   m.Source,
		IsEntry:                m.IsUserDefinedEntry,
		ImportedIDs:            append([]string(nil), m.ImportedIDs...),
		DynamicallyImportedIDs: append([]string(nil), m.DynamicallyImportedIDs...),
		Exports:                exports,
		SideEffects:            m.SideEffects,
	}
}
