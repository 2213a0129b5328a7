package module

import "fmt"

// ModuleID identifies a discovered module. It is assigned by the graph
// builder before the module is loaded and is never reused within a build.
type ModuleID uint32

func (id ModuleID) String() string {
	return fmt.Sprintf("m%d", uint32(id))
}

// ImportRecordID indexes a module's import records in source order.
type ImportRecordID uint32

// SymbolID indexes a module's symbol table.
type SymbolID uint32

// ScopeID indexes a module's scope tree. The module scope is always 0.
type ScopeID uint32

const RootScopeID ScopeID = 0

// SymbolRef names a symbol globally: the owning module plus its local index.
type SymbolRef struct {
	Owner  ModuleID `json:"owner"`
	Symbol SymbolID `json:"symbol"`
}

func (r SymbolRef) String() string {
	return fmt.Sprintf("%s#%d", r.Owner, r.Symbol)
}

// RuntimeModuleID is the reserved specifier of the engine's runtime helper
// module. It always resolves to an internal ES module.
const RuntimeModuleID = "bundlecore:runtime"
