package module

type ScopeKind string

const (
	ScopeKindModule   ScopeKind = "module"
	ScopeKindFunction ScopeKind = "function"
	ScopeKindBlock    ScopeKind = "block"
)

type Scope struct {
	ID       ScopeID             `json:"id"`
	Parent   ScopeID             `json:"parent"`
	Kind     ScopeKind           `json:"kind"`
	Bindings map[string]SymbolID `json:"bindings,omitempty"`
}

// AstScopes is a module's scope tree, indexed by ScopeID. Scopes[0] is the
// module scope and is its own parent.
type AstScopes struct {
	Scopes []Scope `json:"scopes"`
}

func (s *AstScopes) Root() *Scope {
	if s == nil || len(s.Scopes) == 0 {
		return nil
	}
	return &s.Scopes[RootScopeID]
}

func (s *AstScopes) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Scopes)
}

type SymbolKind string

const (
	SymbolKindDeclared  SymbolKind = "declared"
	SymbolKindImport    SymbolKind = "import"
	SymbolKindNamespace SymbolKind = "namespace"
	SymbolKindFacade    SymbolKind = "facade"
)

type Symbol struct {
	Name  string     `json:"name"`
	Scope ScopeID    `json:"scope"`
	Kind  SymbolKind `json:"kind"`
}

// AstSymbols is a module's symbol table, indexed by SymbolID.
type AstSymbols struct {
	Owner   ModuleID `json:"owner"`
	Symbols []Symbol `json:"symbols"`
}

// Declare appends a symbol and returns its global reference.
func (s *AstSymbols) Declare(name string, scope ScopeID, kind SymbolKind) SymbolRef {
	s.Symbols = append(s.Symbols, Symbol{Name: name, Scope: scope, Kind: kind})
	return SymbolRef{Owner: s.Owner, Symbol: SymbolID(len(s.Symbols) - 1)}
}

func (s *AstSymbols) Get(ref SymbolRef) (Symbol, bool) {
	if s == nil || ref.Owner != s.Owner || int(ref.Symbol) >= len(s.Symbols) {
		return Symbol{}, false
	}
	return s.Symbols[ref.Symbol], true
}
