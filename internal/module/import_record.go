package module

import "bundlecore/internal/packagejson"

// Span is a half-open byte range into module source.
type Span struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// RawImportRecord is one import occurrence as written in source. The span
// covers the specifier string literal, quotes included, so later stages can
// rewrite it in place.
type RawImportRecord struct {
	Specifier string     `json:"specifier"`
	Kind      ImportKind `json:"kind"`
	Span      Span       `json:"span"`

	// IsReExport is set for `export ... from` declarations.
	IsReExport bool `json:"is_re_export,omitempty"`
	// IsStarReExport is set for `export * from` without a namespace alias.
	IsStarReExport bool `json:"is_star_re_export,omitempty"`
	// NamespaceRef is the symbol bound to the imported namespace object.
	NamespaceRef SymbolRef `json:"namespace_ref"`
}

// ResolvedRequestInfo is the resolution outcome for one RawImportRecord.
// External entries carry the raw specifier as Path.
type ResolvedRequestInfo struct {
	Path        ResolvedPath             `json:"path"`
	ModuleType  ModuleDefFormat          `json:"module_type"`
	IsExternal  bool                     `json:"is_external"`
	PackageJSON *packagejson.PackageJSON `json:"-"`
	SideEffects *HookSideEffects         `json:"side_effects,omitempty"`
}

// ExternalRequest builds the placeholder used for externalized specifiers.
func ExternalRequest(specifier string) ResolvedRequestInfo {
	return ResolvedRequestInfo{
		Path:       ResolvedPath{Path: specifier},
		ModuleType: FormatUnknown,
		IsExternal: true,
	}
}
