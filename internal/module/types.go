package module

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ModuleType is how a resource's content is interpreted by the loader.
type ModuleType string

const (
	ModuleTypeJs      ModuleType = "js"
	ModuleTypeJsx     ModuleType = "jsx"
	ModuleTypeTs      ModuleType = "ts"
	ModuleTypeTsx     ModuleType = "tsx"
	ModuleTypeJSON    ModuleType = "json"
	ModuleTypeText    ModuleType = "text"
	ModuleTypeBase64  ModuleType = "base64"
	ModuleTypeDataURL ModuleType = "dataurl"
	ModuleTypeBinary  ModuleType = "binary"
	ModuleTypeEmpty   ModuleType = "empty"
)

var knownModuleTypes = map[ModuleType]struct{}{
	ModuleTypeJs: {}, ModuleTypeJsx: {}, ModuleTypeTs: {}, ModuleTypeTsx: {},
	ModuleTypeJSON: {}, ModuleTypeText: {}, ModuleTypeBase64: {}, ModuleTypeDataURL: {},
	ModuleTypeBinary: {}, ModuleTypeEmpty: {},
}

// ParseModuleType validates a user supplied module type name.
func ParseModuleType(raw string) (ModuleType, error) {
	mt := ModuleType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownModuleTypes[mt]; !ok {
		return "", fmt.Errorf("unknown module type %q", raw)
	}
	return mt, nil
}

// IsScript reports whether content is parsed as-is rather than converted.
func (t ModuleType) IsScript() bool {
	switch t {
	case ModuleTypeJs, ModuleTypeJsx, ModuleTypeTs, ModuleTypeTsx:
		return true
	default:
		return false
	}
}

// DefaultModuleTypes is the built-in extension table. Keys have no leading dot.
func DefaultModuleTypes() map[string]ModuleType {
	return map[string]ModuleType{
		"js":   ModuleTypeJs,
		"mjs":  ModuleTypeJs,
		"cjs":  ModuleTypeJs,
		"jsx":  ModuleTypeJsx,
		"ts":   ModuleTypeTs,
		"mts":  ModuleTypeTs,
		"cts":  ModuleTypeTs,
		"tsx":  ModuleTypeTsx,
		"json": ModuleTypeJSON,
		"txt":  ModuleTypeText,
	}
}

// ClassifyModuleType maps a path's extension through table. Unrecognized or
// missing extensions fall back to js.
func ClassifyModuleType(p string, table map[string]ModuleType) ModuleType {
	ext := strings.TrimPrefix(filepath.Ext(p), ".")
	if ext == "" {
		ext = "js"
	}
	if mt, ok := table[ext]; ok {
		return mt
	}
	return ModuleTypeJs
}

// ModuleDefFormat is the module system a resolved file is written in.
type ModuleDefFormat string

const (
	FormatUnknown        ModuleDefFormat = "unknown"
	FormatEsmMjs         ModuleDefFormat = "esm-mjs"
	FormatEsmPackageJSON ModuleDefFormat = "esm-package-json"
	FormatCjs            ModuleDefFormat = "cjs"
	FormatCjsPackageJSON ModuleDefFormat = "cjs-package-json"
	FormatJs             ModuleDefFormat = "js"
)

func (f ModuleDefFormat) IsEsm() bool {
	return f == FormatEsmMjs || f == FormatEsmPackageJSON
}

func (f ModuleDefFormat) IsCommonJS() bool {
	return f == FormatCjs || f == FormatCjsPackageJSON
}

// FormatFromPath detects the format from the extension alone.
func FormatFromPath(p string) ModuleDefFormat {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".mjs", ".mts":
		return FormatEsmMjs
	case ".cjs", ".cts":
		return FormatCjs
	default:
		return FormatJs
	}
}

// ImportKind classifies an import occurrence.
type ImportKind string

const (
	ImportKindImport        ImportKind = "import"
	ImportKindDynamicImport ImportKind = "dynamic-import"
	ImportKindRequire       ImportKind = "require"
)

// IsStatic reports whether the dependency is known at load time; dynamic
// imports are the only non-static kind.
func (k ImportKind) IsStatic() bool {
	return k == ImportKindImport || k == ImportKindRequire
}

// ExportsKind records which module system a scanned module exports through.
type ExportsKind string

const (
	ExportsKindNone     ExportsKind = "none"
	ExportsKindEsm      ExportsKind = "esm"
	ExportsKindCommonJS ExportsKind = "commonjs"
)
