package engine

import (
	_ "embed"

	"bundlecore/internal/module"
)

//go:embed runtime.js
var runtimeSource string

// RuntimeSource is the code of the module behind module.RuntimeModuleID.
func RuntimeSource() string {
	return runtimeSource
}

func runtimeRequest() module.ResolvedRequestInfo {
	return module.ResolvedRequestInfo{
		Path:       module.ResolvedPath{Path: module.RuntimeModuleID},
		ModuleType: module.FormatEsmMjs,
	}
}
