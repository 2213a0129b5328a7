package output

import "bundlecore/internal/diag"

// Status is the outcome of loading one module.
type Status string

const (
	StatusOK   Status = "OK"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

// ModuleResult is the per-module record written to every sink.
type ModuleResult struct {
	ID     string `json:"id"`
	Module string `json:"module"`
	Status Status `json:"status"`
	// Message summarises a failure.
	Message        string             `json:"message,omitempty"`
	Entry          bool               `json:"entry,omitempty"`
	ExportsKind    string             `json:"exports_kind,omitempty"`
	SideEffects    string             `json:"side_effects,omitempty"`
	Imports        []string           `json:"imports,omitempty"`
	DynamicImports []string           `json:"dynamic_imports,omitempty"`
	Diagnostics    []*diag.BuildError `json:"diagnostics,omitempty"`
}
