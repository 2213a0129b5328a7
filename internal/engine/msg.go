package engine

import (
	"fmt"

	"bundlecore/internal/diag"
	"bundlecore/internal/module"
)

// Msg is the terminal report of one load task. Every task sends exactly one.
type Msg interface {
	TaskID() module.ModuleID
	isMsg()
}

// Done carries a fully analysed module. ResolvedDeps is index aligned with
// RawImportRecords.
type Done struct {
	ModuleID         module.ModuleID
	Module           *module.NormalModule
	Symbols          *module.AstSymbols
	ResolvedDeps     []module.ResolvedRequestInfo
	RawImportRecords []module.RawImportRecord
	Warnings         []*diag.BuildError
}

// BuildErrors reports a batch of user-facing diagnostics for one module.
// Module tasks never send it; their failures, plugin diagnostics included,
// arrive as a single Fatal.
type BuildErrors struct {
	ModuleID module.ModuleID
	Path     module.ResolvedPath
	Errors   []*diag.BuildError
}

// Fatal reports a failed module. Err names the failing stage.
type Fatal struct {
	ModuleID module.ModuleID
	Path     module.ResolvedPath
	Err      error
}

func (m *Done) TaskID() module.ModuleID        { return m.ModuleID }
func (m *BuildErrors) TaskID() module.ModuleID { return m.ModuleID }
func (m *Fatal) TaskID() module.ModuleID       { return m.ModuleID }

func (*Done) isMsg()        {}
func (*BuildErrors) isMsg() {}
func (*Fatal) isMsg()       {}

func (m *Fatal) Error() string {
	return fmt.Sprintf("%s: %v", m.Path, m.Err)
}

func (m *Fatal) Unwrap() error {
	return m.Err
}

// Stage names used to wrap task errors.
const (
	StageLoad         = "load"
	StageTransform    = "transform"
	StageParse        = "parse"
	StageResolveDeps  = "resolve dependencies"
	StageModuleParsed = "moduleParsed"
)

// StageError attributes a task failure to a pipeline stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
