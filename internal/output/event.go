package output

import "bundlecore/internal/diag"

// Event types.
const (
	EventBuildStarted  = "build.started"
	EventModuleDone    = "module.done"
	EventModuleFailed  = "module.failed"
	EventDiagnostic    = "diagnostic"
	EventBuildFinished = "build.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - build.started
// - module.done / module.failed (with a nested "result")
// - diagnostic (warnings not tied to a written module)
// - build.finished
//
// JSON mode remains an aggregate of ModuleResult values.
type Event struct {
	Type       string           `json:"type"`
	Module     string           `json:"module,omitempty"`
	Result     *ModuleResult    `json:"result,omitempty"`
	Diagnostic *diag.BuildError `json:"diagnostic,omitempty"`
	Entries    int              `json:"entries,omitempty"`
	Modules    int              `json:"modules,omitempty"`
	Warnings   int              `json:"warnings,omitempty"`
	Failures   int              `json:"failures,omitempty"`
	ExitCode   int              `json:"exit_code,omitempty"`
}

func eventFromResult(r ModuleResult) Event {
	typ := EventModuleDone
	if r.Status == StatusFail {
		typ = EventModuleFailed
	}
	return Event{Type: typ, Module: r.Module, Result: &r}
}
