package diag

import (
	"errors"
	"fmt"
	"strings"
)

type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Kind identifies the class of a diagnostic. Values are stable and appear in
// structured output.
type Kind string

const (
	KindUnresolvedImport     Kind = "UNRESOLVED_IMPORT"
	KindEval                 Kind = "EVAL"
	KindDuplicateExport      Kind = "DUPLICATE_EXPORT"
	KindMissingExportBinding Kind = "MISSING_EXPORT_BINDING"
	KindMixedExports         Kind = "MIXED_EXPORTS"
	KindPluginError          Kind = "PLUGIN_ERROR"
)

// BuildError is a user-facing diagnostic. Warnings travel with a successfully
// loaded module; errors with SeverityError terminate the task that raised them.
type BuildError struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`

	Specifier string `json:"specifier,omitempty"`
	Importer  string `json:"importer,omitempty"`
	Plugin    string `json:"plugin,omitempty"`

	Cause error `json:"-"`
}

func (e *BuildError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(e.Kind))
	b.WriteString("] ")
	if e.Plugin != "" {
		b.WriteString("(plugin ")
		b.WriteString(e.Plugin)
		b.WriteString(") ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *BuildError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *BuildError) IsWarning() bool {
	return e != nil && e.Severity == SeverityWarning
}

// WithSeverityWarning downgrades the diagnostic in place and returns it.
func (e *BuildError) WithSeverityWarning() *BuildError {
	e.Severity = SeverityWarning
	return e
}

func UnresolvedImportTreatedAsExternal(specifier, importer string, cause error) *BuildError {
	return &BuildError{
		Kind:      KindUnresolvedImport,
		Severity:  SeverityError,
		Message:   fmt.Sprintf("%q is imported by %q, but could not be resolved; treating it as an external dependency", specifier, importer),
		Specifier: specifier,
		Importer:  importer,
		Cause:     cause,
	}
}

func Eval(importer string) *BuildError {
	return &BuildError{
		Kind:     KindEval,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("use of eval in %q is strongly discouraged as it poses security risks and may cause issues with minification", importer),
		Importer: importer,
	}
}

func DuplicateExport(name, importer string) *BuildError {
	return &BuildError{
		Kind:     KindDuplicateExport,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("duplicate export %q in %q", name, importer),
		Importer: importer,
	}
}

func MissingExportBinding(name, importer string) *BuildError {
	return &BuildError{
		Kind:     KindMissingExportBinding,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("exported binding %q is not declared in %q", name, importer),
		Importer: importer,
	}
}

func MixedExports(importer string) *BuildError {
	return &BuildError{
		Kind:     KindMixedExports,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("%q mixes ES module exports with CommonJS module.exports; treating it as an ES module", importer),
		Importer: importer,
	}
}

// PluginError builds the diagnostic a plugin hook returns to fail a module
// with a reportable build error instead of an unexpected failure.
func PluginError(plugin string, format string, args ...any) *BuildError {
	return &BuildError{
		Kind:     KindPluginError,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Plugin:   plugin,
	}
}

// AsBuildError reports whether err carries a *BuildError anywhere in its chain.
func AsBuildError(err error) (*BuildError, bool) {
	var be *BuildError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
