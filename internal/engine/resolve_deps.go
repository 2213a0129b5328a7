package engine

import (
	"context"
	"fmt"
	"strings"

	"bundlecore/internal/diag"
	"bundlecore/internal/module"
	"bundlecore/internal/resolver"

	"golang.org/x/sync/errgroup"
)

// DependencyError is one failed specifier of a module.
type DependencyError struct {
	Specifier string
	Kind      module.ImportKind
	Err       error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%q (%s): %v", e.Specifier, e.Kind, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// ResolveDependenciesError collects every specifier of one importer that
// failed for a reason other than not being found.
type ResolveDependenciesError struct {
	Importer string
	Errors   []*DependencyError
}

func (e *ResolveDependenciesError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to resolve %d import(s) of %s", len(e.Errors), e.Importer)
	for _, de := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(de.Error())
	}
	return b.String()
}

func (e *ResolveDependenciesError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, de := range e.Errors {
		out[i] = de
	}
	return out
}

// Specifiers lists the failing specifiers in record order.
func (e *ResolveDependenciesError) Specifiers() []string {
	out := make([]string, len(e.Errors))
	for i, de := range e.Errors {
		out[i] = de.Specifier
	}
	return out
}

type resolveOutcome struct {
	info module.ResolvedRequestInfo
	err  error
}

// resolveDependencies resolves every record concurrently and waits for all of
// them. The returned slice is index aligned with records. Not-found
// specifiers become externals plus a warning; any other failure fails the
// whole step with one *ResolveDependenciesError.
func resolveDependencies(ctx context.Context, tc *TaskContext, importer, display string, records []module.RawImportRecord) ([]module.ResolvedRequestInfo, []*diag.BuildError, error) {
	outcomes := make([]resolveOutcome, len(records))

	var g errgroup.Group
	if n := tc.Config.Runtime.ResolveConcurrency; n > 0 {
		g.SetLimit(n)
	}
	for i, rec := range records {
		g.Go(func() error {
			info, err := resolveID(ctx, tc, rec.Specifier, importer, rec.Kind, false)
			outcomes[i] = resolveOutcome{info: info, err: err}
			return nil
		})
	}
	_ = g.Wait()

	deps := make([]module.ResolvedRequestInfo, len(records))
	var warnings []*diag.BuildError
	var failed []*DependencyError
	for i, o := range outcomes {
		rec := records[i]
		switch {
		case o.err == nil:
			deps[i] = o.info
		case resolver.IsNotFound(o.err):
			warnings = append(warnings, diag.UnresolvedImportTreatedAsExternal(rec.Specifier, display, o.err).WithSeverityWarning())
			deps[i] = module.ExternalRequest(rec.Specifier)
		default:
			failed = append(failed, &DependencyError{Specifier: rec.Specifier, Kind: rec.Kind, Err: o.err})
		}
	}
	if len(failed) > 0 {
		return nil, nil, &ResolveDependenciesError{Importer: display, Errors: failed}
	}
	return deps, warnings, nil
}
