package engine

import (
	"errors"
	"fmt"
	"strings"
)

type failureDisposition int

const (
	failureDispositionFatal failureDisposition = iota
	failureDispositionBuildError
)

type failurePresentation struct {
	disposition failureDisposition
	message     string
	verbose     string
}

// presentFailure renders a failed task for the console. The short form is a
// single line with cwd-relative paths; verbose keeps the full error chain.
func presentFailure(msg Msg, cwd string, verbose bool) failurePresentation {
	switch m := msg.(type) {
	case *BuildErrors:
		parts := make([]string, 0, len(m.Errors))
		for _, be := range m.Errors {
			parts = append(parts, be.Error())
		}
		full := strings.Join(parts, "; ")
		if verbose {
			return failurePresentation{disposition: failureDispositionBuildError, message: full, verbose: full}
		}
		return failurePresentation{disposition: failureDispositionBuildError, message: scrubCwd(full, cwd)}
	case *Fatal:
		return presentTaskError(m.Err, cwd, verbose)
	default:
		return failurePresentation{disposition: failureDispositionFatal, message: "unknown error"}
	}
}

func presentTaskError(err error, cwd string, verbose bool) failurePresentation {
	if err == nil {
		return failurePresentation{disposition: failureDispositionFatal, message: "unknown error"}
	}

	full := err.Error()
	if verbose {
		return failurePresentation{disposition: failureDispositionFatal, message: full, verbose: full}
	}

	// Prefer the structured batch over its multi-line rendering.
	var rde *ResolveDependenciesError
	if errors.As(err, &rde) {
		return failurePresentation{
			disposition: failureDispositionFatal,
			message: fmt.Sprintf("%s: could not resolve %d import(s): %s",
				StageResolveDeps, len(rde.Errors), strings.Join(rde.Specifiers(), ", ")),
		}
	}

	return failurePresentation{disposition: failureDispositionFatal, message: scrubCwd(firstLine(full), cwd)}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// scrubCwd drops the project root from absolute paths in s.
func scrubCwd(s, cwd string) string {
	if cwd == "" || cwd == "/" {
		return s
	}
	return strings.ReplaceAll(s, strings.TrimSuffix(cwd, "/")+"/", "")
}
