// Package parser turns loaded module content into a JavaScript AST.
package parser

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"bundlecore/internal/loaderutil"
	"bundlecore/internal/module"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// Program is a parsed module. Source is the text that was actually parsed,
// which differs from the loaded content for non-script module types.
type Program struct {
	AST        *js.AST
	Source     string
	ModuleType module.ModuleType
}

// Error is a syntax or conversion failure. There is no partial program.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Parse converts source according to mt and parses the result as an ES
// module. TypeScript and JSX sources must already have been lowered to
// plain JavaScript by a transform plugin.
func Parse(path, source string, mt module.ModuleType) (*Program, error) {
	src, err := ToScript(path, source, mt)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	ast, err := js.Parse(parse.NewInputString(src), js.Options{})
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return &Program{AST: ast, Source: src, ModuleType: mt}, nil
}

// ToScript rewrites non-script content as an equivalent ES module.
func ToScript(path, source string, mt module.ModuleType) (string, error) {
	switch mt {
	case module.ModuleTypeJSON:
		return loaderutil.JSONToESM(source)
	case module.ModuleTypeText:
		return loaderutil.TextToESM(source), nil
	case module.ModuleTypeBase64:
		return loaderutil.Base64ToESM([]byte(source)), nil
	case module.ModuleTypeDataURL:
		return loaderutil.DataURLToESM(guessMimeType(path), []byte(source)), nil
	case module.ModuleTypeBinary:
		return loaderutil.BinaryToESM([]byte(source)), nil
	case module.ModuleTypeEmpty:
		return loaderutil.EmptyESM, nil
	default:
		return source, nil
	}
}

func guessMimeType(path string) string {
	ext := filepath.Ext(module.ParseResolvedPath(path).Path)
	if ext == "" {
		return "application/octet-stream"
	}
	typ := mime.TypeByExtension(ext)
	if typ == "" {
		return "application/octet-stream"
	}
	return strings.ReplaceAll(typ, " ", "")
}
