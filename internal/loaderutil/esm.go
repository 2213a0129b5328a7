package loaderutil

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"bundlecore/internal/module"
)

// TextToESM wraps arbitrary text as the default export of an ES module.
func TextToESM(text string) string {
	return "export default " + jsStringLiteral(text) + ";\n"
}

// JSONToESM exposes a JSON document as the default export. The document is
// validated first; JSON is a syntactic subset of JS expressions so the body
// is emitted verbatim.
func JSONToESM(src string) (string, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return "", errors.New("empty JSON document")
	}
	if !json.Valid([]byte(trimmed)) {
		return "", errors.New("invalid JSON document")
	}
	return "export default " + trimmed + ";\n", nil
}

// Base64ToESM exports the standard base64 encoding of raw.
func Base64ToESM(raw []byte) string {
	return "export default " + jsStringLiteral(base64.StdEncoding.EncodeToString(raw)) + ";\n"
}

// DataURLToESM exports raw as the shortest data URL for mime.
func DataURLToESM(mime string, raw []byte) string {
	return "export default " + jsStringLiteral(EncodeAsShortestDataURL(mime, raw)) + ";\n"
}

// BinaryToESM exports raw as a Uint8Array decoded by the runtime module.
func BinaryToESM(raw []byte) string {
	return "import { __toBinary } from " + jsStringLiteral(module.RuntimeModuleID) + ";\n" +
		"export default __toBinary(" + jsStringLiteral(base64.StdEncoding.EncodeToString(raw)) + ");\n"
}

// EmptyESM is the source of a module with no bindings and no side effects.
const EmptyESM = "export {};\n"

func jsStringLiteral(s string) string {
	// encoding/json escapes U+2028 and U+2029, so the output is also a valid
	// JS string literal.
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
