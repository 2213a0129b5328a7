package loaderutil

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// EncodeAsShortestDataURL returns whichever of the base64 or percent-escaped
// data URL encodings of buf is shorter.
func EncodeAsShortestDataURL(mime string, buf []byte) string {
	b64 := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf)
	if percent, ok := encodeAsPercentEscapedDataURL(mime, buf); ok && len(percent) < len(b64) {
		return percent
	}
	return b64
}

// encodeAsPercentEscapedDataURL only escapes what is required: tabs, newlines
// and '#' anywhere, trailing whitespace/control characters, and '%' when it
// would otherwise start a valid escape sequence. Non UTF-8 input is rejected.
func encodeAsPercentEscapedDataURL(mime string, buf []byte) (string, bool) {
	if !utf8.Valid(buf) {
		return "", false
	}
	chars := []rune(string(buf))

	trailingStart := len(chars)
	for trailingStart > 0 {
		c := chars[trailingStart-1]
		if c > 0x20 || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		trailingStart--
	}

	var b strings.Builder
	b.Grow(len(buf) * 3)
	b.WriteString("data:")
	b.WriteString(mime)
	b.WriteString(",")
	for i, c := range chars {
		escape := c == '\t' || c == '\n' || c == '\r' || c == '#' || i >= trailingStart ||
			(c == '%' && i+2 < len(chars) && isHexDigit(chars[i+1]) && isHexDigit(chars[i+2]))
		if escape {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteRune(c)
	}
	return b.String(), true
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
