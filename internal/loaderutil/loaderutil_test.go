package loaderutil

import (
	"fmt"
	"strings"
	"testing"
)

func checkPercent(t *testing.T, raw, want string) {
	t.Helper()
	got, ok := encodeAsPercentEscapedDataURL("text/plain", []byte(raw))
	if !ok {
		t.Fatalf("failed to encode %q", raw)
	}
	if got != want {
		t.Fatalf("encode %q = %q, want %q", raw, got, want)
	}
}

func TestEncodeAsPercentEscapedDataURL_ASCII(t *testing.T) {
	for i := 0; i <= 0x7F; i++ {
		c := byte(i)
		alwaysEscape := c == '\t' || c == '\r' || c == '\n' || c == '#'
		trailingEscape := c <= 0x20 || c == '#'
		s := string([]byte{c})

		if trailingEscape {
			checkPercent(t, s, fmt.Sprintf("data:text/plain,%%%02X", i))
			checkPercent(t, "foo"+s, fmt.Sprintf("data:text/plain,foo%%%02X", i))
		} else {
			checkPercent(t, s, "data:text/plain,"+s)
			checkPercent(t, "foo"+s, "data:text/plain,foo"+s)
		}

		if alwaysEscape {
			checkPercent(t, s+"foo", fmt.Sprintf("data:text/plain,%%%02Xfoo", i))
		} else {
			checkPercent(t, s+"foo", "data:text/plain,"+s+"foo")
		}
	}
}

func TestEncodeAsPercentEscapedDataURL_LeadingVsTrailing(t *testing.T) {
	checkPercent(t, " \t ", "data:text/plain, %09%20")
	checkPercent(t, " \n ", "data:text/plain, %0A%20")
	checkPercent(t, " \r ", "data:text/plain, %0D%20")
	checkPercent(t, " # ", "data:text/plain, %23%20")
	checkPercent(t, "\x08#\x08", "data:text/plain,\x08%23%08")
}

func TestEncodeAsPercentEscapedDataURL_OnlyEscapeValidPercentSequences(t *testing.T) {
	checkPercent(t, "%, %3, %33, %333", "data:text/plain,%, %3, %2533, %25333")
}

func TestEncodeAsPercentEscapedDataURL_RejectsInvalidUTF8(t *testing.T) {
	if _, ok := encodeAsPercentEscapedDataURL("text/plain", []byte{0xff, 0xfe}); ok {
		t.Fatalf("expected invalid UTF-8 to be rejected")
	}
}

func TestEncodeAsShortestDataURL(t *testing.T) {
	if got := EncodeAsShortestDataURL("text/plain", []byte("\n\n\n\n\n")); got != "data:text/plain;base64,CgoKCgo=" {
		t.Fatalf("got %q", got)
	}
	if got := EncodeAsShortestDataURL("text/plain", []byte("\n\n\n")); got != "data:text/plain,%0A%0A%0A" {
		t.Fatalf("got %q", got)
	}
}

func TestTextToESM(t *testing.T) {
	got := TextToESM("line \"one\"\nline two")
	want := "export default \"line \\\"one\\\"\\nline two\";\n"
	if got != want {
		t.Fatalf("TextToESM = %q, want %q", got, want)
	}
}

func TestJSONToESM(t *testing.T) {
	got, err := JSONToESM(" {\"a\": [1, 2]} \n")
	if err != nil {
		t.Fatalf("JSONToESM: %v", err)
	}
	if got != "export default {\"a\": [1, 2]};\n" {
		t.Fatalf("JSONToESM = %q", got)
	}

	for _, bad := range []string{"", "{a: 1}", "[1,"} {
		if _, err := JSONToESM(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestBase64ToESM(t *testing.T) {
	got := Base64ToESM([]byte("hi"))
	if got != "export default \"aGk=\";\n" {
		t.Fatalf("Base64ToESM = %q", got)
	}
}

func TestDataURLToESM(t *testing.T) {
	got := DataURLToESM("image/svg+xml", []byte("<svg/>"))
	if !strings.HasPrefix(got, "export default \"data:image/svg+xml,") {
		t.Fatalf("DataURLToESM = %q", got)
	}
}

func TestBinaryToESM(t *testing.T) {
	got := BinaryToESM([]byte{0, 1, 2})
	want := "import { __toBinary } from \"bundlecore:runtime\";\nexport default __toBinary(\"AAEC\");\n"
	if got != want {
		t.Fatalf("BinaryToESM = %q, want %q", got, want)
	}
}
