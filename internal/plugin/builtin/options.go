package builtin

import (
	"fmt"
	"strings"
)

// parsePairs splits "a=b,c=d" into ordered pairs. Values may not contain
// commas; keys may not be empty.
func parsePairs(val string) ([][2]string, error) {
	var out [][2]string
	for _, item := range strings.Split(val, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		k, v, ok := strings.Cut(item, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid entry %q (expected key=value)", item)
		}
		out = append(out, [2]string{k, strings.TrimSpace(v)})
	}
	return out, nil
}

func splitList(val string) []string {
	var out []string
	for _, s := range strings.Split(val, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
