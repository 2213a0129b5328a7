package engine

import (
	"strings"
	"testing"

	"bundlecore/internal/config"

	"github.com/google/go-cmp/cmp"
)

func TestDiscoverEntries(t *testing.T) {
	fsys := newTestFs(t, map[string]string{
		"/proj/src/pages/home.js":      "",
		"/proj/src/pages/about.js":     "",
		"/proj/src/pages/about.css":    "",
		"/proj/src/pages/home.test.js": "",
		"/proj/src/pages/admin/ops.js": "",
		"/proj/main.js":                "",
	})

	tests := []struct {
		name     string
		entries  []string
		exclude  []string
		expected []string
		wantErr  string
	}{
		{
			name:     "plain entries pass through",
			entries:  []string{"main.js", "react", "\x00virtual:entry"},
			expected: []string{"main.js", "react", "\x00virtual:entry"},
		},
		{
			name:     "single star glob",
			entries:  []string{"src/pages/*.js"},
			expected: []string{"src/pages/about.js", "src/pages/home.js", "src/pages/home.test.js"},
		},
		{
			name:     "recursive glob with exclude",
			entries:  []string{"./src/**/*.js"},
			exclude:  []string{"**/*.test.js"},
			expected: []string{"src/pages/about.js", "src/pages/admin/ops.js", "src/pages/home.js"},
		},
		{
			name:     "duplicates collapse",
			entries:  []string{"./main.js", "main.js", "src/pages/home.js", "src/pages/h*.js"},
			expected: []string{"./main.js", "src/pages/home.js", "src/pages/home.test.js"},
		},
		{
			name:    "glob without matches",
			entries: []string{"lib/*.js"},
			wantErr: "matched no files",
		},
		{
			name:    "glob escaping cwd",
			entries: []string{"../*.js"},
			wantErr: "must be relative to the working directory",
		},
		{
			name:    "everything excluded",
			entries: []string{"main.js"},
			exclude: []string{"*.js"},
			wantErr: "no entries left",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Input.Entries = tt.entries
			cfg.Input.EntryExclude = tt.exclude

			got, err := DiscoverEntries(fsys, "/proj", cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DiscoverEntries: %v", err)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
