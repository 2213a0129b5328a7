package cli

import (
	"bytes"
	"strings"
	"testing"

	"bundlecore/internal/plugin"
)

// mockPlugin implements plugin.Plugin for testing purposes
type mockPlugin struct {
	name        string
	description string
}

func (m *mockPlugin) Name() string        { return m.name }
func (m *mockPlugin) Description() string { return m.description }

// mockConfigurablePlugin implements plugin.ConfigurablePlugin for testing purposes
type mockConfigurablePlugin struct {
	mockPlugin
	options []plugin.Option
}

func (m *mockConfigurablePlugin) Options() []plugin.Option {
	return m.options
}

func (m *mockConfigurablePlugin) Configure(opts map[string]string) error {
	return nil
}

func registerMockPlugin(name, description string) {
	defer func() {
		if r := recover(); r != nil {
			// Plugin already registered, ignore
		}
	}()
	plugin.Register(name, func() plugin.Plugin {
		return &mockPlugin{name: name, description: description}
	})
}

func TestPrintPlugin(t *testing.T) {
	tests := []struct {
		name           string
		plugin         plugin.Plugin
		expectedOutput []string
		notExpected    []string
	}{
		{
			name: "Regular Plugin",
			plugin: &mockPlugin{
				name:        "simple",
				description: "A simple plugin description",
			},
			expectedOutput: []string{
				"PLUGIN: simple",
				"A simple plugin description",
			},
			notExpected: []string{
				"Options:",
			},
		},
		{
			name: "Configurable Plugin",
			plugin: &mockConfigurablePlugin{
				mockPlugin: mockPlugin{
					name:        "configurable",
					description: "A configurable plugin description",
				},
				options: []plugin.Option{
					{
						Name:        "opt1",
						Description: "Option 1 description",
						Default:     "default1",
					},
					{
						Name:        "opt2",
						Description: "Option 2 description",
						Default:     "",
					},
				},
			},
			expectedOutput: []string{
				"PLUGIN: configurable",
				"A configurable plugin description",
				"Options:",
				"configurable.opt1",
				"Description: Option 1 description",
				"Default:     default1",
				"configurable.opt2",
				"Description: Option 2 description",
				"Default:     \"\"",
			},
		},
		{
			name:   "Registered plugins carry filter options",
			plugin: &plugin.FilterWrapper{Plugin: &mockPlugin{name: "wrapped", description: "Wrapped"}},
			expectedOutput: []string{
				"PLUGIN: wrapped",
				"Options:",
				"wrapped.filter.include",
				"wrapped.filter.exclude",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			printPlugin(buf, tt.plugin)
			output := buf.String()

			for _, exp := range tt.expectedOutput {
				if !strings.Contains(output, exp) {
					t.Errorf("Expected output to contain %q, but it didn't.\nOutput:\n%s", exp, output)
				}
			}

			for _, notExp := range tt.notExpected {
				if strings.Contains(output, notExp) {
					t.Errorf("Expected output NOT to contain %q, but it did.\nOutput:\n%s", notExp, output)
				}
			}
		})
	}
}

func TestPluginsListCmd(t *testing.T) {
	registerMockPlugin("test-plugin-list", "This is a test plugin for the list command.")

	tests := []struct {
		name           string
		quiet          bool
		expectedOutput []string
		notExpected    []string
	}{
		{
			name:  "Default Output",
			quiet: false,
			expectedOutput: []string{
				"----------------------------------------",
				"PLUGIN: test-plugin-list",
				"This is a test plugin for the list command.",
			},
		},
		{
			name:  "Quiet Output",
			quiet: true,
			expectedOutput: []string{
				"test-plugin-list",
			},
			notExpected: []string{
				"This is a test plugin for the list command.",
				"----------------------------------------",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pluginsListQuiet = tt.quiet
			defer func() { pluginsListQuiet = false }()

			buf := new(bytes.Buffer)
			pluginsListCmd.SetOut(buf)

			err := pluginsListCmd.RunE(pluginsListCmd, []string{})
			if err != nil {
				t.Fatalf("RunE() error = %v", err)
			}

			output := buf.String()
			for _, exp := range tt.expectedOutput {
				if !strings.Contains(output, exp) {
					t.Errorf("Expected output to contain %q, but it didn't.\nOutput:\n%s", exp, output)
				}
			}
			for _, notExp := range tt.notExpected {
				if strings.Contains(output, notExp) {
					t.Errorf("Expected output NOT to contain %q, but it did.\nOutput:\n%s", notExp, output)
				}
			}
		})
	}
}

func TestPluginsShowCmd(t *testing.T) {
	registerMockPlugin("test-plugin-show", "This is a test plugin for the show command.")

	tests := []struct {
		name           string
		args           []string
		expectedOutput []string
		expectError    bool
	}{
		{
			name: "Show Existing Plugin",
			args: []string{"test-plugin-show"},
			expectedOutput: []string{
				"----------------------------------------",
				"PLUGIN: test-plugin-show",
				"This is a test plugin for the show command.",
				"test-plugin-show.filter.include",
			},
			expectError: false,
		},
		{
			name:        "Show Non-Existent Plugin",
			args:        []string{"non-existent-plugin"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			pluginsShowCmd.SetOut(buf)

			err := pluginsShowCmd.RunE(pluginsShowCmd, tt.args)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				output := buf.String()
				for _, exp := range tt.expectedOutput {
					if !strings.Contains(output, exp) {
						t.Errorf("Expected output to contain %q, but it didn't.\nOutput:\n%s", exp, output)
					}
				}
			}
		})
	}
}
