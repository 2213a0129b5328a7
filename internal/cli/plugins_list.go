package cli

import (
	"fmt"
	"io"

	"bundlecore/internal/plugin"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var pluginsListQuiet bool
var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Manage and list plugins",
	Long: `Manage bundlecore plugins.

This command group helps you discover which plugins exist and which options
they accept. Plugins run during builds when selected with --plugins
(see "bundlecore build --help").

Examples:
  # List all available plugins
  bundlecore plugins list
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available plugins",
	Long: `List all plugins currently registered in this build.

Plugins are sorted by name.

Examples:
  bundlecore plugins list

Output:
  A vertical list of plugins:
    ----------------------------------------
    PLUGIN: {NAME}
    ----------------------------------------
    {DESCRIPTION}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range plugin.List() {
			if pluginsListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), p.Name())
			} else {
				printPlugin(cmd.OutOrStdout(), p)
			}
		}
		return nil
	},
}

var pluginsShowCmd = &cobra.Command{
	Use:   "show [plugin]",
	Short: "Show details of a specific plugin",
	Long: `Show details of a specific plugin by its name, including its options.

Examples:
  bundlecore plugins show replace
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pList, err := plugin.Resolve(args[0])
		if err != nil {
			return err
		}
		if len(pList) == 0 {
			return fmt.Errorf("plugin not found: %s", args[0])
		}
		printPlugin(cmd.OutOrStdout(), pList[0])
		return nil
	},
}

func printPlugin(w io.Writer, p plugin.Plugin) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "PLUGIN: %s\n", p.Name())
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, p.Description())

	if cp, ok := p.(plugin.ConfigurablePlugin); ok {
		opts := cp.Options()
		if len(opts) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Options:")
			for _, opt := range opts {
				def := opt.Default
				if def == "" {
					def = "\"\""
				}
				fmt.Fprintf(w, "  %s.%s\n", p.Name(), opt.Name)
				fmt.Fprintf(w, "    Description: %s\n", opt.Description)
				fmt.Fprintf(w, "    Default:     %s\n", def)
			}
		}
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
	pluginsCmd.AddCommand(pluginsListCmd)
	pluginsListCmd.Flags().BoolVarP(&pluginsListQuiet, "quiet", "q", false, "Only print plugin names")
	pluginsCmd.AddCommand(pluginsShowCmd)
}
