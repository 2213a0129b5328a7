package cli

import (
	"fmt"
	"os"

	"bundlecore/internal/flags"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// configPath is the explicit --config file; empty means search the project root.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "bundlecore",
	Short: "Load, analyse and report the module graph of a JavaScript project",
	Long: `bundlecore walks a JavaScript module graph from its entries and reports every
module it loaded: resolved imports, exports kind, side-effect classification and
diagnostics.

bundlecore is analysis-only: it never writes bundles and never touches sources.

Examples:
	# Show available commands and global flags
	bundlecore --help

	# Load a graph from an entry
	bundlecore build src/index.js

	# List plugins
	bundlecore plugins list

	# Print build info
	bundlecore version

Output:
	By default, commands write human-readable output to stdout.
	Some commands support structured output via emitter flags (see each command's --help).`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (debug component logs and full error details)")
	rootCmd.PersistentFlags().StringVar(&cfg.Runtime.LogLevel, flags.FlagLogLevel, cfg.Runtime.LogLevel, "Component log level: debug|info|warn|error (default: warn)")
	rootCmd.PersistentFlags().StringVar(&configPath, flags.FlagConfig, "", "Config file (default: bundlecore.{yaml,yml,json,toml} in --cwd)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
