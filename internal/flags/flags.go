package flags

// Package flags defines canonical CLI flag names shared across the CLI and config.
// Keeping these as constants helps avoid drift between Cobra flag wiring and the
// config file layer, which skips keys whose flag was set on the command line.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringSliceVar(&cfg.Input.External, flags.FlagExternal, nil, "...")
//	arg := "--" + flags.FlagExternal
const (
	// Global
	FlagConfig   = "config"
	FlagVerbose  = "verbose"
	FlagLogLevel = "log-level"

	// Input
	FlagCwd          = "cwd"
	FlagExcludeEntry = "exclude-entry"
	FlagModuleType   = "module-type"
	FlagExternal     = "external"

	// Resolve
	FlagResolveExtensions = "resolve-extensions"
	FlagMainFields        = "main-fields"
	FlagAlias             = "alias"

	// Plugins
	FlagPlugins = "plugins"
	FlagSet     = "set"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagReport              = "report"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"

	// Runtime
	FlagConcurrency        = "concurrency"
	FlagResolveConcurrency = "resolve-concurrency"
	FlagFileConcurrency    = "file-concurrency"
	FlagTimeout            = "timeout"
	FlagFailFast           = "fail-fast"
)
