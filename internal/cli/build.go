package cli

import (
	"context"
	"fmt"
	"os"

	"bundlecore/internal/config"
	"bundlecore/internal/engine"
	"bundlecore/internal/flags"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var cfg = config.New()

var buildCmd = &cobra.Command{
	Use:   "build [entry...]",
	Short: "Load the module graph reachable from the given entries",
	Long: `Load the module graph reachable from the given entries and report every module.

Each module goes through load, transform, parse, scan and dependency resolution.
Plugins (see "bundlecore plugins list") can resolve, load and transform modules.
Entries may be files relative to --cwd, package names, or doublestar globs
such as "src/pages/**/*.js".

Configuration:
	Flags override values from a config file (--config, or bundlecore.yaml in
	--cwd), which override BUNDLECORE_* environment variables.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown build report
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (build.started, module.done, module.failed, diagnostic, build.finished).
	Module results are nested in a "result" object; warnings are additionally
	emitted as "diagnostic" events.

Exit codes:
	0 = clean build, no warnings
	1 = warnings reported
	2 = partial failure (some modules failed)
	3 = fatal error (build did not run to completion)

Examples:
	# Load a graph from one entry
	bundlecore build src/index.js

	# Every page is an entry, tests excluded
	bundlecore build "src/pages/*.js" --exclude-entry "**/*.test.js"

	# Keep react out of the graph and stream machine-readable events
	bundlecore build src/index.js --external react --no-console --emit ndjson

	# Run plugins in order, with options
	bundlecore build src/index.js --plugins alias,replace --set replace.values=__DEV__=false
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg.Input.Entries = args

		dir := cfg.Input.Cwd
		used, err := config.LoadFile(cfg, configPath, dir, cmd.Flags().Changed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		if len(cfg.Input.Entries) == 0 && cmd.Flags().NFlag() == 0 && used == "" {
			_ = cmd.Help()
			return
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		eng := engine.NewEngine(afero.NewOsFs())
		os.Exit(eng.Run(context.Background(), cfg))
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	// MAINTAINER NOTE: If you add/change/remove any build-affecting flags here,
	// keep the config file keys in internal/config/load.go in sync.

	// Input
	buildCmd.Flags().StringVar(&cfg.Input.Cwd, flags.FlagCwd, "", "Project root; entries and module ids are relative to it (default: current directory)")
	buildCmd.Flags().StringSliceVar(&cfg.Input.EntryExclude, flags.FlagExcludeEntry, nil, "Drop entries matching these doublestar globs after glob expansion (repeatable; comma-separated accepted)")
	buildCmd.Flags().StringSliceVar(&cfg.Input.ModuleTypes, flags.FlagModuleType, nil, "Module type override as ext=type, e.g. svg=text (repeatable; comma-separated accepted)")
	buildCmd.Flags().StringSliceVar(&cfg.Input.External, flags.FlagExternal, nil, "Specifiers or doublestar globs left out of the graph (repeatable; comma-separated accepted)")

	// Resolve
	buildCmd.Flags().StringSliceVar(&cfg.Resolve.Extensions, flags.FlagResolveExtensions, nil, "Extensions probed for extensionless specifiers, in order (default: .js,.mjs,.cjs,.jsx,.ts,.mts,.cts,.tsx,.json)")
	buildCmd.Flags().StringSliceVar(&cfg.Resolve.MainFields, flags.FlagMainFields, nil, "package.json fields used for bare specifiers, in order (default: module,main)")
	buildCmd.Flags().StringSliceVar(&cfg.Resolve.Alias, flags.FlagAlias, nil, "Specifier aliases as find=replace (repeatable; comma-separated accepted)")

	// Plugins
	buildCmd.Flags().StringVar(&cfg.Plugins.Selector, flags.FlagPlugins, "", "Comma-separated plugins to run, in hook order (empty = none)")
	buildCmd.Flags().StringSliceVar(&cfg.Plugins.Set, flags.FlagSet, nil, "Per-plugin options as plugin.option=value (repeatable; comma-separated accepted)")

	// Output
	buildCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	buildCmd.Flags().StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter console output by module status (OK, WARN, FAIL). Comma-separated.")
	buildCmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown build report to this path")
	buildCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	buildCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	buildCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	buildCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")

	// Runtime
	buildCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Modules loaded concurrently (default: 8)")
	buildCmd.Flags().IntVar(&cfg.Runtime.ResolveConcurrency, flags.FlagResolveConcurrency, 0, "Concurrent dependency resolutions per module (0 = unbounded)")
	buildCmd.Flags().IntVar(&cfg.Runtime.FileConcurrency, flags.FlagFileConcurrency, cfg.Runtime.FileConcurrency, "Concurrent file reads across the build (default: 64)")
	buildCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout (default: 10m)")
	buildCmd.Flags().BoolVar(&cfg.Runtime.FailFast, flags.FlagFailFast, false, "Stop on the first failed module (default: false)")
}
