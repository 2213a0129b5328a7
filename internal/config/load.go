package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the config file searched for in the working directory
	// (without extension; yaml, json and toml are accepted).
	ConfigFileName = "bundlecore"
	// EnvPrefix prefixes environment overrides, e.g. BUNDLECORE_RUNTIME_CONCURRENCY.
	EnvPrefix = "BUNDLECORE"
)

// IsSetFunc reports whether a CLI flag was given explicitly. Explicit flags
// win over file and environment values.
type IsSetFunc func(flag string) bool

type fileKey struct {
	key   string
	flag  string
	apply func(v *viper.Viper, key string, c *Config)
}

func stringKey(key, flag string, dst func(c *Config) *string) fileKey {
	return fileKey{key: key, flag: flag, apply: func(v *viper.Viper, key string, c *Config) {
		*dst(c) = v.GetString(key)
	}}
}

func listKey(key, flag string, dst func(c *Config) *[]string) fileKey {
	return fileKey{key: key, flag: flag, apply: func(v *viper.Viper, key string, c *Config) {
		*dst(c) = v.GetStringSlice(key)
	}}
}

func intKey(key, flag string, dst func(c *Config) *int) fileKey {
	return fileKey{key: key, flag: flag, apply: func(v *viper.Viper, key string, c *Config) {
		*dst(c) = v.GetInt(key)
	}}
}

func boolKey(key, flag string, dst func(c *Config) *bool) fileKey {
	return fileKey{key: key, flag: flag, apply: func(v *viper.Viper, key string, c *Config) {
		*dst(c) = v.GetBool(key)
	}}
}

// fileKeys maps config file keys to the flags that override them. Flag names
// are duplicated here rather than imported to keep config free of CLI deps.
var fileKeys = []fileKey{
	listKey("input.entries", "", func(c *Config) *[]string { return &c.Input.Entries }),
	listKey("input.exclude_entries", "exclude-entry", func(c *Config) *[]string { return &c.Input.EntryExclude }),
	stringKey("input.cwd", "cwd", func(c *Config) *string { return &c.Input.Cwd }),
	listKey("input.module_types", "module-type", func(c *Config) *[]string { return &c.Input.ModuleTypes }),
	listKey("input.external", "external", func(c *Config) *[]string { return &c.Input.External }),

	listKey("resolve.extensions", "resolve-extensions", func(c *Config) *[]string { return &c.Resolve.Extensions }),
	listKey("resolve.main_fields", "main-fields", func(c *Config) *[]string { return &c.Resolve.MainFields }),
	listKey("resolve.alias", "alias", func(c *Config) *[]string { return &c.Resolve.Alias }),

	stringKey("plugins.selector", "plugins", func(c *Config) *string { return &c.Plugins.Selector }),
	listKey("plugins.set", "set", func(c *Config) *[]string { return &c.Plugins.Set }),

	stringKey("output.console_format", "console-format", func(c *Config) *string { return &c.Output.ConsoleFormat }),
	listKey("output.console_filter_status", "console-filter-status", func(c *Config) *[]string { return &c.Output.ConsoleFilterStatus }),
	stringKey("output.report", "report", func(c *Config) *string { return &c.Output.Report }),
	stringKey("output.out", "out", func(c *Config) *string { return &c.Output.Out }),
	stringKey("output.out_format", "out-format", func(c *Config) *string { return &c.Output.OutFormat }),
	listKey("output.emit", "emit", func(c *Config) *[]string { return &c.Output.Emit }),
	boolKey("output.no_console", "no-console", func(c *Config) *bool { return &c.Output.NoConsole }),

	intKey("runtime.concurrency", "concurrency", func(c *Config) *int { return &c.Runtime.Concurrency }),
	intKey("runtime.resolve_concurrency", "resolve-concurrency", func(c *Config) *int { return &c.Runtime.ResolveConcurrency }),
	intKey("runtime.file_concurrency", "file-concurrency", func(c *Config) *int { return &c.Runtime.FileConcurrency }),
	{key: "runtime.timeout", flag: "timeout", apply: func(v *viper.Viper, key string, c *Config) {
		c.Runtime.Timeout = v.GetDuration(key)
	}},
	boolKey("runtime.fail_fast", "fail-fast", func(c *Config) *bool { return &c.Runtime.FailFast }),
	stringKey("runtime.log_level", "log-level", func(c *Config) *string { return &c.Runtime.LogLevel }),
	boolKey("runtime.verbose", "verbose", func(c *Config) *bool { return &c.Runtime.Verbose }),
}

// LoadFile layers a config file and BUNDLECORE_* environment variables onto
// cfg. Values for flags reported by isSet are left alone. With an empty path
// the working directory (or dir, when non-empty) is searched for
// bundlecore.{yaml,yml,json,toml}; a missing file is not an error.
//
// The returned string is the file that was read, if any.
func LoadFile(cfg *Config, path, dir string, isSet IsSetFunc) (string, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigFileName)
		if dir == "" {
			dir = "."
		}
		v.AddConfigPath(dir)
	}

	used := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return "", fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	for _, k := range fileKeys {
		if k.flag != "" && isSet != nil && isSet(k.flag) {
			continue
		}
		if k.flag == "" && k.key == "input.entries" && len(cfg.Input.Entries) > 0 {
			continue
		}
		// AutomaticEnv only answers explicit lookups, so IsSet covers env too.
		if !v.IsSet(k.key) {
			continue
		}
		k.apply(v, k.key, cfg)
	}
	return used, nil
}
