package main

import (
	"bundlecore/internal/cli"
	_ "bundlecore/internal/plugin/builtin"
)

// These variables are populated by the build via -ldflags, e.g.
// -X main.version=v1.2.3.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
