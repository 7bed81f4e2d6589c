// Package main is the entry point for the festctl CLI
package main

import (
	"os"

	"festival-hub/internal/festctl/cli"
)

// Set at build time via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	cli.SetBuildInfo(commit, buildTime)
	if err := cli.Execute(version); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
