// Package main is the entry point for the studymap CLI.
package main

import (
	"os"

	"github.com/voxelabs/studymap/internal/cli"
)

// Build-time version information, injected via -ldflags.
var (
	version   = "0.1.0"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	cli.Version = version
	cli.BuildDate = buildDate
	cli.GitCommit = gitCommit

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
