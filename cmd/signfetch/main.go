package main

import "github.com/vitalvas/signfetch/internal/cli"

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)
	cli.Execute()
}
