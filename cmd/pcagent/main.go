package main

import (
	"fmt"
	"os"

	"github.com/mrdja026/pcagent/internal/cli"
)

// Build-time variables set via ldflags, the same mechanism cmux's own
// cmd/cmux/main.go uses.
var (
	Version = "dev"
)

func main() {
	cli.SetVersionInfo(Version)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
