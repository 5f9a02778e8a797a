// Package main provides the entrypoint for the feastctl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/feastradar/feastradar/internal/cli"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	cmd := cli.NewRootCommand(Version)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
