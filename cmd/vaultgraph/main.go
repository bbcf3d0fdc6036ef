// Command vaultgraph serves knowledge graph analytics over a vault of
// Markdown entity files, either as an MCP server or from the command line.
package main

import (
	"fmt"
	"os"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
