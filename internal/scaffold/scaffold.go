// Package scaffold embeds the starter files written by "vaultgraph init":
// a commented vaultgraph.yaml and a vault holding one example entity.
package scaffold

import "embed"

// Root is the directory inside FS that maps onto the project root.
const Root = "files"

// FS contains the starter files. Walk from Root to iterate over all of them.
//
//go:embed all:files
var FS embed.FS
