package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dusk-indust/vaultgraph/internal/scaffold"
	"github.com/spf13/cobra"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// vaultgraphMCPEntry is the MCP server configuration for the vaultgraph binary.
var vaultgraphMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "vaultgraph",
  "args": ["serve"]
}`)

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a starter config, an example vault, and an .mcp.json entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runInit(cmd.OutOrStdout(), root, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

// runInit installs the starter files and MCP configuration into the target
// project directory.
func runInit(w io.Writer, projectRoot string, force bool) error {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	err = fs.WalkDir(scaffold.FS, scaffold.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(scaffold.Root, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(abs, rel)

		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}

		if !force {
			if _, err := os.Stat(dest); err == nil {
				fmt.Fprintf(w, "  skipped %s (exists, use --force to overwrite)\n", dotRelative(abs, dest))
				return nil
			}
		}

		data, err := scaffold.FS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading embedded %s: %w", path, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}

		fmt.Fprintf(w, "  created %s\n", dotRelative(abs, dest))
		return nil
	})
	if err != nil {
		return fmt.Errorf("copying starter files: %w", err)
	}

	if err := mergeMCPConfig(w, filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nSetup complete. Run 'vaultgraph rank' to query the example vault.")
	return nil
}

// mergeMCPConfig creates or merges the vaultgraph entry into .mcp.json,
// leaving other servers untouched.
func mergeMCPConfig(w io.Writer, mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["vaultgraph"]; exists && !force {
		fmt.Fprintln(w, "  skipped .mcp.json vaultgraph entry (exists, use --force to overwrite)")
		return nil
	}

	cfg.MCPServers["vaultgraph"] = vaultgraphMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}
	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(w, "  %s .mcp.json with vaultgraph MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
