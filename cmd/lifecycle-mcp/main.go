// lifecycle-mcp: Requirements Lifecycle Management MCP Server
//
// An MCP server that tracks requirements, implementation tasks, and
// architecture decisions through their lifecycle, backed by a SQLite
// database.
//
// Usage:
//
//	lifecycle-mcp serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/heffrey78/lifecycle-mcp-sub000/internal/config"
	lcserver "github.com/heffrey78/lifecycle-mcp-sub000/internal/server"
)

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("lifecycle-mcp v%s\n", lcserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	s, cleanup, err := lcserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `lifecycle-mcp v%s — Requirements Lifecycle Management MCP Server

Usage:
  lifecycle-mcp serve    Start the MCP server (stdio transport)

Environment:
  LIFECYCLE_DB                 Database path (default: lifecycle.db)
  LIFECYCLE_CONFIG_FILE        JSON config overlay (default: lifecycle-config.json)
  GITHUB_INTEGRATION_ENABLED   Mirror tasks to GitHub issues (requires gh CLI)
  GITHUB_TOKEN, GITHUB_REPO    GitHub integration settings
  OPENAI_API_KEY, OPENAI_MODEL Requirement decomposition analysis

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "lifecycle-mcp": {
        "command": "lifecycle-mcp",
        "args": ["serve"]
      }
    }
  }
`, lcserver.Version)
}
