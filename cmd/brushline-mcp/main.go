// Command brushline-mcp exposes the Brushline editor to MCP clients over
// stdio. Logs go to stderr; stdout carries the protocol.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fpang/brushline/internal/cli"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

// CLI flags
var (
	configFlag   string
	providerFlag string
	modelFlag    string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "brushline-mcp",
	Short: "MCP server for the Brushline photo editor",
	Long: `Brushline MCP serves the tools parse_command, edit_image, analyze_image
and suggest_edits over stdio. Images are read from and written to local paths.

Example client configuration:
  {"command": "brushline-mcp", "args": ["--provider", "openai"]}`,
	Version: version,
	RunE:    runMain,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configFlag, "config", "", "Config file")
	f.StringVar(&providerFlag, "provider", "openai", "Oracle provider: openai, gemini or offline")
	f.StringVarP(&modelFlag, "model", "m", "", "Model name (default depends on provider)")
	f.StringVar(&logLevelFlag, "log-level", "warn", "Log level: debug, info, warn, error")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	rt, err := cli.Bootstrap(configFlag, cmd.Flags())
	if err != nil {
		return err
	}

	server := newServer(&tools{editor: rt.Editor})
	log.Info().
		Str("provider", rt.Config.Oracle.Provider).
		Bool("defaultApiKey", rt.Editor.HasDefaultKey()).
		Msg("MCP server listening on stdio")
	return server.Run(cmd.Context(), &mcp.StdioTransport{})
}

func newServer(t *tools) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "brushline", Version: version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_command",
		Description: "Interpret a plain-language photo edit instruction as a structured edit command without applying it.",
	}, t.parseCommand)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "edit_image",
		Description: "Apply a plain-language edit instruction to a local image and write the result next to it.",
	}, t.editImage)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_image",
		Description: "Describe a local image: faces, sky, background, dominant colours, contrast, brightness, objects and quality.",
	}, t.analyzeImage)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "suggest_edits",
		Description: "Suggest up to five edits for a local image.",
	}, t.suggestEdits)
	return server
}
