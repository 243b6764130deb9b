// Command brushline edits photos from the terminal with plain-language
// instructions. It runs the editor in-process, or against a running
// brushline-web server with --server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fpang/brushline/internal/cli"
	"github.com/fpang/brushline/internal/client"
	"github.com/lithammer/dedent"
	"github.com/spf13/cobra"
)

var version = "dev"

// CLI flags
var (
	configFlag   string
	serverFlag   string
	apiKeyFlag   string
	providerFlag string
	modelFlag    string
	timeoutFlag  time.Duration
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:     "brushline",
	Short:   "Edit photos with plain-language instructions",
	Version: version,
	Long: dedent.Dedent(`
		Brushline turns instructions like "make the sky more blue" into image
		edits. Instructions are interpreted by a language model when an API
		key is available, and by a small keyword parser otherwise.

		Examples:
		  brushline edit photo.jpg -r "increase the contrast"
		  brushline edit *.png -r "make it black and white" --out edited/
		  brushline parse "brighten it up a bit"
		  brushline analyze photo.jpg
		  brushline --server http://localhost:3001 suggest photo.jpg`),
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFlag, "config", "", "Config file (default ~/.config/brushline/config.yaml)")
	pf.StringVar(&serverFlag, "server", "", "Use a running Brushline server at this URL instead of editing in-process")
	pf.StringVar(&apiKeyFlag, "api-key", "", "API key for this run (default: BRUSHLINE_API_KEY or ~/.brushline/credentials.gpg)")
	pf.StringVar(&providerFlag, "provider", "openai", "Oracle provider: openai, gemini or offline")
	pf.StringVarP(&modelFlag, "model", "m", "", "Model name (default depends on provider)")
	pf.DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Timeout for a single oracle call")
	pf.StringVar(&logLevelFlag, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(parseCmd, editCmd, analyzeCmd, suggestCmd, chatCmd, testKeyCmd, infoCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newBackend returns the in-process editor or a server client.
func newBackend(cmd *cobra.Command) (backend, error) {
	cfg, err := cli.LoadConfig(configFlag, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if serverFlag != "" {
		return client.New(client.Options{BaseURL: serverFlag, APIKey: apiKeyFlag, Timeout: 2*cfg.Oracle.Timeout + 30*time.Second}), nil
	}

	key := apiKeyFlag
	if key == "" {
		key = cli.ResolveAPIKey(cfg)
	}
	rt, err := cli.NewRuntime(cfg, key)
	if err != nil {
		return nil, fmt.Errorf("start editor: %w", err)
	}
	return &local{rt: rt, apiKey: key}, nil
}
