// Command brushline-web serves the Brushline HTTP API for the browser
// frontend.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fpang/brushline/internal/cli"
	"github.com/fpang/brushline/internal/logging"
	"github.com/fpang/brushline/internal/metrics"
	"github.com/fpang/brushline/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	commitHash = "unknown"
)

// CLI flags
var (
	configFlag      string
	portFlag        int
	frontendURLFlag string
	providerFlag    string
	modelFlag       string
	baseURLFlag     string
	timeoutFlag     time.Duration
	logLevelFlag    string
	logFormatFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "brushline-web",
	Short: "HTTP API for the Brushline photo editor",
	Long: `Brushline Web serves the editing API used by the browser frontend. Every
setting can also come from ~/.config/brushline/config.yaml or a BRUSHLINE_*
environment variable, e.g. BRUSHLINE_SERVER_PORT.

Examples:
  brushline-web
  brushline-web --port 8080 --frontend-url https://brushline.example.com
  brushline-web --provider offline`,
	Version: version,
	Run:     runMain,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configFlag, "config", "", "Config file")
	f.IntVar(&portFlag, "port", 3001, "Port to listen on")
	f.StringVar(&frontendURLFlag, "frontend-url", "http://localhost:3000", "Origin allowed by CORS")
	f.StringVar(&providerFlag, "provider", "openai", "Oracle provider: openai, gemini or offline")
	f.StringVarP(&modelFlag, "model", "m", "", "Model name (default depends on provider)")
	f.StringVar(&baseURLFlag, "base-url", "", "Override the provider API base URL")
	f.DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Timeout for a single oracle call")
	f.StringVar(&logLevelFlag, "log-level", "info", "Log level: debug, info, warn, error")
	f.StringVar(&logFormatFlag, "log-format", logging.FormatConsole, "Log format: console or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	start := time.Now()

	rt, err := cli.Bootstrap(configFlag, cmd.Flags())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	cfg := rt.Config

	srv := server.New(rt.Editor, server.Options{
		FrontendURL: cfg.Server.FrontendURL,
		BodyLimit:   cfg.Server.BodyLimit(),
		Version:     version,
	}).HTTPServer(fmt.Sprintf(":%d", cfg.Server.Port))

	logging.NewStartupLogger("brushline-web").
		Version(version).
		CommitHash(commitHash).
		Feature("defaultApiKey", rt.Editor.HasDefaultKey()).
		Feature("emf", metrics.Enabled()).
		Config("provider", cfg.Oracle.Provider).
		Config("model", cfg.Oracle.Model).
		Config("port", strconv.Itoa(cfg.Server.Port)).
		Config("frontendUrl", cfg.Server.FrontendURL).
		Config("bodyLimitMb", strconv.FormatInt(cfg.Server.BodyLimitMB, 10)).
		InitDuration(time.Since(start)).
		Log()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown did not complete")
		}
	}()

	log.Info().Int("port", cfg.Server.Port).Msg("Starting web server")
	fmt.Printf("\n  Brushline API: http://localhost:%d/api\n\n", cfg.Server.Port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
