// Package cli holds the start-up and file helpers shared by the Brushline
// binaries.
package cli

import (
	"github.com/fpang/brushline/internal/auth"
	"github.com/fpang/brushline/internal/config"
	"github.com/fpang/brushline/internal/editor"
	"github.com/fpang/brushline/internal/logging"
	"github.com/fpang/brushline/internal/oracle"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// Runtime is everything a binary needs after start-up.
type Runtime struct {
	Config config.Config
	Oracle oracle.Client
	Editor *editor.Service
}

// LoadConfig reads configuration and initialises logging from it.
func LoadConfig(configFile string, flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return config.Config{}, err
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

// ResolveAPIKey returns the configured key, falling back to auth.GetAPIKey.
// A missing key is not an error: oracle calls then fall back.
func ResolveAPIKey(cfg config.Config) string {
	if cfg.Oracle.APIKey != "" {
		return cfg.Oracle.APIKey
	}
	key, err := auth.GetAPIKey()
	if err != nil {
		log.Warn().Msg("No default API key configured. Requests without an apiKey will use fallback responses")
		return ""
	}
	return key
}

// NewRuntime builds the oracle and editor for cfg with apiKey as the default
// credential.
func NewRuntime(cfg config.Config, apiKey string) (*Runtime, error) {
	client, err := oracle.New(oracle.Config{
		Provider:        cfg.Oracle.Provider,
		Model:           cfg.Oracle.Model,
		BaseURL:         cfg.Oracle.BaseURL,
		Timeout:         cfg.Oracle.Timeout,
		BreakerFailures: cfg.Oracle.BreakerFailures,
	})
	if err != nil {
		return nil, err
	}
	return &Runtime{
		Config: cfg,
		Oracle: client,
		Editor: editor.New(client, editor.Options{Model: cfg.Oracle.Model, DefaultAPIKey: apiKey}),
	}, nil
}

// Bootstrap loads configuration, resolves the default credential and builds
// the runtime.
func Bootstrap(configFile string, flags *pflag.FlagSet) (*Runtime, error) {
	cfg, err := LoadConfig(configFile, flags)
	if err != nil {
		return nil, err
	}
	return NewRuntime(cfg, ResolveAPIKey(cfg))
}
