// Package config loads runtime settings from defaults, an optional config
// file, BRUSHLINE_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BRUSHLINE_SERVER_PORT.
const EnvPrefix = "BRUSHLINE"

// Config holds application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Oracle OracleConfig `mapstructure:"oracle"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	FrontendURL string `mapstructure:"frontend_url"`
	BodyLimitMB int64  `mapstructure:"body_limit_mb"`
}

// OracleConfig holds language model settings.
type OracleConfig struct {
	Provider        string        `mapstructure:"provider"`
	Model           string        `mapstructure:"model"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	APIKey          string        `mapstructure:"api_key"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BodyLimit returns the request body limit in bytes.
func (s ServerConfig) BodyLimit() int64 {
	return s.BodyLimitMB << 20
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"port":         "server.port",
	"frontend-url": "server.frontend_url",
	"provider":     "oracle.provider",
	"model":        "oracle.model",
	"base-url":     "oracle.base_url",
	"timeout":      "oracle.timeout",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.body_limit_mb", 50)
	v.SetDefault("oracle.provider", "openai")
	v.SetDefault("oracle.model", "")
	v.SetDefault("oracle.base_url", "")
	v.SetDefault("oracle.timeout", "30s")
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.breaker_failures", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads configuration. configFile overrides the BRUSHLINE_CONFIG
// variable and the default ~/.config/brushline/config.{yaml,toml}. Flags in
// flags that were set explicitly take precedence over everything else; flags
// may be nil.
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "brushline"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	case c.Server.BodyLimitMB <= 0:
		return fmt.Errorf("server.body_limit_mb must be positive")
	case c.Oracle.Timeout <= 0:
		return fmt.Errorf("oracle.timeout must be positive")
	}
	return nil
}
