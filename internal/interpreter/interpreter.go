// Package interpreter turns free-text edit instructions into structured
// commands. The oracle is asked first; any failure falls back to the keyword
// parser in the command package, so callers never see an error.
package interpreter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fpang/brushline/internal/assets"
	"github.com/fpang/brushline/internal/command"
	"github.com/fpang/brushline/internal/jsonutil"
	"github.com/fpang/brushline/internal/metrics"
	"github.com/fpang/brushline/internal/oracle"
	"github.com/rs/zerolog/log"
)

// Oracle settings for command parsing.
const (
	parseTemperature = 0.1
	parseMaxTokens   = 500
	operation        = "parse-command"
)

// Interpreter parses edit requests.
type Interpreter struct {
	oracle oracle.Client
	model  string
}

// New returns an Interpreter that asks client. An empty model uses the
// client's default.
func New(client oracle.Client, model string) *Interpreter {
	return &Interpreter{oracle: client, model: model}
}

// ParseCommand interprets text as an edit command. imageData is accepted for
// interface symmetry with the other oracle calls but is not sent; the prompt
// works from the wording alone. It returns nil when neither the oracle nor
// the keyword parser produce a command, or when the oracle answers with an
// empty completion.
func (in *Interpreter) ParseCommand(ctx context.Context, text, imageData, apiKey string) *command.Command {
	start := time.Now()
	logger := log.With().
		Str("operation", operation).
		Int("request_length", len(text)).
		Bool("has_image", imageData != "").
		Bool("has_api_key", apiKey != "").
		Logger()

	prompt, err := BuildPrompt(text)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build command prompt, using keyword parser")
		return fallback(text)
	}

	content, err := in.oracle.Complete(ctx, oracle.Request{
		Operation: operation,
		APIKey:    apiKey,
		Model:     in.model,
		Messages: []oracle.Message{
			{Role: oracle.RoleSystem, Text: assets.CommandSystemPrompt},
			{Role: oracle.RoleUser, Text: prompt},
		},
		Temperature: oracle.Temperature(parseTemperature),
		MaxTokens:   parseMaxTokens,
	})
	if err != nil {
		logger.Warn().
			Err(err).
			Str("kind", string(oracle.KindOf(err))).
			Msg("Oracle command parse failed, using keyword parser")
		return fallback(text)
	}

	if strings.TrimSpace(content) == "" {
		logger.Warn().Msg("Oracle returned an empty completion")
		return nil
	}

	cmd, err := decode(content)
	if err != nil {
		logger.Warn().
			Err(err).
			Int("response_length", len(content)).
			Msg("Oracle command rejected, using keyword parser")
		return fallback(text)
	}

	logger.Info().
		Str("type", string(cmd.Type)).
		Float64("confidence", cmd.Confidence).
		Dur("duration", time.Since(start)).
		Msg("Command parsed")
	return cmd
}

func decode(content string) (*command.Command, error) {
	raw, err := jsonutil.Object(content)
	if err != nil {
		return nil, fmt.Errorf("extract command: %w", err)
	}
	return command.DecodeModelOutput(raw)
}

func fallback(text string) *command.Command {
	metrics.ObserveFallback(operation)
	cmd := command.BasicParse(text)
	if cmd == nil {
		log.Info().Msg("Keyword parser found no command")
		return nil
	}
	log.Info().
		Str("type", string(cmd.Type)).
		Float64("confidence", cmd.Confidence).
		Msg("Command parsed by keyword parser")
	return cmd
}
