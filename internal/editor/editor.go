// Package editor is the service behind every Brushline surface. It resolves
// the credential for a call and routes it to the interpreter, the
// dispatcher, or the vision calls.
package editor

import (
	"context"
	"fmt"

	"github.com/fpang/brushline/internal/auth"
	"github.com/fpang/brushline/internal/command"
	"github.com/fpang/brushline/internal/dispatch"
	"github.com/fpang/brushline/internal/interpreter"
	"github.com/fpang/brushline/internal/oracle"
	"github.com/fpang/brushline/internal/vision"
	"github.com/rs/zerolog/log"
)

// Options configures a Service.
type Options struct {
	// Model overrides the provider's default model.
	Model string
	// DefaultAPIKey is used when a call carries no credential of its own.
	DefaultAPIKey string
}

// Service runs edit requests and image questions.
type Service struct {
	oracle      oracle.Client
	interpreter *interpreter.Interpreter
	vision      *vision.Service
	defaultKey  string
}

// New returns a Service backed by client.
func New(client oracle.Client, opts Options) *Service {
	return &Service{
		oracle:      client,
		interpreter: interpreter.New(client, opts.Model),
		vision:      vision.New(client, opts.Model),
		defaultKey:  opts.DefaultAPIKey,
	}
}

// HasDefaultKey reports whether a server-side credential is configured.
func (s *Service) HasDefaultKey() bool {
	return s.defaultKey != ""
}

func (s *Service) key(apiKey string) string {
	if apiKey != "" {
		return apiKey
	}
	return s.defaultKey
}

// ParseCommand interprets text without touching any image. It returns nil
// when the request could not be understood.
func (s *Service) ParseCommand(ctx context.Context, text, imageData, apiKey string) *command.Command {
	return s.interpreter.ParseCommand(ctx, text, imageData, s.key(apiKey))
}

// PerformImageEdit parses request and applies it to imageData.
func (s *Service) PerformImageEdit(ctx context.Context, request, imageData, apiKey string) dispatch.Result {
	cmd := s.ParseCommand(ctx, request, imageData, apiKey)
	if cmd != nil {
		log.Debug().
			Str("type", string(cmd.Type)).
			Float64("confidence", cmd.Confidence).
			Msg("Parsed edit request")
	}
	return dispatch.Dispatch(ctx, dispatch.Input{
		Command:     cmd,
		ImageData:   imageData,
		RequestText: request,
	})
}

// ApplyCommand applies an already structured command to imageData. The
// command must validate; the interpreter is not consulted.
func (s *Service) ApplyCommand(ctx context.Context, cmd *command.Command, imageData string) (dispatch.Result, error) {
	if err := cmd.Validate(); err != nil {
		return dispatch.Result{}, fmt.Errorf("apply command: %w", err)
	}
	return dispatch.Dispatch(ctx, dispatch.Input{Command: cmd, ImageData: imageData}), nil
}

// AnalyzeImage describes imageData.
func (s *Service) AnalyzeImage(ctx context.Context, imageData, apiKey string) vision.Analysis {
	return s.vision.AnalyzeImage(ctx, imageData, s.key(apiKey))
}

// GenerateSuggestions proposes edits for imageData.
func (s *Service) GenerateSuggestions(ctx context.Context, imageData, apiKey string) []string {
	return s.vision.GenerateSuggestions(ctx, imageData, s.key(apiKey))
}

// Chat answers message about imageData given the earlier turns.
func (s *Service) Chat(ctx context.Context, message, imageData string, history []vision.Turn, apiKey string) string {
	return s.vision.Chat(ctx, message, imageData, history, s.key(apiKey))
}

// TestAPIKey checks apiKey against the provider. The default credential is
// not substituted: an empty key is reported as missing.
func (s *Service) TestAPIKey(ctx context.Context, apiKey string) error {
	return auth.ValidateAPIKey(ctx, s.oracle, apiKey)
}
