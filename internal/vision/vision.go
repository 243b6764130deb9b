package vision

import (
	"context"
	"strings"
	"time"

	"github.com/fpang/brushline/internal/assets"
	"github.com/fpang/brushline/internal/imageops"
	"github.com/fpang/brushline/internal/jsonutil"
	"github.com/fpang/brushline/internal/metrics"
	"github.com/fpang/brushline/internal/oracle"
	"github.com/rs/zerolog/log"
)

// Oracle limits per call.
const (
	analyzeMaxTokens = 800
	suggestMaxTokens = 400
	chatMaxTokens    = 600
	chatTemperature  = 0.7
	maxSuggestions   = 5
)

// Chat replies used when the oracle cannot answer.
const (
	ChatUnavailableReply = "Sorry, I'm having trouble processing your request right now."
	ChatEmptyReply       = "Sorry, I couldn't process that request."
)

// Turn is one earlier message in a chat conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Service runs the vision calls against an oracle.
type Service struct {
	oracle oracle.Client
	model  string
}

// New returns a Service. An empty model uses the client's default.
func New(client oracle.Client, model string) *Service {
	return &Service{oracle: client, model: model}
}

// AnalyzeImage describes imageData. Any failure returns FallbackAnalysis.
func (s *Service) AnalyzeImage(ctx context.Context, imageData, apiKey string) Analysis {
	const op = "analyze"
	start := time.Now()

	content, err := s.askAboutImage(ctx, op, assets.AnalyzePrompt, imageData, apiKey, analyzeMaxTokens)
	if err != nil {
		return fallbackAnalysis(op, err)
	}

	analysis, err := jsonutil.Parse[Analysis](content, false)
	if err != nil {
		return fallbackAnalysis(op, err)
	}
	if err := analysis.normalize(); err != nil {
		return fallbackAnalysis(op, err)
	}

	log.Info().
		Int("faces", analysis.Faces).
		Str("scene", analysis.Scene).
		Str("quality", analysis.Quality).
		Dur("duration", time.Since(start)).
		Msg("Image analysed")
	return analysis
}

// GenerateSuggestions proposes up to five edits for imageData. Any failure
// returns FallbackSuggestions.
func (s *Service) GenerateSuggestions(ctx context.Context, imageData, apiKey string) []string {
	const op = "suggest"

	content, err := s.askAboutImage(ctx, op, assets.SuggestPrompt, imageData, apiKey, suggestMaxTokens)
	if err != nil {
		return fallbackSuggestions(op, err)
	}

	raw, err := jsonutil.Parse[[]string](content, false)
	if err != nil {
		return fallbackSuggestions(op, err)
	}

	suggestions := make([]string, 0, maxSuggestions)
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" && len(suggestions) < maxSuggestions {
			suggestions = append(suggestions, item)
		}
	}
	if len(suggestions) == 0 {
		return fallbackSuggestions(op, jsonutil.ErrNoJSON)
	}

	log.Info().Int("count", len(suggestions)).Msg("Suggestions generated")
	return suggestions
}

// Chat answers message in the context of imageData and the earlier turns.
func (s *Service) Chat(ctx context.Context, message, imageData string, history []Turn, apiKey string) string {
	const op = "chat"

	log.Debug().
		Int("message_length", len(message)).
		Int("image_length", len(imageData)).
		Int("history", len(history)).
		Bool("has_api_key", apiKey != "").
		Msg("Starting chat")

	msgs := make([]oracle.Message, 0, len(history)+2)
	msgs = append(msgs, oracle.Message{Role: oracle.RoleSystem, Text: assets.ChatSystemPrompt})
	for _, t := range history {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		role := oracle.RoleUser
		if t.Role == string(oracle.RoleAssistant) {
			role = oracle.RoleAssistant
		}
		msgs = append(msgs, oracle.Message{Role: role, Text: t.Content})
	}

	current := oracle.Message{Role: oracle.RoleUser, Text: message}
	if imageData != "" {
		url, err := imageops.ToDataURL(imageData)
		if err != nil {
			log.Warn().Err(err).Msg("Chat image is not a valid payload")
			metrics.ObserveFallback(op)
			return ChatUnavailableReply
		}
		current.ImageDataURL = url
	}
	msgs = append(msgs, current)

	content, err := s.oracle.Complete(ctx, oracle.Request{
		Operation:   op,
		APIKey:      apiKey,
		Model:       s.model,
		Messages:    msgs,
		Temperature: oracle.Temperature(chatTemperature),
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		log.Error().Err(err).Str("kind", string(oracle.KindOf(err))).Msg("Chat failed")
		metrics.ObserveFallback(op)
		return ChatUnavailableReply
	}
	if strings.TrimSpace(content) == "" {
		return ChatEmptyReply
	}
	log.Debug().Int("response_length", len(content)).Msg("Chat response received")
	return content
}

func (s *Service) askAboutImage(ctx context.Context, op, prompt, imageData, apiKey string, maxTokens int) (string, error) {
	url, err := imageops.ToDataURL(imageData)
	if err != nil {
		return "", err
	}
	return s.oracle.Complete(ctx, oracle.Request{
		Operation: op,
		APIKey:    apiKey,
		Model:     s.model,
		Messages:  []oracle.Message{{Role: oracle.RoleUser, Text: prompt, ImageDataURL: url}},
		MaxTokens: maxTokens,
	})
}

func fallbackAnalysis(op string, err error) Analysis {
	log.Warn().Err(err).Str("kind", string(oracle.KindOf(err))).Msg("Image analysis failed, using fallback")
	metrics.ObserveFallback(op)
	return FallbackAnalysis()
}

func fallbackSuggestions(op string, err error) []string {
	log.Warn().Err(err).Str("kind", string(oracle.KindOf(err))).Msg("Suggestion generation failed, using fallback")
	metrics.ObserveFallback(op)
	return append([]string(nil), FallbackSuggestions...)
}
