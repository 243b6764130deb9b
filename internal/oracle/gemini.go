package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fpang/brushline/internal/imageops"
	"github.com/fpang/brushline/internal/metrics"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-3-flash-preview"

// Gemini is a Client backed by the Gemini API.
type Gemini struct {
	model   string
	timeout time.Duration
}

// NewGemini returns a Gemini client. An empty model selects the default.
func NewGemini(model string, timeout time.Duration) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gemini{model: model, timeout: timeout}
}

func (g *Gemini) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "failed to create Gemini client", Err: err}
	}
	return client, nil
}

// Complete sends req through GenerateContent. System messages become the
// system instruction; assistant turns are sent with the "model" role.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	if req.APIKey == "" {
		return "", ErrNoKey
	}
	model := req.Model
	if model == "" {
		model = g.model
	}

	contents, system, err := geminiContents(req.Messages)
	if err != nil {
		return "", &Error{Kind: KindUnknown, Message: "invalid image attachment", Err: err}
	}

	cfg := &genai.GenerateContentConfig{SystemInstruction: system}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := g.client(ctx, req.APIKey)
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("provider", ProviderGemini).
		Str("operation", req.Operation).
		Str("model", model).
		Int("contents", len(contents)).
		Msg("Sending oracle request")

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	elapsed := time.Since(start)
	if err != nil {
		oerr := classifyGeminiError(err)
		metrics.ObserveOracle(ProviderGemini, req.Operation, string(oerr.Kind), elapsed)
		return "", oerr
	}
	metrics.ObserveOracle(ProviderGemini, req.Operation, "success", elapsed)

	if resp == nil || len(resp.Candidates) == 0 {
		return "", nil
	}
	return resp.Text(), nil
}

// ValidateKey makes a minimal generate call; Gemini has no cheaper
// authenticated endpoint.
func (g *Gemini) ValidateKey(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return ErrNoKey
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := g.client(ctx, apiKey)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text("hi"), nil)
	elapsed := time.Since(start)
	if err != nil {
		oerr := classifyGeminiError(err)
		metrics.ObserveOracle(ProviderGemini, "test-key", string(oerr.Kind), elapsed)
		return oerr
	}
	if resp == nil || len(resp.Candidates) == 0 {
		metrics.ObserveOracle(ProviderGemini, "test-key", "empty_response", elapsed)
		return &Error{Kind: KindUnknown, Message: "API returned empty response"}
	}
	metrics.ObserveOracle(ProviderGemini, "test-key", "success", elapsed)
	return nil
}

func geminiContents(msgs []Message) ([]*genai.Content, *genai.Content, error) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: m.Text})
		case RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: m.Text}},
			})
		default:
			parts := []*genai.Part{{Text: m.Text}}
			if m.ImageDataURL != "" {
				mime, data, err := imageops.ParseDataURL(m.ImageDataURL)
				if err != nil {
					return nil, nil, fmt.Errorf("decode attached image: %w", err)
				}
				parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mime, Data: data}})
			}
			contents = append(contents, &genai.Content{Role: "user", Parts: parts})
		}
	}
	return contents, system, nil
}

func classifyGeminiError(err error) *Error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return classifyStatus(apiErrPtr.Code, apiErrPtr.Message, err)
	}
	return classifyText(err)
}
