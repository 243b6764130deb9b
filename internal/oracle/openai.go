package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/fpang/brushline/internal/metrics"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o"

// OpenAI is a Client backed by the OpenAI chat completions API. The API key
// comes from each request, so one OpenAI value serves every caller.
type OpenAI struct {
	model   string
	baseURL string
	timeout time.Duration
}

// NewOpenAI returns an OpenAI client. Empty model and baseURL select the
// defaults.
func NewOpenAI(model, baseURL string, timeout time.Duration) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenAI{model: model, baseURL: baseURL, timeout: timeout}
}

func (o *OpenAI) client(apiKey string) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(o.timeout),
	}
	if o.baseURL != "" {
		opts = append(opts, option.WithBaseURL(o.baseURL))
	}
	return openai.NewClient(opts...)
}

// Complete sends req as a chat completion.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	if req.APIKey == "" {
		return "", ErrNoKey
	}
	model := req.Model
	if model == "" {
		model = o.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: openAIMessages(req.Messages),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	log.Debug().
		Str("provider", ProviderOpenAI).
		Str("operation", req.Operation).
		Str("model", model).
		Int("messages", len(req.Messages)).
		Msg("Sending oracle request")

	start := time.Now()
	client := o.client(req.APIKey)
	resp, err := client.Chat.Completions.New(ctx, params)
	elapsed := time.Since(start)
	if err != nil {
		oerr := classifyOpenAIError(err)
		metrics.ObserveOracle(ProviderOpenAI, req.Operation, string(oerr.Kind), elapsed)
		return "", oerr
	}
	metrics.ObserveOracle(ProviderOpenAI, req.Operation, "success", elapsed)

	if len(resp.Choices) == 0 {
		return "", nil
	}
	content := resp.Choices[0].Message.Content

	log.Debug().
		Str("operation", req.Operation).
		Int("response_length", len(content)).
		Dur("duration", elapsed).
		Msg("Oracle response received")
	return content, nil
}

// ValidateKey lists models, the cheapest authenticated OpenAI call.
func (o *OpenAI) ValidateKey(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return ErrNoKey
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	client := o.client(apiKey)
	_, err := client.Models.List(ctx)
	elapsed := time.Since(start)
	if err != nil {
		oerr := classifyOpenAIError(err)
		metrics.ObserveOracle(ProviderOpenAI, "test-key", string(oerr.Kind), elapsed)
		return oerr
	}
	metrics.ObserveOracle(ProviderOpenAI, "test-key", "success", elapsed)
	return nil
}

func openAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Text))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Text))
		default:
			if m.ImageDataURL == "" {
				out = append(out, openai.UserMessage(m.Text))
				continue
			}
			out = append(out, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(m.Text),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: m.ImageDataURL,
				}),
			}))
		}
	}
	return out
}

func classifyOpenAIError(err error) *Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.StatusCode, apiErr.Message, err)
	}
	return classifyText(err)
}
