// Package oracle talks to the hosted language/vision model that interprets
// edit instructions, analyses images and chats about them.
//
// Callers see a single Client interface; backends exist for the OpenAI chat
// completions API (default) and for Gemini. Every backend disables SDK-level
// retries and classifies failures into *Error so callers can tell an invalid
// key from a network problem.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn. ImageDataURL, when set, attaches an image
// (data URL) to a user message.
type Message struct {
	Role         Role   `json:"role"`
	Text         string `json:"content"`
	ImageDataURL string `json:"-"`
}

// Request is a single completion request.
type Request struct {
	// Operation labels the call in logs and metrics ("parse-command", "chat").
	Operation string
	APIKey    string
	// Model overrides the backend's default model when set.
	Model    string
	Messages []Message
	// Temperature is left to the provider default when nil.
	Temperature *float64
	MaxTokens   int
}

// Client is a language/vision model.
type Client interface {
	// Complete returns the text of the first completion choice. An empty
	// string with a nil error means the model answered with no content.
	Complete(ctx context.Context, req Request) (string, error)
	// ValidateKey makes the cheapest authenticated call the provider offers.
	ValidateKey(ctx context.Context, apiKey string) error
}

// Temperature returns a pointer to t for Request.Temperature.
func Temperature(t float64) *float64 {
	return &t
}

// Provider names.
const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderOffline = "offline"
)

// Config selects and tunes a backend.
type Config struct {
	Provider string
	Model    string
	BaseURL  string
	Timeout  time.Duration
	// BreakerFailures is the number of consecutive transport failures that
	// open the circuit breaker. Zero disables the breaker.
	BreakerFailures uint32
}

// DefaultTimeout bounds a single oracle call.
const DefaultTimeout = 30 * time.Second

// New builds the Client described by cfg, wrapped in a circuit breaker when
// cfg.BreakerFailures is positive.
func New(cfg Config) (Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	var c Client
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		c = NewOpenAI(cfg.Model, cfg.BaseURL, cfg.Timeout)
	case ProviderGemini:
		c = NewGemini(cfg.Model, cfg.Timeout)
	case ProviderOffline:
		return Unavailable{}, nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}

	if cfg.BreakerFailures > 0 {
		c = NewBreaker(c, cfg.Provider, cfg.BreakerFailures)
	}
	return c, nil
}
