// Package client talks to a running Brushline server.
package client

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/fpang/brushline/internal/command"
	"github.com/fpang/brushline/internal/dispatch"
	"github.com/fpang/brushline/internal/imageops"
	"github.com/fpang/brushline/internal/vision"
	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the address brushline-web listens on by default.
const DefaultBaseURL = "http://localhost:3001"

// Options configures a Client.
type Options struct {
	BaseURL string
	// APIKey is sent with every oracle-backed call. Empty lets the server use
	// its own default credential.
	APIKey  string
	Timeout time.Duration
}

// Client calls the Brushline HTTP API.
type Client struct {
	http   *resty.Client
	apiKey string
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("server returned %d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// New returns a Client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	return &Client{
		http: resty.New().
			SetDebug(false).
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout).
			SetHeader("Accept", "application/json").
			SetError(&errorBody{}),
		apiKey: opts.APIKey,
	}
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	req := c.http.R().
		SetContext(ctx).
		SetBody(body)
	if result != nil {
		req.SetResult(result)
	}
	res, err := req.Post(path)
	return handleError(res, err)
}

// handleError turns transport failures and error statuses into errors.
// Without it a failing response would come back with a nil error.
func handleError(res *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !res.IsError() {
		return nil
	}
	apiErr := &APIError{Status: res.StatusCode(), Message: res.Status()}
	if body, ok := res.Error().(*errorBody); ok && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
	}
	return apiErr
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.http.R().SetContext(ctx).Get("/health")
	return handleError(res, err)
}

// ParseCommand asks the server to interpret text.
func (c *Client) ParseCommand(ctx context.Context, text string) (*command.Command, error) {
	var out struct {
		Command *command.Command `json:"command"`
	}
	err := c.post(ctx, "/api/ai/parse-command", map[string]string{"command": text, "apiKey": c.apiKey}, &out)
	if err != nil {
		return nil, err
	}
	return out.Command, nil
}

// Edit parses request on the server and applies it to imageData.
func (c *Client) Edit(ctx context.Context, request, imageData string) (dispatch.Result, error) {
	var out dispatch.Result
	err := c.post(ctx, "/api/ai/edit", map[string]string{
		"editRequest": request,
		"imageData":   imageData,
		"apiKey":      c.apiKey,
	}, &out)
	return out, err
}

// Apply applies a structured command on the server.
func (c *Client) Apply(ctx context.Context, cmd *command.Command, imageData string) (dispatch.Result, error) {
	var out dispatch.Result
	err := c.post(ctx, "/api/ai/apply", map[string]any{"command": cmd, "imageData": imageData}, &out)
	return out, err
}

// Analyze returns the server's analysis of imageData.
func (c *Client) Analyze(ctx context.Context, imageData string) (vision.Analysis, error) {
	var out struct {
		Analysis vision.Analysis `json:"analysis"`
	}
	err := c.post(ctx, "/api/ai/analyze", map[string]string{"imageData": imageData, "apiKey": c.apiKey}, &out)
	return out.Analysis, err
}

// Suggest returns edit suggestions for imageData.
func (c *Client) Suggest(ctx context.Context, imageData string) ([]string, error) {
	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	err := c.post(ctx, "/api/ai/suggest", map[string]string{"imageData": imageData, "apiKey": c.apiKey}, &out)
	return out.Suggestions, err
}

// Chat sends one chat message about imageData.
func (c *Client) Chat(ctx context.Context, message, imageData string, history []vision.Turn) (string, error) {
	var out struct {
		Response string `json:"response"`
	}
	err := c.post(ctx, "/api/ai/chat", map[string]any{
		"message":             message,
		"imageData":           imageData,
		"conversationHistory": history,
		"apiKey":              c.apiKey,
	}, &out)
	return out.Response, err
}

// TestKey asks the server to validate the client's API key.
func (c *Client) TestKey(ctx context.Context) error {
	return c.post(ctx, "/api/ai/test-key", map[string]string{"apiKey": c.apiKey}, nil)
}

// Info returns dimensions and metadata for imageData.
func (c *Client) Info(ctx context.Context, imageData string) (imageops.Info, error) {
	var out struct {
		Info imageops.Info `json:"info"`
	}
	err := c.post(ctx, "/api/images/info", map[string]string{"imageData": imageData}, &out)
	return out.Info, err
}

// Upload sends raw image bytes and returns the processed JPEG data URL.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var out struct {
		ImageURL string `json:"imageUrl"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetFileReader("image", filename, bytes.NewReader(data)).
		SetResult(&out).
		Post("/api/images/upload")
	if err := handleError(res, err); err != nil {
		return "", err
	}
	return out.ImageURL, nil
}
