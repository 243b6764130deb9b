package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cb "github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{400, KindInvalidKey},
		{401, KindInvalidKey},
		{403, KindInvalidKey},
		{429, KindQuota},
		{500, KindNetwork},
		{503, KindNetwork},
		{404, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			err := classifyStatus(tt.code, "", errors.New("boom"))
			assert.Equal(t, tt.want, err.Kind)
			assert.EqualError(t, err.Unwrap(), "boom")
		})
	}
}

func TestClassifyText(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"API key not valid. Please pass a valid API key.", KindInvalidKey},
		{"Incorrect API key provided", KindInvalidKey},
		{"RESOURCE EXHAUSTED: quota", KindQuota},
		{"dial tcp: lookup api.openai.com: no such host", KindNetwork},
		{"unexpected EOF", KindNetwork},
		{"something odd", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyText(errors.New(tt.msg)).Kind)
		})
	}

	t.Run("deadline", func(t *testing.T) {
		err := classifyText(fmt.Errorf("post: %w", context.DeadlineExceeded))
		assert.Equal(t, KindNetwork, err.Kind)
	})
}

func TestKindOfAndIsAuth(t *testing.T) {
	assert.Equal(t, KindNoKey, KindOf(ErrNoKey))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindQuota, KindOf(fmt.Errorf("wrapped: %w", &Error{Kind: KindQuota})))

	assert.True(t, IsAuth(ErrNoKey))
	assert.True(t, IsAuth(&Error{Kind: KindInvalidKey}))
	assert.False(t, IsAuth(&Error{Kind: KindNetwork}))
}

func TestNew(t *testing.T) {
	c, err := New(Config{Provider: "offline"})
	require.NoError(t, err)
	assert.IsType(t, Unavailable{}, c)

	c, err = New(Config{Provider: "openai"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, c)

	c, err = New(Config{Provider: "gemini", BreakerFailures: 3})
	require.NoError(t, err)
	assert.IsType(t, &Breaker{}, c)

	_, err = New(Config{Provider: "llama"})
	assert.Error(t, err)
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.Complete(context.Background(), Request{APIKey: "k"})
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Equal(t, KindUnavailable, KindOf(Unavailable{}.ValidateKey(context.Background(), "k")))
}

// fakeOpenAI serves the chat completions and models endpoints.
type fakeOpenAI struct {
	hits    atomic.Int32
	status  int
	content string

	mu      sync.Mutex
	lastReq map[string]any
	auth    string
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = r.Header.Get("Authorization")
	w.Header().Set("Content-Type", "application/json")

	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
		return
	}

	switch r.URL.Path {
	case "/chat/completions":
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &f.lastReq)
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": f.content},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	case "/models":
		_, _ = io.WriteString(w, `{"object":"list","data":[{"id":"gpt-4o","object":"model","created":1,"owned_by":"openai"}]}`)
	default:
		http.NotFound(w, r)
	}
}

func newFakeOpenAI(t *testing.T, f *fakeOpenAI) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewOpenAI("", srv.URL+"/", 5*time.Second)
}

func TestOpenAIComplete(t *testing.T) {
	f := &fakeOpenAI{content: `{"type":"filter"}`}
	c := newFakeOpenAI(t, f)

	got, err := c.Complete(context.Background(), Request{
		Operation: "parse-command",
		APIKey:    "sk-test",
		Messages: []Message{
			{Role: RoleSystem, Text: "be precise"},
			{Role: RoleUser, Text: "make it black and white", ImageDataURL: "data:image/png;base64,AAAA"},
		},
		Temperature: Temperature(0.1),
		MaxTokens:   500,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"filter"}`, got)
	assert.Equal(t, "Bearer sk-test", f.auth)

	assert.Equal(t, DefaultOpenAIModel, f.lastReq["model"])
	assert.Equal(t, 0.1, f.lastReq["temperature"])
	assert.Equal(t, float64(500), f.lastReq["max_tokens"])

	msgs := f.lastReq["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])

	parts := msgs[1].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].(map[string]any)["type"])
	assert.Equal(t, "image_url", parts[1].(map[string]any)["type"])
	assert.Equal(t, "data:image/png;base64,AAAA", parts[1].(map[string]any)["image_url"].(map[string]any)["url"])
}

func TestOpenAICompleteOmitsUnsetTemperature(t *testing.T) {
	f := &fakeOpenAI{content: "ok"}
	c := newFakeOpenAI(t, f)

	_, err := c.Complete(context.Background(), Request{
		APIKey:   "sk-test",
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: RoleUser, Text: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", f.lastReq["model"])
	assert.NotContains(t, f.lastReq, "temperature")
	assert.NotContains(t, f.lastReq, "max_tokens")
}

func TestOpenAICompleteNoKey(t *testing.T) {
	f := &fakeOpenAI{}
	c := newFakeOpenAI(t, f)

	_, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Text: "hi"}}})
	assert.Equal(t, KindNoKey, KindOf(err))
	assert.Zero(t, f.hits.Load())
}

func TestOpenAIErrorsAreClassifiedAndNotRetried(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, KindInvalidKey},
		{http.StatusTooManyRequests, KindQuota},
		{http.StatusInternalServerError, KindNetwork},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			f := &fakeOpenAI{status: tt.status}
			c := newFakeOpenAI(t, f)

			_, err := c.Complete(context.Background(), Request{APIKey: "sk-bad", Messages: []Message{{Role: RoleUser, Text: "hi"}}})
			assert.Equal(t, tt.want, KindOf(err))
			assert.EqualValues(t, 1, f.hits.Load())
		})
	}
}

func TestOpenAIValidateKey(t *testing.T) {
	f := &fakeOpenAI{}
	c := newFakeOpenAI(t, f)
	assert.NoError(t, c.ValidateKey(context.Background(), "sk-good"))
	assert.Equal(t, "Bearer sk-good", f.auth)

	bad := &fakeOpenAI{status: http.StatusUnauthorized}
	c = newFakeOpenAI(t, bad)
	assert.Equal(t, KindInvalidKey, KindOf(c.ValidateKey(context.Background(), "sk-bad")))

	assert.Equal(t, KindNoKey, KindOf(c.ValidateKey(context.Background(), "")))
}

func TestGeminiContents(t *testing.T) {
	contents, system, err := geminiContents([]Message{
		{Role: RoleSystem, Text: "sys"},
		{Role: RoleUser, Text: "first"},
		{Role: RoleAssistant, Text: "reply"},
		{Role: RoleUser, Text: "look", ImageDataURL: "data:image/png;base64,iVBORw0KGgo="},
	})
	require.NoError(t, err)

	require.NotNil(t, system)
	assert.Equal(t, "sys", system.Parts[0].Text)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	require.Len(t, contents[2].Parts, 2)
	assert.Equal(t, "image/png", contents[2].Parts[1].InlineData.MIMEType)

	_, _, err = geminiContents([]Message{{Role: RoleUser, Text: "x", ImageDataURL: "data:image/png;base64,%%%"}})
	assert.Error(t, err)
}

// scriptedClient returns errs in order, then succeeds.
type scriptedClient struct {
	calls atomic.Int32
	errs  []error
}

func (s *scriptedClient) Complete(context.Context, Request) (string, error) {
	n := int(s.calls.Add(1)) - 1
	if n < len(s.errs) {
		return "", s.errs[n]
	}
	return "ok", nil
}

func (s *scriptedClient) ValidateKey(context.Context, string) error { return nil }

func repeat(err error, n int) []error {
	out := make([]error, n)
	for i := range out {
		out[i] = err
	}
	return out
}

func TestBreakerOpensAfterTransportFailures(t *testing.T) {
	network := &Error{Kind: KindNetwork, Message: "down"}
	inner := &scriptedClient{errs: repeat(network, 10)}
	b := NewBreaker(inner, "test-open", 3)

	for i := 0; i < 3; i++ {
		_, err := b.Complete(context.Background(), Request{})
		assert.Equal(t, KindNetwork, KindOf(err))
	}
	assert.Equal(t, cb.StateOpen, b.State())

	_, err := b.Complete(context.Background(), Request{})
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.EqualValues(t, 3, inner.calls.Load(), "open breaker must not reach the provider")
}

func TestBreakerIgnoresAuthFailures(t *testing.T) {
	inner := &scriptedClient{errs: append(repeat(&Error{Kind: KindInvalidKey}, 5), repeat(ErrNoKey, 5)...)}
	b := NewBreaker(inner, "test-auth", 3)

	for i := 0; i < 10; i++ {
		_, err := b.Complete(context.Background(), Request{})
		assert.True(t, IsAuth(err))
	}
	assert.Equal(t, cb.StateClosed, b.State())

	got, err := b.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	network := &Error{Kind: KindNetwork}
	inner := &scriptedClient{errs: []error{network, network, nil, network, network}}
	b := NewBreaker(inner, "test-reset", 3)

	for i := 0; i < 5; i++ {
		_, _ = b.Complete(context.Background(), Request{})
	}
	assert.Equal(t, cb.StateClosed, b.State())
}
