package client

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fpang/brushline/internal/command"
	"github.com/fpang/brushline/internal/dispatch"
	"github.com/fpang/brushline/internal/editor"
	"github.com/fpang/brushline/internal/imageops"
	"github.com/fpang/brushline/internal/oracle"
	"github.com/fpang/brushline/internal/oracle/oracletest"
	"github.com/fpang/brushline/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngData(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestClient(t *testing.T, o oracle.Client, apiKey string) *Client {
	t.Helper()
	srv := httptest.NewServer(server.New(editor.New(o, editor.Options{}), server.Options{}).Handler())
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, APIKey: apiKey})
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, oracle.Unavailable{}, "")
	assert.NoError(t, c.Health(context.Background()))
}

func TestParseCommand(t *testing.T) {
	c := newTestClient(t, oracle.Unavailable{}, "")

	cmd, err := c.ParseCommand(context.Background(), "increase the contrast")
	require.NoError(t, err)
	assert.Equal(t, command.TypeEnhance, cmd.Type)
	p, ok := cmd.Parameters.(*command.AdjustParams)
	require.True(t, ok)
	assert.InDelta(t, 1.3, *p.Contrast, 1e-9)

	_, err = c.ParseCommand(context.Background(), "???")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Could not parse command. Please try rephrasing your request.", apiErr.Message)
}

func TestEditSendsAPIKey(t *testing.T) {
	stub := oracletest.Text(`{"type":"filter","parameters":{"grayscale":true},"description":"Converting the image to black and white.","confidence":0.95}`)
	c := newTestClient(t, stub, "sk-cli")

	res, err := c.Edit(context.Background(), "make it black and white", imageops.EncodeDataURL("image/png", pngData(t)))
	require.NoError(t, err)
	assert.Equal(t, dispatch.OutcomeApplied, res.Outcome)
	assert.Equal(t, "Converting the image to black and white.", res.Description)
	assert.Equal(t, "sk-cli", stub.Last().APIKey)
}

func TestApply(t *testing.T) {
	c := newTestClient(t, oracle.Unavailable{}, "")
	res, err := c.Apply(context.Background(), &command.Command{
		Type:        command.TypeCrop,
		Parameters:  &command.CropParams{AspectRatio: "1:1"},
		Description: "Square",
		Confidence:  1,
	}, imageops.EncodeDataURL("image/png", pngData(t)))
	require.NoError(t, err)
	assert.Equal(t, dispatch.OutcomeComingSoon, res.Outcome)
}

func TestVisionCalls(t *testing.T) {
	c := newTestClient(t, oracle.Unavailable{}, "")
	ctx := context.Background()
	data := imageops.EncodeDataURL("image/png", pngData(t))

	analysis, err := c.Analyze(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, "outdoor portrait", analysis.Scene)

	suggestions, err := c.Suggest(ctx, data)
	require.NoError(t, err)
	assert.Len(t, suggestions, 5)

	reply, err := c.Chat(ctx, "thoughts?", data, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
}

func TestTestKey(t *testing.T) {
	assert.NoError(t, newTestClient(t, &oracletest.Stub{}, "sk-ok").TestKey(context.Background()))

	err := newTestClient(t, &oracletest.Stub{}, "").TestKey(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "API key is required", apiErr.Message)
}

func TestUploadAndInfo(t *testing.T) {
	c := newTestClient(t, oracle.Unavailable{}, "")
	ctx := context.Background()

	url, err := c.Upload(ctx, "photo.png", pngData(t))
	require.NoError(t, err)

	info, err := c.Info(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", info.Format)
	assert.Equal(t, 4, info.Width)
	assert.Equal(t, 3, info.Height)
}

func TestTransportError(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1"})
	err := c.Health(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
