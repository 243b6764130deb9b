package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/fpang/brushline/internal/command"
	"github.com/fpang/brushline/internal/dispatch"
	"github.com/fpang/brushline/internal/imageops"
	"github.com/fpang/brushline/internal/oracle"
	"github.com/fpang/brushline/internal/oracle/oracletest"
	"github.com/fpang/brushline/internal/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photo(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 5, 5))
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			img.Set(x, y, color.NRGBA{R: 220, G: uint8(30 * x), B: uint8(40 * y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return imageops.EncodeDataURL("image/png", buf.Bytes())
}

func isGray(t *testing.T, payload string) bool {
	t.Helper()
	img, _, err := imageops.Decode(payload)
	require.NoError(t, err)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r != g || g != bl {
				return false
			}
		}
	}
	return true
}

func TestPerformImageEditBlackAndWhite(t *testing.T) {
	stub := oracletest.Text(`{"type": "filter", "parameters": {"grayscale": true}, "description": "Converting the image to black and white.", "confidence": 0.99}`)
	svc := New(stub, Options{})
	input := photo(t)

	res := svc.PerformImageEdit(context.Background(), "make it black and white", input, "sk-user")

	assert.Equal(t, dispatch.OutcomeApplied, res.Outcome)
	assert.Equal(t, "Converting the image to black and white.", res.Description)
	assert.Regexp(t, `^data:image/png;base64,`, res.EditedImageData)
	assert.NotEqual(t, input, res.EditedImageData)
	assert.True(t, isGray(t, res.EditedImageData))
	assert.Equal(t, "sk-user", stub.Last().APIKey)
}

func TestPerformImageEditFallbackParser(t *testing.T) {
	svc := New(oracle.Unavailable{}, Options{})
	input := photo(t)

	res := svc.PerformImageEdit(context.Background(), "Please BRIGHTEN this", input, "")

	assert.Equal(t, dispatch.OutcomeApplied, res.Outcome)
	assert.Equal(t, "Brightening image", res.Description)
	assert.NotEqual(t, input, res.EditedImageData)
}

func TestPerformImageEditNotUnderstood(t *testing.T) {
	svc := New(oracle.Unavailable{}, Options{})
	input := photo(t)

	res := svc.PerformImageEdit(context.Background(), "do something nice", input, "")

	assert.Equal(t, input, res.EditedImageData)
	assert.Equal(t, dispatch.MsgNotUnderstood, res.Description)
}

func TestDefaultKeyFallback(t *testing.T) {
	stub := oracletest.Text(`["Warmer"]`)
	svc := New(stub, Options{DefaultAPIKey: "sk-server", Model: "gpt-4o-mini"})
	assert.True(t, svc.HasDefaultKey())

	svc.GenerateSuggestions(context.Background(), photo(t), "")
	assert.Equal(t, "sk-server", stub.Last().APIKey)
	assert.Equal(t, "gpt-4o-mini", stub.Last().Model)

	svc.GenerateSuggestions(context.Background(), photo(t), "sk-user")
	assert.Equal(t, "sk-user", stub.Last().APIKey)

	svc.ParseCommand(context.Background(), "brighten", "", "")
	assert.Equal(t, "sk-server", stub.Last().APIKey)

	svc.Chat(context.Background(), "hi", "", []vision.Turn{{Role: "user", Content: "hello"}}, "")
	assert.Equal(t, "sk-server", stub.Last().APIKey)

	svc.AnalyzeImage(context.Background(), photo(t), "")
	assert.Equal(t, "sk-server", stub.Last().APIKey)
}

func TestApplyCommand(t *testing.T) {
	svc := New(oracle.Unavailable{}, Options{})
	input := photo(t)

	res, err := svc.ApplyCommand(context.Background(), &command.Command{
		Type:        command.TypeEnhance,
		Parameters:  &command.AdjustParams{Brightness: command.Float(1.2)},
		Description: "Brighter",
		Confidence:  1,
	}, input)
	require.NoError(t, err)
	assert.Equal(t, dispatch.OutcomeApplied, res.Outcome)
	assert.Equal(t, "Brighter", res.Description)

	_, err = svc.ApplyCommand(context.Background(), &command.Command{
		Type:       command.TypeEnhance,
		Parameters: &command.AdjustParams{Brightness: command.Float(9)},
		Confidence: 1,
	}, input)
	var verr *command.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.ApplyCommand(context.Background(), nil, input)
	assert.Error(t, err)
}

func TestTestAPIKeyDoesNotUseDefault(t *testing.T) {
	svc := New(&oracletest.Stub{}, Options{DefaultAPIKey: "sk-server"})

	err := svc.TestAPIKey(context.Background(), "")
	assert.Equal(t, oracle.KindNoKey, oracle.KindOf(err))
	assert.NoError(t, svc.TestAPIKey(context.Background(), "sk-user"))
}
