package vision

import (
	"context"
	"errors"
	"testing"

	"github.com/fpang/brushline/internal/oracle"
	"github.com/fpang/brushline/internal/oracle/oracletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	samplePNG = "data:image/png;base64,iVBORw0KGgo="
	bareJPEG  = "/9j/4AAQSkZJRgABAQ=="
)

var networkErr = &oracle.Error{Kind: oracle.KindNetwork, Message: "request failed", Err: errors.New("connection reset")}

const goodAnalysis = "```json\n" + `{
  "faces": 2,
  "sky": false,
  "background": "indoor",
  "dominantColors": ["#112233", "#445566", "#778899", "#aabbcc", "#ddeeff", "#000000"],
  "contrast": "High",
  "brightness": "dark",
  "objects": ["table", "lamp"],
  "scene": "dinner party",
  "quality": "excellent",
  "suggestions": ["Warm it up"],
  "mood": "cosy"
}` + "\n```"

func TestAnalyzeImage(t *testing.T) {
	stub := oracletest.Text(goodAnalysis)
	svc := New(stub, "gpt-4o-mini")

	got := svc.AnalyzeImage(context.Background(), samplePNG, "sk-test")

	assert.Equal(t, 2, got.Faces)
	assert.False(t, got.Sky)
	assert.Equal(t, "indoor", got.Background)
	assert.Equal(t, []string{"#112233", "#445566", "#778899", "#AABBCC", "#DDEEFF"}, got.DominantColors)
	assert.Equal(t, "high", got.Contrast)
	assert.Equal(t, "dark", got.Brightness)
	assert.Equal(t, []string{"table", "lamp"}, got.Objects)
	assert.Equal(t, "dinner party", got.Scene)
	assert.Equal(t, "excellent", got.Quality)
	assert.Equal(t, []string{"Warm it up"}, got.Suggestions)

	req := stub.Last()
	assert.Equal(t, "analyze", req.Operation)
	assert.Equal(t, "sk-test", req.APIKey)
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, analyzeMaxTokens, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, oracle.RoleUser, req.Messages[0].Role)
	assert.Equal(t, samplePNG, req.Messages[0].ImageDataURL)
}

func TestAnalyzeImagePadsColours(t *testing.T) {
	stub := oracletest.Text(`{"faces":0,"sky":true,"background":"beach","dominantColors":["#0000ff"],
		"contrast":"low","brightness":"bright","objects":[],"scene":"seaside","quality":"fair","suggestions":[]}`)

	got := New(stub, "").AnalyzeImage(context.Background(), bareJPEG, "sk-test")

	assert.Equal(t, []string{"#0000FF", "#228B22", "#FFD700", "#F5DEB3", "#696969"}, got.DominantColors)
	assert.Equal(t, "seaside", got.Scene)
	assert.Equal(t, "data:image/jpeg;base64,"+bareJPEG, stub.Last().Messages[0].ImageDataURL)
}

func TestAnalyzeImageReplacesNonHexColours(t *testing.T) {
	stub := oracletest.Text(`{"faces":0,"sky":false,"background":"studio","dominantColors":["blue","#abc","#a1b2c3","red","#GGGGGG"],
		"contrast":"medium","brightness":"normal","objects":[],"scene":"portrait","quality":"good","suggestions":[]}`)

	got := New(stub, "").AnalyzeImage(context.Background(), samplePNG, "sk-test")

	assert.Equal(t, []string{"#87CEEB", "#228B22", "#A1B2C3", "#F5DEB3", "#696969"}, got.DominantColors)
	assert.Equal(t, "portrait", got.Scene)
}

func TestAnalyzeImageFallback(t *testing.T) {
	tests := []struct {
		name  string
		stub  *oracletest.Stub
		image string
	}{
		{"network error", oracletest.Failing(networkErr), samplePNG},
		{"no key", oracletest.Failing(oracle.ErrNoKey), samplePNG},
		{"prose", oracletest.Text("The photo shows a cat."), samplePNG},
		{"bad contrast", oracletest.Text(`{"faces":1,"contrast":"extreme","brightness":"normal","quality":"good"}`), samplePNG},
		{"bad quality", oracletest.Text(`{"faces":1,"contrast":"low","brightness":"normal","quality":"superb"}`), samplePNG},
		{"negative faces", oracletest.Text(`{"faces":-1,"contrast":"low","brightness":"normal","quality":"good"}`), samplePNG},
		{"wrong field type", oracletest.Text(`{"faces":"two"}`), samplePNG},
		{"invalid image", oracletest.Text(goodAnalysis), "data:image/png;base64,!!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.stub, "").AnalyzeImage(context.Background(), tt.image, "sk-test")
			assert.Equal(t, FallbackAnalysis(), got)
		})
	}
}

func TestFallbackAnalysis(t *testing.T) {
	a := FallbackAnalysis()
	assert.Len(t, a.DominantColors, DominantColorCount)
	assert.Equal(t, []string{"#87CEEB", "#228B22", "#FFD700"}, a.DominantColors[:3])
	assert.Equal(t, FallbackSuggestions[:3], a.Suggestions)
	assert.NoError(t, a.normalize())

	a.DominantColors[0] = "#000000"
	assert.Equal(t, "#87CEEB", FallbackAnalysis().DominantColors[0])
}

func TestGenerateSuggestions(t *testing.T) {
	stub := oracletest.Text(`Here you go: ["Boost saturation", "  ", "Add vignette", "Crop to 4:5", "Warm tones", "Soften skin", "Extra"]`)

	got := New(stub, "").GenerateSuggestions(context.Background(), samplePNG, "sk-test")

	assert.Equal(t, []string{"Boost saturation", "Add vignette", "Crop to 4:5", "Warm tones", "Soften skin"}, got)
	assert.Equal(t, "suggest", stub.Last().Operation)
	assert.Equal(t, suggestMaxTokens, stub.Last().MaxTokens)
}

func TestGenerateSuggestionsFallback(t *testing.T) {
	for name, stub := range map[string]*oracletest.Stub{
		"error":       oracletest.Failing(networkErr),
		"not a list":  oracletest.Text(`{"suggestions": "none"}`),
		"empty list":  oracletest.Text(`[]`),
		"blank items": oracletest.Text(`["", " "]`),
	} {
		t.Run(name, func(t *testing.T) {
			got := New(stub, "").GenerateSuggestions(context.Background(), samplePNG, "")
			assert.Equal(t, FallbackSuggestions, got)
		})
	}
}

func TestGenerateSuggestionsFallbackIsACopy(t *testing.T) {
	got := New(oracletest.Failing(networkErr), "").GenerateSuggestions(context.Background(), samplePNG, "")
	got[0] = "changed"
	assert.Equal(t, "Brighten + Warm Look", FallbackSuggestions[0])
}

func TestChat(t *testing.T) {
	stub := oracletest.Text("Try lifting the shadows a little.")
	history := []Turn{
		{Role: "user", Content: "What do you think?"},
		{Role: "assistant", Content: "It's a lovely shot."},
		{Role: "assistant", Content: "   "},
	}

	reply := New(stub, "").Chat(context.Background(), "How do I fix the dark corner?", samplePNG, history, "sk-test")

	assert.Equal(t, "Try lifting the shadows a little.", reply)
	req := stub.Last()
	assert.Equal(t, "chat", req.Operation)
	assert.Equal(t, chatMaxTokens, req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.7, *req.Temperature, 1e-9)

	require.Len(t, req.Messages, 4)
	assert.Equal(t, oracle.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, oracle.RoleUser, req.Messages[1].Role)
	assert.Equal(t, oracle.RoleAssistant, req.Messages[2].Role)
	last := req.Messages[3]
	assert.Equal(t, oracle.RoleUser, last.Role)
	assert.Equal(t, "How do I fix the dark corner?", last.Text)
	assert.Equal(t, samplePNG, last.ImageDataURL)
}

func TestChatWithoutImage(t *testing.T) {
	stub := oracletest.Text("Sure.")
	reply := New(stub, "").Chat(context.Background(), "hello", "", nil, "sk-test")
	assert.Equal(t, "Sure.", reply)
	assert.Empty(t, stub.Last().Messages[1].ImageDataURL)
}

func TestChatFallbacks(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ChatUnavailableReply, New(oracletest.Failing(networkErr), "").Chat(ctx, "hi", samplePNG, nil, "sk"))
	assert.Equal(t, ChatUnavailableReply, New(oracletest.Failing(oracle.ErrNoKey), "").Chat(ctx, "hi", "", nil, ""))
	assert.Equal(t, ChatEmptyReply, New(oracletest.Text("  \n"), "").Chat(ctx, "hi", samplePNG, nil, "sk"))

	stub := oracletest.Text("unused")
	assert.Equal(t, ChatUnavailableReply, New(stub, "").Chat(ctx, "hi", "data:image/png;base64,%%%", nil, "sk"))
	assert.Empty(t, stub.Requests())
}
