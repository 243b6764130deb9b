package main

import (
	"context"
	"errors"

	"github.com/fpang/brushline/internal/cli"
	"github.com/fpang/brushline/internal/command"
	"github.com/fpang/brushline/internal/dispatch"
	"github.com/fpang/brushline/internal/imageops"
	"github.com/fpang/brushline/internal/vision"
)

// backend is implemented by the in-process editor and by client.Client.
type backend interface {
	ParseCommand(ctx context.Context, text string) (*command.Command, error)
	Edit(ctx context.Context, request, imageData string) (dispatch.Result, error)
	Analyze(ctx context.Context, imageData string) (vision.Analysis, error)
	Suggest(ctx context.Context, imageData string) ([]string, error)
	Chat(ctx context.Context, message, imageData string, history []vision.Turn) (string, error)
	TestKey(ctx context.Context) error
	Info(ctx context.Context, imageData string) (imageops.Info, error)
}

var errNotUnderstood = errors.New("could not parse command, please try rephrasing your request")

// local runs the editor in-process.
type local struct {
	rt     *cli.Runtime
	apiKey string
}

func (l *local) ParseCommand(ctx context.Context, text string) (*command.Command, error) {
	cmd := l.rt.Editor.ParseCommand(ctx, text, "", l.apiKey)
	if cmd == nil {
		return nil, errNotUnderstood
	}
	return cmd, nil
}

func (l *local) Edit(ctx context.Context, request, imageData string) (dispatch.Result, error) {
	return l.rt.Editor.PerformImageEdit(ctx, request, imageData, l.apiKey), nil
}

func (l *local) Analyze(ctx context.Context, imageData string) (vision.Analysis, error) {
	return l.rt.Editor.AnalyzeImage(ctx, imageData, l.apiKey), nil
}

func (l *local) Suggest(ctx context.Context, imageData string) ([]string, error) {
	return l.rt.Editor.GenerateSuggestions(ctx, imageData, l.apiKey), nil
}

func (l *local) Chat(ctx context.Context, message, imageData string, history []vision.Turn) (string, error) {
	return l.rt.Editor.Chat(ctx, message, imageData, history, l.apiKey), nil
}

func (l *local) TestKey(ctx context.Context) error {
	return l.rt.Editor.TestAPIKey(ctx, l.apiKey)
}

func (l *local) Info(_ context.Context, imageData string) (imageops.Info, error) {
	return imageops.ImageInfo(imageData)
}
