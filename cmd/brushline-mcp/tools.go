package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fpang/brushline/internal/cli"
	"github.com/fpang/brushline/internal/command"
	"github.com/fpang/brushline/internal/dispatch"
	"github.com/fpang/brushline/internal/vision"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// editor is the part of editor.Service the tools call.
type editor interface {
	ParseCommand(ctx context.Context, text, imageData, apiKey string) *command.Command
	PerformImageEdit(ctx context.Context, request, imageData, apiKey string) dispatch.Result
	AnalyzeImage(ctx context.Context, imageData, apiKey string) vision.Analysis
	GenerateSuggestions(ctx context.Context, imageData, apiKey string) []string
}

type tools struct {
	editor editor
}

type parseCommandInput struct {
	Instruction string `json:"instruction" jsonschema:"plain-language edit instruction, e.g. make the sky more blue"`
}

type commandOutput struct {
	Understood  bool           `json:"understood"`
	Type        string         `json:"type,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Description string         `json:"description,omitempty"`
	Confidence  float64        `json:"confidence,omitempty"`
}

type imageInput struct {
	ImagePath string `json:"imagePath" jsonschema:"path to a PNG, JPEG, GIF or WebP file"`
}

type editImageInput struct {
	ImagePath   string `json:"imagePath" jsonschema:"path to a PNG, JPEG, GIF or WebP file"`
	Instruction string `json:"instruction" jsonschema:"plain-language edit instruction"`
	OutputDir   string `json:"outputDir,omitempty" jsonschema:"directory for the edited file, default: next to the input"`
}

type editImageOutput struct {
	Outcome     string `json:"outcome"`
	Description string `json:"description"`
	OutputPath  string `json:"outputPath,omitempty"`
}

type suggestOutput struct {
	Suggestions []string `json:"suggestions"`
}

func (t *tools) parseCommand(ctx context.Context, _ *mcp.CallToolRequest, in parseCommandInput) (*mcp.CallToolResult, commandOutput, error) {
	if in.Instruction == "" {
		return nil, commandOutput{}, errors.New("instruction is required")
	}
	out, err := toCommandOutput(t.editor.ParseCommand(ctx, in.Instruction, "", ""))
	return nil, out, err
}

func (t *tools) editImage(ctx context.Context, _ *mcp.CallToolRequest, in editImageInput) (*mcp.CallToolResult, editImageOutput, error) {
	if in.Instruction == "" {
		return nil, editImageOutput{}, errors.New("instruction is required")
	}
	imageData, err := cli.ReadImage(in.ImagePath)
	if err != nil {
		return nil, editImageOutput{}, err
	}

	res := t.editor.PerformImageEdit(ctx, in.Instruction, imageData, "")
	out := editImageOutput{Outcome: string(res.Outcome), Description: res.Description}
	if res.Outcome != dispatch.OutcomeApplied {
		return nil, out, nil
	}

	if in.OutputDir != "" {
		if err := os.MkdirAll(in.OutputDir, 0o755); err != nil {
			return nil, editImageOutput{}, fmt.Errorf("create output directory: %w", err)
		}
	}
	out.OutputPath = cli.OutputPath(in.ImagePath, in.OutputDir, res.EditedImageData)
	if err := cli.WriteImage(out.OutputPath, res.EditedImageData); err != nil {
		return nil, editImageOutput{}, err
	}
	log.Info().Str("input", in.ImagePath).Str("output", out.OutputPath).Msg("Edited image written")
	return nil, out, nil
}

func (t *tools) analyzeImage(ctx context.Context, _ *mcp.CallToolRequest, in imageInput) (*mcp.CallToolResult, vision.Analysis, error) {
	imageData, err := cli.ReadImage(in.ImagePath)
	if err != nil {
		return nil, vision.Analysis{}, err
	}
	return nil, t.editor.AnalyzeImage(ctx, imageData, ""), nil
}

func (t *tools) suggestEdits(ctx context.Context, _ *mcp.CallToolRequest, in imageInput) (*mcp.CallToolResult, suggestOutput, error) {
	imageData, err := cli.ReadImage(in.ImagePath)
	if err != nil {
		return nil, suggestOutput{}, err
	}
	return nil, suggestOutput{Suggestions: t.editor.GenerateSuggestions(ctx, imageData, "")}, nil
}

// toCommandOutput flattens cmd through its wire encoding so the parameters
// appear as a plain object.
func toCommandOutput(cmd *command.Command) (commandOutput, error) {
	if cmd == nil {
		return commandOutput{Understood: false}, nil
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return commandOutput{}, fmt.Errorf("encode command: %w", err)
	}
	var out commandOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return commandOutput{}, fmt.Errorf("decode command: %w", err)
	}
	out.Understood = cmd.Confident()
	return out, nil
}
