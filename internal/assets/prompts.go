// Package assets embeds the prompt templates sent to the oracle.
//
// Prompts live as text files under prompts/ so they can be reviewed and
// edited without touching Go code.
package assets

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

// CommandSystemPrompt frames the model as a retoucher for command parsing.
//
//go:embed prompts/command-system.txt
var CommandSystemPrompt string

// AnalyzePrompt asks for a structured analysis of the attached image.
//
//go:embed prompts/analyze.txt
var AnalyzePrompt string

// SuggestPrompt asks for five edit suggestions as a JSON array.
//
//go:embed prompts/suggest.txt
var SuggestPrompt string

// ChatSystemPrompt sets the tone of the conversational assistant.
//
//go:embed prompts/chat-system.txt
var ChatSystemPrompt string

//go:embed prompts/command.txt
var commandTemplate string

var commandPromptTmpl = template.Must(template.New("command").Parse(commandTemplate))

// CommandType describes one command type in the parse prompt.
type CommandType struct {
	Name    string
	Summary string
}

// CommandParam describes one accepted parameter in the parse prompt.
type CommandParam struct {
	Name   string
	Detail string
}

// CommandPromptData is the dynamic content of the parse prompt.
type CommandPromptData struct {
	Request string
	Types   []CommandType
	Params  []CommandParam
}

// RenderCommandPrompt renders the instruction prompt for parsing a request.
func RenderCommandPrompt(data CommandPromptData) (string, error) {
	var buf bytes.Buffer
	if err := commandPromptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render command prompt: %w", err)
	}
	return buf.String(), nil
}
