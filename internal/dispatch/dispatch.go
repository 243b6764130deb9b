package dispatch

import (
	"context"
	"fmt"

	"github.com/fpang/brushline/internal/command"
	"github.com/fpang/brushline/internal/imageops"
	"github.com/fpang/brushline/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Input is one edit to apply.
type Input struct {
	Command *command.Command
	// ImageData is a data URL or bare base64 payload.
	ImageData string
	// RequestText is the user's original wording. The command description is
	// used when it is empty.
	RequestText string
}

// Result is the outcome of Dispatch. EditedImageData is the input payload,
// byte for byte, unless at least one operation was applied.
type Result struct {
	EditedImageData string        `json:"editedImageData"`
	Description     string        `json:"description"`
	Outcome         Outcome       `json:"outcome"`
	Applied         []imageops.Op `json:"-"`
}

// Dispatch applies in.Command to in.ImageData. Applied edits are returned as
// a PNG data URL.
func Dispatch(ctx context.Context, in Input) (res Result) {
	cmdType := "none"
	if in.Command != nil {
		cmdType = string(in.Command.Type)
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("type", cmdType).Msg("Edit panicked")
			res = failed(in.ImageData)
		}
		metrics.ObserveEdit(cmdType, string(res.Outcome))
	}()

	requestText := in.RequestText
	if requestText == "" && in.Command != nil {
		requestText = in.Command.Description
	}

	decision := Plan(in.Command, requestText)
	if decision.Outcome == OutcomeGated {
		log.Info().Str("type", cmdType).Msg("Command missing or below confidence threshold")
		return unchanged(in.ImageData, decision)
	}

	if decision.Outcome != OutcomeApplied {
		log.Info().
			Str("type", cmdType).
			Str("outcome", string(decision.Outcome)).
			Msg("Command parsed, no edit applied")
		return unchanged(in.ImageData, decision)
	}

	img, format, err := imageops.Decode(in.ImageData)
	if err != nil {
		log.Error().Err(err).Str("type", cmdType).Msg("Failed to decode image for edit")
		return failed(in.ImageData)
	}

	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Str("type", cmdType).Msg("Edit cancelled")
		return failed(in.ImageData)
	}

	out, err := imageops.Apply(img, decision.Ops)
	if err != nil {
		log.Error().Err(err).Str("type", cmdType).Msg("Failed to apply edit")
		return failed(in.ImageData)
	}
	encoded, err := imageops.EncodePNG(out)
	if err != nil {
		log.Error().Err(err).Str("type", cmdType).Msg("Failed to encode edited image")
		return failed(in.ImageData)
	}

	log.Info().
		Str("type", cmdType).
		Str("input_format", format).
		Str("ops", fmt.Sprint(decision.Ops)).
		Msg("Edit applied")

	return Result{
		EditedImageData: encoded,
		Description:     decision.Reply,
		Outcome:         OutcomeApplied,
		Applied:         decision.Ops,
	}
}

func unchanged(imageData string, d Decision) Result {
	return Result{EditedImageData: imageData, Description: d.Reply, Outcome: d.Outcome}
}

func failed(imageData string) Result {
	return Result{EditedImageData: imageData, Description: MsgFailed, Outcome: OutcomeFailed}
}
