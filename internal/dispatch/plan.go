// Package dispatch applies a parsed command to an image.
//
// Plan decides what a command means for the image without touching pixels;
// Dispatch decodes the payload, runs the planned operations and re-encodes
// the result. Dispatch never fails: every problem becomes an explanatory
// description next to the untouched input image.
package dispatch

import (
	"fmt"

	"github.com/fpang/brushline/internal/command"
	"github.com/fpang/brushline/internal/imageops"
)

// User-facing replies.
const (
	MsgNotUnderstood = "I'm sorry, I wasn't able to understand that specific edit. I can help with adjustments like brightness, contrast, saturation, and applying filters. Could you please rephrase your request?"
	MsgRemovalSoon   = "Object and background removal are advanced features that are coming soon! For now, no changes have been applied. I can help with other edits like brightness, contrast, and filters!"
	MsgCropSoon      = "Cropping and resizing are features that are coming soon! For now, no changes have been applied. I can help with other edits like brightness, contrast, and filters!"
	MsgFailed        = "I apologize, but I encountered an error while processing your request. Please try a different edit."

	msgUnsupportedFmt = `I understood that you want to perform a "%s" action, but I don't have that capability yet. No changes have been applied.`
	msgNoActionFmt    = `I understood you wanted to "%s", but I couldn't find a specific action to apply. I can handle brightness, contrast, saturation, blur, sharpen, and grayscale edits.`
)

// Outcome labels what the dispatcher did with a command.
type Outcome string

const (
	OutcomeApplied     Outcome = "applied"
	OutcomeGated       Outcome = "gated"
	OutcomeComingSoon  Outcome = "coming-soon"
	OutcomeUnsupported Outcome = "unsupported"
	OutcomeNoAction    Outcome = "no-action"
	OutcomeFailed      Outcome = "failed"
)

// Decision is the planned handling of a command.
type Decision struct {
	Outcome Outcome
	// Ops are the operations to run, in order. Empty unless Outcome is
	// OutcomeApplied.
	Ops []imageops.Op
	// Reply is the description returned with the image.
	Reply string
}

// Plan decides how cmd applies to an image. requestText is quoted back to the
// user when the command carries nothing actionable.
func Plan(cmd *command.Command, requestText string) Decision {
	if !cmd.Confident() {
		return Decision{Outcome: OutcomeGated, Reply: MsgNotUnderstood}
	}

	var ops []imageops.Op
	switch cmd.Type {
	case command.TypeEnhance, command.TypeAdjustColors:
		if p, ok := cmd.Parameters.(*command.AdjustParams); ok {
			ops = adjustOps(p)
		}
	case command.TypeFilter:
		if p, ok := cmd.Parameters.(*command.FilterParams); ok && p.Grayscale {
			ops = append(ops, imageops.Grayscale())
		}
	case command.TypeRemoveObject, command.TypeRemoveBackground:
		return Decision{Outcome: OutcomeComingSoon, Reply: MsgRemovalSoon}
	case command.TypeCrop:
		return Decision{Outcome: OutcomeComingSoon, Reply: MsgCropSoon}
	default:
		return Decision{Outcome: OutcomeUnsupported, Reply: fmt.Sprintf(msgUnsupportedFmt, cmd.Type)}
	}

	if len(ops) == 0 {
		return Decision{Outcome: OutcomeNoAction, Reply: fmt.Sprintf(msgNoActionFmt, requestText)}
	}
	return Decision{Outcome: OutcomeApplied, Ops: ops, Reply: cmd.Description}
}

// adjustOps folds the set adjustment parameters into operations in a fixed
// order. Nil and zero values are skipped.
func adjustOps(p *command.AdjustParams) []imageops.Op {
	var ops []imageops.Op
	if v, ok := set(p.Brightness); ok {
		ops = append(ops, imageops.Brightness(v))
	}
	if v, ok := set(p.Contrast); ok {
		ops = append(ops, imageops.Linear(v, -128*(v-1)))
	}
	if v, ok := set(p.Saturation); ok {
		ops = append(ops, imageops.Saturation(v))
	}
	if v, ok := set(p.Blur); ok {
		ops = append(ops, imageops.Blur(v))
	}
	if p.Sharpen {
		ops = append(ops, imageops.Sharpen(imageops.DefaultSharpenSigma))
	}
	if v, ok := set(p.Gamma); ok {
		ops = append(ops, imageops.Gamma(v))
	}
	return ops
}

func set(v *float64) (float64, bool) {
	if v == nil || *v == 0 {
		return 0, false
	}
	return *v, true
}
