package imageops

import (
	"errors"
	"fmt"
)

// ErrUnknownEffect is returned by ApplyEffect for an effect it does not know.
var ErrUnknownEffect = errors.New("unknown effect")

// EffectParams are the slider values sent by the editor's manual controls.
// Only the field matching the requested effect is read; a zero value leaves
// the image untouched.
type EffectParams struct {
	Brightness float64 `json:"brightness,omitempty"`
	Contrast   float64 `json:"contrast,omitempty"`
	Saturation float64 `json:"saturation,omitempty"`
	Blur       float64 `json:"blur,omitempty"`
	Sharpen    float64 `json:"sharpen,omitempty"`
	Hue        float64 `json:"hue,omitempty"`
}

// effectOp maps a manual effect to its operation. The bool is false when the
// parameter is zero and nothing should be applied.
func effectOp(effect string, p EffectParams) (Op, bool, error) {
	switch effect {
	case "brightness":
		return Brightness(p.Brightness), p.Brightness != 0, nil
	case "contrast":
		return Linear(p.Contrast, 0), p.Contrast != 0, nil
	case "saturation":
		return Saturation(p.Saturation), p.Saturation != 0, nil
	case "blur":
		return Blur(p.Blur), p.Blur != 0, nil
	case "sharpen":
		return Sharpen(p.Sharpen), p.Sharpen != 0, nil
	case "hue":
		return Hue(p.Hue), p.Hue != 0, nil
	default:
		return Op{}, false, fmt.Errorf("%w: %s", ErrUnknownEffect, effect)
	}
}

// ApplyEffect applies one manual effect to payload and returns a JPEG data
// URL. The image is re-encoded even when the parameter is zero.
func ApplyEffect(payload, effect string, params EffectParams) (string, error) {
	op, apply, err := effectOp(effect, params)
	if err != nil {
		return "", err
	}

	img, _, err := Decode(payload)
	if err != nil {
		return "", fmt.Errorf("apply %s: %w", effect, err)
	}

	var ops []Op
	if apply {
		ops = append(ops, op)
	}
	out, err := Apply(img, ops)
	if err != nil {
		return "", fmt.Errorf("apply %s: %w", effect, err)
	}
	return EncodeJPEG(out)
}
