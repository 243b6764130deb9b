package interpreter

import (
	"fmt"

	"github.com/fpang/brushline/internal/assets"
	"github.com/fpang/brushline/internal/command"
)

var typeSummaries = map[command.Type]string{
	command.TypeEnhance:          "general improvements (brightness, contrast, saturation, blur, sharpness, gamma); use for combined adjustments",
	command.TypeAdjustColors:     "targeted colour changes (saturation of a region or hue); set target and hue to describe the intent",
	command.TypeFilter:           "artistic filters such as black and white",
	command.TypeRemoveObject:     "remove one specific object (not yet supported by the editor, but still parse it)",
	command.TypeRemoveBackground: "remove the whole background (not yet supported by the editor, but still parse it)",
	command.TypeCrop:             "crop, resize or recompose (not yet supported by the editor, but still parse it)",
	command.TypeRetouch:          "portrait retouching of an area such as skin or eyes (not yet supported)",
	command.TypeStyleTransfer:    "restyle the image as a named style (not yet supported)",
}

func rangeDetail(r command.Range, note string) string {
	return fmt.Sprintf("%g to %g (%s)", r.Min, r.Max, note)
}

var paramDetails = []assets.CommandParam{
	{Name: "brightness", Detail: rangeDetail(command.BrightnessRange, "1.0 is no change")},
	{Name: "contrast", Detail: rangeDetail(command.ContrastRange, "1.0 is no change, 1.5 is a strong increase")},
	{Name: "saturation", Detail: rangeDetail(command.SaturationRange, "1.0 is no change, 0.0 is grayscale")},
	{Name: "blur", Detail: rangeDetail(command.BlurRange, "gaussian sigma, 1-5 is a light blur")},
	{Name: "sharpen", Detail: "true to apply standard sharpening"},
	{Name: "gamma", Detail: rangeDetail(command.GammaRange, "1.0 is no change")},
	{Name: "target", Detail: `adjust-colors only, the region to change, e.g. "sky"`},
	{Name: "hue", Detail: `adjust-colors only, the colour to move towards, e.g. "blue"`},
	{Name: "grayscale", Detail: "filter only, true converts to black and white"},
	{Name: "object_to_remove", Detail: `remove-object only, e.g. "the red car"`},
	{Name: "method", Detail: `remove-background only, e.g. "ai-segmentation"`},
	{Name: "width, height, aspect_ratio", Detail: `crop only, pixels or a ratio such as "16:9"`},
	{Name: "area", Detail: "retouch only, e.g. \"skin\""},
	{Name: "style", Detail: "style-transfer only, e.g. \"watercolor\""},
}

// BuildPrompt renders the instruction prompt for text.
func BuildPrompt(text string) (string, error) {
	types := make([]assets.CommandType, 0, len(command.Types))
	for _, t := range command.Types {
		types = append(types, assets.CommandType{Name: string(t), Summary: typeSummaries[t]})
	}
	return assets.RenderCommandPrompt(assets.CommandPromptData{
		Request: text,
		Types:   types,
		Params:  paramDetails,
	})
}
