package command

import "strings"

// fallbackRule maps keyword presence to a fixed command. All keywords must
// appear in the lower-cased input for the rule to match.
type fallbackRule struct {
	keywords []string
	build    func() *Command
}

// fallbackRules are evaluated in order; the first match wins. An input
// containing both "contrast" and "brighten" therefore yields the contrast
// command.
var fallbackRules = []fallbackRule{
	{
		keywords: []string{"sky", "blue"},
		build: func() *Command {
			return &Command{
				Type:        TypeAdjustColors,
				Parameters:  &AdjustParams{Target: "sky", Hue: "blue", Saturation: Float(1.2)},
				Description: "Making sky more blue",
				Confidence:  0.8,
			}
		},
	},
	{
		keywords: []string{"remove", "background"},
		build: func() *Command {
			return &Command{
				Type:        TypeRemoveBackground,
				Parameters:  &RemoveBackgroundParams{Method: "ai-segmentation"},
				Description: "Removing background",
				Confidence:  0.9,
			}
		},
	},
	{
		keywords: []string{"contrast"},
		build: func() *Command {
			return &Command{
				Type:        TypeEnhance,
				Parameters:  &AdjustParams{Contrast: Float(1.3)},
				Description: "Increasing contrast",
				Confidence:  0.7,
			}
		},
	},
	{
		keywords: []string{"brighten"},
		build: func() *Command {
			return &Command{
				Type:        TypeEnhance,
				Parameters:  &AdjustParams{Brightness: Float(1.2)},
				Description: "Brightening image",
				Confidence:  0.7,
			}
		},
	},
}

// BasicParse is the deterministic keyword parser used when the oracle is
// unavailable or returns something unusable. It returns nil when no rule
// matches.
func BasicParse(text string) *Command {
	lower := strings.ToLower(text)
	for _, rule := range fallbackRules {
		if containsAll(lower, rule.keywords) {
			return rule.build()
		}
	}
	return nil
}

func containsAll(s string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(s, k) {
			return false
		}
	}
	return true
}
