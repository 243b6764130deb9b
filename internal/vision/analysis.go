// Package vision answers the oracle-backed questions about an image that are
// not edits: a structured analysis, a list of edit suggestions, and free
// conversation. Every call has a fixed fallback answer and never returns an
// error.
package vision

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var hexColor = regexp.MustCompile(`^#[0-9A-F]{6}$`)

// Analysis is a structured description of an image.
type Analysis struct {
	Faces          int      `json:"faces"`
	Sky            bool     `json:"sky"`
	Background     string   `json:"background"`
	DominantColors []string `json:"dominantColors"`
	Contrast       string   `json:"contrast"`
	Brightness     string   `json:"brightness"`
	Objects        []string `json:"objects"`
	Scene          string   `json:"scene"`
	Quality        string   `json:"quality"`
	Suggestions    []string `json:"suggestions"`
}

// DominantColorCount is the fixed length of Analysis.DominantColors.
const DominantColorCount = 5

var (
	contrastLevels   = []string{"low", "medium", "high"}
	brightnessLevels = []string{"dark", "normal", "bright"}
	qualityLevels    = []string{"poor", "fair", "good", "excellent"}
)

// fallbackPalette pads short colour lists and backs FallbackAnalysis.
var fallbackPalette = []string{"#87CEEB", "#228B22", "#FFD700", "#F5DEB3", "#696969"}

// FallbackSuggestions are returned when the oracle cannot suggest edits.
var FallbackSuggestions = []string{
	"Brighten + Warm Look",
	"Cinematic Crop + Desaturate",
	"Auto-enhance + Retouch Face",
	"Vintage Filter",
	"High Contrast B&W",
}

// FallbackAnalysis returns the analysis used when the oracle cannot answer.
func FallbackAnalysis() Analysis {
	return Analysis{
		Faces:          1,
		Sky:            true,
		Background:     "outdoor",
		DominantColors: slices.Clone(fallbackPalette),
		Contrast:       "medium",
		Brightness:     "normal",
		Objects:        []string{"person", "tree", "sky"},
		Scene:          "outdoor portrait",
		Quality:        "good",
		Suggestions:    slices.Clone(FallbackSuggestions[:3]),
	}
}

// normalize lower-cases the enum fields, fixes the colour list length,
// replaces entries that are not #RRGGBB from the fallback palette and rejects
// values outside the enums.
func (a *Analysis) normalize() error {
	a.Contrast = strings.ToLower(strings.TrimSpace(a.Contrast))
	a.Brightness = strings.ToLower(strings.TrimSpace(a.Brightness))
	a.Quality = strings.ToLower(strings.TrimSpace(a.Quality))

	switch {
	case a.Faces < 0:
		return fmt.Errorf("faces %d is negative", a.Faces)
	case !slices.Contains(contrastLevels, a.Contrast):
		return fmt.Errorf("contrast %q is not one of %v", a.Contrast, contrastLevels)
	case !slices.Contains(brightnessLevels, a.Brightness):
		return fmt.Errorf("brightness %q is not one of %v", a.Brightness, brightnessLevels)
	case !slices.Contains(qualityLevels, a.Quality):
		return fmt.Errorf("quality %q is not one of %v", a.Quality, qualityLevels)
	}

	colors := make([]string, 0, DominantColorCount)
	for _, c := range a.DominantColors {
		if len(colors) == DominantColorCount {
			break
		}
		c = strings.ToUpper(strings.TrimSpace(c))
		if !hexColor.MatchString(c) {
			c = fallbackPalette[len(colors)]
		}
		colors = append(colors, c)
	}
	for i := len(colors); i < DominantColorCount; i++ {
		colors = append(colors, fallbackPalette[i])
	}
	a.DominantColors = colors

	if a.Objects == nil {
		a.Objects = []string{}
	}
	if a.Suggestions == nil {
		a.Suggestions = []string{}
	}
	return nil
}
