package command

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxTypeDistance is the largest edit distance at which a model-supplied type
// is snapped onto a known type ("adjust-color" -> "adjust-colors").
const maxTypeDistance = 2

// NormalizeType canonicalises a command type returned by a language model.
// Case, underscores and spaces are normalised first; a near miss within
// maxTypeDistance of exactly one known type is snapped onto it. Anything
// else is returned as normalised so Validate can reject it.
func NormalizeType(raw string) Type {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", "-", " ", "-").Replace(s)
	t := Type(s)
	if t.Known() || s == "" {
		return t
	}

	best := Type("")
	bestDist := maxTypeDistance + 1
	tie := false
	for _, k := range Types {
		d := levenshtein.ComputeDistance(s, string(k))
		switch {
		case d < bestDist:
			best, bestDist, tie = k, d, false
		case d == bestDist:
			tie = true
		}
	}
	if best == "" || tie {
		return t
	}
	return best
}
