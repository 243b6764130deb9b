package cli

import (
	"github.com/fpang/brushline/internal/oracle"
)

// KeyErrorHint returns a user-facing hint for a failed key check.
func KeyErrorHint(err error) string {
	switch oracle.KindOf(err) {
	case oracle.KindNoKey:
		return "No API key configured. Set BRUSHLINE_API_KEY or store it in ~/.brushline/credentials.gpg"
	case oracle.KindInvalidKey:
		return "Invalid API key. Please check your API key and try again"
	case oracle.KindNetwork:
		return "Network error. Please check your internet connection"
	case oracle.KindQuota:
		return "API quota exceeded. Please try again later or check your usage limits"
	case oracle.KindUnavailable:
		return "The oracle is disabled (provider \"offline\") or temporarily unavailable"
	default:
		return "API key validation failed"
	}
}
