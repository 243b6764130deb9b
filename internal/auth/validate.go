package auth

import (
	"context"
	"time"

	"github.com/fpang/brushline/internal/metrics"
	"github.com/fpang/brushline/internal/oracle"
	"github.com/rs/zerolog/log"
)

// Messages returned by the key check.
const (
	MsgKeyValid    = "API key is valid"
	MsgKeyRequired = "API key is required"
	MsgKeyInvalid  = "Invalid API key. Please check and try again."
)

// ValidateAPIKey checks key against the oracle with a minimal call. It
// returns nil for a usable key, otherwise an *oracle.Error whose Kind says
// why the key was refused.
func ValidateAPIKey(ctx context.Context, client oracle.Client, key string) error {
	log.Debug().
		Bool("has_api_key", key != "").
		Int("key_length", len(key)).
		Msg("Validating API key")

	start := time.Now()
	err := client.ValidateKey(ctx, key)
	elapsed := time.Since(start)

	result := "success"
	if err != nil {
		result = string(oracle.KindOf(err))
	}
	if metrics.Enabled() {
		metrics.New(metrics.Namespace).
			Dimension("Result", result).
			Metric("ApiKeyValidationMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
			Count("ApiKeyValidationResult").
			Flush()
	}

	if err != nil {
		log.Warn().Err(err).Str("result", result).Dur("duration", elapsed).Msg("API key validation failed")
		return err
	}
	log.Info().Dur("duration", elapsed).Msg("API key validated")
	return nil
}

// Describe turns a validation error into a message for the user.
func Describe(err error) string {
	if err == nil {
		return MsgKeyValid
	}
	switch oracle.KindOf(err) {
	case oracle.KindNoKey:
		return MsgKeyRequired
	case oracle.KindInvalidKey:
		return MsgKeyInvalid
	case oracle.KindQuota:
		return "API quota exceeded. Please try again later."
	case oracle.KindNetwork:
		return "Could not reach the AI provider. Check your connection and try again."
	case oracle.KindUnavailable:
		return "AI features are disabled on this server."
	default:
		return MsgKeyInvalid
	}
}
