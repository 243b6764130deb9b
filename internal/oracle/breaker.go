package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/fpang/brushline/internal/metrics"
	"github.com/rs/zerolog/log"
	cb "github.com/sony/gobreaker"
)

// breakerOpenTimeout is how long the breaker stays open before letting a
// probe request through.
const breakerOpenTimeout = 30 * time.Second

// Breaker short-circuits calls to an unhealthy oracle. Only transport-level
// failures count towards tripping it; a rejected key or a rate limit says
// nothing about the provider's health.
type Breaker struct {
	next Client
	cb   *cb.CircuitBreaker
}

// NewBreaker wraps next in a circuit breaker that opens after failures
// consecutive transport failures.
func NewBreaker(next Client, name string, failures uint32) *Breaker {
	if name == "" {
		name = ProviderOpenAI
	}
	settings := cb.Settings{
		Name:        "oracle-" + name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts cb.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || countsAsHealthy(err)
		},
		OnStateChange: func(name string, from, to cb.State) {
			log.Warn().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Oracle circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	}
	return &Breaker{next: next, cb: cb.NewCircuitBreaker(settings)}
}

func countsAsHealthy(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch KindOf(err) {
	case KindNoKey, KindInvalidKey, KindQuota:
		return true
	default:
		return false
	}
}

// Complete forwards to the wrapped client unless the breaker is open.
func (b *Breaker) Complete(ctx context.Context, req Request) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, req)
	})
	if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
		return "", &Error{Kind: KindUnavailable, Message: "oracle circuit breaker is open", Err: err}
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// ValidateKey bypasses the breaker so a key check always reaches the
// provider.
func (b *Breaker) ValidateKey(ctx context.Context, apiKey string) error {
	return b.next.ValidateKey(ctx, apiKey)
}

// State reports the breaker state.
func (b *Breaker) State() cb.State {
	return b.cb.State()
}
