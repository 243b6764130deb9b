package oracle

import (
	"context"
	"errors"
	"strings"
)

// Kind categorises an oracle failure.
type Kind string

const (
	// KindNoKey means no credential was supplied.
	KindNoKey Kind = "no-key"
	// KindInvalidKey means the provider rejected the credential.
	KindInvalidKey Kind = "invalid-key"
	// KindNetwork covers connectivity problems, timeouts and 5xx responses.
	KindNetwork Kind = "network"
	// KindQuota means the provider rate limited the call.
	KindQuota Kind = "quota"
	// KindUnavailable means the oracle is disabled or the breaker is open.
	KindUnavailable Kind = "unavailable"
	// KindUnknown is anything else.
	KindUnknown Kind = "unknown"
)

// Error is a classified oracle failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindUnknown
}

// IsAuth reports whether err is a missing or rejected credential.
func IsAuth(err error) bool {
	k := KindOf(err)
	return k == KindNoKey || k == KindInvalidKey
}

// ErrNoKey is returned when a request carries no credential.
var ErrNoKey = &Error{Kind: KindNoKey, Message: "API key is required for AI operations"}

// classifyStatus maps an HTTP status code from a provider to an *Error.
func classifyStatus(code int, message string, err error) *Error {
	switch {
	case code == 400:
		return &Error{Kind: KindInvalidKey, Message: "bad request, the API key may be malformed", Err: err}
	case code == 401 || code == 403:
		return &Error{Kind: KindInvalidKey, Message: "API key is invalid, expired, or lacks permissions", Err: err}
	case code == 429:
		return &Error{Kind: KindQuota, Message: "API rate limit exceeded, try again later", Err: err}
	case code >= 500:
		return &Error{Kind: KindNetwork, Message: "provider server error", Err: err}
	default:
		if message == "" {
			message = "provider error"
		}
		return &Error{Kind: KindUnknown, Message: message, Err: err}
	}
}

// classifyText classifies errors that carry no status code by their message.
func classifyText(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindNetwork, Message: "oracle call timed out", Err: err}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "api key not valid") ||
		strings.Contains(lower, "invalid api key") ||
		strings.Contains(lower, "incorrect api key") ||
		strings.Contains(lower, "api_key_invalid") ||
		strings.Contains(lower, "permission denied"):
		return &Error{Kind: KindInvalidKey, Message: "API key is invalid or has been revoked", Err: err}

	case strings.Contains(lower, "quota") ||
		strings.Contains(lower, "resource exhausted") ||
		strings.Contains(lower, "rate limit"):
		return &Error{Kind: KindQuota, Message: "API quota exceeded or rate limited", Err: err}

	case strings.Contains(lower, "connection") ||
		strings.Contains(lower, "network") ||
		strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "dial") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "unreachable") ||
		strings.Contains(lower, "eof"):
		return &Error{Kind: KindNetwork, Message: "network error reaching the oracle", Err: err}

	default:
		return &Error{Kind: KindUnknown, Message: "oracle call failed", Err: err}
	}
}
