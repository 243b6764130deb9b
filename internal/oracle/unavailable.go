package oracle

import "context"

// Unavailable is a Client that always fails. It runs the service offline,
// where every operation answers from its deterministic fallback.
type Unavailable struct{}

var errUnavailable = &Error{Kind: KindUnavailable, Message: "oracle is disabled"}

func (Unavailable) Complete(context.Context, Request) (string, error) {
	return "", errUnavailable
}

func (Unavailable) ValidateKey(context.Context, string) error {
	return errUnavailable
}
