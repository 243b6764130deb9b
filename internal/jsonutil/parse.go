// Package jsonutil pulls JSON payloads out of model completions, which often
// arrive wrapped in markdown code fences or surrounded by a sentence of prose.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a completion contains no JSON value.
var ErrNoJSON = errors.New("no JSON content found")

// StripFences returns the body of a ```-fenced block, or text unchanged when
// it is not fenced. The language tag on the opening fence is ignored.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := text[3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		return text
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// Extract returns the span from the first opening delimiter to the matching
// last closing delimiter. open is '{' or '['; zero accepts whichever comes
// first.
func Extract(text string, open byte) (string, error) {
	text = StripFences(text)

	start := -1
	switch open {
	case '{', '[':
		start = strings.IndexByte(text, open)
	default:
		start = strings.IndexAny(text, "{[")
		if start >= 0 {
			open = text[start]
		}
	}
	if start < 0 {
		return "", ErrNoJSON
	}

	closer := byte('}')
	if open == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end < start {
		return "", fmt.Errorf("%w: no closing %c", ErrNoJSON, closer)
	}
	return text[start : end+1], nil
}

// Object extracts a single JSON object from a completion.
func Object(text string) ([]byte, error) {
	s, err := Extract(text, '{')
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// Parse extracts JSON of the kind T expects from a completion and decodes it.
// Slices and arrays look for '[', everything else for '{'. With strict set,
// fields T does not declare are rejected.
func Parse[T any](text string, strict bool) (T, error) {
	var out T
	open := byte('{')
	if looksLikeSlice(&out) {
		open = '['
	}

	raw, err := Extract(text, open)
	if err != nil {
		return out, fmt.Errorf("%w (completion length %d)", err, len(text))
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&out); err != nil {
		var zero T
		return zero, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview(raw))
	}
	return out, nil
}

func looksLikeSlice(v any) bool {
	switch v.(type) {
	case *[]string, *[]any, *[]map[string]any, *[]json.RawMessage:
		return true
	default:
		return false
	}
}

func preview(s string) string {
	const limit = 200
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
