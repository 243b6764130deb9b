// Package command defines the structured edit command produced by the
// interpreter and consumed by the dispatcher.
//
// A Command's parameters are a tagged union keyed by the command type: each
// type decodes its parameters into its own struct, and Validate rejects
// unknown fields and values outside the declared ranges. The JSON wire shape
// stays flat: {"type", "parameters": {...}, "description", "confidence"}.
package command

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Type is the kind of edit a command requests.
type Type string

// Known command types.
const (
	TypeEnhance          Type = "enhance"
	TypeRemoveBackground Type = "remove-background"
	TypeAdjustColors     Type = "adjust-colors"
	TypeCrop             Type = "crop"
	TypeFilter           Type = "filter"
	TypeRetouch          Type = "retouch"
	TypeStyleTransfer    Type = "style-transfer"
	TypeRemoveObject     Type = "remove-object"
)

// Types lists every known command type in prompt order.
var Types = []Type{
	TypeEnhance,
	TypeAdjustColors,
	TypeFilter,
	TypeRemoveObject,
	TypeRemoveBackground,
	TypeCrop,
	TypeRetouch,
	TypeStyleTransfer,
}

// Known reports whether t is one of the recognised command types.
func (t Type) Known() bool {
	for _, k := range Types {
		if k == t {
			return true
		}
	}
	return false
}

// ConfidenceThreshold is the minimum confidence at which the dispatcher will
// apply a command. Anything strictly below is refused.
const ConfidenceThreshold = 0.6

// Command is a structured representation of a requested edit.
type Command struct {
	Type        Type
	Parameters  Params
	Description string
	Confidence  float64
}

// Confident reports whether the command clears the confidence gate.
func (c *Command) Confident() bool {
	return c != nil && c.Confidence >= ConfidenceThreshold
}

// Params is implemented by every per-type parameter struct.
type Params interface {
	// Validate checks declared ranges for the variant.
	Validate() error
	// fields lists the JSON field names the variant accepts.
	fields() []string
}

// wireCommand is the flat JSON shape exchanged with the oracle and clients.
type wireCommand struct {
	Type        Type            `json:"type"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Description string          `json:"description"`
	Confidence  float64         `json:"confidence"`
}

// MarshalJSON emits the flat wire shape.
func (c Command) MarshalJSON() ([]byte, error) {
	params := c.Parameters
	if params == nil {
		params = newParams(c.Type)
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal parameters: %w", err)
	}
	return json.Marshal(wireCommand{
		Type:        c.Type,
		Parameters:  raw,
		Description: c.Description,
		Confidence:  c.Confidence,
	})
}

// UnmarshalJSON decodes the flat wire shape, selecting the parameter variant
// from the type. Unknown parameter fields and wrong JSON kinds are rejected.
// Range checks are left to Validate.
func (c *Command) UnmarshalJSON(data []byte) error {
	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	params := newParams(w.Type)
	if len(w.Parameters) > 0 && !bytes.Equal(bytes.TrimSpace(w.Parameters), []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(w.Parameters))
		dec.DisallowUnknownFields()
		if err := dec.Decode(params); err != nil {
			return &ValidationError{Field: "parameters", Reason: err.Error()}
		}
	}
	*c = Command{
		Type:        w.Type,
		Parameters:  params,
		Description: w.Description,
		Confidence:  w.Confidence,
	}
	return nil
}

// Validate checks the command type, the confidence range, and the parameter
// ranges of the selected variant.
func (c *Command) Validate() error {
	if c == nil {
		return &ValidationError{Field: "command", Reason: "missing"}
	}
	if !c.Type.Known() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown command type %q", c.Type)}
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return &ValidationError{Field: "confidence", Reason: fmt.Sprintf("%v is outside [0, 1]", c.Confidence)}
	}
	if c.Parameters == nil {
		return nil
	}
	return c.Parameters.Validate()
}

// ValidationError reports a command field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid command " + e.Field + ": " + e.Reason
}

// newParams returns an empty parameter struct for the given type. Unknown
// types get an OpenParams so the dispatcher can still report the type name.
func newParams(t Type) Params {
	switch t {
	case TypeEnhance, TypeAdjustColors:
		return &AdjustParams{}
	case TypeFilter:
		return &FilterParams{}
	case TypeRemoveObject:
		return &RemoveObjectParams{}
	case TypeRemoveBackground:
		return &RemoveBackgroundParams{}
	case TypeCrop:
		return &CropParams{}
	case TypeRetouch:
		return &RetouchParams{}
	case TypeStyleTransfer:
		return &StyleTransferParams{}
	default:
		return &OpenParams{}
	}
}

// DecodeModelOutput decodes a command emitted by a language model. The type is
// normalised with NormalizeType before the parameter variant is chosen, and
// the result must pass Validate.
func DecodeModelOutput(data []byte) (*Command, error) {
	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	w.Type = NormalizeType(string(w.Type))
	normalized, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("re-encode command: %w", err)
	}

	var c Command
	if err := json.Unmarshal(normalized, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
