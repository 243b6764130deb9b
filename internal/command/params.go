package command

import "fmt"

// Range is an inclusive numeric range for a tunable parameter.
type Range struct {
	Min float64
	Max float64
}

func (r Range) contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Declared parameter ranges. 1.0 is "no change" for the multipliers.
var (
	BrightnessRange = Range{Min: 0.5, Max: 2.0}
	ContrastRange   = Range{Min: 0.5, Max: 2.0}
	SaturationRange = Range{Min: 0.0, Max: 3.0}
	BlurRange       = Range{Min: 0.3, Max: 100}
	GammaRange      = Range{Min: 0.5, Max: 3.0}
)

func checkRange(field string, v *float64, r Range) error {
	if v == nil || r.contains(*v) {
		return nil
	}
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf("%v is outside [%v, %v]", *v, r.Min, r.Max),
	}
}

// AdjustParams carries tonal and colour adjustments for enhance and
// adjust-colors commands. Nil or zero values are not applied.
type AdjustParams struct {
	Brightness *float64 `json:"brightness,omitempty"`
	Contrast   *float64 `json:"contrast,omitempty"`
	Saturation *float64 `json:"saturation,omitempty"`
	Blur       *float64 `json:"blur,omitempty"`
	Sharpen    bool     `json:"sharpen,omitempty"`
	Gamma      *float64 `json:"gamma,omitempty"`

	// Target and Hue describe intent ("sky", "blue"); they are not applied.
	Target string `json:"target,omitempty"`
	Hue    string `json:"hue,omitempty"`
}

func (p *AdjustParams) Validate() error {
	checks := []struct {
		field string
		value *float64
		rng   Range
	}{
		{"brightness", p.Brightness, BrightnessRange},
		{"contrast", p.Contrast, ContrastRange},
		{"saturation", p.Saturation, SaturationRange},
		{"blur", p.Blur, BlurRange},
		{"gamma", p.Gamma, GammaRange},
	}
	for _, c := range checks {
		if err := checkRange(c.field, c.value, c.rng); err != nil {
			return err
		}
	}
	return nil
}

func (p *AdjustParams) fields() []string {
	return []string{"brightness", "contrast", "saturation", "blur", "sharpen", "gamma", "target", "hue"}
}

// FilterParams selects an artistic filter.
type FilterParams struct {
	Grayscale bool `json:"grayscale,omitempty"`
}

func (p *FilterParams) Validate() error { return nil }

func (p *FilterParams) fields() []string { return []string{"grayscale"} }

// RemoveObjectParams names the object to remove.
type RemoveObjectParams struct {
	ObjectToRemove string `json:"object_to_remove,omitempty"`
}

func (p *RemoveObjectParams) Validate() error { return nil }

func (p *RemoveObjectParams) fields() []string { return []string{"object_to_remove"} }

// RemoveBackgroundParams selects the segmentation method.
type RemoveBackgroundParams struct {
	Method string `json:"method,omitempty"`
}

func (p *RemoveBackgroundParams) Validate() error { return nil }

func (p *RemoveBackgroundParams) fields() []string { return []string{"method"} }

// CropParams describes a crop or resize.
type CropParams struct {
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

func (p *CropParams) Validate() error {
	if p.Width < 0 {
		return &ValidationError{Field: "width", Reason: "must not be negative"}
	}
	if p.Height < 0 {
		return &ValidationError{Field: "height", Reason: "must not be negative"}
	}
	return nil
}

func (p *CropParams) fields() []string { return []string{"width", "height", "aspect_ratio"} }

// RetouchParams names the area to retouch.
type RetouchParams struct {
	Area string `json:"area,omitempty"`
}

func (p *RetouchParams) Validate() error { return nil }

func (p *RetouchParams) fields() []string { return []string{"area"} }

// StyleTransferParams names the target style.
type StyleTransferParams struct {
	Style string `json:"style,omitempty"`
}

func (p *StyleTransferParams) Validate() error { return nil }

func (p *StyleTransferParams) fields() []string { return []string{"style"} }

// OpenParams holds parameters of an unrecognised command type verbatim.
type OpenParams map[string]any

func (p *OpenParams) Validate() error { return nil }

func (p *OpenParams) fields() []string { return nil }

// Fields returns the parameter names accepted for a command type.
func Fields(t Type) []string {
	return newParams(t).fields()
}

// Float returns a pointer to v, for building AdjustParams literals.
func Float(v float64) *float64 {
	return &v
}
