package imageops

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Kind names a pixel operation.
type Kind string

const (
	KindBrightness Kind = "brightness" // multiply every channel by Value
	KindLinear     Kind = "linear"     // c*Value + Offset per channel
	KindSaturation Kind = "saturation" // scale chroma around luma by Value
	KindBlur       Kind = "blur"       // gaussian blur, sigma Value
	KindSharpen    Kind = "sharpen"    // unsharp, sigma Value
	KindGamma      Kind = "gamma"      // gamma correction by Value
	KindGrayscale  Kind = "grayscale"
	KindHue        Kind = "hue" // rotate hue by Value degrees
)

// DefaultSharpenSigma is the sigma used for a plain "sharpen" request.
const DefaultSharpenSigma = 1.0

// Op is a single pixel operation.
type Op struct {
	Kind   Kind
	Value  float64
	Offset float64
}

func (o Op) String() string {
	switch o.Kind {
	case KindLinear:
		return fmt.Sprintf("linear(%g, %g)", o.Value, o.Offset)
	case KindGrayscale:
		return string(o.Kind)
	default:
		return fmt.Sprintf("%s(%g)", o.Kind, o.Value)
	}
}

// Brightness, Linear and the rest build Ops.
func Brightness(v float64) Op { return Op{Kind: KindBrightness, Value: v} }
func Linear(scale, offset float64) Op { return Op{Kind: KindLinear, Value: scale, Offset: offset} }
func Saturation(v float64) Op { return Op{Kind: KindSaturation, Value: v} }
func Blur(sigma float64) Op { return Op{Kind: KindBlur, Value: sigma} }
func Sharpen(sigma float64) Op { return Op{Kind: KindSharpen, Value: sigma} }
func Gamma(v float64) Op { return Op{Kind: KindGamma, Value: v} }
func Grayscale() Op { return Op{Kind: KindGrayscale} }
func Hue(degrees float64) Op { return Op{Kind: KindHue, Value: degrees} }

// Apply runs ops over img in order.
func Apply(img image.Image, ops []Op) (*image.NRGBA, error) {
	out := imaging.Clone(img)
	for _, op := range ops {
		var err error
		if out, err = applyOne(out, op); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func applyOne(img *image.NRGBA, op Op) (*image.NRGBA, error) {
	switch op.Kind {
	case KindBrightness:
		return scaleChannels(img, op.Value, 0), nil
	case KindLinear:
		return scaleChannels(img, op.Value, op.Offset), nil
	case KindSaturation:
		return saturate(img, op.Value), nil
	case KindBlur:
		if op.Value <= 0 {
			return nil, fmt.Errorf("blur sigma must be positive, got %g", op.Value)
		}
		return imaging.Blur(img, op.Value), nil
	case KindSharpen:
		if op.Value <= 0 {
			return nil, fmt.Errorf("sharpen sigma must be positive, got %g", op.Value)
		}
		return imaging.Sharpen(img, op.Value), nil
	case KindGamma:
		if op.Value <= 0 {
			return nil, fmt.Errorf("gamma must be positive, got %g", op.Value)
		}
		return imaging.AdjustGamma(img, op.Value), nil
	case KindGrayscale:
		return imaging.Grayscale(img), nil
	case KindHue:
		return rotateHue(img, op.Value), nil
	default:
		return nil, fmt.Errorf("unknown operation %q", op.Kind)
	}
}

func clampChannel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

func scaleChannels(img *image.NRGBA, scale, offset float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clampChannel(float64(c.R)*scale + offset),
			G: clampChannel(float64(c.G)*scale + offset),
			B: clampChannel(float64(c.B)*scale + offset),
			A: c.A,
		}
	})
}

// saturate moves each channel away from (v > 1) or towards (v < 1) the
// pixel's Rec. 601 luma. v == 0 yields grey.
func saturate(img *image.NRGBA, v float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		luma := 0.299*r + 0.587*g + 0.114*b
		return color.NRGBA{
			R: clampChannel(luma + (r-luma)*v),
			G: clampChannel(luma + (g-luma)*v),
			B: clampChannel(luma + (b-luma)*v),
			A: c.A,
		}
	})
}

// rotateHue applies the luminance-preserving hue rotation matrix.
func rotateHue(img *image.NRGBA, degrees float64) *image.NRGBA {
	rad := degrees * math.Pi / 180
	cosA, sinA := math.Cos(rad), math.Sin(rad)
	m := [3][3]float64{
		{0.213 + cosA*0.787 - sinA*0.213, 0.715 - cosA*0.715 - sinA*0.715, 0.072 - cosA*0.072 + sinA*0.928},
		{0.213 - cosA*0.213 + sinA*0.143, 0.715 + cosA*0.285 + sinA*0.140, 0.072 - cosA*0.072 - sinA*0.283},
		{0.213 - cosA*0.213 - sinA*0.787, 0.715 - cosA*0.715 + sinA*0.715, 0.072 + cosA*0.928 + sinA*0.072},
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		return color.NRGBA{
			R: clampChannel(m[0][0]*r + m[0][1]*g + m[0][2]*b),
			G: clampChannel(m[1][0]*r + m[1][1]*g + m[1][2]*b),
			B: clampChannel(m[2][0]*r + m[2][1]*g + m[2][2]*b),
			A: c.A,
		}
	})
}
