package imageops

import (
	"fmt"
	"image"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// Upload bounds. Larger images are scaled down to fit; smaller ones are left
// at their original size.
const (
	MaxUploadWidth  = 1920
	MaxUploadHeight = 1080
)

// fitDimensions returns the largest size with the same aspect ratio that fits
// inside maxW x maxH, never exceeding the original size.
func fitDimensions(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return min(nw, maxW), min(nh, maxH)
}

// Fit scales img down with Catmull-Rom to fit inside maxW x maxH. Images
// already inside the bounds are returned unchanged.
func Fit(img image.Image, maxW, maxH int) image.Image {
	bounds := img.Bounds()
	w, h := fitDimensions(bounds.Dx(), bounds.Dy(), maxW, maxH)
	if w == bounds.Dx() && h == bounds.Dy() {
		return img
	}
	resized := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}

// ProcessUpload normalises an uploaded image: fit inside 1920x1080 and
// re-encode as JPEG. The result is a data URL.
func ProcessUpload(data []byte) (string, error) {
	img, format, err := DecodeBytes(data)
	if err != nil {
		return "", fmt.Errorf("process upload: %w", err)
	}

	orig := img.Bounds()
	img = Fit(img, MaxUploadWidth, MaxUploadHeight)

	out, err := EncodeJPEG(img)
	if err != nil {
		return "", fmt.Errorf("process upload: %w", err)
	}

	log.Debug().
		Str("format", format).
		Int("orig_width", orig.Dx()).
		Int("orig_height", orig.Dy()).
		Int("new_width", img.Bounds().Dx()).
		Int("new_height", img.Bounds().Dy()).
		Int("input_size", len(data)).
		Msg("Upload processed")

	return out, nil
}
