// Package imageops decodes image payloads, applies the pixel operations the
// editor supports, and re-encodes the result as a data URL.
//
// Payloads are either data URLs ("data:image/png;base64,...") or bare
// base64. Decodable formats are PNG, JPEG, GIF and WebP.
package imageops

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ErrEmptyPayload is returned for an empty image payload.
var ErrEmptyPayload = errors.New("image payload is empty")

var dataURLPrefix = regexp.MustCompile(`^data:image/[a-z]+;base64,`)

// StripDataURL removes a leading "data:image/<fmt>;base64," prefix.
func StripDataURL(payload string) string {
	return dataURLPrefix.ReplaceAllString(payload, "")
}

// ParseDataURL decodes payload and reports its MIME type. For bare base64 the
// type is sniffed from the decoded bytes.
func ParseDataURL(payload string) (string, []byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", nil, ErrEmptyPayload
	}

	mime := ""
	if loc := dataURLPrefix.FindStringIndex(payload); loc != nil {
		mime = strings.TrimSuffix(strings.TrimPrefix(payload[:loc[1]], "data:"), ";base64,")
	}

	data, err := base64.StdEncoding.DecodeString(StripDataURL(payload))
	if err != nil {
		return "", nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	if len(data) == 0 {
		return "", nil, ErrEmptyPayload
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return mime, data, nil
}

// EncodeDataURL renders data as a base64 data URL.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ToDataURL prefixes a bare base64 payload so it can be sent to a vision
// model. Valid payloads that already carry a data URL are returned unchanged.
func ToDataURL(payload string) (string, error) {
	mime, data, err := ParseDataURL(payload)
	if err != nil {
		return "", err
	}
	if dataURLPrefix.MatchString(payload) {
		return payload, nil
	}
	return EncodeDataURL(mime, data), nil
}

// MaxPixels caps the decoded size of any image. Headers are checked before
// pixels are allocated, so a tiny payload declaring huge dimensions is
// rejected instead of exhausting memory.
const MaxPixels = 50_000_000

// ErrTooLarge is returned for images whose declared dimensions exceed
// MaxPixels.
var ErrTooLarge = errors.New("image dimensions too large")

// DecodeBytes decodes raw image bytes, applying any EXIF orientation.
func DecodeBytes(data []byte) (image.Image, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("detect image format: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%s image is %dx%d: %w", format, cfg.Width, cfg.Height, ErrTooLarge)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s image: %w", format, err)
	}
	return img, format, nil
}

// Decode decodes a data URL or bare base64 payload.
func Decode(payload string) (image.Image, string, error) {
	_, data, err := ParseDataURL(payload)
	if err != nil {
		return nil, "", err
	}
	return DecodeBytes(data)
}

// EncodePNG encodes img as a PNG data URL.
func EncodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return EncodeDataURL("image/png", buf.Bytes()), nil
}

// JPEGQuality is the quality used for every JPEG the service produces.
const JPEGQuality = 90

// EncodeJPEG encodes img as a JPEG data URL at JPEGQuality.
func EncodeJPEG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return EncodeDataURL("image/jpeg", buf.Bytes()), nil
}
