package imageops

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// Info describes an image payload.
type Info struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Size     int    `json:"size"`
	Channels int    `json:"channels"`

	CameraMake  string     `json:"cameraMake,omitempty"`
	CameraModel string     `json:"cameraModel,omitempty"`
	DateTaken   *time.Time `json:"dateTaken,omitempty"`
}

// ImageInfo reads dimensions, format and channel count from payload without
// decoding the pixels. EXIF camera details are added when present.
func ImageInfo(payload string) (Info, error) {
	_, data, err := ParseDataURL(payload)
	if err != nil {
		return Info{}, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("read image header: %w", err)
	}

	info := Info{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   format,
		Size:     len(data),
		Channels: channels(cfg.ColorModel),
	}
	addExif(&info, data)
	return info, nil
}

func channels(m color.Model) int {
	// Paletted images report their palette as the model.
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4
			}
		}
		return 3
	}
	switch m {
	case color.GrayModel, color.Gray16Model:
		return 1
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model, color.CMYKModel:
		return 4
	default:
		return 3
	}
}

// addExif fills the camera fields from EXIF. Formats without EXIF are
// silently skipped.
func addExif(info *Info, data []byte) {
	exif, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Str("format", info.Format).Msg("No EXIF metadata")
		return
	}
	info.CameraMake = strings.TrimSpace(exif.Make)
	info.CameraModel = strings.TrimSpace(exif.Model)
	if t := exif.DateTimeOriginal(); !t.IsZero() {
		info.DateTaken = &t
	} else if t := exif.CreateDate(); !t.IsZero() {
		info.DateTaken = &t
	}
}
