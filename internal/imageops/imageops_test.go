package imageops

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testImage returns a w x h gradient with distinct colour per pixel.
func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / max(1, w-1)), G: uint8(y * 255 / max(1, h-1)), B: 90, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngDataURL(t *testing.T, img image.Image) string {
	return EncodeDataURL("image/png", pngBytes(t, img))
}

func TestParseDataURL(t *testing.T) {
	raw := pngBytes(t, testImage(4, 4))
	b64 := base64.StdEncoding.EncodeToString(raw)

	t.Run("data url", func(t *testing.T) {
		mime, data, err := ParseDataURL("data:image/png;base64," + b64)
		require.NoError(t, err)
		assert.Equal(t, "image/png", mime)
		assert.Equal(t, raw, data)
	})

	t.Run("bare base64 is sniffed", func(t *testing.T) {
		mime, data, err := ParseDataURL(b64)
		require.NoError(t, err)
		assert.Equal(t, "image/png", mime)
		assert.Equal(t, raw, data)
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := ParseDataURL("  ")
		assert.ErrorIs(t, err, ErrEmptyPayload)
	})

	t.Run("not base64", func(t *testing.T) {
		_, _, err := ParseDataURL("data:image/png;base64,!!!")
		assert.Error(t, err)
	})
}

func TestStripDataURL(t *testing.T) {
	assert.Equal(t, "abc", StripDataURL("data:image/jpeg;base64,abc"))
	assert.Equal(t, "abc", StripDataURL("abc"))
	// Only image types with a lowercase subtype are stripped.
	assert.Equal(t, "data:text/plain;base64,abc", StripDataURL("data:text/plain;base64,abc"))
}

func TestToDataURL(t *testing.T) {
	raw := pngBytes(t, testImage(2, 2))
	b64 := base64.StdEncoding.EncodeToString(raw)

	got, err := ToDataURL(b64)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+b64, got)

	same, err := ToDataURL(got)
	require.NoError(t, err)
	assert.Equal(t, got, same)

	_, err = ToDataURL("data:image/png;base64,!!!")
	assert.Error(t, err)
}

func TestDecodeGarbage(t *testing.T) {
	_, _, err := Decode(base64.StdEncoding.EncodeToString([]byte("definitely not an image")))
	assert.Error(t, err)
}

func TestApplyGrayscale(t *testing.T) {
	out, err := Apply(testImage(8, 8), []Op{Grayscale()})
	require.NoError(t, err)

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := out.NRGBAAt(x, y)
			assert.Equal(t, c.R, c.G)
			assert.Equal(t, c.G, c.B)
		}
	}
}

func TestApplyLinear(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 100, G: 200, B: 10, A: 255})

	out, err := Apply(img, []Op{Linear(1.5, -64)})
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 86, G: 236, B: 0, A: 255}, out.NRGBAAt(0, 0))
}

func TestApplyBrightnessClamps(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 0, A: 128})

	out, err := Apply(img, []Op{Brightness(2)})
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 255, G: 200, B: 0, A: 128}, out.NRGBAAt(0, 0))
}

func TestApplySaturationZeroIsGrey(t *testing.T) {
	out, err := Apply(testImage(4, 4), []Op{Saturation(0)})
	require.NoError(t, err)

	c := out.NRGBAAt(3, 1)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)
}

func TestApplyHueFullTurnIsIdentity(t *testing.T) {
	src := testImage(4, 4)
	out, err := Apply(src, []Op{Hue(360)})
	require.NoError(t, err)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want, got := src.NRGBAAt(x, y), out.NRGBAAt(x, y)
			assert.InDelta(t, want.R, got.R, 1)
			assert.InDelta(t, want.G, got.G, 1)
			assert.InDelta(t, want.B, got.B, 1)
		}
	}
}

func TestApplyRejectsBadSigma(t *testing.T) {
	_, err := Apply(testImage(2, 2), []Op{Blur(0)})
	assert.Error(t, err)

	_, err = Apply(testImage(2, 2), []Op{{Kind: "emboss"}})
	assert.Error(t, err)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	src := testImage(4, 4)
	before := append([]uint8(nil), src.Pix...)

	_, err := Apply(src, []Op{Brightness(1.5), Grayscale()})
	require.NoError(t, err)

	assert.Equal(t, before, src.Pix)
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "linear(1.5, -64)", Linear(1.5, -64).String())
	assert.Equal(t, "grayscale", Grayscale().String())
	assert.Equal(t, "blur(4)", Blur(4).String())
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"already inside", 800, 600, 800, 600},
		{"exact bounds", 1920, 1080, 1920, 1080},
		{"wide", 3840, 1080, 1920, 540},
		{"tall", 1000, 4000, 270, 1080},
		{"4k", 3840, 2160, 1920, 1080},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitDimensions(tt.w, tt.h, MaxUploadWidth, MaxUploadHeight)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestProcessUploadDoesNotEnlarge(t *testing.T) {
	out, err := ProcessUpload(pngBytes(t, testImage(40, 30)))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "data:image/jpeg;base64,"))

	info, err := ImageInfo(out)
	require.NoError(t, err)
	assert.Equal(t, 40, info.Width)
	assert.Equal(t, 30, info.Height)
	assert.Equal(t, "jpeg", info.Format)
}

func TestProcessUploadScalesDown(t *testing.T) {
	out, err := ProcessUpload(pngBytes(t, testImage(2400, 600)))
	require.NoError(t, err)

	info, err := ImageInfo(out)
	require.NoError(t, err)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 480, info.Height)
}

// headerOnlyPNG returns a PNG signature and IHDR chunk declaring a w x h RGBA
// image, with no pixel data.
func headerOnlyPNG(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(typ string, data []byte) {
		binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		body := append([]byte(typ), data...)
		buf.Write(body)
		binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(body))
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8], ihdr[9] = 8, 6
	chunk("IHDR", ihdr)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestDecodeRejectsHugeDimensions(t *testing.T) {
	data := headerOnlyPNG(60000, 60000)

	_, _, err := DecodeBytes(data)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, _, err = Decode(EncodeDataURL("image/png", data))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = ProcessUpload(data)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = ApplyEffect(EncodeDataURL("image/png", data), "blur", EffectParams{Blur: 1})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestProcessUploadRejectsGarbage(t *testing.T) {
	_, err := ProcessUpload([]byte("nope"))
	assert.Error(t, err)
}

func TestApplyEffect(t *testing.T) {
	payload := pngDataURL(t, testImage(6, 6))

	for _, effect := range []string{"brightness", "contrast", "saturation", "blur", "sharpen", "hue"} {
		t.Run(effect, func(t *testing.T) {
			out, err := ApplyEffect(payload, effect, EffectParams{
				Brightness: 1.2, Contrast: 1.1, Saturation: 0.8, Blur: 1, Sharpen: 1, Hue: 30,
			})
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, "data:image/jpeg;base64,"))
		})
	}

	t.Run("zero parameter still re-encodes", func(t *testing.T) {
		out, err := ApplyEffect(payload, "blur", EffectParams{})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "data:image/jpeg;base64,"))
	})

	t.Run("unknown effect", func(t *testing.T) {
		_, err := ApplyEffect(payload, "emboss", EffectParams{})
		assert.ErrorIs(t, err, ErrUnknownEffect)
	})
}

func TestImageInfo(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 5, 3))
	info, err := ImageInfo(pngDataURL(t, gray))
	require.NoError(t, err)
	assert.Equal(t, Info{Width: 5, Height: 3, Format: "png", Size: len(pngBytes(t, gray)), Channels: 1}, info)

	info, err = ImageInfo(pngDataURL(t, testImage(7, 2)))
	require.NoError(t, err)
	assert.Equal(t, 7, info.Width)
	assert.Equal(t, 2, info.Height)
	assert.Equal(t, "png", info.Format)
}

func TestImageInfoRejectsGarbage(t *testing.T) {
	_, err := ImageInfo(base64.StdEncoding.EncodeToString([]byte("garbage bytes")))
	assert.Error(t, err)
}
