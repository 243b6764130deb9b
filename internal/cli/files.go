package cli

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fpang/brushline/internal/imageops"
)

// ReadImage reads an image file and returns it as a data URL.
func ReadImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("read %s: %w", path, imageops.ErrEmptyPayload)
	}
	return imageops.ToDataURL(base64.StdEncoding.EncodeToString(data))
}

// WriteImage decodes a data URL and writes the bytes to path.
func WriteImage(path, dataURL string) error {
	_, data, err := imageops.ParseDataURL(dataURL)
	if err != nil {
		return fmt.Errorf("decode output for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// OutputPath returns where the edited version of input is written:
// "<dir>/<name>-edited.<ext>" with ext matching the data URL's type, or inside
// outDir when it is set. When the source extension differs from ext it is
// kept in the name ("cat.jpg" -> "cat-jpg-edited.png") so inputs that differ
// only by extension do not collide.
func OutputPath(input, outDir, dataURL string) string {
	ext := ".png"
	if mime, _, err := imageops.ParseDataURL(dataURL); err == nil {
		switch mime {
		case "image/jpeg":
			ext = ".jpg"
		case "image/gif":
			ext = ".gif"
		case "image/webp":
			ext = ".webp"
		}
	}
	dir := filepath.Dir(input)
	if outDir != "" {
		dir = outDir
	}
	srcExt := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), srcExt)
	if srcExt != "" && !strings.EqualFold(srcExt, ext) {
		base += "-" + strings.ToLower(strings.TrimPrefix(srcExt, "."))
	}
	return filepath.Join(dir, base+"-edited"+ext)
}

// UniquePath returns path, or path with a "-2", "-3", ... suffix before the
// extension when taken already holds it. The returned path is added to taken.
func UniquePath(path string, taken map[string]bool) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	candidate := path
	for n := 2; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d%s", stem, n, ext)
	}
	taken[candidate] = true
	return candidate
}
