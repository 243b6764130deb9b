package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ncruces/zenity"
)

// ImagePatterns are the file patterns offered by the picker.
var ImagePatterns = []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp"}

// ErrCanceled is returned when the user dismisses the file picker.
var ErrCanceled = errors.New("selection canceled")

// PickImages opens a native multi-file picker.
func PickImages() ([]string, error) {
	selected, err := zenity.SelectFileMultiple(
		zenity.Title("Select images to edit"),
		zenity.FileFilters{
			{Name: "Images", Patterns: ImagePatterns},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return nil, ErrCanceled
		}
		return nil, fmt.Errorf("file picker failed: %w", err)
	}
	return selected, nil
}

// PromptLine writes label to out and reads one trimmed line from in.
func PromptLine(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
