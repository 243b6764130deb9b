package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fpang/brushline/internal/imageops"
	"github.com/fpang/brushline/internal/vision"
)

// FormatSize renders a byte count as B, KB or MB.
func FormatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// FormatDuration rounds d for display.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// FormatInfo renders image info as aligned key/value lines.
func FormatInfo(info imageops.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Format:     %s\n", info.Format)
	fmt.Fprintf(&b, "Dimensions: %dx%d\n", info.Width, info.Height)
	fmt.Fprintf(&b, "Size:       %s\n", FormatSize(info.Size))
	fmt.Fprintf(&b, "Channels:   %d\n", info.Channels)
	if info.CameraMake != "" || info.CameraModel != "" {
		fmt.Fprintf(&b, "Camera:     %s\n", strings.TrimSpace(info.CameraMake+" "+info.CameraModel))
	}
	if info.DateTaken != nil {
		fmt.Fprintf(&b, "Taken:      %s\n", info.DateTaken.Format(time.DateTime))
	}
	return b.String()
}

// FormatAnalysis renders an analysis for the terminal.
func FormatAnalysis(a vision.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scene:      %s (%s background)\n", a.Scene, a.Background)
	fmt.Fprintf(&b, "Faces:      %d\n", a.Faces)
	fmt.Fprintf(&b, "Sky:        %t\n", a.Sky)
	fmt.Fprintf(&b, "Brightness: %s\n", a.Brightness)
	fmt.Fprintf(&b, "Contrast:   %s\n", a.Contrast)
	fmt.Fprintf(&b, "Quality:    %s\n", a.Quality)
	fmt.Fprintf(&b, "Colours:    %s\n", strings.Join(a.DominantColors, " "))
	if len(a.Objects) > 0 {
		fmt.Fprintf(&b, "Objects:    %s\n", strings.Join(a.Objects, ", "))
	}
	for i, s := range a.Suggestions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
	}
	return b.String()
}
