package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
)

// thumbRows bounds the rendered thumbnail height in terminal rows. Each
// row carries two pixel rows via the half-block glyph.
const thumbRows = 8

// renderImage draws a decoded thumbnail as half-block cells, two pixels
// per terminal row.
func renderImage(src image.Image, width int) string {
	if src == nil || width < 2 {
		return ""
	}

	scaled := imaging.Fit(src, width, thumbRows*2, imaging.NearestNeighbor)
	bounds := scaled.Bounds()

	var b strings.Builder
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		if y > bounds.Min.Y {
			b.WriteString("\n")
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := scaled.At(x, y)
			bottom := top
			if y+1 < bounds.Max.Y {
				bottom = scaled.At(x, y+1)
			}
			cell := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hexColor(top))).
				Background(lipgloss.Color(hexColor(bottom)))
			b.WriteString(cell.Render("▀"))
		}
	}
	return b.String()
}

// hexColor formats a pixel as a lipgloss hex color
func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// humanBytes formats a byte count for the video preload line
func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%d KB", n/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
