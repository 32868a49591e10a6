// Package report turns a finished fit session into shareable artifacts:
// the photo with the landmark overlay redrawn at natural resolution, and
// a PDF pairing that photo with the angle recommendation table. The
// overlay is rebuilt from coordinates; nothing is read back from the
// live drawing surface.
package report

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/velofit/engine/internal/render"
)

var (
	lineColor     = color.RGBA{R: 0x1E, G: 0x90, B: 0xFF, A: 0xFF}
	markerColor   = color.RGBA{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF}
	activeColor   = color.RGBA{R: 0xFF, G: 0x45, B: 0x00, A: 0xFF}
	ghostColor    = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	inRangeCol    = color.RGBA{R: 0x32, G: 0xCD, B: 0x32, A: 0xFF}
	outOfRangeCol = color.RGBA{R: 0xFF, G: 0x3B, B: 0x30, A: 0xFF}
)

const (
	polylineThickness = 3
	markerRadius      = 7
	ghostRadius       = 9
	labelOffsetX      = 14
	labelOffsetY      = -10
)

// Composite draws the overlay onto a copy of the photo. The overlay
// must already be mapped into the photo's pixel space; callers scale a
// display-space overlay with Overlay.Scaled before passing it in.
func Composite(photo image.Image, ov render.Overlay) *image.RGBA {
	b := photo.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, photo, b.Min, draw.Src)

	for i := 1; i < len(ov.Polyline); i++ {
		a := ov.Polyline[i-1]
		c := ov.Polyline[i]
		drawLine(out, int(a.X), int(a.Y), int(c.X), int(c.Y), lineColor, polylineThickness)
	}

	for _, m := range ov.Markers {
		col := markerColor
		if m.Active {
			col = activeColor
		}
		cx, cy := int(m.Point.X), int(m.Point.Y)
		drawFilledCircle(out, cx, cy, markerRadius, col)
		drawCircleThin(out, cx, cy, markerRadius, color.Black)
	}

	if ov.Ghost != nil {
		drawDashedCircle(out, int(ov.Ghost.Point.X), int(ov.Ghost.Point.Y), ghostRadius, ghostColor, 2)
	}

	for _, l := range ov.Labels {
		col := inRangeCol
		if !l.IsWithinRange {
			col = outOfRangeCol
		}
		// The bitmap face carries ASCII only; the host UI keeps the
		// degree sign in its own rendering of the same label.
		text := strings.ReplaceAll(l.Text, "°", " deg")
		drawLabel(out, int(l.Point.X)+labelOffsetX, int(l.Point.Y)+labelOffsetY, text, col)
	}

	return out
}
