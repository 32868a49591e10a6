package report

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velofit/engine/internal/render"
	"github.com/velofit/engine/pkg/core"
)

func grayPhoto(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{128, 128, 128, 255}}, image.Point{}, draw.Src)
	return img
}

func TestBuildRows(t *testing.T) {
	results := []core.Classification{
		{Joint: "knee", Degrees: 145, Range: core.Interval{Min: 140, Max: 150}, IsWithinRange: true},
		{Joint: "back", Degrees: 30, Range: core.Interval{Min: 40, Max: 50}, IsWithinRange: false, Direction: core.DirectionLow, Advice: "raise the handlebars"},
		{Joint: "elbow", Degrees: 40, Range: core.Interval{Min: 10, Max: 30}, IsWithinRange: false, Direction: core.DirectionHigh},
	}

	rows := BuildRows(results)
	require.Len(t, rows, 3)

	assert.Equal(t, "ok", rows[0].Status)
	assert.Equal(t, "low", rows[1].Status)
	assert.Equal(t, "raise the handlebars", rows[1].Advice)
	assert.Equal(t, "high", rows[2].Status)
	assert.Equal(t, 145.0, rows[0].Degrees)
	assert.Equal(t, 140.0, rows[0].Min)
	assert.Equal(t, 150.0, rows[0].Max)
}

func TestBuildRows_Empty(t *testing.T) {
	rows := BuildRows(nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestComposite_MarkersAndPolyline(t *testing.T) {
	photo := grayPhoto(200, 200)
	ov := render.Overlay{
		Polyline: []core.Point{{X: 40, Y: 40}, {X: 160, Y: 40}},
		Markers: []render.Marker{
			{Point: core.Point{X: 40, Y: 40}, Role: "ankle"},
			{Point: core.Point{X: 160, Y: 40}, Role: "knee", Active: true},
		},
	}

	out := Composite(photo, ov)
	require.Equal(t, photo.Bounds(), out.Bounds())

	assert.Equal(t, markerColor, out.RGBAAt(40, 40), "committed marker fill")
	assert.Equal(t, activeColor, out.RGBAAt(160, 40), "active marker fill")
	assert.Equal(t, lineColor, out.RGBAAt(100, 40), "polyline segment midpoint")
}

func TestComposite_GhostIsDashed(t *testing.T) {
	photo := grayPhoto(100, 100)
	ov := render.Overlay{
		Ghost: &render.GhostMarker{Point: core.Point{X: 50, Y: 50}},
	}

	out := Composite(photo, ov)
	assert.Equal(t, ghostColor, out.RGBAAt(50+ghostRadius, 50), "first dash segment")

	// A dashed ring leaves gaps; the full circumference must not be set.
	ghostPixels := 0
	for x := 0; x < 100; x++ {
		for y := 0; y < 100; y++ {
			if out.RGBAAt(x, y) == ghostColor {
				ghostPixels++
			}
		}
	}
	assert.Greater(t, ghostPixels, 0)
	assert.Less(t, ghostPixels, 160, "ring has gaps")
}

func TestComposite_LabelBackdrop(t *testing.T) {
	photo := grayPhoto(300, 100)
	ov := render.Overlay{
		Labels: []render.Label{
			{Point: core.Point{X: 50, Y: 50}, Joint: "knee", Text: "knee: 145.0°", IsWithinRange: true},
		},
	}

	out := Composite(photo, ov)
	// The backdrop covers the label anchor area with near-black.
	px := out.RGBAAt(50+labelOffsetX+2, 50+labelOffsetY-2)
	assert.NotEqual(t, color.RGBA{128, 128, 128, 255}, px)
}

func TestRenderTablePage(t *testing.T) {
	session := &core.SessionInfo{
		Rider:     "Alex",
		BikeType:  "road",
		RideStyle: "sport",
		StartTime: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
	rows := []core.ReportRow{
		{Joint: "knee", Degrees: 145, Min: 140, Max: 150, Status: "ok"},
		{Joint: "back", Degrees: 30, Min: 40, Max: 50, Status: "low", Advice: "raise the handlebars"},
	}

	page := RenderTablePage(session, rows)
	require.NotNil(t, page)
	assert.Equal(t, tablePageWidth, page.Bounds().Dx())
	assert.Equal(t, tablePageHeight, page.Bounds().Dy())
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, page.RGBAAt(2, 2), "page background")
}

func TestRenderTablePage_NilSession(t *testing.T) {
	page := RenderTablePage(nil, nil)
	require.NotNil(t, page)
}

func TestExport_NoImage(t *testing.T) {
	e := NewExporter(t.TempDir(), nil)
	_, err := e.Export(Job{})
	assert.True(t, errors.Is(err, ErrNoImage))
	assert.False(t, e.InProgress(), "flag cleared after failure")
}

func TestExport_NoPoints(t *testing.T) {
	e := NewExporter(t.TempDir(), nil)
	_, err := e.Export(Job{Photo: grayPhoto(10, 10)})
	assert.True(t, errors.Is(err, ErrNoPoints))
	assert.False(t, e.InProgress())
}

func TestExport_BlockedWhileRunning(t *testing.T) {
	e := NewExporter(t.TempDir(), nil)
	e.inProgress.Store(true)
	_, err := e.Export(Job{Photo: grayPhoto(10, 10)})
	assert.True(t, errors.Is(err, ErrExportInProgress))
	e.inProgress.Store(false)
}

func TestExport_WritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, nil)

	session := &core.SessionInfo{
		Rider:     "Alex Moreno",
		BikeType:  "road",
		RideStyle: "sport",
		StartTime: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Image: core.ImageInfo{
			DisplayWidth: 160, DisplayHeight: 120,
			NaturalWidth: 320, NaturalHeight: 240,
		},
	}
	job := Job{
		Session: session,
		Photo:   grayPhoto(320, 240),
		Overlay: render.Overlay{
			Polyline: []core.Point{{X: 40, Y: 30}, {X: 80, Y: 60}},
			Markers: []render.Marker{
				{Point: core.Point{X: 40, Y: 30}, Role: "ankle"},
				{Point: core.Point{X: 80, Y: 60}, Role: "knee"},
			},
		},
		Results: []core.Classification{
			{Joint: "knee", Degrees: 145, Range: core.Interval{Min: 140, Max: 150}, IsWithinRange: true},
		},
	}

	info, err := e.Export(job)
	require.NoError(t, err)
	require.NotNil(t, info)

	assert.False(t, e.InProgress())
	assert.True(t, strings.HasSuffix(info.FilePath, ".pdf"))
	assert.Contains(t, filepath.Base(info.FilePath), "Alex_Moreno")
	assert.Equal(t, "road", info.BikeType)
	assert.Equal(t, "sport", info.RideStyle)
	require.Len(t, info.Rows, 1)
	assert.Equal(t, "ok", info.Rows[0].Status)

	_, err = os.Stat(info.FilePath)
	require.NoError(t, err, "pdf written")

	pngPath := strings.TrimSuffix(info.FilePath, ".pdf") + ".png"
	_, err = os.Stat(pngPath)
	require.NoError(t, err, "annotated photo kept")

	_, err = os.Stat(strings.TrimSuffix(info.FilePath, ".pdf") + "_table.png")
	assert.True(t, os.IsNotExist(err), "table page removed after pdf assembly")
}
