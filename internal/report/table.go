package report

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/velofit/engine/pkg/core"
)

// Table page layout, sized for a portrait PDF page.
const (
	tablePageWidth  = 820
	tablePageHeight = 1100
	tableMarginX    = 60
	tableRowHeight  = 26
)

var (
	pageBackground = color.White
	headerColor    = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF}
	ruleColor      = color.RGBA{R: 0xB0, G: 0xB0, B: 0xB0, A: 0xFF}
	bodyColor      = color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF}
	okColor        = color.RGBA{R: 0x1E, G: 0x8E, B: 0x3E, A: 0xFF}
	flagColor      = color.RGBA{R: 0xC6, G: 0x28, B: 0x28, A: 0xFF}
)

// BuildRows flattens classifications into report table rows, one per
// joint, in the order the classifications were produced.
func BuildRows(results []core.Classification) []core.ReportRow {
	rows := make([]core.ReportRow, 0, len(results))
	for _, c := range results {
		status := "ok"
		if !c.IsWithinRange {
			status = string(c.Direction)
		}
		rows = append(rows, core.ReportRow{
			Joint:   c.Joint,
			Degrees: c.Degrees,
			Min:     c.Range.Min,
			Max:     c.Range.Max,
			Status:  status,
			Advice:  c.Advice,
		})
	}
	return rows
}

// RenderTablePage lays out the session header and the angle table on a
// white page image, ready for PDF import alongside the annotated photo.
func RenderTablePage(session *core.SessionInfo, rows []core.ReportRow) *image.RGBA {
	page := image.NewRGBA(image.Rect(0, 0, tablePageWidth, tablePageHeight))
	draw.Draw(page, page.Bounds(), &image.Uniform{pageBackground}, image.Point{}, draw.Src)

	y := 80
	drawStringCentered(page, tablePageWidth/2, y, "VeloFit Session Report", headerColor)
	y += 2 * tableRowHeight

	rider := "unnamed rider"
	if session != nil {
		if session.Rider != "" {
			rider = session.Rider
		}
		drawString(page, tableMarginX, y, fmt.Sprintf("Rider: %s", rider), bodyColor)
		y += tableRowHeight
		drawString(page, tableMarginX, y, fmt.Sprintf("Bicycle: %s    Style: %s", session.BikeType, session.RideStyle), bodyColor)
		y += tableRowHeight
		drawString(page, tableMarginX, y, fmt.Sprintf("Date: %s", session.StartTime.Format("2006-01-02 15:04")), bodyColor)
		y += tableRowHeight
	}
	drawString(page, tableMarginX, y, fmt.Sprintf("Engine: v%s", core.EngineVersion), bodyColor)
	y += 2 * tableRowHeight

	// Column layout in page pixels.
	colJoint := tableMarginX
	colAngle := tableMarginX + 180
	colRange := tableMarginX + 300
	colStatus := tableMarginX + 460
	colAdvice := tableMarginX + 540

	drawString(page, colJoint, y, "Joint", headerColor)
	drawString(page, colAngle, y, "Angle", headerColor)
	drawString(page, colRange, y, "Target", headerColor)
	drawString(page, colStatus, y, "Status", headerColor)
	drawString(page, colAdvice, y, "Advice", headerColor)
	y += 8
	drawLine(page, tableMarginX, y, tablePageWidth-tableMarginX, y, ruleColor, 1)
	y += tableRowHeight

	for _, r := range rows {
		statusCol := okColor
		if r.Status != "ok" {
			statusCol = flagColor
		}
		drawString(page, colJoint, y, r.Joint, bodyColor)
		drawString(page, colAngle, y, fmt.Sprintf("%.1f deg", r.Degrees), bodyColor)
		drawString(page, colRange, y, fmt.Sprintf("%.0f-%.0f deg", r.Min, r.Max), bodyColor)
		drawString(page, colStatus, y, r.Status, statusCol)
		if r.Advice != "" {
			drawString(page, colAdvice, y, r.Advice, bodyColor)
		}
		y += tableRowHeight
	}

	return page
}
