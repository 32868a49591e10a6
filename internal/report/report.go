package report

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/velofit/engine/internal/render"
	"github.com/velofit/engine/internal/util"
	"github.com/velofit/engine/pkg/core"
)

var (
	ErrExportInProgress = errors.New("report export already in progress")
	ErrNoImage          = errors.New("no image loaded")
	ErrNoPoints         = errors.New("no landmarks placed")
)

// Job carries everything one export needs. The overlay is in display
// space; the exporter scales it into the photo's pixel grid itself.
type Job struct {
	Session *core.SessionInfo
	Photo   image.Image
	Overlay render.Overlay
	Results []core.Classification
}

// Exporter writes report artifacts into a directory. A single export
// runs at a time; concurrent starts are rejected rather than queued.
type Exporter struct {
	reportsDir string
	log        *slog.Logger
	inProgress atomic.Bool
}

func NewExporter(reportsDir string, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{reportsDir: reportsDir, log: log}
}

// InProgress reports whether an export job is currently running.
func (e *Exporter) InProgress() bool {
	return e.inProgress.Load()
}

// Export composites the annotated photo, renders the table page and
// assembles both into a PDF. The in-progress flag is cleared on every
// path out of this function.
func (e *Exporter) Export(job Job) (*core.ReportInfo, error) {
	if !e.inProgress.CompareAndSwap(false, true) {
		return nil, ErrExportInProgress
	}
	defer e.inProgress.Store(false)

	if job.Photo == nil {
		return nil, ErrNoImage
	}
	if len(job.Overlay.Polyline) == 0 {
		return nil, ErrNoPoints
	}

	start := time.Now()

	scale := core.Scale{X: 1, Y: 1}
	if job.Session != nil {
		scale = job.Session.Image.ScaleFactors()
	}
	annotated := Composite(job.Photo, job.Overlay.Scaled(scale))
	rows := BuildRows(job.Results)
	table := RenderTablePage(job.Session, rows)

	if err := os.MkdirAll(e.reportsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create reports dir: %w", err)
	}

	base := e.baseName(job.Session)
	photoPath := filepath.Join(e.reportsDir, base+".png")
	tablePath := filepath.Join(e.reportsDir, base+"_table.png")
	pdfPath := filepath.Join(e.reportsDir, base+".pdf")

	if err := writePNG(photoPath, annotated); err != nil {
		return nil, err
	}
	if err := writePNG(tablePath, table); err != nil {
		return nil, err
	}
	if err := api.ImportImagesFile([]string{photoPath, tablePath}, pdfPath, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to assemble pdf: %w", err)
	}
	// The table page only exists to feed the PDF; the annotated photo
	// stays behind as a standalone artifact.
	if err := os.Remove(tablePath); err != nil {
		e.log.Warn("Failed to remove intermediate table page", "path", tablePath, "error", err)
	}

	info := &core.ReportInfo{FilePath: pdfPath, Rows: rows}
	if job.Session != nil {
		info.BikeType = job.Session.BikeType
		info.RideStyle = job.Session.RideStyle
	}

	e.log.Info("Report exported",
		"pdf", pdfPath,
		"rows", len(rows),
		"durationMs", time.Since(start).Milliseconds(),
	)
	return info, nil
}

func (e *Exporter) baseName(session *core.SessionInfo) string {
	rider := ""
	at := time.Now()
	if session != nil {
		rider = util.SanitizeFilename(session.Rider)
		if !session.StartTime.IsZero() {
			at = session.StartTime
		}
	}
	if rider == "" {
		rider = "session"
	}
	return fmt.Sprintf("%s_%s_report", rider, at.Format("20060102_150405"))
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
