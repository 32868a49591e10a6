package worker

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/velofit/engine/internal/dispatcher"
	"github.com/velofit/engine/internal/influx"
	"github.com/velofit/engine/internal/ranges"
	"github.com/velofit/engine/internal/render"
	"github.com/velofit/engine/internal/report"
	"github.com/velofit/engine/internal/session"
	"github.com/velofit/engine/pkg/core"
)

// RegisterHandlers registers all command handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	m.dispatcher = d

	// Session lifecycle - sync (storage needs the session row before
	// samples arrive)
	d.Register(":NEW:SESSION:", m.handleNewSession, dispatcher.Logged())
	d.Register(":END:SESSION:", m.handleEndSession, dispatcher.Logged())

	d.Register(":LOAD:IMAGE:", m.handleLoadImage, dispatcher.Logged())

	// Pointer moves arrive per input frame - buffered. End and cancel
	// flush that queue before committing so the commit lands on the
	// release position, not whichever move happened to have drained.
	d.Register(":GESTURE:START:", m.handleGestureStart, dispatcher.Logged())
	d.Register(":GESTURE:MOVE:", m.handleGestureMove, dispatcher.Buffered(10000), dispatcher.Logged())
	d.Register(":GESTURE:END:", m.handleGestureEnd, dispatcher.Logged())
	d.Register(":GESTURE:CANCEL:", m.handleGestureCancel, dispatcher.Logged())

	d.Register(":SET:STYLE:", m.handleSetStyle, dispatcher.Logged())
	d.Register(":SET:BIKE:", m.handleSetBike, dispatcher.Logged())
	d.Register(":CLEAR:POINTS:", m.handleClearPoints, dispatcher.Logged())

	d.Register(":SAVE:SNAPSHOT:", m.handleSaveSnapshot, dispatcher.Logged())
	d.Register(":RESTORE:SNAPSHOT:", m.handleRestoreSnapshot, dispatcher.Logged())

	// Export runs off the bridge goroutine; the exporter's own flag
	// rejects a second start.
	d.Register(":EXPORT:REPORT:", m.handleExportReport, dispatcher.Buffered(1), dispatcher.Logged())

	d.Register(":STATUS:", m.handleStatus)
}

func (m *Manager) handleNewSession(e dispatcher.Event) (any, error) {
	obj, err := m.deps.ParserService.ParseSessionStart(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	m.session.Begin(obj.Rider, obj.Image)
	m.deps.SnapshotCache.Reset()

	info := m.session.Info()
	if err := m.backend.StartSession(&info); err != nil {
		// Persistence failure never blocks the analysis itself.
		m.deps.LogManager.Logger().Error("Failed to persist session start", "error", err)
	}

	if m.deps.Metrics != nil {
		bucket, point := influx.SessionPoint(info)
		if err := m.deps.Metrics.WritePoint(context.Background(), bucket, point); err != nil {
			m.deps.LogManager.Logger().Warn("Failed to write session metric", "error", err)
		}
	}

	return nil, nil
}

func (m *Manager) handleEndSession(e dispatcher.Event) (any, error) {
	if setter, ok := m.backend.(FinalPointsSetter); ok {
		setter.SetFinalPoints(m.session.Points())
	}
	if err := m.backend.EndSession(); err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleLoadImage(e dispatcher.Event) (any, error) {
	obj, err := m.deps.ParserService.ParseLoadImage(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	if m.deps.ImageCache.IsLoading() {
		return nil, fmt.Errorf("image load already in progress")
	}
	m.deps.ImageCache.SetLoading(true)

	path := obj.Path
	if obj.Demo {
		path = m.deps.DemoImagePath
	}

	img, info, err := decodeImage(path, obj.DisplayWidth, obj.DisplayHeight)
	if err != nil {
		// Clear the flag so the host can retry the load.
		m.deps.ImageCache.SetLoading(false)
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}

	m.deps.ImageCache.Store(img, info, path)
	m.session.SetImage(info)

	return info, nil
}

func decodeImage(path string, displayW, displayH float64) (image.Image, core.ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.ImageInfo{}, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, core.ImageInfo{}, err
	}

	b := img.Bounds()
	return img, core.ImageInfo{
		DisplayWidth:  displayW,
		DisplayHeight: displayH,
		NaturalWidth:  b.Dx(),
		NaturalHeight: b.Dy(),
	}, nil
}

func (m *Manager) handleGestureStart(e dispatcher.Event) (any, error) {
	obj, err := m.deps.ParserService.ParseGesture(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to start gesture: %w", err)
	}
	// A start mid-drag commits the pending ghost, so it needs the move
	// queue drained just like an explicit release.
	m.dispatcher.Flush(":GESTURE:MOVE:")
	m.session.GestureStart(obj.Point(), obj.Touch)
	return nil, nil
}

func (m *Manager) handleGestureMove(e dispatcher.Event) (any, error) {
	obj, err := m.deps.ParserService.ParseGesture(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to move gesture: %w", err)
	}
	m.session.GestureMove(obj.Point())
	return nil, nil
}

func (m *Manager) handleGestureEnd(e dispatcher.Event) (any, error) {
	m.dispatcher.Flush(":GESTURE:MOVE:")
	m.session.GestureEnd()
	m.recordResults()
	return nil, nil
}

func (m *Manager) handleGestureCancel(e dispatcher.Event) (any, error) {
	m.dispatcher.Flush(":GESTURE:MOVE:")
	m.session.GestureCancel()
	m.recordResults()
	return nil, nil
}

func (m *Manager) handleSetStyle(e dispatcher.Event) (any, error) {
	name, err := m.deps.ParserService.ParseSelection(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to set style: %w", err)
	}
	style, err := ranges.ParseRideStyle(name)
	if err != nil {
		return nil, fmt.Errorf("failed to set style: %w", err)
	}
	m.session.SetStyle(style)
	m.recordResults()
	return nil, nil
}

func (m *Manager) handleSetBike(e dispatcher.Event) (any, error) {
	name, err := m.deps.ParserService.ParseSelection(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to set bike type: %w", err)
	}
	bike, err := ranges.ParseBikeType(name)
	if err != nil {
		return nil, fmt.Errorf("failed to set bike type: %w", err)
	}
	m.session.SetBike(bike)
	m.recordResults()
	return nil, nil
}

func (m *Manager) handleClearPoints(e dispatcher.Event) (any, error) {
	m.session.ClearPoints()
	return nil, nil
}

func (m *Manager) handleSaveSnapshot(e dispatcher.Event) (any, error) {
	ref, err := m.deps.ParserService.ParseSnapshotRef(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	img := m.session.Image()
	snap := core.Snapshot{
		Name:          ref.Name,
		Points:        m.session.Points(),
		DisplayWidth:  img.DisplayWidth,
		DisplayHeight: img.DisplayHeight,
		SavedAt:       time.Now(),
	}

	if err := m.backend.SaveSnapshot(&snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	// Cache by name so an immediate restore skips the backend read.
	m.deps.SnapshotCache.Set(snap)

	return nil, nil
}

func (m *Manager) handleRestoreSnapshot(e dispatcher.Event) (any, error) {
	ref, err := m.deps.ParserService.ParseSnapshotRef(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to restore snapshot: %w", err)
	}

	snap, ok := m.deps.SnapshotCache.Get(ref.Name)
	if !ok {
		loaded, err := m.backend.LoadSnapshot(ref.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to restore snapshot: %w", err)
		}
		snap = *loaded
		m.deps.SnapshotCache.Set(snap)
	}

	img := m.session.Image()
	if snap.DisplayWidth != img.DisplayWidth || snap.DisplayHeight != img.DisplayHeight {
		// Coordinates are restored verbatim; snapshots are not rescaled
		// across canvas sizes.
		m.deps.LogManager.Logger().Warn("Snapshot canvas dimensions differ from current image",
			"snapshot", ref.Name,
			"savedWidth", snap.DisplayWidth, "savedHeight", snap.DisplayHeight,
			"currentWidth", img.DisplayWidth, "currentHeight", img.DisplayHeight)
	}

	m.session.RestorePoints(snap.Points)
	m.recordResults()

	return nil, nil
}

func (m *Manager) handleExportReport(e dispatcher.Event) (any, error) {
	photo, _, ok := m.deps.ImageCache.Get()
	if !ok {
		return nil, report.ErrNoImage
	}

	info := m.session.Info()
	results := m.session.Results()
	ov := render.Build(render.Input{
		Points:      m.session.Points(),
		Results:     results,
		ActiveIndex: -1,
		Image:       info.Image,
	})

	reportInfo, err := m.exporter.Export(report.Job{
		Session: &info,
		Photo:   photo,
		Overlay: ov,
		Results: results,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export report: %w", err)
	}

	if err := m.backend.RecordReport(reportInfo); err != nil {
		m.deps.LogManager.Logger().Error("Failed to persist report record", "error", err)
	}

	return reportInfo.FilePath, nil
}

// Status summarizes the engine for the host UI status command.
type Status struct {
	State            string `json:"state"`
	PointCount       int    `json:"pointCount"`
	RideStyle        string `json:"rideStyle"`
	BikeType         string `json:"bikeType"`
	ImageLoaded      bool   `json:"imageLoaded"`
	ExportInProgress bool   `json:"exportInProgress"`
	GestureQueueLen  int    `json:"gestureQueueLen"`
}

var stateNames = map[session.State]string{
	session.StateIdle:     "idle",
	session.StateEngaged:  "engaged",
	session.StateDragging: "dragging",
}

func (m *Manager) handleStatus(e dispatcher.Event) (any, error) {
	_, _, imageLoaded := m.deps.ImageCache.Get()
	return Status{
		State:            stateNames[m.session.State()],
		PointCount:       m.session.PointCount(),
		RideStyle:        m.session.Style().String(),
		BikeType:         m.session.Bike().String(),
		ImageLoaded:      imageLoaded,
		ExportInProgress: m.exporter.InProgress(),
		GestureQueueLen:  m.QueueLen(":GESTURE:MOVE:"),
	}, nil
}

// recordResults pushes the current classifications to the backend and
// the metrics sink. Storage errors are logged, never surfaced to the
// gesture path.
func (m *Manager) recordResults() {
	now := time.Now()
	for _, c := range m.session.Results() {
		if err := m.backend.RecordAngleSample(&c); err != nil {
			m.deps.LogManager.Logger().Error("Failed to record angle sample",
				"joint", c.Joint, "error", err)
		}
		if m.deps.Metrics != nil {
			bucket, point := influx.AngleSamplePoint(c, now)
			if err := m.deps.Metrics.WritePoint(context.Background(), bucket, point); err != nil {
				m.deps.LogManager.Logger().Warn("Failed to write angle metric",
					"joint", c.Joint, "error", err)
			}
		}
	}
}
