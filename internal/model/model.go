package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/velofit/engine/pkg/core"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels lists every struct that maps to a table in the schema.
var DatabaseModels = []interface{}{
	&FitInfo{},
	&FitSession{},
	&SnapshotRecord{},
	&AngleSample{},
	&ReportRecord{},
	&EnginePerformance{},
}

var DatabaseModelsSQLite = []interface{}{
	&FitInfo{},
	&FitSession{},
	&SnapshotRecord{},
	&AngleSample{},
	&ReportRecord{},
	&EnginePerformance{},
}

// FitInfo holds studio/instance information shown on report headers.
type FitInfo struct {
	gorm.Model
	StudioName        string `json:"studioName" gorm:"size:127"`
	StudioDescription string `json:"studioDescription" gorm:"size:255"`
	StudioWebsite     string `json:"studioURL" gorm:"size:255"`
	StudioLogo        string `json:"studioLogoURL" gorm:"size:255"`
}

func (*FitInfo) TableName() string {
	return "fit_infos"
}

// FitSession is one fit analysis: a rider, a photo and the selected
// bicycle type and riding style at session end.
type FitSession struct {
	gorm.Model
	Rider         string    `json:"rider" gorm:"size:127"`
	BikeType      string    `json:"bikeType" gorm:"size:31"`
	RideStyle     string    `json:"rideStyle" gorm:"size:31"`
	StartTime     time.Time `json:"startTime"`
	DisplayWidth  float64   `json:"displayWidth"`
	DisplayHeight float64   `json:"displayHeight"`
	NaturalWidth  int       `json:"naturalWidth"`
	NaturalHeight int       `json:"naturalHeight"`
}

func (*FitSession) TableName() string {
	return "fit_sessions"
}

// SnapshotRecord is a saved landmark sequence. The coordinates are
// stored as a WKB MultiPoint: SQLite has no spatial awareness, so the
// geometry travels as a binary blob that scans back losslessly.
type SnapshotRecord struct {
	gorm.Model
	SessionID     uint            `json:"sessionId" gorm:"index:idx_snapshot_session_id"`
	Session       FitSession      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Name          string          `json:"name" gorm:"size:127;index:idx_snapshot_name"`
	PointCount    int             `json:"pointCount"`
	Points        geom.MultiPoint `json:"points"`
	DisplayWidth  float64         `json:"displayWidth"`
	DisplayHeight float64         `json:"displayHeight"`
}

func (*SnapshotRecord) TableName() string {
	return "snapshot_records"
}

// AngleSample is one classified joint angle recorded when results are
// derived, kept as session history for later comparison.
type AngleSample struct {
	Time        time.Time `json:"time" gorm:"index:idx_anglesample_time"`
	SessionID   uint      `json:"sessionId" gorm:"index:idx_anglesample_session_id"`
	Session     FitSession `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Joint       string    `json:"joint" gorm:"size:31"`
	Degrees     float64   `json:"degrees"`
	WithinRange bool      `json:"withinRange"`
	RangeMin    float64   `json:"rangeMin"`
	RangeMax    float64   `json:"rangeMax"`
}

func (*AngleSample) TableName() string {
	return "angle_samples"
}

// ReportRecord tracks an exported report file and its table rows.
type ReportRecord struct {
	gorm.Model
	SessionID uint           `json:"sessionId" gorm:"index:idx_report_session_id"`
	Session   FitSession     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	FilePath  string         `json:"filePath" gorm:"size:255"`
	BikeType  string         `json:"bikeType" gorm:"size:31"`
	RideStyle string         `json:"rideStyle" gorm:"size:31"`
	Rows      datatypes.JSON `json:"rows"`
}

func (*ReportRecord) TableName() string {
	return "report_records"
}

// EnginePerformance is a periodic status sample from the monitor.
type EnginePerformance struct {
	Time                time.Time `json:"time" gorm:"index:idx_engineperformance_time"`
	GestureQueueLen     uint16    `json:"gestureQueueLen"`
	SampleQueueLen      uint16    `json:"sampleQueueLen"`
	SnapshotQueueLen    uint16    `json:"snapshotQueueLen"`
	ExportInProgress    bool      `json:"exportInProgress"`
	LastWriteDurationMs float32   `json:"lastWriteDurationMs"`
}

func (*EnginePerformance) TableName() string {
	return "engine_performances"
}

////////////////////////
// CONVERSIONS
////////////////////////

// PointsToMultiPoint converts display-space points to the WKB-backed
// geometry stored on a SnapshotRecord.
func PointsToMultiPoint(points []core.Point) geom.MultiPoint {
	pts := make([]geom.Point, 0, len(points))
	for _, p := range points {
		pt, err := geom.NewPoint(geom.Coordinates{
			XY:   geom.XY{X: p.X, Y: p.Y},
			Type: geom.DimXY,
		})
		if err != nil {
			// Only non-finite coordinates fail validation; the pointer
			// pipeline never produces those, so the point is dropped
			// rather than poisoning the whole snapshot.
			continue
		}
		pts = append(pts, pt)
	}
	return geom.NewMultiPoint(pts)
}

// MultiPointToPoints converts stored snapshot geometry back to
// display-space points, preserving order.
func MultiPointToPoints(mp geom.MultiPoint) []core.Point {
	n := mp.NumPoints()
	points := make([]core.Point, 0, n)
	for i := 0; i < n; i++ {
		xy, ok := mp.PointN(i).XY()
		if !ok {
			continue
		}
		points = append(points, core.Point{X: xy.X, Y: xy.Y})
	}
	return points
}

// NewSnapshotRecord builds the persisted form of a snapshot.
func NewSnapshotRecord(sessionID uint, snap core.Snapshot) SnapshotRecord {
	return SnapshotRecord{
		SessionID:     sessionID,
		Name:          snap.Name,
		PointCount:    len(snap.Points),
		Points:        PointsToMultiPoint(snap.Points),
		DisplayWidth:  snap.DisplayWidth,
		DisplayHeight: snap.DisplayHeight,
	}
}

// ToSnapshot converts a stored record back to the flat snapshot form.
func (r SnapshotRecord) ToSnapshot() core.Snapshot {
	return core.Snapshot{
		Name:          r.Name,
		Points:        MultiPointToPoints(r.Points),
		DisplayWidth:  r.DisplayWidth,
		DisplayHeight: r.DisplayHeight,
		SavedAt:       r.CreatedAt,
	}
}
