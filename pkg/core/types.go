// pkg/core/types.go
package core

import "time"

// EngineVersion is stamped onto exports and reports.
const EngineVersion = "1.0.0"

// Point is a 2D coordinate in display space (the scaled photo as shown
// in the host UI, not the natural pixel grid of the original image).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scale maps display-space coordinates to natural-resolution pixels.
// Each axis carries its own factor because the host UI may letterbox.
type Scale struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Apply maps a display-space point into natural pixel space.
func (s Scale) Apply(p Point) Point {
	return Point{X: p.X * s.X, Y: p.Y * s.Y}
}

// ImageInfo describes the loaded photo in both coordinate spaces.
type ImageInfo struct {
	DisplayWidth  float64 `json:"displayWidth"`
	DisplayHeight float64 `json:"displayHeight"`
	NaturalWidth  int     `json:"naturalWidth"`
	NaturalHeight int     `json:"naturalHeight"`
}

// ScaleFactors returns the per-axis natural/display ratios.
func (i ImageInfo) ScaleFactors() Scale {
	if i.DisplayWidth == 0 || i.DisplayHeight == 0 {
		return Scale{X: 1, Y: 1}
	}
	return Scale{
		X: float64(i.NaturalWidth) / i.DisplayWidth,
		Y: float64(i.NaturalHeight) / i.DisplayHeight,
	}
}

// Direction indicates which side of the target interval an angle fell on.
type Direction string

const (
	DirectionLow  Direction = "low"
	DirectionHigh Direction = "high"
)

// Interval is a closed [Min, Max] target range in degrees.
type Interval struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether degrees lies within the closed interval.
func (iv Interval) Contains(degrees float64) bool {
	return degrees >= iv.Min && degrees <= iv.Max
}

// AngleReading is one derived joint angle before classification.
type AngleReading struct {
	Joint   string  `json:"joint"`
	Degrees float64 `json:"degrees"`
}

// Classification is the result of comparing a reading against its
// target interval for the selected bicycle type and riding style.
type Classification struct {
	Joint         string    `json:"joint"`
	Degrees       float64   `json:"degrees"`
	Range         Interval  `json:"range"`
	IsWithinRange bool      `json:"isWithinRange"`
	Direction     Direction `json:"direction,omitempty"`
	Advice        string    `json:"advice,omitempty"`
}

// Snapshot is the flat persisted form of a landmark sequence: the point
// coordinates only, plus the canvas dimensions they were captured at so
// a restoring caller can detect (not correct) a size mismatch.
type Snapshot struct {
	Name          string    `json:"name"`
	Points        []Point   `json:"points"`
	DisplayWidth  float64   `json:"displayWidth"`
	DisplayHeight float64   `json:"displayHeight"`
	SavedAt       time.Time `json:"savedAt"`
}

// SessionInfo identifies a fit session for storage backends.
type SessionInfo struct {
	ID        uint      `json:"id"`
	Rider     string    `json:"rider"`
	BikeType  string    `json:"bikeType"`
	RideStyle string    `json:"rideStyle"`
	StartTime time.Time `json:"startTime"`
	Image     ImageInfo `json:"image"`
}

// ReportRow is one line of the recommendation table on an exported report.
type ReportRow struct {
	Joint   string  `json:"joint"`
	Degrees float64 `json:"degrees"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Status  string  `json:"status"` // "ok", "low" or "high"
	Advice  string  `json:"advice,omitempty"`
}

// ReportInfo describes a finished report export for persistence.
type ReportInfo struct {
	FilePath  string      `json:"filePath"`
	BikeType  string      `json:"bikeType"`
	RideStyle string      `json:"rideStyle"`
	Rows      []ReportRow `json:"rows"`
}

// PerformanceSample is a periodic engine status reading from the monitor.
type PerformanceSample struct {
	Time             time.Time `json:"time"`
	GestureQueueLen  int       `json:"gestureQueueLen"`
	SampleQueueLen   int       `json:"sampleQueueLen"`
	SnapshotQueueLen int       `json:"snapshotQueueLen"`
	ExportInProgress bool      `json:"exportInProgress"`
	LastWriteMs      float64   `json:"lastWriteMs"`
}

// UploadMetadata accompanies a finished report file sent to the web service.
type UploadMetadata struct {
	Rider     string  `json:"rider"`
	BikeType  string  `json:"bikeType"`
	RideStyle string  `json:"rideStyle"`
	Duration  float64 `json:"duration"` // session length in seconds
}
