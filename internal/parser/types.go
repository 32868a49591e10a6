package parser

import "github.com/velofit/engine/pkg/core"

// SessionStart carries the data for a new fit session.
type SessionStart struct {
	Rider string         `json:"rider"`
	Image core.ImageInfo `json:"image"`
}

// LoadImage describes an uploaded or demo photo: where the decoded
// file lives on disk and the display dimensions the host scaled it to.
// Natural dimensions come from decoding the file itself.
type LoadImage struct {
	Path          string  `json:"path"`
	Demo          bool    `json:"demo"`
	DisplayWidth  float64 `json:"displayWidth"`
	DisplayHeight float64 `json:"displayHeight"`
}

// Gesture is one pointer event in display coordinates.
type Gesture struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Touch bool    `json:"touch"`
}

// Point returns the gesture location as a core point.
func (g Gesture) Point() core.Point {
	return core.Point{X: g.X, Y: g.Y}
}

// SnapshotRef names a stored landmark snapshot.
type SnapshotRef struct {
	Name string `json:"name"`
}
