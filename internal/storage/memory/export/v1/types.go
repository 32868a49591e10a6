// Package v1 contains the v1 export format for fit session data.
// This format is consumed by the velofit web viewer.
package v1

// Export is the root JSON structure for v1 format
type Export struct {
	EngineVersion string  `json:"engineVersion"`
	Rider         string  `json:"rider"`
	BikeType      string  `json:"bikeType"`
	RideStyle     string  `json:"rideStyle"`
	StartTime     string  `json:"startTime"`
	Duration      float64 `json:"duration"` // seconds

	DisplayWidth  float64 `json:"displayWidth"`
	DisplayHeight float64 `json:"displayHeight"`
	NaturalWidth  int     `json:"naturalWidth"`
	NaturalHeight int     `json:"naturalHeight"`

	// Points holds the final committed landmark coordinates in placement
	// order, each as [x, y] in display space.
	Points [][]float64 `json:"points"`

	Angles    []Angle    `json:"angles"`
	Snapshots []Snapshot `json:"snapshots"`
	Reports   []string   `json:"reports"`
}

// Angle is one classified joint angle on the export
type Angle struct {
	Joint   string  `json:"joint"`
	Degrees float64 `json:"degrees"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Status  string  `json:"status"` // "ok", "low" or "high"
	Advice  string  `json:"advice,omitempty"`
}

// Snapshot is a saved landmark sequence on the export
type Snapshot struct {
	Name          string      `json:"name"`
	Points        [][]float64 `json:"points"`
	DisplayWidth  float64     `json:"displayWidth"`
	DisplayHeight float64     `json:"displayHeight"`
	SavedAt       string      `json:"savedAt"`
}
