package v1

import (
	"time"

	"github.com/velofit/engine/pkg/core"
)

// SessionData contains all the data needed to build an export
type SessionData struct {
	Session       *core.SessionInfo
	EngineVersion string
	EndTime       time.Time

	// FinalPoints is the committed landmark sequence at session end.
	FinalPoints []core.Point

	Samples   []core.Classification
	Snapshots []core.Snapshot
	Reports   []core.ReportInfo
}

// Build creates an Export from the session data. Samples are recorded
// every time results are derived; the export keeps only the latest
// sample per joint, in first-seen joint order.
func Build(data *SessionData) Export {
	export := Export{
		EngineVersion: data.EngineVersion,
		Rider:         data.Session.Rider,
		BikeType:      data.Session.BikeType,
		RideStyle:     data.Session.RideStyle,
		StartTime:     data.Session.StartTime.UTC().Format(time.RFC3339),
		DisplayWidth:  data.Session.Image.DisplayWidth,
		DisplayHeight: data.Session.Image.DisplayHeight,
		NaturalWidth:  data.Session.Image.NaturalWidth,
		NaturalHeight: data.Session.Image.NaturalHeight,
		Points:        pointsToPairs(data.FinalPoints),
		Angles:        make([]Angle, 0),
		Snapshots:     make([]Snapshot, 0, len(data.Snapshots)),
		Reports:       make([]string, 0, len(data.Reports)),
	}

	if !data.EndTime.IsZero() && data.EndTime.After(data.Session.StartTime) {
		export.Duration = data.EndTime.Sub(data.Session.StartTime).Seconds()
	}

	// Latest sample per joint, preserving first-seen order.
	jointOrder := make([]string, 0, 5)
	latest := make(map[string]core.Classification)
	for _, s := range data.Samples {
		if _, seen := latest[s.Joint]; !seen {
			jointOrder = append(jointOrder, s.Joint)
		}
		latest[s.Joint] = s
	}
	for _, joint := range jointOrder {
		s := latest[joint]
		angle := Angle{
			Joint:   s.Joint,
			Degrees: s.Degrees,
			Min:     s.Range.Min,
			Max:     s.Range.Max,
			Status:  "ok",
		}
		if !s.IsWithinRange {
			angle.Status = string(s.Direction)
			angle.Advice = s.Advice
		}
		export.Angles = append(export.Angles, angle)
	}

	for _, snap := range data.Snapshots {
		export.Snapshots = append(export.Snapshots, Snapshot{
			Name:          snap.Name,
			Points:        pointsToPairs(snap.Points),
			DisplayWidth:  snap.DisplayWidth,
			DisplayHeight: snap.DisplayHeight,
			SavedAt:       snap.SavedAt.UTC().Format(time.RFC3339),
		})
	}

	for _, r := range data.Reports {
		export.Reports = append(export.Reports, r.FilePath)
	}

	return export
}

func pointsToPairs(points []core.Point) [][]float64 {
	pairs := make([][]float64, 0, len(points))
	for _, p := range points {
		pairs = append(pairs, []float64{p.X, p.Y})
	}
	return pairs
}
