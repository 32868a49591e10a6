package v1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velofit/engine/pkg/core"
)

func testSessionData() *SessionData {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return &SessionData{
		Session: &core.SessionInfo{
			Rider:     "Alex",
			BikeType:  "road",
			RideStyle: "balanced",
			StartTime: start,
			Image: core.ImageInfo{
				DisplayWidth:  800,
				DisplayHeight: 600,
				NaturalWidth:  3200,
				NaturalHeight: 2400,
			},
		},
		EngineVersion: "1.0.0",
		EndTime:       start.Add(90 * time.Second),
		FinalPoints:   []core.Point{{X: 10, Y: 20}, {X: 30, Y: 40}},
	}
}

func TestBuild_SessionHeader(t *testing.T) {
	export := Build(testSessionData())

	assert.Equal(t, "1.0.0", export.EngineVersion)
	assert.Equal(t, "Alex", export.Rider)
	assert.Equal(t, "road", export.BikeType)
	assert.Equal(t, "balanced", export.RideStyle)
	assert.Equal(t, "2026-03-14T10:00:00Z", export.StartTime)
	assert.Equal(t, 90.0, export.Duration)
	assert.Equal(t, 800.0, export.DisplayWidth)
	assert.Equal(t, 3200, export.NaturalWidth)
}

func TestBuild_PointsArePairs(t *testing.T) {
	export := Build(testSessionData())

	require.Len(t, export.Points, 2)
	assert.Equal(t, []float64{10, 20}, export.Points[0])
	assert.Equal(t, []float64{30, 40}, export.Points[1])
}

func TestBuild_EmptySession(t *testing.T) {
	data := testSessionData()
	data.FinalPoints = nil
	data.EndTime = time.Time{}

	export := Build(data)

	assert.Equal(t, 0.0, export.Duration)
	assert.NotNil(t, export.Points)
	assert.Empty(t, export.Points)
	assert.NotNil(t, export.Angles)
	assert.NotNil(t, export.Snapshots)
	assert.NotNil(t, export.Reports)
}

func TestBuild_LatestSamplePerJointWins(t *testing.T) {
	data := testSessionData()
	data.Samples = []core.Classification{
		{Joint: "knee", Degrees: 130, Range: core.Interval{Min: 140, Max: 145}, IsWithinRange: false, Direction: core.DirectionLow, Advice: "raise the saddle"},
		{Joint: "back", Degrees: 45, Range: core.Interval{Min: 40, Max: 50}, IsWithinRange: true},
		{Joint: "knee", Degrees: 142, Range: core.Interval{Min: 140, Max: 145}, IsWithinRange: true},
	}

	export := Build(data)

	require.Len(t, export.Angles, 2)
	// first-seen order preserved
	assert.Equal(t, "knee", export.Angles[0].Joint)
	assert.Equal(t, 142.0, export.Angles[0].Degrees)
	assert.Equal(t, "ok", export.Angles[0].Status)
	assert.Empty(t, export.Angles[0].Advice)
	assert.Equal(t, "back", export.Angles[1].Joint)
}

func TestBuild_OutOfRangeCarriesDirectionAndAdvice(t *testing.T) {
	data := testSessionData()
	data.Samples = []core.Classification{
		{Joint: "elbow", Degrees: 5, Range: core.Interval{Min: 10, Max: 20}, IsWithinRange: false, Direction: core.DirectionLow, Advice: "shorten the reach"},
	}

	export := Build(data)

	require.Len(t, export.Angles, 1)
	assert.Equal(t, "low", export.Angles[0].Status)
	assert.Equal(t, "shorten the reach", export.Angles[0].Advice)
	assert.Equal(t, 10.0, export.Angles[0].Min)
	assert.Equal(t, 20.0, export.Angles[0].Max)
}

func TestBuild_SnapshotsAndReports(t *testing.T) {
	data := testSessionData()
	data.Snapshots = []core.Snapshot{
		{
			Name:          "baseline",
			Points:        []core.Point{{X: 1, Y: 2}},
			DisplayWidth:  800,
			DisplayHeight: 600,
			SavedAt:       time.Date(2026, 3, 14, 10, 1, 0, 0, time.UTC),
		},
	}
	data.Reports = []core.ReportInfo{
		{FilePath: "/tmp/reports/alex_fit.pdf"},
	}

	export := Build(data)

	require.Len(t, export.Snapshots, 1)
	assert.Equal(t, "baseline", export.Snapshots[0].Name)
	assert.Equal(t, [][]float64{{1, 2}}, export.Snapshots[0].Points)
	assert.Equal(t, "2026-03-14T10:01:00Z", export.Snapshots[0].SavedAt)

	require.Len(t, export.Reports, 1)
	assert.Equal(t, "/tmp/reports/alex_fit.pdf", export.Reports[0])
}
