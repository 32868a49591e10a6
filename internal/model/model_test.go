package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velofit/engine/pkg/core"
)

func TestPointsRoundTrip(t *testing.T) {
	points := []core.Point{
		{X: 0, Y: 100},
		{X: 10, Y: 80},
		{X: 20, Y: 50},
		{X: 15, Y: 0},
		{X: 40, Y: -20},
		{X: 60, Y: -10},
		{X: 80, Y: 0},
	}

	mp := PointsToMultiPoint(points)
	require.Equal(t, len(points), mp.NumPoints())

	got := MultiPointToPoints(mp)
	require.Len(t, got, len(points))
	for i := range points {
		assert.InDelta(t, points[i].X, got[i].X, 1e-9, "x at %d", i)
		assert.InDelta(t, points[i].Y, got[i].Y, 1e-9, "y at %d", i)
	}
}

func TestPointsSkipNonFinite(t *testing.T) {
	points := []core.Point{
		{X: 1, Y: 2},
		{X: math.NaN(), Y: 3},
		{X: 4, Y: math.Inf(1)},
		{X: 5, Y: 6},
	}

	mp := PointsToMultiPoint(points)
	require.Equal(t, 2, mp.NumPoints(), "non-finite coordinates must be dropped")

	got := MultiPointToPoints(mp)
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].X)
	assert.Equal(t, 5.0, got[1].X)
}

func TestPointsRoundTripEmpty(t *testing.T) {
	mp := PointsToMultiPoint(nil)
	assert.Equal(t, 0, mp.NumPoints())
	assert.Empty(t, MultiPointToPoints(mp))
}

func TestSnapshotRecordConversion(t *testing.T) {
	snap := core.Snapshot{
		Name:          "baseline",
		Points:        []core.Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
		DisplayWidth:  800,
		DisplayHeight: 600,
	}

	rec := NewSnapshotRecord(7, snap)
	assert.Equal(t, uint(7), rec.SessionID)
	assert.Equal(t, "baseline", rec.Name)
	assert.Equal(t, 2, rec.PointCount)
	assert.Equal(t, 800.0, rec.DisplayWidth)

	back := rec.ToSnapshot()
	assert.Equal(t, snap.Name, back.Name)
	require.Len(t, back.Points, 2)
	assert.Equal(t, 3.0, back.Points[1].X)
	assert.Equal(t, snap.DisplayHeight, back.DisplayHeight)
}

func TestModelListsMatch(t *testing.T) {
	// sqlite migration covers the same schema as postgres
	assert.Equal(t, len(DatabaseModels), len(DatabaseModelsSQLite))
}
