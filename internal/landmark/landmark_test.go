package landmark

import (
	"testing"

	"github.com/velofit/engine/internal/geometry"
	"github.com/velofit/engine/pkg/core"
)

func TestSequence_AppendUpToCapacity(t *testing.T) {
	seq := NewSequence()
	for i := 0; i < MaxPoints; i++ {
		idx, err := seq.Append(core.Point{X: float64(i)})
		if err != nil {
			t.Fatalf("unexpected error at %d: %v", i, err)
		}
		if idx != i {
			t.Errorf("expected index %d, got %d", i, idx)
		}
	}
	if _, err := seq.Append(core.Point{}); err != ErrSequenceFull {
		t.Errorf("expected ErrSequenceFull, got %v", err)
	}
	if seq.Len() != MaxPoints {
		t.Errorf("expected length %d, got %d", MaxPoints, seq.Len())
	}
}

func TestSequence_SetAt(t *testing.T) {
	seq := NewSequence()
	seq.Append(core.Point{X: 1, Y: 1})
	seq.SetAt(0, core.Point{X: 9, Y: 9})
	if got := seq.At(0); got.X != 9 || got.Y != 9 {
		t.Errorf("expected (9,9), got %+v", got)
	}
}

func TestSequence_PointsReturnsCopy(t *testing.T) {
	seq := NewSequence()
	seq.Append(core.Point{X: 1})
	pts := seq.Points()
	pts[0].X = 99
	if seq.At(0).X != 1 {
		t.Error("Points() must not expose internal storage")
	}
}

func TestSequence_Replace(t *testing.T) {
	seq := NewSequence()
	seq.Append(core.Point{X: 1})
	seq.Replace([]core.Point{{X: 5}, {X: 6}, {X: 7}, {X: 8}})
	if seq.Len() != 4 {
		t.Fatalf("expected 4 points, got %d", seq.Len())
	}
	if seq.At(0).X != 5 {
		t.Errorf("expected restored first point X=5, got %f", seq.At(0).X)
	}
}

func TestSequence_Nearest(t *testing.T) {
	seq := NewSequence()
	seq.Append(core.Point{X: 0, Y: 0})
	seq.Append(core.Point{X: 100, Y: 0})
	seq.Append(core.Point{X: 200, Y: 0})

	if got := seq.Nearest(core.Point{X: 105, Y: 0}, 25, geometry.Distance); got != 1 {
		t.Errorf("expected index 1, got %d", got)
	}
	if got := seq.Nearest(core.Point{X: 150, Y: 0}, 25, geometry.Distance); got != -1 {
		t.Errorf("expected no match, got %d", got)
	}
}

func TestSequence_NearestTieBreaksToEarliest(t *testing.T) {
	seq := NewSequence()
	seq.Append(core.Point{X: 0, Y: 0})
	seq.Append(core.Point{X: 20, Y: 0})

	// Equidistant from both points.
	if got := seq.Nearest(core.Point{X: 10, Y: 0}, 25, geometry.Distance); got != 0 {
		t.Errorf("expected tie to resolve to index 0, got %d", got)
	}
}

// fullSequence places the seven points from the reference posture used
// across the derivation tests.
func fullSequence() *Sequence {
	seq := NewSequence()
	pts := []core.Point{
		{X: 0, Y: 100}, {X: 10, Y: 80}, {X: 20, Y: 50}, {X: 15, Y: 0},
		{X: 40, Y: -20}, {X: 60, Y: -10}, {X: 80, Y: 0},
	}
	for _, p := range pts {
		seq.Append(p)
	}
	return seq
}

func TestDerive_AllJointsWithFullSequence(t *testing.T) {
	readings := Derive(fullSequence(), nil)
	if len(readings) != len(Joints) {
		t.Fatalf("expected %d readings, got %d", len(Joints), len(readings))
	}

	byJoint := map[string]float64{}
	for _, r := range readings {
		byJoint[r.Joint] = r.Degrees
	}

	knee, err := geometry.AngleAt(core.Point{X: 10, Y: 80}, core.Point{X: 20, Y: 50}, core.Point{X: 15, Y: 0})
	if err != nil {
		t.Fatal(err)
	}
	if got := byJoint["knee"]; got != knee {
		t.Errorf("knee reading %f does not match kernel result %f", got, knee)
	}

	back := geometry.AngleFromHorizontal(core.Point{X: 15, Y: 0}, core.Point{X: 40, Y: -20})
	if got := byJoint["back"]; got != back {
		t.Errorf("back reading %f does not match kernel result %f", got, back)
	}

	raw, err := geometry.AngleAt(core.Point{X: 40, Y: -20}, core.Point{X: 60, Y: -10}, core.Point{X: 80, Y: 0})
	if err != nil {
		t.Fatal(err)
	}
	wantElbow := 180 - raw
	if wantElbow < 0 {
		wantElbow = -wantElbow
	}
	if got := byJoint["elbow"]; got != wantElbow {
		t.Errorf("elbow reading %f, want flexion %f", got, wantElbow)
	}
}

func TestDerive_PartialSequence(t *testing.T) {
	seq := NewSequence()
	seq.Append(core.Point{X: 0, Y: 100})
	seq.Append(core.Point{X: 10, Y: 80})
	seq.Append(core.Point{X: 20, Y: 50})

	readings := Derive(seq, nil)
	if len(readings) != 1 {
		t.Fatalf("expected only the ankle reading, got %d readings", len(readings))
	}
	if readings[0].Joint != "ankle" {
		t.Errorf("expected ankle, got %s", readings[0].Joint)
	}
}

func TestDerive_SkipsDegenerateJoint(t *testing.T) {
	seq := NewSequence()
	seq.Append(core.Point{X: 10, Y: 80}) // toe coincides with ankle
	seq.Append(core.Point{X: 10, Y: 80})
	seq.Append(core.Point{X: 20, Y: 50})
	seq.Append(core.Point{X: 15, Y: 0})

	readings := Derive(seq, nil)
	for _, r := range readings {
		if r.Joint == "ankle" {
			t.Fatal("degenerate ankle joint must be skipped")
		}
	}
	found := false
	for _, r := range readings {
		if r.Joint == "knee" {
			found = true
		}
	}
	if !found {
		t.Error("knee reading should still derive")
	}
}

func TestDerive_Idempotent(t *testing.T) {
	seq := fullSequence()
	first := Derive(seq, nil)
	second := Derive(seq, nil)
	if len(first) != len(second) {
		t.Fatalf("reading counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("reading %d differs between identical derivations", i)
		}
	}
}

func TestRoleString(t *testing.T) {
	if RoleToe.String() != "toe" || RoleHand.String() != "hand" {
		t.Error("unexpected role names")
	}
}
