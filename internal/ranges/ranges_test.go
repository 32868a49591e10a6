package ranges

import (
	"testing"

	"github.com/velofit/engine/internal/landmark"
	"github.com/velofit/engine/pkg/core"
)

func newTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable()
	if err != nil {
		t.Fatalf("table construction failed: %v", err)
	}
	return table
}

func TestNewTable_TotalOverCrossProduct(t *testing.T) {
	table := newTable(t)

	for _, j := range landmark.Joints {
		for _, b := range BikeTypes {
			for _, s := range RideStyles {
				iv := table.Interval(j, b, s)
				if iv.Min == 0 && iv.Max == 0 {
					t.Errorf("empty interval for %s/%s/%s", j, b, s)
				}
				if iv.Min > iv.Max {
					t.Errorf("inverted interval for %s/%s/%s", j, b, s)
				}
			}
		}
	}
}

func TestClassify_WithinRange(t *testing.T) {
	table := newTable(t)

	c := table.Classify(landmark.JointKnee, 142, BikeRoad, StyleBalanced)
	if !c.IsWithinRange {
		t.Error("142 degrees should be within the balanced/road knee range [140,145]")
	}
	if c.Direction != "" || c.Advice != "" {
		t.Error("in-range classification must carry no direction or advice")
	}
	if c.Range.Min != 140 || c.Range.Max != 145 {
		t.Errorf("unexpected interval %+v", c.Range)
	}
}

func TestClassify_BoundariesInclusive(t *testing.T) {
	table := newTable(t)

	for _, deg := range []float64{140, 145} {
		if c := table.Classify(landmark.JointKnee, deg, BikeRoad, StyleBalanced); !c.IsWithinRange {
			t.Errorf("%g degrees sits on the closed boundary and must be in range", deg)
		}
	}
}

func TestClassify_LowAndHigh(t *testing.T) {
	table := newTable(t)

	low := table.Classify(landmark.JointKnee, 130, BikeRoad, StyleBalanced)
	if low.IsWithinRange || low.Direction != core.DirectionLow {
		t.Errorf("expected low classification, got %+v", low)
	}
	if low.Advice == "" {
		t.Error("out-of-range classification must carry advice")
	}

	high := table.Classify(landmark.JointKnee, 150, BikeRoad, StyleBalanced)
	if high.IsWithinRange || high.Direction != core.DirectionHigh {
		t.Errorf("expected high classification, got %+v", high)
	}
}

func TestClassify_StyleSwitchChangesOnlyRange(t *testing.T) {
	table := newTable(t)

	relaxed := table.Classify(landmark.JointKnee, 141, BikeRoad, StyleRelaxed)
	aggressive := table.Classify(landmark.JointKnee, 141, BikeRoad, StyleAggressive)

	if relaxed.Degrees != aggressive.Degrees {
		t.Error("switching style must not alter the measured degrees")
	}
	// 141 is above the relaxed road interval [135,140] and below the
	// aggressive one [143,148].
	if relaxed.IsWithinRange || relaxed.Direction != core.DirectionHigh {
		t.Errorf("expected high against relaxed range, got %+v", relaxed)
	}
	if aggressive.IsWithinRange || aggressive.Direction != core.DirectionLow {
		t.Errorf("expected low against aggressive range, got %+v", aggressive)
	}
}

func TestClassify_AggressiveMTBIsDistinctCombination(t *testing.T) {
	table := newTable(t)

	road := table.Interval(landmark.JointBack, BikeRoad, StyleAggressive)
	mtb := table.Interval(landmark.JointBack, BikeMTB, StyleAggressive)
	if road == mtb {
		t.Error("aggressive road and aggressive mtb back ranges should differ")
	}
}

func TestAdvice_AllOutOfRangeCombinationsResolve(t *testing.T) {
	for _, j := range landmark.Joints {
		for _, d := range []core.Direction{core.DirectionLow, core.DirectionHigh} {
			if adviceFor(j, d) == "" {
				t.Errorf("missing advice for %s/%s", j, d)
			}
		}
	}
}

func TestParseRideStyle(t *testing.T) {
	s, err := ParseRideStyle("Aggressive")
	if err != nil || s != StyleAggressive {
		t.Errorf("expected aggressive, got %v (%v)", s, err)
	}
	if _, err := ParseRideStyle("upsidedown"); err == nil {
		t.Error("expected error for unknown style")
	}
}

func TestParseBikeType(t *testing.T) {
	b, err := ParseBikeType("mtb")
	if err != nil || b != BikeMTB {
		t.Errorf("expected mtb, got %v (%v)", b, err)
	}
	if _, err := ParseBikeType("unicycle"); err == nil {
		t.Error("expected error for unknown bicycle type")
	}
}
