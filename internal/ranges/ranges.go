// Package ranges holds the target angle intervals per joint, bicycle
// type and riding style, and classifies derived angles against them.
package ranges

import (
	"fmt"
	"strings"

	"github.com/velofit/engine/internal/landmark"
	"github.com/velofit/engine/pkg/core"
)

// RideStyle selects how upright or stretched the target posture is.
type RideStyle int

const (
	StyleRelaxed RideStyle = iota
	StyleBalanced
	StyleAggressive
)

// RideStyles lists all riding styles.
var RideStyles = []RideStyle{StyleRelaxed, StyleBalanced, StyleAggressive}

var styleNames = map[RideStyle]string{
	StyleRelaxed:    "relaxed",
	StyleBalanced:   "balanced",
	StyleAggressive: "aggressive",
}

func (s RideStyle) String() string { return styleNames[s] }

// ParseRideStyle maps a style name to its enum value.
func ParseRideStyle(s string) (RideStyle, error) {
	for style, name := range styleNames {
		if strings.EqualFold(s, name) {
			return style, nil
		}
	}
	return 0, fmt.Errorf("unknown riding style: %q", s)
}

// BikeType selects the bicycle geometry family.
type BikeType int

const (
	BikeRoad BikeType = iota
	BikeGravel
	BikeMTB
)

// BikeTypes lists all bicycle types.
var BikeTypes = []BikeType{BikeRoad, BikeGravel, BikeMTB}

var bikeNames = map[BikeType]string{
	BikeRoad:   "road",
	BikeGravel: "gravel",
	BikeMTB:    "mtb",
}

func (b BikeType) String() string { return bikeNames[b] }

// ParseBikeType maps a bicycle type name to its enum value.
func ParseBikeType(s string) (BikeType, error) {
	for bike, name := range bikeNames {
		if strings.EqualFold(s, name) {
			return bike, nil
		}
	}
	return 0, fmt.Errorf("unknown bicycle type: %q", s)
}

type rangeKey struct {
	joint landmark.Joint
	bike  BikeType
	style RideStyle
}

// Table resolves the target interval for every joint, bicycle type and
// riding style combination. Bicycle type and riding style are
// orthogonal axes; every combination is valid.
type Table struct {
	intervals map[rangeKey]core.Interval
}

// intervalRows declares the full table. Rows are grouped by joint, then
// bicycle type, with the three style intervals relaxed/balanced/aggressive.
var intervalRows = []struct {
	joint     landmark.Joint
	bike      BikeType
	intervals [3]core.Interval
}{
	{landmark.JointAnkle, BikeRoad, [3]core.Interval{{Min: 95, Max: 115}, {Min: 100, Max: 120}, {Min: 105, Max: 125}}},
	{landmark.JointAnkle, BikeGravel, [3]core.Interval{{Min: 93, Max: 113}, {Min: 98, Max: 118}, {Min: 103, Max: 123}}},
	{landmark.JointAnkle, BikeMTB, [3]core.Interval{{Min: 90, Max: 110}, {Min: 95, Max: 115}, {Min: 100, Max: 120}}},

	{landmark.JointKnee, BikeRoad, [3]core.Interval{{Min: 135, Max: 140}, {Min: 140, Max: 145}, {Min: 143, Max: 148}}},
	{landmark.JointKnee, BikeGravel, [3]core.Interval{{Min: 133, Max: 138}, {Min: 138, Max: 143}, {Min: 141, Max: 146}}},
	{landmark.JointKnee, BikeMTB, [3]core.Interval{{Min: 130, Max: 136}, {Min: 135, Max: 141}, {Min: 138, Max: 144}}},

	{landmark.JointBack, BikeRoad, [3]core.Interval{{Min: 50, Max: 60}, {Min: 40, Max: 50}, {Min: 30, Max: 40}}},
	{landmark.JointBack, BikeGravel, [3]core.Interval{{Min: 55, Max: 65}, {Min: 45, Max: 55}, {Min: 35, Max: 45}}},
	{landmark.JointBack, BikeMTB, [3]core.Interval{{Min: 60, Max: 70}, {Min: 50, Max: 60}, {Min: 40, Max: 50}}},

	{landmark.JointShoulder, BikeRoad, [3]core.Interval{{Min: 75, Max: 90}, {Min: 80, Max: 95}, {Min: 85, Max: 100}}},
	{landmark.JointShoulder, BikeGravel, [3]core.Interval{{Min: 73, Max: 88}, {Min: 78, Max: 93}, {Min: 83, Max: 98}}},
	{landmark.JointShoulder, BikeMTB, [3]core.Interval{{Min: 70, Max: 85}, {Min: 75, Max: 90}, {Min: 80, Max: 95}}},

	{landmark.JointElbow, BikeRoad, [3]core.Interval{{Min: 10, Max: 20}, {Min: 15, Max: 25}, {Min: 20, Max: 30}}},
	{landmark.JointElbow, BikeGravel, [3]core.Interval{{Min: 12, Max: 22}, {Min: 17, Max: 27}, {Min: 22, Max: 32}}},
	{landmark.JointElbow, BikeMTB, [3]core.Interval{{Min: 15, Max: 25}, {Min: 20, Max: 30}, {Min: 25, Max: 35}}},
}

// NewTable builds the range table and verifies it is total over the
// joint x bicycle-type x riding-style cross product. A missing or
// inverted interval is a configuration defect and fails construction;
// lookups afterwards can never miss.
func NewTable() (*Table, error) {
	t := &Table{intervals: make(map[rangeKey]core.Interval)}

	for _, row := range intervalRows {
		for i, style := range RideStyles {
			iv := row.intervals[i]
			if iv.Min > iv.Max {
				return nil, fmt.Errorf("inverted interval for %s/%s/%s: [%g,%g]",
					row.joint, row.bike, style, iv.Min, iv.Max)
			}
			key := rangeKey{joint: row.joint, bike: row.bike, style: style}
			if _, dup := t.intervals[key]; dup {
				return nil, fmt.Errorf("duplicate interval for %s/%s/%s", row.joint, row.bike, style)
			}
			t.intervals[key] = iv
		}
	}

	for _, j := range landmark.Joints {
		for _, b := range BikeTypes {
			for _, s := range RideStyles {
				if _, ok := t.intervals[rangeKey{joint: j, bike: b, style: s}]; !ok {
					return nil, fmt.Errorf("missing interval for %s/%s/%s", j, b, s)
				}
			}
		}
	}

	return t, nil
}

// Interval returns the target interval for the combination. The table
// is validated total at construction, so this cannot miss.
func (t *Table) Interval(joint landmark.Joint, bike BikeType, style RideStyle) core.Interval {
	return t.intervals[rangeKey{joint: joint, bike: bike, style: style}]
}

// Classify compares a derived angle against its target interval and
// attaches directional advice when it falls outside.
func (t *Table) Classify(joint landmark.Joint, degrees float64, bike BikeType, style RideStyle) core.Classification {
	iv := t.Interval(joint, bike, style)

	c := core.Classification{
		Joint:         joint.String(),
		Degrees:       degrees,
		Range:         iv,
		IsWithinRange: iv.Contains(degrees),
	}
	if !c.IsWithinRange {
		if degrees < iv.Min {
			c.Direction = core.DirectionLow
		} else {
			c.Direction = core.DirectionHigh
		}
		c.Advice = adviceFor(joint, c.Direction)
	}
	return c
}
