// Package geometry provides the pure angle math shared by the live
// overlay path and the report export path. Both paths must call these
// functions rather than reimplementing them: the export pipeline cannot
// read back the rendered surface, so any divergence between the two
// would show different numbers on screen and on the report.
package geometry

import (
	"errors"
	"math"

	"github.com/velofit/engine/pkg/core"
)

// ErrDegenerate is returned when a vertex angle is requested for a
// triple with coincident points (a zero-length ray has no direction).
var ErrDegenerate = errors.New("degenerate point triple")

const radToDeg = 180 / math.Pi

// AngleAt returns the angle in degrees at vertex b between rays b->a
// and b->c. The result is always in [0, 180].
//
// The cosine argument is clamped to [-1, 1] before acos: accumulated
// floating-point error on near-collinear triples can push the raw value
// slightly outside and acos would return NaN.
func AngleAt(a, b, c core.Point) (float64, error) {
	v1x, v1y := a.X-b.X, a.Y-b.Y
	v2x, v2y := c.X-b.X, c.Y-b.Y

	mag1 := math.Hypot(v1x, v1y)
	mag2 := math.Hypot(v2x, v2y)
	if mag1 == 0 || mag2 == 0 {
		return math.NaN(), ErrDegenerate
	}

	cos := (v1x*v2x + v1y*v2y) / (mag1 * mag2)
	cos = Clamp(cos, -1, 1)

	return math.Acos(cos) * radToDeg, nil
}

// AngleFromHorizontal returns the angle in degrees of the segment
// from->to measured against the horizontal axis, in [0, 180]. The back
// angle uses this convention instead of a three-point flex angle.
func AngleFromHorizontal(from, to core.Point) float64 {
	return math.Abs(math.Atan2(to.Y-from.Y, to.X-from.X) * radToDeg)
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b core.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Clamp limits v to the closed interval [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
