// Package landmark models the ordered anatomical landmark sequence and
// the fixed mapping from landmark roles to derivable joint angles.
package landmark

import (
	"errors"
	"fmt"

	"github.com/velofit/engine/pkg/core"
)

// Role identifies a landmark by its position in the placement order.
// The order is semantically meaningful: the user places points along
// the body from the toe up to the hand.
type Role int

const (
	RoleToe Role = iota
	RoleAnkle
	RoleKnee
	RoleHip
	RoleShoulder
	RoleElbow
	RoleHand

	// MaxPoints is the fixed capacity of a sequence, one per role.
	MaxPoints = int(RoleHand) + 1
)

var roleNames = [MaxPoints]string{
	"toe", "ankle", "knee", "hip", "shoulder", "elbow", "hand",
}

// String returns the lowercase role name.
func (r Role) String() string {
	if r < 0 || int(r) >= MaxPoints {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// ErrSequenceFull is returned when appending to a complete sequence.
var ErrSequenceFull = errors.New("landmark sequence is full")

// Sequence is the ordered collection of committed landmark points.
// It grows by appending only; individual points are repositioned by
// the drag commit but never removed. Clearing replaces the whole set.
type Sequence struct {
	points []core.Point
}

// NewSequence returns an empty sequence.
func NewSequence() *Sequence {
	return &Sequence{points: make([]core.Point, 0, MaxPoints)}
}

// Append adds a point at the next role position and returns its index.
func (s *Sequence) Append(p core.Point) (int, error) {
	if len(s.points) >= MaxPoints {
		return -1, ErrSequenceFull
	}
	s.points = append(s.points, p)
	return len(s.points) - 1, nil
}

// Len returns the number of placed points.
func (s *Sequence) Len() int {
	return len(s.points)
}

// At returns the point at index i. The caller must ensure i < Len.
func (s *Sequence) At(i int) core.Point {
	return s.points[i]
}

// SetAt overwrites the committed position of point i. This is the drag
// commit: it is the only mutation of an existing point.
func (s *Sequence) SetAt(i int, p core.Point) {
	s.points[i] = p
}

// Points returns a copy of the committed points in placement order.
func (s *Sequence) Points() []core.Point {
	out := make([]core.Point, len(s.points))
	copy(out, s.points)
	return out
}

// Clear discards all points.
func (s *Sequence) Clear() {
	s.points = s.points[:0]
}

// Replace swaps in a restored point set, truncating to capacity.
func (s *Sequence) Replace(points []core.Point) {
	if len(points) > MaxPoints {
		points = points[:MaxPoints]
	}
	s.points = s.points[:0]
	s.points = append(s.points, points...)
}

// Nearest returns the index of the point nearest to p within radius,
// or -1 when no point qualifies. Ties resolve to the earliest index.
func (s *Sequence) Nearest(p core.Point, radius float64, dist func(a, b core.Point) float64) int {
	best := -1
	bestDist := radius
	for i, pt := range s.points {
		d := dist(pt, p)
		if d > radius {
			continue
		}
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
