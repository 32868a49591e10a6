// Package render builds the overlay drawn on top of the photo: the
// polyline through the committed landmarks, point markers, per-joint
// angle labels and the staged ghost marker. The builder is pure; the
// host UI and the report compositor both consume the same Overlay, the
// latter after scaling it into natural pixel space.
package render

import (
	"fmt"

	"github.com/velofit/engine/internal/landmark"
	"github.com/velofit/engine/pkg/core"
)

// Magnifier geometry in display pixels.
const (
	magnifierOffsetX = 48.0
	magnifierOffsetY = -48.0
	magnifierRadius  = 40.0
)

// Marker is a filled dot at a committed landmark position.
type Marker struct {
	Point  core.Point `json:"point"`
	Role   string     `json:"role"`
	Active bool       `json:"active"` // owned by the current gesture
}

// Label is a joint angle annotation anchored at its landmark.
type Label struct {
	Point         core.Point `json:"point"`
	Joint         string     `json:"joint"`
	Text          string     `json:"text"`
	IsWithinRange bool       `json:"isWithinRange"`
}

// GhostMarker marks the staged drag position; rendered dashed so the
// user can tell it apart from committed points.
type GhostMarker struct {
	Point core.Point `json:"point"`
}

// Magnifier anchors a zoomed preview near, but not under, the finger.
// Shown only for touch-originated gestures; the preview pixels come
// from the natural-resolution image using the session scale factors.
type Magnifier struct {
	Anchor core.Point `json:"anchor"`
	Source core.Point `json:"source"` // natural-space center of the preview
	Radius float64    `json:"radius"`
}

// Overlay is everything drawn on top of the photo for one frame.
type Overlay struct {
	Polyline  []core.Point `json:"polyline"`
	Markers   []Marker     `json:"markers"`
	Labels    []Label      `json:"labels"`
	Ghost     *GhostMarker `json:"ghost,omitempty"`
	Magnifier *Magnifier   `json:"magnifier,omitempty"`
}

// Input bundles the session state an overlay frame is built from.
type Input struct {
	Points      []core.Point
	Results     []core.Classification
	Ghost       *core.Point
	ActiveIndex int
	TouchDrag   bool
	Image       core.ImageInfo
}

// Build assembles the overlay for one frame from committed state. The
// polyline connects the committed points in placement order; labels
// appear only for joints that produced a classification this frame.
func Build(in Input) Overlay {
	ov := Overlay{
		Polyline: append([]core.Point(nil), in.Points...),
		Markers:  make([]Marker, 0, len(in.Points)),
	}

	for i, p := range in.Points {
		ov.Markers = append(ov.Markers, Marker{
			Point:  p,
			Role:   landmark.Role(i).String(),
			Active: i == in.ActiveIndex,
		})
	}

	for _, c := range in.Results {
		anchor, ok := labelAnchor(c.Joint, in.Points)
		if !ok {
			continue
		}
		ov.Labels = append(ov.Labels, Label{
			Point:         anchor,
			Joint:         c.Joint,
			Text:          fmt.Sprintf("%s: %.1f°", c.Joint, c.Degrees),
			IsWithinRange: c.IsWithinRange,
		})
	}

	if in.Ghost != nil {
		ov.Ghost = &GhostMarker{Point: *in.Ghost}

		if in.TouchDrag {
			ov.Magnifier = buildMagnifier(*in.Ghost, in.Image)
		}
	}

	return ov
}

// Scaled maps the overlay into natural pixel space for the export
// path. The export never reads back the on-screen surface; it redraws
// this scaled overlay from coordinates.
func (ov Overlay) Scaled(s core.Scale) Overlay {
	out := Overlay{
		Polyline: make([]core.Point, len(ov.Polyline)),
		Markers:  make([]Marker, len(ov.Markers)),
		Labels:   make([]Label, len(ov.Labels)),
	}
	for i, p := range ov.Polyline {
		out.Polyline[i] = s.Apply(p)
	}
	for i, m := range ov.Markers {
		out.Markers[i] = Marker{Point: s.Apply(m.Point), Role: m.Role, Active: m.Active}
	}
	for i, l := range ov.Labels {
		out.Labels[i] = Label{Point: s.Apply(l.Point), Joint: l.Joint, Text: l.Text, IsWithinRange: l.IsWithinRange}
	}
	if ov.Ghost != nil {
		out.Ghost = &GhostMarker{Point: s.Apply(ov.Ghost.Point)}
	}
	// The magnifier is a live interaction aid and never exported.
	return out
}

func labelAnchor(joint string, points []core.Point) (core.Point, bool) {
	for _, j := range landmark.Joints {
		if j.String() != joint {
			continue
		}
		idx := int(j.LabelRole())
		if idx >= len(points) {
			return core.Point{}, false
		}
		return points[idx], true
	}
	return core.Point{}, false
}

// buildMagnifier places the preview beside the touch point, flipping
// the offset when it would leave the display area.
func buildMagnifier(touch core.Point, img core.ImageInfo) *Magnifier {
	anchor := core.Point{X: touch.X + magnifierOffsetX, Y: touch.Y + magnifierOffsetY}
	if anchor.X+magnifierRadius > img.DisplayWidth {
		anchor.X = touch.X - magnifierOffsetX
	}
	if anchor.Y-magnifierRadius < 0 {
		anchor.Y = touch.Y - magnifierOffsetY
	}
	return &Magnifier{
		Anchor: anchor,
		Source: img.ScaleFactors().Apply(touch),
		Radius: magnifierRadius,
	}
}
