// Package session owns the live state of one fit analysis: the loaded
// photo's dimensions, the selected riding style and bicycle type, the
// committed landmark sequence and the drag gesture state machine.
//
// The session is an explicit context object passed to everything that
// needs it; there are no package-level singletons. All methods are safe
// for concurrent use, though in practice a single bridge goroutine
// drives every transition.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/velofit/engine/internal/geometry"
	"github.com/velofit/engine/internal/landmark"
	"github.com/velofit/engine/internal/ranges"
	"github.com/velofit/engine/pkg/core"
)

// CaptureRadius is the distance in display pixels within which a
// gesture start grabs an existing point instead of placing a new one.
const CaptureRadius = 25.0

// State is the observable phase of the interaction state machine.
type State int

const (
	// StateIdle means no gesture is active.
	StateIdle State = iota
	// StateEngaged means a gesture has started and selected or placed a
	// point, but the pointer has not moved yet.
	StateEngaged
	// StateDragging means the pointer has moved while engaged and a
	// ghost point is staged.
	StateDragging
)

// Session holds the mutable state of one fit analysis.
type Session struct {
	mu sync.RWMutex

	rider     string
	startTime time.Time
	image     core.ImageInfo
	style     ranges.RideStyle
	bike      ranges.BikeType

	seq *landmark.Sequence

	// Drag gesture state. The ghost point exists iff a drag is active;
	// angle derivation never reads it, so mid-drag frames always see a
	// fully committed sequence.
	activeIdx   int
	ghost       *core.Point
	touchDrag   bool
	lastPointer core.Point

	table  *ranges.Table
	log    *slog.Logger
	redraw func()
}

// New creates an empty session using the given range table.
func New(table *ranges.Table, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		seq:       landmark.NewSequence(),
		activeIdx: -1,
		style:     ranges.StyleBalanced,
		bike:      ranges.BikeRoad,
		startTime: time.Now(),
		table:     table,
		log:       log,
	}
}

// OnRedraw registers the callback fired after every state transition
// and after any style or bicycle-type change. The overlay and table a
// viewer sees are therefore never stale relative to committed state.
func (s *Session) OnRedraw(fn func()) {
	s.mu.Lock()
	s.redraw = fn
	s.mu.Unlock()
}

func (s *Session) notifyRedraw() {
	s.mu.RLock()
	fn := s.redraw
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Begin resets the session for a new rider and photo.
func (s *Session) Begin(rider string, image core.ImageInfo) {
	s.mu.Lock()
	s.rider = rider
	s.image = image
	s.startTime = time.Now()
	s.seq.Clear()
	s.ghost = nil
	s.activeIdx = -1
	s.mu.Unlock()
	s.notifyRedraw()
}

// SetImage records the dimensions of the loaded photo.
func (s *Session) SetImage(info core.ImageInfo) {
	s.mu.Lock()
	s.image = info
	s.mu.Unlock()
	s.notifyRedraw()
}

// Image returns the current photo dimensions.
func (s *Session) Image() core.ImageInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.image
}

// Info describes the session for storage backends.
func (s *Session) Info() core.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.SessionInfo{
		Rider:     s.rider,
		BikeType:  s.bike.String(),
		RideStyle: s.style.String(),
		StartTime: s.startTime,
		Image:     s.image,
	}
}

// SetStyle switches the riding style. Measured angles are untouched;
// only the target intervals change, so a redraw is triggered.
func (s *Session) SetStyle(style ranges.RideStyle) {
	s.mu.Lock()
	s.style = style
	s.mu.Unlock()
	s.notifyRedraw()
}

// SetBike switches the bicycle type, triggering a redraw.
func (s *Session) SetBike(bike ranges.BikeType) {
	s.mu.Lock()
	s.bike = bike
	s.mu.Unlock()
	s.notifyRedraw()
}

// Style returns the selected riding style.
func (s *Session) Style() ranges.RideStyle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style
}

// Bike returns the selected bicycle type.
func (s *Session) Bike() ranges.BikeType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bike
}

// GestureStart begins a placement-or-selection gesture at p.
//
// The nearest committed point within CaptureRadius becomes the active
// point. With no point in radius and room remaining, a new point is
// appended at p and becomes active. With the sequence full, only the
// last pointer position is recorded.
//
// Platform pointer streams deliver a release before the next press, so
// a start arriving mid-drag commits the pending ghost first rather
// than leaving a point stuck between gestures.
func (s *Session) GestureStart(p core.Point, touch bool) {
	s.mu.Lock()
	if s.ghost != nil {
		s.commitLocked()
	}

	s.lastPointer = p
	s.touchDrag = touch

	idx := s.seq.Nearest(p, CaptureRadius, geometry.Distance)
	if idx < 0 {
		if s.seq.Len() < landmark.MaxPoints {
			idx, _ = s.seq.Append(p)
		} else {
			s.log.Debug("gesture ignored, sequence full")
		}
	}
	s.activeIdx = idx
	s.mu.Unlock()
	s.notifyRedraw()
}

// GestureMove stages the dragged point's prospective position as the
// ghost point. The committed sequence is not mutated: angle math mid-
// drag must never observe a half-moved sequence.
func (s *Session) GestureMove(p core.Point) {
	s.mu.Lock()
	s.lastPointer = p
	if s.activeIdx < 0 {
		s.mu.Unlock()
		return
	}
	ghost := p
	s.ghost = &ghost
	s.mu.Unlock()
	s.notifyRedraw()
}

// GestureEnd commits the ghost point (if any) into the active point
// and returns to idle. A pure tap commits nothing: the point was
// already placed correctly on gesture start.
func (s *Session) GestureEnd() {
	s.mu.Lock()
	s.commitLocked()
	s.mu.Unlock()
	s.notifyRedraw()
}

// GestureCancel handles a platform-aborted gesture identically to a
// normal release, committing the last staged position.
func (s *Session) GestureCancel() {
	s.GestureEnd()
}

func (s *Session) commitLocked() {
	if s.ghost != nil && s.activeIdx >= 0 {
		s.seq.SetAt(s.activeIdx, *s.ghost)
	}
	s.ghost = nil
	s.activeIdx = -1
	s.touchDrag = false
}

// State reports the current phase of the state machine.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.ghost != nil:
		return StateDragging
	case s.activeIdx >= 0:
		return StateEngaged
	default:
		return StateIdle
	}
}

// Ghost returns the staged drag position and whether a drag is active.
func (s *Session) Ghost() (core.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ghost == nil {
		return core.Point{}, false
	}
	return *s.ghost, true
}

// ActiveIndex returns the index of the point owned by the current
// gesture, or -1 when idle.
func (s *Session) ActiveIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeIdx
}

// TouchDrag reports whether the active gesture originated from touch.
// The magnifier preview is only shown for touch gestures.
func (s *Session) TouchDrag() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.touchDrag
}

// LastPointer returns the last pointer coordinate seen by any gesture.
func (s *Session) LastPointer() core.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPointer
}

// Points returns the committed landmark points in placement order.
func (s *Session) Points() []core.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq.Points()
}

// PointCount returns the number of committed points.
func (s *Session) PointCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq.Len()
}

// ClearPoints discards the whole landmark sequence and any gesture in
// progress.
func (s *Session) ClearPoints() {
	s.mu.Lock()
	s.seq.Clear()
	s.ghost = nil
	s.activeIdx = -1
	s.mu.Unlock()
	s.notifyRedraw()
}

// RestorePoints replaces the sequence with a restored snapshot. The
// coordinates are taken verbatim; a snapshot saved at different canvas
// dimensions is not rescaled.
func (s *Session) RestorePoints(points []core.Point) {
	s.mu.Lock()
	s.seq.Replace(points)
	s.ghost = nil
	s.activeIdx = -1
	s.mu.Unlock()
	s.notifyRedraw()
}

// Readings derives the joint angles from the committed sequence.
func (s *Session) Readings() []core.AngleReading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return landmark.Derive(s.seq, s.log)
}

// Results derives and classifies every available joint angle against
// the currently selected bicycle type and riding style. Everything is
// recomputed from the committed sequence on each call.
func (s *Session) Results() []core.Classification {
	s.mu.RLock()
	readings := landmark.Derive(s.seq, s.log)
	bike, style := s.bike, s.style
	s.mu.RUnlock()

	results := make([]core.Classification, 0, len(readings))
	for _, r := range readings {
		joint, ok := jointByName(r.Joint)
		if !ok {
			continue
		}
		results = append(results, s.table.Classify(joint, r.Degrees, bike, style))
	}
	return results
}

func jointByName(name string) (landmark.Joint, bool) {
	for _, j := range landmark.Joints {
		if j.String() == name {
			return j, true
		}
	}
	return 0, false
}
