// Package anchor defines the positioning collaborator contract consumed by
// the portal engine.
//
// The engine never computes geometry itself. It guarantees ordering only:
// positioning is requested after the floating content exists in rendered
// output. The actual coordinate math lives behind the Positioner interface;
// Offset is a minimal reference implementation used by tests and the demo
// server.
package anchor

import (
	"errors"
	"sync"
	"time"
)

// ErrAnchorGone is returned when the anchor reference can no longer report
// bounds (for example the anchoring element left the document).
var ErrAnchorGone = errors.New("anchor: anchor reference no longer present")

// Placement describes which side of the anchor the floating content attaches to.
type Placement string

const (
	PlacementTop    Placement = "top"
	PlacementBottom Placement = "bottom"
	PlacementLeft   Placement = "left"
	PlacementRight  Placement = "right"
)

// Rect is an axis-aligned bounding box in viewport coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Ref reports the current bounds of an anchored or floating element.
// Present reports whether the underlying element still exists; a Ref that
// is not present causes ErrAnchorGone.
type Ref interface {
	Bounds() Rect
	Present() bool
}

// Position is a computed placement for floating content.
type Position struct {
	X         float64
	Y         float64
	Placement Placement
}

// Options configures a position computation.
type Options struct {
	// Placement is the requested side. Defaults to PlacementBottom.
	Placement Placement

	// Offset is the gap between anchor and floating content, in pixels.
	Offset float64
}

// Positioner computes coordinates for floating content relative to an anchor.
type Positioner interface {
	// ComputePosition returns the position for floating relative to anchor.
	ComputePosition(anchor, floating Ref, opts Options) (Position, error)

	// AutoTrack re-computes the position whenever the anchor moves and
	// invokes onUpdate with each new position. The returned release function
	// stops tracking; it is safe to call more than once.
	AutoTrack(anchor, floating Ref, opts Options, onUpdate func(Position)) (release func(), err error)
}

// Offset is a reference Positioner that applies placement plus a fixed
// offset, with no collision or overflow handling.
type Offset struct {
	// TrackInterval is the polling interval used by AutoTrack.
	// Defaults to 50ms.
	TrackInterval time.Duration
}

// ComputePosition implements Positioner.
func (p *Offset) ComputePosition(anchorRef, floating Ref, opts Options) (Position, error) {
	if anchorRef == nil || !anchorRef.Present() {
		return Position{}, ErrAnchorGone
	}
	if floating == nil || !floating.Present() {
		return Position{}, ErrAnchorGone
	}

	a := anchorRef.Bounds()
	f := floating.Bounds()

	placement := opts.Placement
	if placement == "" {
		placement = PlacementBottom
	}

	pos := Position{Placement: placement}
	switch placement {
	case PlacementTop:
		pos.X = a.X + (a.Width-f.Width)/2
		pos.Y = a.Y - f.Height - opts.Offset
	case PlacementBottom:
		pos.X = a.X + (a.Width-f.Width)/2
		pos.Y = a.Y + a.Height + opts.Offset
	case PlacementLeft:
		pos.X = a.X - f.Width - opts.Offset
		pos.Y = a.Y + (a.Height-f.Height)/2
	case PlacementRight:
		pos.X = a.X + a.Width + opts.Offset
		pos.Y = a.Y + (a.Height-f.Height)/2
	}

	return pos, nil
}

// AutoTrack implements Positioner by polling the anchor bounds.
// Tracking stops on release or when either reference goes away.
func (p *Offset) AutoTrack(anchorRef, floating Ref, opts Options, onUpdate func(Position)) (func(), error) {
	initial, err := p.ComputePosition(anchorRef, floating, opts)
	if err != nil {
		return nil, err
	}
	if onUpdate != nil {
		onUpdate(initial)
	}

	interval := p.TrackInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	done := make(chan struct{})
	var once sync.Once
	release := func() {
		once.Do(func() { close(done) })
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := initial
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				pos, err := p.ComputePosition(anchorRef, floating, opts)
				if err != nil {
					release()
					return
				}
				if pos != last {
					last = pos
					if onUpdate != nil {
						onUpdate(pos)
					}
				}
			}
		}
	}()

	return release, nil
}

// StaticRef is a Ref backed by a mutable Rect. It is the simplest way to
// drive the reference positioner from tests or demo sessions.
type StaticRef struct {
	mu      sync.RWMutex
	rect    Rect
	present bool
}

// NewStaticRef creates a present StaticRef with the given bounds.
func NewStaticRef(rect Rect) *StaticRef {
	return &StaticRef{rect: rect, present: true}
}

// Bounds implements Ref.
func (r *StaticRef) Bounds() Rect {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rect
}

// Present implements Ref.
func (r *StaticRef) Present() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.present
}

// Move updates the bounds.
func (r *StaticRef) Move(rect Rect) {
	r.mu.Lock()
	r.rect = rect
	r.mu.Unlock()
}

// Remove marks the reference as gone.
func (r *StaticRef) Remove() {
	r.mu.Lock()
	r.present = false
	r.mu.Unlock()
}
