package imaging

import "math"

// Point is a position in display coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SelectionTracker turns pointer down/move/up events into a SelectionRect.
//
// The rectangle is always normalized: its origin is the minimum of the drag
// start and current point and its size is the absolute difference, so
// dragging in any direction yields non-negative W and H.
//
// SelectionTracker is not safe for concurrent use; the session owns it.
type SelectionTracker struct {
	start    Point
	rect     SelectionRect
	dragging bool
	visible  bool
}

// Begin starts a new drag at p with a zero-size visible rectangle,
// replacing any previous selection.
func (t *SelectionTracker) Begin(p Point) {
	t.start = p
	t.rect = SelectionRect{X: p.X, Y: p.Y}
	t.dragging = true
	t.visible = true
}

// Move extends the rectangle to p. It is ignored unless a drag is active.
func (t *SelectionTracker) Move(p Point) {
	if !t.dragging {
		return
	}
	t.rect = SelectionRect{
		X: math.Min(p.X, t.start.X),
		Y: math.Min(p.Y, t.start.Y),
		W: math.Abs(p.X - t.start.X),
		H: math.Abs(p.Y - t.start.Y),
	}
}

// End finishes the drag. The rectangle stays visible.
func (t *SelectionTracker) End() {
	t.dragging = false
}

// Set replaces the selection with r, as if it had been dragged.
// Negative sizes are normalized.
func (t *SelectionTracker) Set(r SelectionRect) {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	t.start = Point{X: r.X, Y: r.Y}
	t.rect = r
	t.dragging = false
	t.visible = true
}

// Clear hides the selection and stops any drag.
func (t *SelectionTracker) Clear() {
	*t = SelectionTracker{}
}

// Dragging reports whether a drag is in progress.
func (t *SelectionTracker) Dragging() bool {
	return t.dragging
}

// Rect returns the current selection and whether one is visible.
func (t *SelectionTracker) Rect() (SelectionRect, bool) {
	return t.rect, t.visible
}
