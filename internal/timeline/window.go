package timeline

import (
	"fmt"
	"time"
)

// DefaultAnchorHour is the hour at which an operational day starts.
const DefaultAnchorHour = 7

// Window is a half-open analysis range [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow validates a caller-supplied range, such as one coming from a pan or
// zoom on a chart. It never swaps reversed bounds.
func NewWindow(start, end time.Time) (Window, error) {
	if !start.Before(end) {
		return Window{}, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidWindow,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Window{Start: start, End: end}, nil
}

// OperationalDay returns [date at anchorHour:00, date+1 at anchorHour:00) in loc.
// Only the calendar date of date is used.
func OperationalDay(date time.Time, anchorHour int, loc *time.Location) (Window, error) {
	if anchorHour < 0 || anchorHour > 23 {
		return Window{}, fmt.Errorf("%w: anchor hour %d out of range 0-23", ErrInvalidConfig, anchorHour)
	}
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.In(loc).Date()
	start := time.Date(y, m, d, anchorHour, 0, 0, 0, loc)
	return NewWindow(start, start.AddDate(0, 0, 1))
}

// Minutes returns the length of the window.
func (w Window) Minutes() float64 {
	return minutes(w.End.Sub(w.Start))
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Intersect returns the overlap of two windows, and false when they do not overlap.
func (w Window) Intersect(o Window) (Window, bool) {
	start := laterOf(w.Start, o.Start)
	end := earlierOf(w.End, o.End)
	if !start.Before(end) {
		return Window{}, false
	}
	return Window{Start: start, End: end}, true
}

// Clip narrows b to w. It returns false when b does not overlap w or the overlap
// has zero length; degenerate blocks are never returned.
func (b Block) Clip(w Window) (Block, bool) {
	if !b.End.After(w.Start) || !b.Start.Before(w.End) {
		return Block{}, false
	}
	clipped := b.withBounds(laterOf(b.Start, w.Start), earlierOf(b.End, w.End))
	if clipped.Duration() <= 0 {
		return Block{}, false
	}
	return clipped, true
}

// ClipAll clips every block to w, dropping the ones left empty.
func ClipAll(blocks []Block, w Window) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if c, ok := b.Clip(w); ok {
			out = append(out, c)
		}
	}
	return out
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
