package trending

import "math"

// Span is a panel's width in grid columns.
type Span int

var spanSteps = []Span{1, 2, 4}

const (
	MinSpan Span = 1
	MaxSpan Span = 4
)

// DefaultResizeThreshold is the horizontal displacement, in pixels, that
// triggers one span step.
const DefaultResizeThreshold = 120.0

// Valid reports whether the span is one of {1,2,4}.
func (s Span) Valid() bool {
	for _, step := range spanSteps {
		if s == step {
			return true
		}
	}
	return false
}

// Normalize maps unknown spans to the nearest lower step, minimum 1.
func (s Span) Normalize() Span {
	out := MinSpan
	for _, step := range spanSteps {
		if s >= step {
			out = step
		}
	}
	return out
}

// Direction of a threshold crossing.
type Direction int

const (
	Left  Direction = -1
	Right Direction = 1
)

func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}

// SpanMachine is the discrete resize state machine with states {1,2,4}.
type SpanMachine struct {
	span Span
}

// NewSpanMachine starts at span (normalized).
func NewSpanMachine(span Span) *SpanMachine {
	return &SpanMachine{span: span.Normalize()}
}

// Span returns the current state.
func (m *SpanMachine) Span() Span { return m.span }

// OnThresholdCrossed moves one step in the given direction and reports
// whether the state changed. Crossing past either end is a no-op.
func (m *SpanMachine) OnThresholdCrossed(dir Direction) (Span, bool) {
	idx := 0
	for i, step := range spanSteps {
		if step == m.span {
			idx = i
		}
	}
	next := idx + int(dir)
	if next < 0 || next >= len(spanSteps) {
		return m.span, false
	}
	m.span = spanSteps[next]
	return m.span, true
}

// ResizeTracker converts cumulative pointer displacement into threshold
// crossings. After each crossing the anchor moves by one threshold so the
// gesture can trigger again in either direction.
type ResizeTracker struct {
	threshold float64
	anchor    float64
}

// NewResizeTracker builds a tracker; non-positive thresholds use the default.
func NewResizeTracker(threshold float64) *ResizeTracker {
	if threshold <= 0 {
		threshold = DefaultResizeThreshold
	}
	return &ResizeTracker{threshold: threshold}
}

// Move consumes the displacement from the gesture origin and returns the
// crossings it produced, in order.
func (t *ResizeTracker) Move(dx float64) []Direction {
	var out []Direction
	for {
		delta := dx - t.anchor
		if math.Abs(delta) < t.threshold {
			return out
		}
		dir := Right
		if delta < 0 {
			dir = Left
		}
		t.anchor += float64(dir) * t.threshold
		out = append(out, dir)
	}
}
