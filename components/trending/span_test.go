package trending

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanMachineSteps(t *testing.T) {
	m := NewSpanMachine(1)

	span, changed := m.OnThresholdCrossed(Right)
	assert.True(t, changed)
	assert.Equal(t, Span(2), span)

	span, changed = m.OnThresholdCrossed(Right)
	assert.True(t, changed)
	assert.Equal(t, Span(4), span)

	span, changed = m.OnThresholdCrossed(Right)
	assert.False(t, changed, "crossing right at 4 is a no-op")
	assert.Equal(t, Span(4), span)

	m.OnThresholdCrossed(Left)
	span, _ = m.OnThresholdCrossed(Left)
	assert.Equal(t, Span(1), span)

	_, changed = m.OnThresholdCrossed(Left)
	assert.False(t, changed)
}

func TestSpanNormalize(t *testing.T) {
	cases := map[Span]Span{0: 1, -3: 1, 1: 1, 2: 2, 3: 2, 4: 4, 12: 4}
	for in, want := range cases {
		assert.Equal(t, want, in.Normalize(), "span %d", in)
	}
	assert.False(t, Span(3).Valid())
	assert.True(t, Span(4).Valid())
}

func TestResizeTrackerCrossings(t *testing.T) {
	tracker := NewResizeTracker(0)

	assert.Empty(t, tracker.Move(119))
	assert.Equal(t, []Direction{Right}, tracker.Move(120))
	assert.Empty(t, tracker.Move(200))
	assert.Equal(t, []Direction{Left}, tracker.Move(0), "moving back re-arms the gesture")
	assert.Equal(t, []Direction{Right, Right, Right}, tracker.Move(360))
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "left", Left.String())
	assert.Equal(t, "right", Right.String())
}
