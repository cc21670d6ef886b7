package viewer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readyHarness mounts, makes visible, and waits for Ready so tests can
// pump frames immediately.
func readyHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := newHarness(t, opts, meshFetch(nil))
	h.viewer.Mount(fixedRegion{Dimensions{640, 480}}, PointerFine)
	h.viewer.SetVisibility(1)
	h.waitPhase(t, PhaseReady)
	return h
}

func pumpFrames(h *harness, n int) {
	for i := 0; i < n; i++ {
		h.scheduler.Pump(h.clock.Advance(refFrame))
	}
}

func TestIdleAutoRotationRampsToSpeed(t *testing.T) {
	h := readyHarness(t, defaultTestOptions())

	pumpFrames(h, 100)

	// Velocity ramps from rest toward 0.01 rad/frame under damping, so the
	// accumulated angle lands a little under the full 1.0 rad.
	angle := h.viewer.Angle()
	assert.Greater(t, angle, 0.8)
	assert.Less(t, angle, 1.0)

	h.viewer.mu.Lock()
	v := h.viewer.sess.gesture.Velocity()
	h.viewer.mu.Unlock()
	assert.InDelta(t, 0.01, v, 1e-3, "velocity settles at the configured speed")
}

func TestCounterClockwiseRotatesNegative(t *testing.T) {
	o := defaultTestOptions()
	o.RotationDirection = DirectionCounterClockwise
	h := readyHarness(t, o)

	pumpFrames(h, 50)
	assert.Less(t, h.viewer.Angle(), 0.0)
}

func TestDirectionNoneHoldsStill(t *testing.T) {
	o := defaultTestOptions()
	o.RotationDirection = DirectionNone
	h := readyHarness(t, o)

	pumpFrames(h, 50)
	assert.Zero(t, h.viewer.Angle())
	assert.Equal(t, 50, h.backend.last().renderCount(), "still model still renders")
}

func TestFrameDeltaIsClamped(t *testing.T) {
	h := readyHarness(t, defaultTestOptions())

	pumpFrames(h, 200) // settle the velocity at ~0.01
	before := h.viewer.Angle()

	// A 10 s stall must be charged as at most maxFrameDelta.
	h.scheduler.Pump(h.clock.Advance(10 * time.Second))
	step := h.viewer.Angle() - before

	maxFrames := float64(maxFrameDelta) / float64(refFrame)
	assert.Less(t, step, 0.011*maxFrames, "stall does not teleport the model")
	assert.Greater(t, step, 0.009, "the stalled frame still advances")
}

func TestEachFrameRendersOnce(t *testing.T) {
	h := readyHarness(t, defaultTestOptions())
	surf := h.backend.last()

	pumpFrames(h, 7)
	assert.Equal(t, 7, surf.renderCount())
	require.Equal(t, 1, h.scheduler.Pending(), "exactly one follow-up frame is booked")
}

func TestDragFreezesAutoRotation(t *testing.T) {
	h := readyHarness(t, defaultTestOptions())
	pumpFrames(h, 200) // reach steady spin

	h.viewer.PointerDown(100, 100)
	before := h.viewer.Angle()
	pumpFrames(h, 10)
	assert.Equal(t, before, h.viewer.Angle(), "held pointer pins the model")

	// Dragging right rotates by pixels * sensitivity.
	h.viewer.PointerMove(150, 100)
	pumpFrames(h, 1)
	assert.InDelta(t, before+50*0.03, h.viewer.Angle(), 1e-9)

	h.viewer.PointerUp()
	pumpFrames(h, 30)
	assert.Greater(t, h.viewer.Angle(), before+50*0.03, "auto-rotation resumes after release")
}

func TestManualSchedulerPumpIsBatchwise(t *testing.T) {
	s := NewManualScheduler()
	var order []int
	s.RequestFrame(func(time.Time) {
		order = append(order, 1)
		s.RequestFrame(func(time.Time) { order = append(order, 2) })
	})

	s.Pump(time.Now())
	assert.Equal(t, []int{1}, order, "reschedules wait for the next pump")
	s.Pump(time.Now())
	assert.Equal(t, []int{1, 2}, order)
}

func TestTickerSchedulerDeliversAndCancels(t *testing.T) {
	s := NewTickerScheduler(200)

	fired := make(chan time.Time, 1)
	s.RequestFrame(func(now time.Time) { fired <- now })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("frame callback never fired")
	}

	// A cancelled frame must stay silent.
	h := s.RequestFrame(func(time.Time) { t.Error("cancelled frame fired") })
	s.CancelFrame(h)
	time.Sleep(20 * time.Millisecond)
}

func TestManualSchedulerCancel(t *testing.T) {
	s := NewManualScheduler()
	ran := false
	h := s.RequestFrame(func(time.Time) { ran = true })
	s.CancelFrame(h)
	s.Pump(time.Now())
	assert.False(t, ran)
	assert.Zero(t, s.Pending())
}
