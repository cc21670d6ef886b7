package viewer

import (
	"sync"
	"time"

	"github.com/turntable3d/turntable/math3d"
)

// maxFrameDelta caps the elapsed time charged to one frame. A stalled host
// (tab in the background, debugger pause) otherwise produces one huge dt
// and the model visibly teleports.
const maxFrameDelta = 50 * time.Millisecond

// FrameHandle identifies one scheduled frame callback.
type FrameHandle uint64

// FrameScheduler decouples the render loop from wall-clock pacing. The
// production scheduler paces frames with timers; tests and terminal hosts
// pump a manual one so every tick is deterministic.
//
// A callback is delivered at most once; CancelFrame suppresses a pending
// delivery and is a no-op for handles already delivered or cancelled.
type FrameScheduler interface {
	RequestFrame(fn func(now time.Time)) FrameHandle
	CancelFrame(h FrameHandle)
}

// TickerScheduler delivers frame callbacks on its own timer goroutines at
// a fixed rate.
type TickerScheduler struct {
	mu       sync.Mutex
	interval time.Duration
	nextID   FrameHandle
	pending  map[FrameHandle]*time.Timer
}

// NewTickerScheduler creates a scheduler pacing callbacks at fps frames
// per second. Non-positive fps gets 60.
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps <= 0 {
		fps = 60
	}
	return &TickerScheduler{
		interval: time.Second / time.Duration(fps),
		pending:  map[FrameHandle]*time.Timer{},
	}
}

func (s *TickerScheduler) RequestFrame(fn func(now time.Time)) FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	h := s.nextID
	s.pending[h] = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		_, ok := s.pending[h]
		delete(s.pending, h)
		s.mu.Unlock()
		if ok {
			fn(time.Now())
		}
	})
	return h
}

func (s *TickerScheduler) CancelFrame(h FrameHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[h]; ok {
		t.Stop()
		delete(s.pending, h)
	}
}

// ManualScheduler queues callbacks until Pump is called. Terminal hosts
// pump it once per display tick; tests pump it with a synthetic clock.
type ManualScheduler struct {
	mu      sync.Mutex
	nextID  FrameHandle
	pending map[FrameHandle]func(time.Time)
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: map[FrameHandle]func(time.Time){}}
}

func (s *ManualScheduler) RequestFrame(fn func(now time.Time)) FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.pending[s.nextID] = fn
	return s.nextID
}

func (s *ManualScheduler) CancelFrame(h FrameHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, h)
}

// Pending reports how many callbacks await the next Pump.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Pump delivers every callback queued before the call. Callbacks queued
// during delivery (the loop rescheduling itself) wait for the next Pump.
// The lock is dropped before delivery: callbacks take their owner's lock
// and may re-enter RequestFrame.
func (s *ManualScheduler) Pump(now time.Time) {
	s.mu.Lock()
	batch := make([]func(time.Time), 0, len(s.pending))
	for h, fn := range s.pending {
		batch = append(batch, fn)
		delete(s.pending, h)
	}
	s.mu.Unlock()
	for _, fn := range batch {
		fn(now)
	}
}

// scheduleFrame books the next tick. Callers hold v.mu.
func (s *session) scheduleFrame() {
	s.framePending = true
	s.frame = s.v.deps.Scheduler.RequestFrame(s.tick)
}

// tick advances one frame: gesture blend, rotation integration, render,
// and rescheduling. Delivered by the scheduler, so it takes the lock and
// re-checks liveness first.
func (s *session) tick(now time.Time) {
	s.v.mu.Lock()
	defer s.v.mu.Unlock()

	s.framePending = false
	if !s.live.Load() || s.phase != PhaseReady {
		return
	}
	if s.v.visible <= 0 {
		// Suspended off-screen. onVisibility restarts the loop.
		s.hasTick = false
		return
	}

	dt := refFrame
	if s.hasTick {
		dt = now.Sub(s.lastTick)
		if dt > maxFrameDelta {
			dt = maxFrameDelta
		}
		if dt < 0 {
			dt = 0
		}
	}
	s.lastTick = now
	s.hasTick = true

	dyaw, dpitch := s.gesture.Step(dt, now)
	s.yaw += dyaw
	if s.opts.FreeOrbit {
		s.pitch = clampPitch(s.pitch + dpitch)
	}

	model := math3d.Translate(s.opts.ModelPosition).
		Mul(math3d.RotateX(s.pitch)).
		Mul(math3d.RotateY(s.yaw)).
		Mul(math3d.Scale(math3d.V3(s.opts.ModelScale, s.opts.ModelScale, s.opts.ModelScale)))
	s.surface.Render(s.mesh, model, s.cam, s.lights)

	s.scheduleFrame()
}

// clampPitch keeps free-orbit pitch shy of the poles.
func clampPitch(p float64) float64 {
	const limit = 1.55 // just under pi/2
	if p > limit {
		return limit
	}
	if p < -limit {
		return -limit
	}
	return p
}
