package viewer

import (
	"math"
	"time"
)

// PointerKind is the input device class a session is created for. It is
// detected once by the host (coarse for touch screens, fine for mice) and
// never switched mid-session.
type PointerKind int

const (
	PointerFine PointerKind = iota
	PointerCoarse
)

// GestureAxis is the sticky classification of one touch sequence.
type GestureAxis int

const (
	AxisUndetermined GestureAxis = iota
	AxisHorizontal
	AxisVertical
)

const (
	// deadzonePx is how far a touch must travel before its axis locks in.
	deadzonePx = 8.0
	// settleDelay is the grace period after the last interaction before
	// velocity blending toward the auto-rotation target resumes.
	settleDelay = 100 * time.Millisecond
	// refFrame is the reference frame duration velocities are expressed
	// against (radians per 1/60 s).
	refFrame = time.Second / 60
)

type gestureConfig struct {
	target           float64 // idle velocity, rad per reference frame
	damping          float64 // per-reference-frame blend coefficient
	dragSensitivity  float64 // rad per drag pixel (fine pointer)
	flingSensitivity float64 // rad per pixel of touch velocity sample
	freeOrbit        bool
}

// Gesture blends user input with idle auto-rotation. All methods are called
// under the owning viewer's lock.
//
// Velocities are radians per reference frame. While the user drives, input
// sets the velocity (coarse) or the angle directly (fine); once the settle
// delay after the last interaction passes, the velocity decays
// exponentially toward target, handing flung momentum back to the steady
// auto-spin without a jump.
type Gesture struct {
	cfg  gestureConfig
	mode pointerMode

	velocity     float64
	pitchVel     float64
	pendingYaw   float64
	pendingPitch float64

	driving     bool // a gesture currently owns rotation
	directDrive bool // fine pointer held down: angle driven, velocity only recorded
	lastEvent   time.Time
}

// newGesture creates the engine with the input-mode strategy for kind.
func newGesture(kind PointerKind, cfg gestureConfig) *Gesture {
	g := &Gesture{cfg: cfg}
	if kind == PointerCoarse {
		g.mode = &coarseMode{}
	} else {
		g.mode = &fineMode{}
	}
	return g
}

// Start begins a pointer sequence at surface coordinates (x, y).
func (g *Gesture) Start(x, y float64, t time.Time) {
	g.mode.start(g, x, y, t)
}

// Move advances the sequence. It reports whether the gesture consumed the
// event; the host suppresses default scrolling only when it did.
func (g *Gesture) Move(x, y float64, t time.Time) bool {
	return g.mode.move(g, x, y, t)
}

// End finishes the sequence, releasing any flung momentum into the blend.
func (g *Gesture) End(t time.Time) {
	g.mode.end(g, t)
}

// Axis reports the current sequence classification. Fine-pointer sessions
// are always Horizontal once a drag starts.
func (g *Gesture) Axis() GestureAxis {
	return g.mode.axis()
}

// Velocity returns the current angular velocity in radians per reference
// frame.
func (g *Gesture) Velocity() float64 {
	return g.velocity
}

// UserDriving reports whether a gesture currently owns rotation.
func (g *Gesture) UserDriving() bool {
	return g.driving
}

// Step advances the blend by dt and returns the yaw/pitch deltas to apply
// this frame. Pitch is nonzero only in free-orbit mode.
func (g *Gesture) Step(dt time.Duration, now time.Time) (yaw, pitch float64) {
	frames := float64(dt) / float64(refFrame)
	if frames < 0 {
		frames = 0
	}

	yaw = g.pendingYaw
	pitch = g.pendingPitch
	g.pendingYaw = 0
	g.pendingPitch = 0

	if !g.directDrive {
		yaw += g.velocity * frames
		pitch += g.pitchVel * frames
	}

	// Damped hand-off to auto-rotation, only after the settle delay so a
	// fling keeps its momentum for a beat instead of snapping.
	if !g.driving && now.Sub(g.lastEvent) >= settleDelay {
		k := math.Pow(g.cfg.damping, frames)
		g.velocity = g.cfg.target + (g.velocity-g.cfg.target)*k
		g.pitchVel *= k
	}
	return yaw, pitch
}

// pointerMode is the per-device input strategy, chosen once per session.
type pointerMode interface {
	start(g *Gesture, x, y float64, t time.Time)
	move(g *Gesture, x, y float64, t time.Time) bool
	end(g *Gesture, t time.Time)
	axis() GestureAxis
}

// fineMode handles mouse-style input: a held drag rotates the model
// directly in proportion to horizontal movement.
type fineMode struct {
	active bool
	lastX  float64
	lastY  float64
	lastT  time.Time
}

func (m *fineMode) start(g *Gesture, x, y float64, t time.Time) {
	m.active = true
	m.lastX, m.lastY = x, y
	m.lastT = t
	g.driving = true
	g.directDrive = true
	g.lastEvent = t
}

func (m *fineMode) move(g *Gesture, x, y float64, t time.Time) bool {
	if !m.active {
		// Hover: not a drag.
		return false
	}
	dx := x - m.lastX
	dy := y - m.lastY
	g.pendingYaw += dx * g.cfg.dragSensitivity
	if g.cfg.freeOrbit {
		g.pendingPitch += dy * g.cfg.dragSensitivity
	}

	// Record the instantaneous rate so releasing mid-motion flings.
	if dt := t.Sub(m.lastT); dt > 0 {
		frames := float64(dt) / float64(refFrame)
		g.velocity = dx * g.cfg.dragSensitivity / frames
		if g.cfg.freeOrbit {
			g.pitchVel = dy * g.cfg.dragSensitivity / frames
		}
	}

	m.lastX, m.lastY = x, y
	m.lastT = t
	g.lastEvent = t
	return true
}

func (m *fineMode) end(g *Gesture, t time.Time) {
	if !m.active {
		return
	}
	m.active = false
	g.driving = false
	g.directDrive = false
	// lastEvent anchors the settle delay: the flung velocity coasts for
	// that grace period before blending resumes.
	g.lastEvent = t
}

func (m *fineMode) axis() GestureAxis {
	if m.active {
		return AxisHorizontal
	}
	return AxisUndetermined
}

// coarseMode handles touch input. The first movements are deadzoned until
// the sequence classifies as Horizontal (gesture owns the surface, host
// suppresses page scroll) or Vertical (input relinquished so the page
// scrolls). The classification is sticky for the whole sequence.
type coarseMode struct {
	active bool
	axisCl GestureAxis
	startX float64
	startY float64
	lastX  float64
	lastY  float64
	lastT  time.Time
}

func (m *coarseMode) start(g *Gesture, x, y float64, t time.Time) {
	m.active = true
	m.axisCl = AxisUndetermined
	m.startX, m.startY = x, y
	m.lastX, m.lastY = x, y
	m.lastT = t
	g.lastEvent = t
}

func (m *coarseMode) move(g *Gesture, x, y float64, t time.Time) bool {
	if !m.active {
		return false
	}

	if m.axisCl == AxisUndetermined {
		dxTotal := math.Abs(x - m.startX)
		dyTotal := math.Abs(y - m.startY)
		if dxTotal < deadzonePx && dyTotal < deadzonePx {
			m.lastX, m.lastY = x, y
			m.lastT = t
			return false
		}
		if dxTotal >= dyTotal {
			m.axisCl = AxisHorizontal
			g.driving = true
		} else {
			m.axisCl = AxisVertical
		}
	}

	if m.axisCl == AxisVertical {
		// The page owns this sequence.
		return false
	}

	// Horizontal: drag speed, not just distance, determines momentum.
	dx := x - m.lastX
	if dt := t.Sub(m.lastT); dt > 0 {
		frames := float64(dt) / float64(refFrame)
		g.velocity = dx * g.cfg.flingSensitivity / frames
	}

	m.lastX, m.lastY = x, y
	m.lastT = t
	g.lastEvent = t
	return true
}

func (m *coarseMode) end(g *Gesture, t time.Time) {
	if !m.active {
		return
	}
	m.active = false
	if m.axisCl == AxisHorizontal {
		g.driving = false
		g.lastEvent = t
	}
	m.axisCl = AxisUndetermined
}

func (m *coarseMode) axis() GestureAxis {
	return m.axisCl
}
