package viewer

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/turntable3d/turntable/models"
)

// Phase is a session's lifecycle state. Phases advance monotonically; a
// fresh session is created for every mount or reconfiguration.
type Phase int

const (
	PhaseUnmounted Phase = iota
	PhaseAwaitingViewport
	PhaseLoading
	PhaseReady
	PhaseDisposing
)

func (p Phase) String() string {
	switch p {
	case PhaseUnmounted:
		return "unmounted"
	case PhaseAwaitingViewport:
		return "awaiting-viewport"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseDisposing:
		return "disposing"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Deps are the injected collaborators a Viewer runs against.
type Deps struct {
	// Backend creates rendering surfaces. Required.
	Backend Backend
	// Scheduler drives the render loop. Required.
	Scheduler FrameScheduler
	// Registry bounds live surfaces process-wide. Nil gets a private
	// registry with the default ceiling.
	Registry *Registry
	// Fetch overrides asset fetching; nil selects the format's built-in
	// fetcher (http/filesystem plus the matching parser).
	Fetch FetchFunc
	// Logger defaults to a nop logger.
	Logger *zap.Logger
	// Clock defaults to time.Now; tests inject a fake.
	Clock func() time.Time
}

func (d Deps) normalized() Deps {
	if d.Registry == nil {
		d.Registry = NewRegistry(DefaultMaxSurfaces)
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// Viewer binds sessions to one mount region. The host forwards region
// notifications (visibility fraction, size changes, pointer events) and the
// Viewer manages the session lifecycle underneath: creation when the
// region becomes visible, a full teardown-then-recreate on configuration
// change, and deterministic disposal on unmount or failure.
//
// All methods are safe for concurrent use; internally one mutex serializes
// every state change, and deferred callbacks (frame ticks, load
// completions) check the session liveness flag before acting.
type Viewer struct {
	mu      sync.Mutex
	deps    Deps
	opts    Options
	region  Region
	kind    PointerKind
	visible float64
	sess    *session
	lastErr error
}

// New creates a Viewer with the given dependencies and configuration.
func New(deps Deps, opts Options) *Viewer {
	return &Viewer{
		deps: deps.normalized(),
		opts: opts.withDefaults(),
	}
}

// Mount binds the viewer to a region and starts a session in
// AwaitingViewport. kind selects the input mode for the session's whole
// lifetime. Mounting over a live session is a no-op.
func (v *Viewer) Mount(region Region, kind PointerKind) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sess != nil && v.sess.live.Load() {
		v.deps.Logger.Warn("mount ignored: session already live")
		return
	}
	v.region = region
	v.kind = kind
	v.startSession()
}

// Unmount disposes the current session and detaches from the region.
// Safe to call repeatedly.
func (v *Viewer) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sess != nil {
		v.sess.dispose()
		v.sess = nil
	}
	v.region = nil
}

// SetOptions replaces the configuration wholesale. A live session is torn
// down and exactly one fresh session is created against the same region;
// nothing is mutated in place.
func (v *Viewer) SetOptions(opts Options) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.opts = opts.withDefaults()
	if v.sess == nil {
		return
	}
	v.sess.dispose()
	v.sess = nil
	if v.region != nil {
		v.startSession()
	}
}

// SetVisibility reports the fraction of the region intersecting the
// viewport. Crossing the visibility threshold starts loading; dropping to
// zero suspends the render loop without tearing anything down.
func (v *Viewer) SetVisibility(fraction float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible = fraction
	if v.sess != nil {
		v.sess.onVisibility(fraction)
	}
}

// Resize reacts to a change in the region's pixel dimensions: the backing
// buffer and projection aspect are updated synchronously so no stretched
// frame is ever presented.
func (v *Viewer) Resize() {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.sess
	if s == nil || !s.live.Load() || s.surface == nil || v.region == nil {
		return
	}
	d := v.region.Size()
	s.surface.Resize(d)
	s.cam.Aspect = d.Aspect()
}

// PointerDown begins a pointer sequence on the surface.
func (v *Viewer) PointerDown(x, y float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s := v.sess; s != nil && s.live.Load() {
		s.gesture.Start(x, y, v.deps.Clock())
	}
}

// PointerMove advances a pointer sequence. The return value reports
// whether the gesture consumed the event; hosts use it to decide whether
// to suppress their default scroll handling.
func (v *Viewer) PointerMove(x, y float64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s := v.sess; s != nil && s.live.Load() {
		return s.gesture.Move(x, y, v.deps.Clock())
	}
	return false
}

// PointerUp ends the pointer sequence.
func (v *Viewer) PointerUp() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s := v.sess; s != nil && s.live.Load() {
		s.gesture.End(v.deps.Clock())
	}
}

// Phase returns the current session phase, PhaseUnmounted when none.
func (v *Viewer) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sess == nil {
		return PhaseUnmounted
	}
	return v.sess.phase
}

// Err returns the error that terminated the last session, if any. Hosts
// render it as a fallback state; nothing is retried automatically.
func (v *Viewer) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// Angle returns the accumulated yaw in radians.
func (v *Viewer) Angle() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sess == nil {
		return 0
	}
	return v.sess.yaw
}

// startSession creates a fresh session in AwaitingViewport and immediately
// evaluates the last known visibility. Callers hold v.mu.
func (v *Viewer) startSession() {
	s := &session{
		v:     v,
		opts:  v.opts,
		phase: PhaseAwaitingViewport,
		log:   v.deps.Logger,
	}
	s.live.Store(true)
	s.gesture = newGesture(v.kind, gestureConfig{
		target:           v.opts.targetVelocity(),
		damping:          v.opts.Damping,
		dragSensitivity:  v.opts.DragSensitivity,
		flingSensitivity: v.opts.FlingSensitivity,
		freeOrbit:        v.opts.FreeOrbit,
	})
	v.lastErr = nil
	v.sess = s
	s.log.Debug("session created", zap.String("asset", v.opts.AssetURL))
	s.onVisibility(v.visible)
}

// session is one viewer instantiation bound to one mount region. It owns
// at most one surface handle and releases everything it holds exactly once.
type session struct {
	v    *Viewer
	opts Options
	log  *zap.Logger

	phase Phase
	// live is flipped at the start of disposal and is consulted by every
	// deferred callback before it touches session state.
	live atomic.Bool

	handleID  HandleID
	hasHandle bool
	surface   Surface
	mesh      *models.Mesh
	token     *LoadToken
	gesture   *Gesture

	frame        FrameHandle
	framePending bool
	lastTick     time.Time
	hasTick      bool

	yaw    float64
	pitch  float64
	cam    Camera
	lights Lights
}

// onVisibility reacts to an intersection change. Callers hold v.mu.
func (s *session) onVisibility(fraction float64) {
	if !s.live.Load() {
		return
	}
	switch s.phase {
	case PhaseAwaitingViewport:
		if fraction >= s.opts.VisibilityThreshold {
			s.beginLoading()
		}
	case PhaseReady:
		if fraction > 0 && !s.framePending {
			// Off-screen suspension ends: restart the loop without
			// charging the hidden time as elapsed.
			s.hasTick = false
			s.scheduleFrame()
		}
		// fraction <= 0 needs nothing here: the next tick observes it
		// and stops rescheduling.
	}
}

// beginLoading acquires a surface slot, creates the surface, and starts
// the asynchronous asset load. Callers hold v.mu.
func (s *session) beginLoading() {
	if s.opts.AssetURL == "" {
		// Nothing configured; the session stays dormant by design.
		return
	}

	id, err := s.v.deps.Registry.TryAcquire()
	if err != nil {
		// Soft limit: stay in AwaitingViewport, never error.
		s.log.Debug("surface registry at capacity, deferring", zap.Int("active", s.v.deps.Registry.Active()))
		return
	}
	s.handleID = id
	s.hasHandle = true

	d := Dimensions{Width: 1, Height: 1}
	if s.v.region != nil {
		d = s.v.region.Size()
	}
	surface, err := s.v.deps.Backend.CreateSurface(d, s.opts.Quality)
	if err != nil {
		s.fail(fmt.Errorf("%w: %v", ErrBackendUnavailable, err))
		return
	}
	s.surface = surface
	s.cam = Camera{Position: s.opts.CameraPosition, Aspect: d.Aspect()}
	s.lights = Lights{Ambient: s.opts.AmbientIntensity, Directional: s.opts.DirectionalIntensity}

	s.phase = PhaseLoading
	s.log.Info("loading asset",
		zap.String("url", s.opts.AssetURL),
		zap.String("format", string(s.opts.Format)),
		zap.Int("width", d.Width), zap.Int("height", d.Height))

	fetch := s.v.deps.Fetch
	if fetch == nil {
		fetch = FetcherFor(s.opts.Format, nil)
	}
	s.token = NewLoader(fetch).Load(s.opts.AssetURL, s.opts.LoadTimeout, s.onLoadSuccess, s.onLoadFailure)
}

// onLoadSuccess runs on a loader goroutine.
func (s *session) onLoadSuccess(mesh *models.Mesh) {
	s.v.mu.Lock()
	defer s.v.mu.Unlock()
	if !s.live.Load() || s.phase != PhaseLoading {
		return
	}
	mesh.NormalizeScale()
	s.mesh = mesh
	s.phase = PhaseReady
	s.log.Info("asset ready",
		zap.String("url", s.opts.AssetURL),
		zap.Int("vertices", mesh.VertexCount()),
		zap.Int("triangles", mesh.TriangleCount()))
	if s.v.visible > 0 {
		s.hasTick = false
		s.scheduleFrame()
	}
}

// onLoadFailure runs on a loader goroutine.
func (s *session) onLoadFailure(le *LoadError) {
	s.v.mu.Lock()
	defer s.v.mu.Unlock()
	if !s.live.Load() {
		return
	}
	s.log.Warn("asset load failed", zap.String("url", s.opts.AssetURL), zap.Error(le))
	s.fail(le)
}

// fail records the terminal error and runs the shared disposal path.
// Callers hold v.mu.
func (s *session) fail(err error) {
	s.v.lastErr = err
	s.dispose()
}

// dispose releases everything the session holds: the scheduled frame, the
// in-flight load, the surface, the mesh, and the registry token. It is
// idempotent and is the single convergence point for unmount,
// reconfiguration, and every failure path.
func (s *session) dispose() {
	if !s.live.CompareAndSwap(true, false) {
		return
	}
	s.phase = PhaseDisposing

	// Cancel the load before tearing resources down so a late callback
	// cannot resurrect a disposed asset.
	if s.token != nil {
		s.token.Cancel()
		s.token = nil
	}
	if s.framePending {
		s.v.deps.Scheduler.CancelFrame(s.frame)
		s.framePending = false
	}
	if s.surface != nil {
		s.surface.Dispose()
		s.surface = nil
	}
	s.mesh = nil
	if s.hasHandle {
		s.v.deps.Registry.Release(s.handleID)
		s.hasHandle = false
	}

	s.phase = PhaseUnmounted
	s.log.Debug("session disposed")
}
