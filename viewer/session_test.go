package viewer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turntable3d/turntable/math3d"
	"github.com/turntable3d/turntable/models"
)

// fakeClock is a manually advanced time source shared by a test's viewer
// and scheduler pumps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// fakeSurface records lifecycle calls.
type fakeSurface struct {
	mu       sync.Mutex
	renders  int
	resizes  []Dimensions
	disposed int
	lastMVP  math3d.Mat4
}

func (s *fakeSurface) Resize(d Dimensions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resizes = append(s.resizes, d)
}

func (s *fakeSurface) Render(_ *models.Mesh, model math3d.Mat4, _ Camera, _ Lights) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders++
	s.lastMVP = model
}

func (s *fakeSurface) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed++
}

func (s *fakeSurface) renderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders
}

// fakeBackend counts created surfaces and can be made to fail.
type fakeBackend struct {
	mu       sync.Mutex
	surfaces []*fakeSurface
	fail     error
}

func (b *fakeBackend) CreateSurface(Dimensions, Quality) (Surface, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return nil, b.fail
	}
	s := &fakeSurface{}
	b.surfaces = append(b.surfaces, s)
	return s, nil
}

func (b *fakeBackend) created() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.surfaces)
}

func (b *fakeBackend) last() *fakeSurface {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.surfaces) == 0 {
		return nil
	}
	return b.surfaces[len(b.surfaces)-1]
}

type fixedRegion struct{ d Dimensions }

func (r fixedRegion) Size() Dimensions { return r.d }

// blockingFetch parks every fetch until released, or answers instantly
// when release is nil.
func meshFetch(release chan struct{}) FetchFunc {
	return func(url string) (*models.Mesh, error) {
		if release != nil {
			<-release
		}
		m := &models.Mesh{Name: url}
		m.Vertices = []models.MeshVertex{
			{Position: math3d.V3(-1, 0, 0)},
			{Position: math3d.V3(1, 0, 0)},
			{Position: math3d.V3(0, 1, 0)},
		}
		m.Faces = []models.Face{{V: [3]int{0, 1, 2}, Material: -1}}
		m.CalculateBounds()
		return m, nil
	}
}

type harness struct {
	viewer    *Viewer
	backend   *fakeBackend
	scheduler *ManualScheduler
	registry  *Registry
	clock     *fakeClock
}

func newHarness(t *testing.T, opts Options, fetch FetchFunc) *harness {
	t.Helper()
	h := &harness{
		backend:   &fakeBackend{},
		scheduler: NewManualScheduler(),
		registry:  NewRegistry(DefaultMaxSurfaces),
		clock:     newFakeClock(),
	}
	h.viewer = New(Deps{
		Backend:   h.backend,
		Scheduler: h.scheduler,
		Registry:  h.registry,
		Fetch:     fetch,
		Clock:     h.clock.Now,
	}, opts)
	return h
}

func (h *harness) waitPhase(t *testing.T, want Phase) {
	t.Helper()
	waitFor(t, func() bool { return h.viewer.Phase() == want })
}

func defaultTestOptions() Options {
	o := DefaultOptions()
	o.AssetURL = "asset.glb"
	return o
}

func TestMountStaysDormantUntilVisible(t *testing.T) {
	h := newHarness(t, defaultTestOptions(), meshFetch(nil))
	h.viewer.Mount(fixedRegion{Dimensions{640, 480}}, PointerFine)

	assert.Equal(t, PhaseAwaitingViewport, h.viewer.Phase())
	assert.Zero(t, h.backend.created(), "no surface before visibility")

	// Below the threshold nothing happens.
	h.viewer.SetVisibility(0.05)
	assert.Equal(t, PhaseAwaitingViewport, h.viewer.Phase())

	h.viewer.SetVisibility(0.5)
	h.waitPhase(t, PhaseReady)
	assert.Equal(t, 1, h.backend.created())
	assert.Equal(t, 1, h.registry.Active())
}

func TestEmptyAssetURLStaysAwaiting(t *testing.T) {
	o := DefaultOptions()
	h := newHarness(t, o, meshFetch(nil))
	h.viewer.Mount(fixedRegion{Dimensions{640, 480}}, PointerFine)
	h.viewer.SetVisibility(1)

	assert.Equal(t, PhaseAwaitingViewport, h.viewer.Phase())
	assert.NoError(t, h.viewer.Err())
	assert.Zero(t, h.registry.Active())
}

func TestUnmountReleasesEverything(t *testing.T) {
	h := newHarness(t, defaultTestOptions(), meshFetch(nil))

	for i := 0; i < 5; i++ {
		h.viewer.Mount(fixedRegion{Dimensions{640, 480}}, PointerFine)
		h.viewer.SetVisibility(1)
		h.waitPhase(t, PhaseReady)
		h.viewer.Unmount()
		assert.Equal(t, PhaseUnmounted, h.viewer.Phase())
	}

	assert.Zero(t, h.registry.Active(), "every cycle returns the registry to baseline")
	assert.Equal(t, 5, h.backend.created())
	for _, s := range h.backend.surfaces {
		assert.Equal(t, 1, s.disposed, "each surface disposed exactly once")
	}
	assert.Zero(t, h.scheduler.Pending(), "no frame callbacks left behind")
}

func TestReconfigureTearsDownOnceAndRebuilds(t *testing.T) {
	h := newHarness(t, defaultTestOptions(), meshFetch(nil))
	h.viewer.Mount(fixedRegion{Dimensions{640, 480}}, PointerFine)
	h.viewer.SetVisibility(1)
	h.waitPhase(t, PhaseReady)
	first := h.backend.last()

	o := defaultTestOptions()
	o.AssetURL = "other.glb"
	h.viewer.SetOptions(o)
	h.waitPhase(t, PhaseReady)

	assert.Equal(t, 1, first.disposed, "old session torn down exactly once")
	assert.Equal(t, 2, h.backend.created(), "exactly one replacement surface")
	assert.Equal(t, 1, h.registry.Active())
}

func TestCapacityRefusalIsSilent(t *testing.T) {
	h := newHarness(t, defaultTestOptions(), meshFetch(nil))
	for i := 0; i < DefaultMaxSurfaces; i++ {
		_, err := h.registry.TryAcquire()
		require.NoError(t, err)
	}

	h.viewer.Mount(fixedRegion{Dimensions{640, 480}}, PointerFine)
	h.viewer.SetVisibility(1)

	assert.Equal(t, PhaseAwaitingViewport, h.viewer.Phase())
	assert.NoError(t, h.viewer.Err(), "capacity refusal is not an error state")
	assert.Zero(t, h.backend.created())
}

func TestBackendFailureIsTerminal(t *testing.T) {
	h := newHarness(t, defaultTestOptions(), meshFetch(nil))
	h.backend.fail = errors.New("no webgl")

	h.viewer.Mount(fixedRegion{Dimensions{640, 480}}, PointerFine)
	h.viewer.SetVisibility(1)

	assert.Equal(t, PhaseUnmounted, h.viewer.Phase())
	assert.ErrorIs(t, h.viewer.Err(), ErrBackendUnavailable)
	assert.Zero(t, h.registry.Active(), "registry slot returned on failure")
}

func TestLoadFailureReleasesResources(t *testing.T) {
	h := newHarness(t, defaultTestOptions(), func(url string) (*models.Mesh, error) {
		return nil, &LoadError{Reason: LoadParseError, Err: errors.New("truncated chunk")}
	})
	h.viewer.Mount(fixedRegion{Dimensions{640, 480}}, PointerFine)
	h.viewer.SetVisibility(1)

	waitFor(t, func() bool { return h.viewer.Err() != nil })
	var le *LoadError
	require.ErrorAs(t, h.viewer.Err(), &le)
	assert.Equal(t, LoadParseError, le.Reason)

	assert.Equal(t, PhaseUnmounted, h.viewer.Phase())
	assert.Zero(t, h.registry.Active())
	assert.Equal(t, 1, h.backend.last().disposed)
}

func TestUnmountDuringLoadSuppressesCallback(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, defaultTestOptions(), meshFetch(release))
	h.viewer.Mount(fixedRegion{Dimensions{640, 480}}, PointerFine)
	h.viewer.SetVisibility(1)
	assert.Equal(t, PhaseLoading, h.viewer.Phase())

	h.viewer.Unmount()
	close(release)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, PhaseUnmounted, h.viewer.Phase())
	assert.NoError(t, h.viewer.Err())
	assert.Zero(t, h.registry.Active())
}

func TestVisibilityZeroSuspendsLoop(t *testing.T) {
	h := newHarness(t, defaultTestOptions(), meshFetch(nil))
	h.viewer.Mount(fixedRegion{Dimensions{640, 480}}, PointerFine)
	h.viewer.SetVisibility(1)
	h.waitPhase(t, PhaseReady)

	surf := h.backend.last()
	h.scheduler.Pump(h.clock.Advance(refFrame))
	h.scheduler.Pump(h.clock.Advance(refFrame))
	require.Equal(t, 2, surf.renderCount())

	h.viewer.SetVisibility(0)
	h.scheduler.Pump(h.clock.Advance(refFrame))
	assert.Equal(t, 2, surf.renderCount(), "hidden viewer renders nothing")
	assert.Zero(t, h.scheduler.Pending(), "loop stops rescheduling while hidden")
	assert.Equal(t, PhaseReady, h.viewer.Phase(), "suspension is not teardown")

	h.viewer.SetVisibility(0.4)
	h.scheduler.Pump(h.clock.Advance(refFrame))
	assert.Equal(t, 3, surf.renderCount())
}

func TestResizeIsSynchronous(t *testing.T) {
	region := &mutableRegion{d: Dimensions{640, 480}}
	h := newHarness(t, defaultTestOptions(), meshFetch(nil))
	h.viewer.Mount(region, PointerFine)
	h.viewer.SetVisibility(1)
	h.waitPhase(t, PhaseReady)

	region.set(Dimensions{1280, 720})
	h.viewer.Resize()

	surf := h.backend.last()
	surf.mu.Lock()
	defer surf.mu.Unlock()
	require.Len(t, surf.resizes, 1)
	assert.Equal(t, Dimensions{1280, 720}, surf.resizes[0])
}

type mutableRegion struct {
	mu sync.Mutex
	d  Dimensions
}

func (r *mutableRegion) Size() Dimensions {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.d
}

func (r *mutableRegion) set(d Dimensions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.d = d
}

func TestDisposeTwiceMatchesDisposeOnce(t *testing.T) {
	h := newHarness(t, defaultTestOptions(), func(url string) (*models.Mesh, error) {
		return nil, &LoadError{Reason: LoadNetworkError, Err: errors.New("refused")}
	})
	h.viewer.Mount(fixedRegion{Dimensions{640, 480}}, PointerFine)
	h.viewer.SetVisibility(1)
	waitFor(t, func() bool { return h.viewer.Err() != nil })

	// The failure already disposed the session; unmounting again must
	// change nothing observable.
	h.viewer.Unmount()
	h.viewer.Unmount()

	assert.Zero(t, h.registry.Active())
	assert.Equal(t, 1, h.backend.last().disposed)
	assert.Equal(t, PhaseUnmounted, h.viewer.Phase())
}

func TestPointerEventsIgnoredWhenUnmounted(t *testing.T) {
	h := newHarness(t, defaultTestOptions(), meshFetch(nil))
	h.viewer.PointerDown(10, 10)
	assert.False(t, h.viewer.PointerMove(20, 10))
	h.viewer.PointerUp()
	assert.Equal(t, PhaseUnmounted, h.viewer.Phase())
}
