package viewer

import "sync"

// DefaultMaxSurfaces bounds how many rendering surfaces can be live at once
// process-wide. Four keeps total GPU-context pressure sane when many viewer
// instances share one host.
const DefaultMaxSurfaces = 4

// HandleID is an opaque token for one acquired surface slot.
type HandleID uint64

// Registry counts live rendering surfaces against a fixed ceiling. It holds
// no references to rendering objects, only tokens, so it has no disposal
// responsibility beyond bookkeeping. A single Registry is shared by every
// Viewer that should compete for the same budget.
type Registry struct {
	mu       sync.Mutex
	capacity int
	nextID   HandleID
	active   map[HandleID]struct{}
}

// NewRegistry creates a registry with the given ceiling.
// A non-positive capacity falls back to DefaultMaxSurfaces.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultMaxSurfaces
	}
	return &Registry{
		capacity: capacity,
		active:   make(map[HandleID]struct{}),
	}
}

// TryAcquire reserves one surface slot. It refuses with ErrCapacityExceeded
// when the ceiling is reached; acquisition is never queued.
func (r *Registry) TryAcquire() (HandleID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.active) >= r.capacity {
		return 0, ErrCapacityExceeded
	}
	r.nextID++
	id := r.nextID
	r.active[id] = struct{}{}
	return id, nil
}

// Release returns a slot. Releasing an unknown or already-released handle is
// a no-op: teardown paths may run more than once.
func (r *Registry) Release(id HandleID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

// Active returns the number of currently acquired handles.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Capacity returns the ceiling.
func (r *Registry) Capacity() int {
	return r.capacity
}
