package viewer

import (
	"sync"
	"time"

	"github.com/turntable3d/turntable/models"
)

// FetchFunc retrieves and parses one asset. Implementations classify their
// failures by returning a *LoadError; anything else is treated as a
// network failure.
type FetchFunc func(url string) (*models.Mesh, error)

// Loader wraps a FetchFunc in a cancellable, timeout-bounded, single-shot
// asynchronous operation. Exactly one of the two callbacks fires per Load
// call, never both, and never after the returned token is cancelled. The
// loader performs no retries; retry policy belongs to the caller.
type Loader struct {
	fetch FetchFunc
}

// NewLoader creates a loader around the given fetch function.
func NewLoader(fetch FetchFunc) *Loader {
	return &Loader{fetch: fetch}
}

// LoadToken controls one in-flight load. It is the single source of truth
// consulted before either callback is delivered: whichever of completion,
// timeout, or cancellation settles it first wins, and the others become
// no-ops.
type LoadToken struct {
	mu      sync.Mutex
	settled bool
	timer   *time.Timer
}

// Cancel suppresses any callback that has not yet been delivered.
// Cancelling a settled token is a no-op.
func (t *LoadToken) Cancel() {
	t.settle()
}

// Cancelled reports whether the token has settled (by delivery,
// timeout, or cancellation).
func (t *LoadToken) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settled
}

// settle claims delivery rights. Only the first caller gets them.
func (t *LoadToken) settle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.settled {
		return false
	}
	t.settled = true
	if t.timer != nil {
		t.timer.Stop()
	}
	return true
}

// Load starts one fetch-and-parse operation. onSuccess and onFailure are
// invoked from a loader goroutine; callers synchronize their own state.
// If the fetch neither succeeds nor fails within timeout, onFailure fires
// with LoadTimeout and any late result is discarded.
func (l *Loader) Load(url string, timeout time.Duration, onSuccess func(*models.Mesh), onFailure func(*LoadError)) *LoadToken {
	tok := &LoadToken{}
	if timeout > 0 {
		tok.timer = time.AfterFunc(timeout, func() {
			if tok.settle() {
				onFailure(&LoadError{Reason: LoadTimeout, URL: url})
			}
		})
	}
	go func() {
		mesh, err := l.fetch(url)
		if err != nil {
			if tok.settle() {
				onFailure(asLoadError(err, url))
			}
			return
		}
		if tok.settle() {
			onSuccess(mesh)
		}
	}()
	return tok
}
