package viewer

import (
	"errors"
	"fmt"
)

// ErrCapacityExceeded is returned by Registry.TryAcquire when the surface
// ceiling is reached. Sessions treat it as a soft limit and keep waiting,
// never as a failure.
var ErrCapacityExceeded = errors.New("viewer: surface capacity exceeded")

// ErrBackendUnavailable indicates the rendering backend could not create a
// surface. The session converts it into a terminal error state.
var ErrBackendUnavailable = errors.New("viewer: rendering backend unavailable")

// LoadFailure classifies why an asset load failed.
type LoadFailure int

const (
	LoadNetworkError LoadFailure = iota
	LoadParseError
	LoadTimeout
)

func (f LoadFailure) String() string {
	switch f {
	case LoadNetworkError:
		return "network error"
	case LoadParseError:
		return "parse error"
	case LoadTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("LoadFailure(%d)", int(f))
	}
}

// LoadError is the failure delivered by the asset loader adapter.
type LoadError struct {
	Reason LoadFailure
	URL    string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("viewer: load %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("viewer: load %s: %s", e.URL, e.Reason)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// asLoadError normalizes an arbitrary fetch error into a *LoadError.
// Errors without a classification default to NetworkError, the transport
// being the usual culprit outside the parsers.
func asLoadError(err error, url string) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		if le.URL == "" {
			le.URL = url
		}
		return le
	}
	return &LoadError{Reason: LoadNetworkError, URL: url, Err: err}
}
