// Package viewer implements the lifecycle and interaction engine of an
// embeddable 3D model viewer: it owns one rendering surface per mounted
// region, loads assets asynchronously without blocking that surface,
// reconciles pointer/touch gestures with inertial auto-rotation, and
// releases every rendering resource deterministically on unmount or
// reconfiguration.
//
// The rendering backend, the frame scheduler, and the surface-count
// registry are injected, so the engine runs unchanged against a GPU
// backend, the in-repo software rasterizer, or test fakes.
package viewer
