// Package driver is the seam between the video source adapters and the
// native capture bindings they drive. The bindings live outside this
// module; a binding registers a factory for the capture surface it
// provides from its own init func, in the same manner as database/sql
// drivers. A surface with no registered factory is reported as
// unavailable, which the source selector treats as "try the next
// backend".
package driver

import (
	"sync"
	"time"

	"github.com/tauraamui/xerror"
)

var ErrUnavailable = xerror.New("no capture driver registered for this surface")

// Spec carries the caller's requested capture geometry down to a binding.
type Spec struct {
	Width, Height int
	FPS           float64
}

// DirectCapture is the high priority native capture surface. Opening a
// device starts an asynchronous capture loop owned by the binding;
// NextFrame hands over the most recent completed frame as tightly
// packed 3 channel pixel data, waiting up to the given timeout.
type DirectCapture interface {
	Devices() ([]string, error)
	Capture(index int, spec Spec) error
	Capturing() bool
	NextFrame(timeout time.Duration) ([]byte, bool)
	Destroy()
}

// LegacyCapture is the low priority native capture surface. It requires
// one process wide Init before any per device call, and runs exactly one
// outstanding asynchronous capture request per device: BeginCapture arms
// a request, CaptureDone polls it, ReadFrame collects the completed
// pixel data.
type LegacyCapture interface {
	Init() error
	CountDevices() (int, error)
	DeviceName(index int) (string, error)
	InitCamera(index int, spec Spec) error
	BeginCapture(index int) error
	CaptureDone(index int) bool
	ReadFrame(index int) ([]byte, error)
	DeinitCamera(index int)
}

var (
	mu            sync.Mutex
	directFactory func() (DirectCapture, error)
	legacyFactory func() (LegacyCapture, error)
)

// RegisterDirectCapture installs the factory used to acquire the direct
// capture surface. Passing nil clears the registration.
func RegisterDirectCapture(f func() (DirectCapture, error)) {
	mu.Lock()
	defer mu.Unlock()
	directFactory = f
}

// RegisterLegacyCapture installs the factory used to acquire the legacy
// capture surface. Passing nil clears the registration.
func RegisterLegacyCapture(f func() (LegacyCapture, error)) {
	mu.Lock()
	defer mu.Unlock()
	legacyFactory = f
}

func OpenDirectCapture() (DirectCapture, error) {
	mu.Lock()
	f := directFactory
	mu.Unlock()
	if f == nil {
		return nil, ErrUnavailable
	}
	return f()
}

func OpenLegacyCapture() (LegacyCapture, error) {
	mu.Lock()
	f := legacyFactory
	mu.Unlock()
	if f == nil {
		return nil, ErrUnavailable
	}
	return f()
}
