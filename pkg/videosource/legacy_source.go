package videosource

import (
	"sync"

	"github.com/tauraamui/facetrackd/pkg/videoframe"
	"github.com/tauraamui/facetrackd/pkg/videosource/driver"
)

var legacySubsystemOnce sync.Once
var legacySubsystemErr error

// initLegacySubsystem performs the one time process wide init the
// legacy capture surface requires before any per device call. The
// adapter owns the idempotency rather than leaving it as ambient global
// state inside the binding.
var initLegacySubsystem = func(dev driver.LegacyCapture) error {
	legacySubsystemOnce.Do(func() {
		legacySubsystemErr = dev.Init()
	})
	return legacySubsystemErr
}

// legacyCaptureSource adapts the low priority native capture surface.
// It keeps exactly one asynchronous capture request outstanding: each
// successful read collects the completed request and immediately arms
// the next one.
type legacyCaptureSource struct {
	isOpen bool
	dev    driver.LegacyCapture
	index  int
	dims   videoframe.Dimensions
}

func openLegacyCaptureSource(dev driver.LegacyCapture, index int, g Geometry) (*legacyCaptureSource, error) {
	spec := driver.Spec{Width: g.Width, Height: g.Height, FPS: g.FPS}
	if err := dev.InitCamera(index, spec); err != nil {
		return nil, err
	}
	if err := dev.BeginCapture(index); err != nil {
		dev.DeinitCamera(index)
		return nil, err
	}
	return &legacyCaptureSource{
		isOpen: true,
		dev:    dev,
		index:  index,
		dims:   videoframe.Dimensions{W: g.Width, H: g.Height},
	}, nil
}

func (s *legacyCaptureSource) IsOpen() bool {
	return s.isOpen
}

func (s *legacyCaptureSource) IsReady() bool {
	return s.dev.CaptureDone(s.index)
}

// Read never blocks: if the outstanding request has not completed it
// reports a miss immediately. A collected frame re-arms the next
// request before returning.
func (s *legacyCaptureSource) Read() (videoframe.Frame, bool) {
	if !s.dev.CaptureDone(s.index) {
		return nil, false
	}

	data, err := s.dev.ReadFrame(s.index)
	if err != nil {
		s.isOpen = false
		return nil, false
	}
	if err := s.dev.BeginCapture(s.index); err != nil {
		s.isOpen = false
	}
	return &pixelsFrame{data: data, dims: s.dims}, true
}

func (s *legacyCaptureSource) Close() error {
	s.isOpen = false
	s.dev.DeinitCamera(s.index)
	return nil
}
