package videosource

import (
	"time"

	"github.com/tauraamui/facetrackd/pkg/videoframe"
	"github.com/tauraamui/facetrackd/pkg/videosource/driver"
	"github.com/tauraamui/xerror"
)

const directReadTimeout = 1000 * time.Millisecond

var openDirectCapture = driver.OpenDirectCapture

// directCaptureSource adapts the high priority native capture surface.
// Opening resolves the device's human readable name from the binding's
// enumeration and starts its asynchronous capture loop; reads poll for
// the next completed frame with a bounded timeout.
type directCaptureSource struct {
	isOpen bool
	dev    driver.DirectCapture
	name   string
	dims   videoframe.Dimensions
}

func openDirectCaptureSource(index int, g Geometry) (*directCaptureSource, error) {
	dev, err := openDirectCapture()
	if err != nil {
		return nil, err
	}

	names, err := dev.Devices()
	if err != nil {
		dev.Destroy()
		return nil, err
	}
	if index < 0 || index >= len(names) {
		dev.Destroy()
		return nil, xerror.Errorf("direct capture has no device at index %d", index)
	}

	spec := driver.Spec{Width: g.Width, Height: g.Height, FPS: g.FPS}
	if err := dev.Capture(index, spec); err != nil {
		dev.Destroy()
		return nil, err
	}

	return &directCaptureSource{
		isOpen: true,
		dev:    dev,
		name:   names[index],
		dims:   videoframe.Dimensions{W: g.Width, H: g.Height},
	}, nil
}

// DeviceName reports the resolved human readable device name, used by
// the selector to match the same physical device in the legacy capture
// enumeration where indices are not stable across the two APIs.
func (s *directCaptureSource) DeviceName() string {
	return s.name
}

func (s *directCaptureSource) IsOpen() bool {
	return s.isOpen && s.dev.Capturing()
}

func (s *directCaptureSource) IsReady() bool {
	return s.isOpen && s.dev.Capturing()
}

func (s *directCaptureSource) Read() (videoframe.Frame, bool) {
	data, ok := s.dev.NextFrame(directReadTimeout)
	if !ok {
		return nil, false
	}
	return &pixelsFrame{data: data, dims: s.dims}, true
}

func (s *directCaptureSource) Close() error {
	s.isOpen = false
	s.dev.Destroy()
	return nil
}
