package videosource

import (
	"io"
	"os"
	"runtime"

	"github.com/google/uuid"
	"github.com/tauraamui/facetrackd/pkg/log"
	"github.com/tauraamui/facetrackd/pkg/videoframe"
	"github.com/tauraamui/facetrackd/pkg/videosource/driver"
)

var hostPlatform = runtime.GOOS

// Options configure source selection. Capture is the single specifier
// token: an existing file path or an integer camera device index, or
// ignored entirely when RawFrames is set. DirectCapture opts in to the
// high priority native capture surface on hosts that carry it.
type Options struct {
	Capture       string
	RawFrames     bool
	Geometry      Geometry
	DirectCapture bool
	RawInput      io.Reader
}

func (o Options) rawInput() io.Reader {
	if o.RawInput != nil {
		return o.RawInput
	}
	return os.Stdin
}

// Session owns the single source that won selection, for the lifetime
// of the caller's use. It forwards the capability contract to the
// committed source, which is never replaced after selection.
type Session struct {
	uuid string
	src  Source
}

func newSession(src Source) *Session {
	return &Session{uuid: uuid.NewString(), src: src}
}

func (s *Session) UUID() string { return s.uuid }

func (s *Session) IsOpen() bool { return s.src.IsOpen() }

func (s *Session) IsReady() bool { return s.src.IsReady() }

func (s *Session) Read() (videoframe.Frame, bool) { return s.src.Read() }

func (s *Session) Close() error { return s.src.Close() }

// Open classifies the capture specifier, runs the backend fallback
// chain for camera devices, and commits to exactly one source. Failure
// to produce an open source is ErrNoValidInput; the caller is expected
// to treat it as fatal.
func Open(opts Options) (*Session, error) {
	src, err := selectSource(opts)
	if err != nil {
		return nil, err
	}

	if !src.IsOpen() {
		src.Close()
		return nil, ErrNoValidInput
	}

	return newSession(src), nil
}

func selectSource(opts Options) (Source, error) {
	spec := Classify(opts.Capture, opts.RawFrames)
	switch spec.Kind {
	case KindRawStream:
		return newRawStreamSource(opts.rawInput(), opts.Geometry)
	case KindFilePath:
		return openFileSource(spec.Path)
	case KindDeviceIndex:
		return openCameraDevice(spec.Index, opts)
	}
	return nil, ErrNoValidInput
}

// openCameraDevice runs the camera backend fallback chain, strictly in
// priority order, stopping at the first candidate that passes its
// liveness probe. Every candidate that fails is released before the
// next is tried so no two backends hold a claim on the device at once.
func openCameraDevice(index int, opts Options) (Source, error) {
	if hostPlatform != "windows" {
		return openCameraSource(index, opts.Geometry, false)
	}

	deviceName := ""
	if opts.DirectCapture {
		src, err := openDirectCaptureSource(index, opts.Geometry)
		if err == nil {
			deviceName = src.DeviceName()
			if probeSource(src) {
				return src, nil
			}
			src.Close()
		} else {
			log.Debug("direct capture unavailable: %s", err.Error())
		}
	}

	log.Warn("Direct capture failed. Falling back to legacy capture for device %s.", deviceName)
	if src, ok := tryLegacyCapture(deviceName, opts.Geometry); ok {
		return src, nil
	}

	log.Warn("Legacy capture failed. Falling back to OpenCV. If this fails, please change your camera settings.")
	return openCameraSource(index, opts.Geometry, true)
}

// tryLegacyCapture re-enumerates the legacy surface's device list and
// binds the device whose name exactly matches the one the direct
// capture surface resolved. Indices are not stable across the two
// enumeration APIs, so the name is the only reliable key. Any failure
// here means "move on to the final backend", never a hard error.
func tryLegacyCapture(deviceName string, g Geometry) (Source, bool) {
	dev, err := openLegacyCapture()
	if err != nil {
		log.Debug("legacy capture unavailable: %s", err.Error())
		return nil, false
	}

	if err := initLegacySubsystem(dev); err != nil {
		log.Debug("legacy capture init failed: %s", err.Error())
		return nil, false
	}

	found, ok := findLegacyDevice(dev, deviceName)
	if !ok {
		log.Debug("no legacy capture device named %q", deviceName)
		return nil, false
	}
	log.Info("Found device %s as %d.", deviceName, found)

	src, err := openLegacyCaptureSource(dev, found, g)
	if err != nil {
		log.Debug("legacy capture open failed: %s", err.Error())
		return nil, false
	}
	if !probeSource(src) {
		src.Close()
		return nil, false
	}
	return src, true
}

var openLegacyCapture = driver.OpenLegacyCapture

func findLegacyDevice(dev driver.LegacyCapture, name string) (int, bool) {
	count, err := dev.CountDevices()
	if err != nil {
		return 0, false
	}

	found := -1
	for i := 0; i < count; i++ {
		deviceName, err := dev.DeviceName(i)
		if err != nil {
			continue
		}
		if deviceName == name {
			found = i
		}
	}
	if found < 0 {
		return 0, false
	}
	return found, true
}

// ResolveBackend allows forcing a source implementation by name,
// bypassing specifier classification. Anything other than "mock"
// resolves to the real selection chain.
func ResolveBackend(t string, opts Options) (*Session, error) {
	switch t {
	case "mock":
		return newSession(newMockSource(opts.Geometry)), nil
	default:
		return Open(opts)
	}
}
