package videosource

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tauraamui/facetrackd/pkg/videosource/driver"
	"gocv.io/x/gocv"
)

func overloadHostPlatform(overload string) func() {
	hostPlatformRef := hostPlatform
	hostPlatform = overload
	return func() { hostPlatform = hostPlatformRef }
}

func overloadOpenVideoCaptureFile(overload func(path string) (*gocv.VideoCapture, error)) func() {
	openVideoCaptureFileRef := openVideoCaptureFile
	openVideoCaptureFile = overload
	return func() { openVideoCaptureFile = openVideoCaptureFileRef }
}

func overloadOpenVideoCaptureDevice(overload func(index int, api gocv.VideoCaptureAPI) (*gocv.VideoCapture, error)) func() {
	openVideoCaptureDeviceRef := openVideoCaptureDevice
	openVideoCaptureDevice = overload
	return func() { openVideoCaptureDevice = openVideoCaptureDeviceRef }
}

func TestOpenRawModeReturnsForwardingSession(t *testing.T) {
	is := is.New(t)

	const w, h = 2, 2
	frameData := bytes.Repeat([]byte{0xCD}, w*h*3)
	session, err := Open(Options{
		RawFrames: true,
		Geometry:  Geometry{Width: w, Height: h, FPS: 24},
		RawInput:  bytes.NewReader(frameData),
	})
	is.NoErr(err)
	is.True(len(session.UUID()) > 0)
	is.True(session.IsOpen())
	is.True(session.IsReady())

	frame, ok := session.Read()
	is.True(ok)
	is.True(bytes.Equal(frame.DataRef().([]byte), frameData))

	is.NoErr(session.Close())
	is.True(!session.IsOpen())
}

func TestOpenRawModeWithInvalidGeometryIsFatal(t *testing.T) {
	session, err := Open(Options{
		RawFrames: true,
		Geometry:  Geometry{Width: 0, Height: 2, FPS: 24},
	})
	assert.Nil(t, session)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no acceptable size")
}

func TestOpenExistingPathNeverTouchesCameraBackends(t *testing.T) {
	is := is.New(t)
	resetFS := overloadFS(afero.NewMemMapFs())
	defer resetFS()
	require.NoError(t, afero.WriteFile(fs, "/tmp/video.mp4", []byte{0x0}, 0o644))

	fileOpens := 0
	resetFileOpen := overloadOpenVideoCaptureFile(func(path string) (*gocv.VideoCapture, error) {
		fileOpens++
		is.Equal(path, "/tmp/video.mp4")
		return nil, errors.New("test file open error")
	})
	defer resetFileOpen()

	deviceOpens := 0
	resetDeviceOpen := overloadOpenVideoCaptureDevice(func(int, gocv.VideoCaptureAPI) (*gocv.VideoCapture, error) {
		deviceOpens++
		return nil, errors.New("should never be invoked")
	})
	defer resetDeviceOpen()

	directOpens := 0
	resetDirect := overloadOpenDirectCapture(func() (driver.DirectCapture, error) {
		directOpens++
		return nil, driver.ErrUnavailable
	})
	defer resetDirect()

	session, err := Open(Options{Capture: "/tmp/video.mp4", Geometry: Geometry{Width: 640, Height: 360, FPS: 24}})
	is.True(session == nil)
	is.Equal(err.Error(), "unable to open video file /tmp/video.mp4: test file open error")
	is.Equal(fileOpens, 1)
	is.Equal(deviceOpens, 0)
	is.Equal(directOpens, 0)
}

func TestOpenDeviceIndexOffWindowsGoesStraightToOpenCV(t *testing.T) {
	is := is.New(t)
	resetFS := overloadFS(afero.NewMemMapFs())
	defer resetFS()
	resetPlatform := overloadHostPlatform("linux")
	defer resetPlatform()

	var openedIndex int
	var openedAPI gocv.VideoCaptureAPI
	deviceOpens := 0
	resetDeviceOpen := overloadOpenVideoCaptureDevice(func(index int, api gocv.VideoCaptureAPI) (*gocv.VideoCapture, error) {
		deviceOpens++
		openedIndex = index
		openedAPI = api
		return nil, errors.New("test device open error")
	})
	defer resetDeviceOpen()

	directOpens := 0
	resetDirect := overloadOpenDirectCapture(func() (driver.DirectCapture, error) {
		directOpens++
		return nil, driver.ErrUnavailable
	})
	defer resetDirect()

	session, err := Open(Options{Capture: "0", DirectCapture: true, Geometry: Geometry{Width: 640, Height: 360, FPS: 24}})
	is.True(session == nil)
	is.True(err != nil)
	is.Equal(deviceOpens, 1)
	is.Equal(openedIndex, 0)
	is.Equal(openedAPI, gocv.VideoCaptureAny)
	is.Equal(directOpens, 0)
}

func TestOpenCommitsToDirectCaptureWhenProbePasses(t *testing.T) {
	is := is.New(t)
	resetFS := overloadFS(afero.NewMemMapFs())
	defer resetFS()
	resetPlatform := overloadHostPlatform("windows")
	defer resetPlatform()
	resetSleep := overloadSleep(func(time.Duration) {})
	defer resetSleep()

	dev := &fakeDirectCapture{
		deviceNames:   []string{"Integrated Camera"},
		nextFrameData: bytes.Repeat([]byte{0x42}, 2*2*3),
		nextFrameOK:   true,
	}
	resetDirect := overloadOpenDirectCapture(func() (driver.DirectCapture, error) { return dev, nil })
	defer resetDirect()

	legacyOpens := 0
	resetLegacy := overloadOpenLegacyCapture(func() (driver.LegacyCapture, error) {
		legacyOpens++
		return nil, driver.ErrUnavailable
	})
	defer resetLegacy()

	deviceOpens := 0
	resetDeviceOpen := overloadOpenVideoCaptureDevice(func(int, gocv.VideoCaptureAPI) (*gocv.VideoCapture, error) {
		deviceOpens++
		return nil, errors.New("should never be invoked")
	})
	defer resetDeviceOpen()

	session, err := Open(Options{Capture: "0", DirectCapture: true, Geometry: Geometry{Width: 2, Height: 2, FPS: 24}})
	is.NoErr(err)
	is.True(session.IsOpen())

	frame, ok := session.Read()
	is.True(ok)
	is.Equal(frame.Dimensions().W, 2)

	is.Equal(legacyOpens, 0)
	is.Equal(deviceOpens, 0)
	is.True(!dev.destroyInvoked)
}

func TestOpenFallsBackToLegacyCaptureByDeviceName(t *testing.T) {
	is := is.New(t)
	resetFS := overloadFS(afero.NewMemMapFs())
	defer resetFS()
	resetPlatform := overloadHostPlatform("windows")
	defer resetPlatform()
	resetSleep := overloadSleep(func(time.Duration) {})
	defer resetSleep()

	// opens and resolves a name, but the capture loop dies straight
	// away so the probe sees a closed device
	directDev := &fakeDirectCapture{
		deviceNames:       []string{"Integrated Camera"},
		stopsAfterCapture: true,
	}
	resetDirect := overloadOpenDirectCapture(func() (driver.DirectCapture, error) { return directDev, nil })
	defer resetDirect()

	legacyDev := &fakeLegacyCapture{
		deviceNames: []string{"Some Other Camera", "Integrated Camera"},
		captureDone: true,
		frameData:   bytes.Repeat([]byte{0x24}, 2*2*3),
	}
	resetLegacy := overloadOpenLegacyCapture(func() (driver.LegacyCapture, error) { return legacyDev, nil })
	defer resetLegacy()
	resetInit := overloadInitLegacySubsystem(func(dev driver.LegacyCapture) error { return dev.Init() })
	defer resetInit()

	deviceOpens := 0
	resetDeviceOpen := overloadOpenVideoCaptureDevice(func(int, gocv.VideoCaptureAPI) (*gocv.VideoCapture, error) {
		deviceOpens++
		return nil, errors.New("should never be invoked")
	})
	defer resetDeviceOpen()

	session, err := Open(Options{Capture: "0", DirectCapture: true, Geometry: Geometry{Width: 2, Height: 2, FPS: 24}})
	is.NoErr(err)
	is.True(session.IsOpen())

	// the losing direct capture candidate released its claim
	is.True(directDev.destroyInvoked)
	// matched by name, not by the original index
	is.Equal(legacyDev.initCameraIndex, 1)
	is.Equal(deviceOpens, 0)

	frame, ok := session.Read()
	is.True(ok)
	is.True(frame != nil)
}

func TestOpenSkipsLegacyCaptureWithoutNameMatch(t *testing.T) {
	is := is.New(t)
	resetFS := overloadFS(afero.NewMemMapFs())
	defer resetFS()
	resetPlatform := overloadHostPlatform("windows")
	defer resetPlatform()
	resetSleep := overloadSleep(func(time.Duration) {})
	defer resetSleep()

	resetDirect := overloadOpenDirectCapture(func() (driver.DirectCapture, error) {
		return nil, driver.ErrUnavailable
	})
	defer resetDirect()

	legacyDev := &fakeLegacyCapture{deviceNames: []string{"Some Other Camera"}}
	resetLegacy := overloadOpenLegacyCapture(func() (driver.LegacyCapture, error) { return legacyDev, nil })
	defer resetLegacy()
	resetInit := overloadInitLegacySubsystem(func(dev driver.LegacyCapture) error { return dev.Init() })
	defer resetInit()

	var openedAPI gocv.VideoCaptureAPI
	deviceOpens := 0
	resetDeviceOpen := overloadOpenVideoCaptureDevice(func(index int, api gocv.VideoCaptureAPI) (*gocv.VideoCapture, error) {
		deviceOpens++
		openedAPI = api
		return nil, errors.New("final fallback open error")
	})
	defer resetDeviceOpen()

	session, err := Open(Options{Capture: "0", DirectCapture: true, Geometry: Geometry{Width: 2, Height: 2, FPS: 24}})
	is.True(session == nil)
	// the final backend's result is accepted unconditionally
	is.Equal(err.Error(), "unable to open camera device 0: final fallback open error")
	is.True(!legacyDev.initCameraInvoked)
	is.Equal(deviceOpens, 1)
	is.Equal(openedAPI, gocv.VideoCaptureDshow)
}

func TestOpenInvalidSpecifierReportsNoValidInput(t *testing.T) {
	is := is.New(t)
	resetFS := overloadFS(afero.NewMemMapFs())
	defer resetFS()
	resetPlatform := overloadHostPlatform("linux")
	defer resetPlatform()

	session, err := Open(Options{Capture: "abc", Geometry: Geometry{Width: 640, Height: 360, FPS: 24}})
	is.True(session == nil)
	is.Equal(err, ErrNoValidInput)
}

func TestResolveBackendMockBypassesSelection(t *testing.T) {
	is := is.New(t)

	session, err := ResolveBackend("mock", Options{Geometry: Geometry{Width: 32, Height: 16, FPS: 24}})
	is.NoErr(err)
	is.True(session.IsOpen())
	is.True(session.IsReady())

	frame, ok := session.Read()
	is.True(ok)
	is.Equal(frame.Dimensions().W, 32)
	is.Equal(frame.Dimensions().H, 16)
	is.Equal(len(frame.DataRef().([]byte)), 32*16*3)

	is.NoErr(session.Close())
	is.True(!session.IsOpen())
}
