package videosource

import (
	"sync"

	"github.com/tauraamui/facetrackd/pkg/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

var openVideoCaptureFile = func(path string) (*gocv.VideoCapture, error) {
	return gocv.VideoCaptureFile(path)
}

var openVideoCaptureDevice = func(index int, api gocv.VideoCaptureAPI) (*gocv.VideoCapture, error) {
	return gocv.OpenVideoCaptureWithAPI(index, api)
}

var readFromVideoCapture = func(vc *gocv.VideoCapture, mat *gocv.Mat) bool {
	if vc.IsOpened() {
		return vc.Read(mat)
	}
	return false
}

// openCVSource decodes frames from a gocv video capture. It backs both
// the file/container source and the generic camera backend: the two
// differ only in how the capture is opened, so a single concrete
// adapter covers both.
type openCVSource struct {
	mu     sync.Mutex
	isOpen bool
	vc     *gocv.VideoCapture
}

func openFileSource(path string) (*openCVSource, error) {
	vc, err := openVideoCaptureFile(path)
	if err != nil {
		return nil, xerror.Errorf("unable to open video file %s: %w", path, err)
	}
	return &openCVSource{isOpen: true, vc: vc}, nil
}

// openCameraSource opens a camera device by index. On hosts where the
// native Windows capture API is the better choice the caller asks for
// it with preferNativeAPI rather than through a subclassed adapter.
func openCameraSource(index int, g Geometry, preferNativeAPI bool) (*openCVSource, error) {
	api := gocv.VideoCaptureAny
	if preferNativeAPI {
		api = gocv.VideoCaptureDshow
	}

	vc, err := openVideoCaptureDevice(index, api)
	if err != nil {
		return nil, xerror.Errorf("unable to open camera device %d: %w", index, err)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(g.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(g.Height))
	vc.Set(gocv.VideoCaptureFPS, g.FPS)

	return &openCVSource{isOpen: true, vc: vc}, nil
}

func (s *openCVSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isOpen {
		return s.vc.IsOpened()
	}
	return false
}

// IsReady always reports true: gocv reads decode synchronously.
func (s *openCVSource) IsReady() bool {
	return true
}

func (s *openCVSource) Read() (videoframe.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isOpen {
		return nil, false
	}
	mat := gocv.NewMat()
	if ok := readFromVideoCapture(s.vc, &mat); !ok {
		mat.Close()
		return nil, false
	}
	return &matFrame{mat: mat}, true
}

func (s *openCVSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = false
	return s.vc.Close()
}
