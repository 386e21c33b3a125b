package videosource

import (
	"io"

	"github.com/tauraamui/facetrackd/pkg/videoframe"
	"github.com/tauraamui/xerror"
)

// rawStreamSource reads fixed size uncompressed frames from a
// continuous byte stream. There is no framing protocol: each frame is
// exactly width*height*3 bytes in height major row order, and the
// boundary is computed purely from the configured geometry. Reads block
// until a full frame has accumulated, so a stalled producer stalls the
// consumer with it.
type rawStreamSource struct {
	isOpen   bool
	in       io.Reader
	dims     videoframe.Dimensions
	frameLen int
}

func newRawStreamSource(in io.Reader, g Geometry) (*rawStreamSource, error) {
	if g.Width < 1 || g.Height < 1 {
		return nil, xerror.Errorf(
			"no acceptable size was given for reading raw frames: %dx%d", g.Width, g.Height,
		)
	}
	return &rawStreamSource{
		isOpen:   true,
		in:       in,
		dims:     videoframe.Dimensions{W: g.Width, H: g.Height},
		frameLen: g.Width * g.Height * 3,
	}, nil
}

func (s *rawStreamSource) IsOpen() bool {
	return s.isOpen
}

func (s *rawStreamSource) IsReady() bool {
	return true
}

// Read accumulates partial reads until the frame buffer is full. Short
// reads are never a failure, only progress. The stream closing mid
// frame has no defined protocol meaning; the source marks itself closed
// and reports a miss.
func (s *rawStreamSource) Read() (videoframe.Frame, bool) {
	buf := make([]byte, s.frameLen)
	if _, err := io.ReadFull(s.in, buf); err != nil {
		s.isOpen = false
		return nil, false
	}
	return &pixelsFrame{data: buf, dims: s.dims}, true
}

func (s *rawStreamSource) Close() error {
	s.isOpen = false
	return nil
}
