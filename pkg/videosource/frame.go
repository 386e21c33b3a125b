package videosource

import (
	"github.com/tauraamui/facetrackd/pkg/videoframe"
	"gocv.io/x/gocv"
)

type matFrame struct {
	isClosed bool
	mat      gocv.Mat
}

func (f *matFrame) DataRef() interface{} {
	return &f.mat
}

func (f *matFrame) Dimensions() videoframe.Dimensions {
	return videoframe.Dimensions{W: f.mat.Cols(), H: f.mat.Rows()}
}

func (f *matFrame) Close() {
	if !f.isClosed {
		f.mat.Close()
		f.isClosed = true
	}
}

// pixelsFrame carries tightly packed 3 channel pixel data in height
// major row order, as delivered by the raw stream source and the native
// capture surfaces.
type pixelsFrame struct {
	data []byte
	dims videoframe.Dimensions
}

func (f *pixelsFrame) DataRef() interface{} {
	return f.data
}

func (f *pixelsFrame) Dimensions() videoframe.Dimensions {
	return f.dims
}

func (f *pixelsFrame) Close() {
	f.data = nil
}
