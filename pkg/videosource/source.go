package videosource

import (
	"github.com/tauraamui/facetrackd/pkg/videoframe"
	"github.com/tauraamui/xerror"
)

var ErrNoValidInput = xerror.New("there was no valid input")

// Source is the capability contract every concrete frame source
// satisfies. IsOpen and IsReady never block. Read hands back the next
// decoded frame; a false result is a transient miss ("try again
// later"), not a failure. Close releases any native resource on first
// call.
type Source interface {
	IsOpen() bool
	IsReady() bool
	Read() (videoframe.Frame, bool)
	Close() error
}

// Geometry is the capture shape requested by the caller, passed
// opaquely to whichever backend wins selection.
type Geometry struct {
	Width  int     `json:"width" validate:"gte=1"`
	Height int     `json:"height" validate:"gte=1"`
	FPS    float64 `json:"fps" validate:"gt=0"`
}
