package videosource

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/tauraamui/facetrackd/pkg/videoframe"
	"github.com/tauraamui/xerror"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// mockSource renders synthetic frames entirely in memory: a three
// circle RGB test card with a banner and timestamp text layer. It backs
// headless development runs and tests where no camera, file or stream
// exists. Always open, always ready, reads never miss.
type mockSource struct {
	isOpen          bool
	dims            videoframe.Dimensions
	baseFrameCanvas image.Image
}

func newMockSource(g Geometry) *mockSource {
	w, h := g.Width, g.Height
	if w < 1 {
		w = 640
	}
	if h < 1 {
		h = 360
	}
	return &mockSource{isOpen: true, dims: videoframe.Dimensions{W: w, H: h}}
}

func (s *mockSource) IsOpen() bool {
	return s.isOpen
}

func (s *mockSource) IsReady() bool {
	return true
}

func (s *mockSource) Read() (videoframe.Frame, bool) {
	if s.baseFrameCanvas == nil {
		s.baseFrameCanvas = renderBaseFrameCanvas(s.dims.W, s.dims.H)
	}

	img := cloneImage(s.baseFrameCanvas)
	if err := drawText(img, 5, 20, "FT_OFFLINE_STREAM"); err != nil {
		return nil, false
	}
	if err := drawText(img, 5, 45, time.Now().Format("2006-01-02 15:04:05.999999999")); err != nil {
		return nil, false
	}

	return &pixelsFrame{data: packPixels(img), dims: s.dims}, true
}

func (s *mockSource) Close() error {
	s.isOpen = false
	s.baseFrameCanvas = nil
	return nil
}

// packPixels flattens an RGBA canvas into the tightly packed 3 channel
// height major layout the rest of the pipeline consumes.
func packPixels(img *image.RGBA) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]byte, 0, w*h*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			data = append(data, img.Pix[i], img.Pix[i+1], img.Pix[i+2])
		}
	}
	return data
}

func renderBaseFrameCanvas(w, h int) image.Image {
	var hw, hh float64 = float64(w) / 2, float64(h) / 2
	r := float64(h) / 2
	θ := 2 * math.Pi / 3
	cr := &circle{hw - r*math.Sin(0), hh - r*math.Cos(0), r * 1.5}
	cg := &circle{hw - r*math.Sin(θ), hh - r*math.Cos(θ), r * 1.5}
	cb := &circle{hw - r*math.Sin(-θ), hh - r*math.Cos(-θ), r * 1.5}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			c := color.RGBA{
				cr.Brightness(float64(x), float64(y)),
				cg.Brightness(float64(x), float64(y)),
				cb.Brightness(float64(x), float64(y)),
				255,
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func cloneImage(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

func drawText(canvas *image.RGBA, x, y int, text string) error {
	fontFace, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return xerror.Errorf("unable to parse font for offline stream frame: %w", err)
	}

	fontDrawer := &font.Drawer{
		Dst: canvas,
		Src: image.White,
		Face: truetype.NewFace(fontFace, &truetype.Options{
			Size:    16,
			Hinting: font.HintingFull,
		}),
	}
	fontDrawer.Dot = fixed.Point26_6{
		X: fixed.I(x),
		Y: fixed.I(y),
	}
	fontDrawer.DrawString(text)
	return nil
}

type circle struct {
	X, Y, R float64
}

func (c *circle) Brightness(x, y float64) uint8 {
	var dx, dy float64 = c.X - x, c.Y - y
	d := math.Sqrt(dx*dx+dy*dy) / c.R
	if d > 1 {
		return 0
	}
	return 255
}
