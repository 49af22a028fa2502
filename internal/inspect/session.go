package inspect

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/gearcount/internal/gear"
)

// medianKernel is the aperture of the speckle filter applied to the mask.
const medianKernel = 9

// Session owns the scratch buffers of one pipeline. Buffers are reallocated
// only when the frame size or type changes. A Session must not be shared
// between goroutines.
type Session struct {
	raw        gocv.Mat
	mask       gocv.Mat
	foreground gocv.Mat
	bgr        gocv.Mat

	rows, cols int
	typ        gocv.MatType
	allocs     int
}

// NewSession returns an empty session. Buffers are created on first use.
func NewSession() *Session {
	return &Session{
		raw:        gocv.NewMat(),
		mask:       gocv.NewMat(),
		foreground: gocv.NewMat(),
		bgr:        gocv.NewMat(),
	}
}

func (s *Session) ensure(rows, cols int, typ gocv.MatType) {
	if s.allocs > 0 && rows == s.rows && cols == s.cols && typ == s.typ {
		return
	}
	s.raw.Close()
	s.mask.Close()
	s.foreground.Close()

	s.raw = gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)
	s.mask = gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)
	s.foreground = gocv.NewMatWithSize(rows, cols, typ)
	s.rows, s.cols, s.typ = rows, cols, typ
	s.allocs++
}

// DetermineForeground marks the pixels of src inside the color band around
// color, removes speckles with a median filter and copies the marked pixels
// into a black image. Both returned Mats belong to the session and stay
// valid until the next call or Close.
func (s *Session) DetermineForeground(color gear.RGBColor, tolerance int, src gocv.Mat) (mask, foreground gocv.Mat) {
	s.ensure(src.Rows(), src.Cols(), src.Type())

	rng := gear.DetermineColorRange(color, tolerance)
	gocv.InRangeWithScalar(src, bgrScalar(rng.Min), bgrScalar(rng.Max), &s.raw)
	gocv.MedianBlur(s.raw, &s.mask, medianKernel)

	s.foreground.SetTo(gocv.NewScalar(0, 0, 0, 0))
	src.CopyToWithMask(&s.foreground, s.mask)

	return s.mask, s.foreground
}

// toBGR returns src as a 3-channel BGR image, converting into a session
// buffer when needed.
func (s *Session) toBGR(src gocv.Mat) gocv.Mat {
	if src.Channels() == 3 {
		return src
	}
	CopyBGR(src, &s.bgr)
	return s.bgr
}

// Allocations counts buffer (re)allocations.
func (s *Session) Allocations() int {
	return s.allocs
}

// Close releases all buffers.
func (s *Session) Close() error {
	for _, m := range []*gocv.Mat{&s.raw, &s.mask, &s.foreground, &s.bgr} {
		if err := m.Close(); err != nil {
			return err
		}
	}
	s.allocs = 0
	return nil
}

// bgrScalar orders an RGB color the way OpenCV stores pixels.
func bgrScalar(c gear.RGBColor) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}
