package inspect

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/gearcount/internal/gear"
	"github.com/ayusman/gearcount/internal/settings"
)

// PickColor samples the pixel at (x, y) of frame and returns it as a
// ColorPicked event. Gray, BGR and BGRA frames are accepted.
func PickColor(frame gocv.Mat, x, y int) (settings.ColorPicked, error) {
	if frame.Empty() {
		return settings.ColorPicked{}, fmt.Errorf("%w: empty frame", settings.ErrOutOfBounds)
	}
	if x < 0 || y < 0 || x >= frame.Cols() || y >= frame.Rows() {
		return settings.ColorPicked{}, fmt.Errorf("%w: (%d,%d) not in %dx%d", settings.ErrOutOfBounds, x, y, frame.Cols(), frame.Rows())
	}

	var c gear.RGBColor
	switch frame.Type() {
	case gocv.MatTypeCV8UC1:
		v := frame.GetUCharAt(y, x)
		c = gear.RGBColor{R: v, G: v, B: v}
	case gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
		px := frame.GetVecbAt(y, x)
		c = gear.RGBColor{R: px[2], G: px[1], B: px[0]}
	default:
		return settings.ColorPicked{}, fmt.Errorf("unsupported frame type %v", frame.Type())
	}
	return settings.ColorPicked{Color: c}, nil
}

// CopyBGR copies src into dst as a 3-channel BGR image.
func CopyBGR(src gocv.Mat, dst *gocv.Mat) {
	switch src.Channels() {
	case 1:
		gocv.CvtColor(src, dst, gocv.ColorGrayToBGR)
	case 4:
		gocv.CvtColor(src, dst, gocv.ColorBGRAToBGR)
	default:
		src.CopyTo(dst)
	}
}
