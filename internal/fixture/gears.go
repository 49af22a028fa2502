// Package fixture draws synthetic gear images for tests.
package fixture

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// Default colors of a synthetic scene.
var (
	GearColor       = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	BackgroundColor = color.RGBA{R: 20, G: 30, B: 90, A: 255}
)

// Gear describes a square-wave gear: Teeth units, each an outer run at
// radius Outer followed by a root run at radius Inner.
type Gear struct {
	Center image.Point
	Teeth  int
	Outer  float64
	Inner  float64
	// Hole is the radius of the axle hole; 0 draws none.
	Hole float64
	// Filled lists units whose root run is drawn at the outer radius,
	// fusing two teeth into one wide tooth.
	Filled []int
	// PointsPerRun controls the outline resolution (default 24).
	PointsPerRun int
}

// Standard returns a 16-unit gear centred in a 600x600 frame.
func Standard() Gear {
	return Gear{
		Center: image.Pt(300, 300),
		Teeth:  16,
		Outer:  220,
		Inner:  160,
		Hole:   40,
	}
}

// Outline returns the polygon of the gear.
func (g Gear) Outline() []image.Point {
	perRun := g.PointsPerRun
	if perRun <= 0 {
		perRun = 24
	}
	filled := make(map[int]bool, len(g.Filled))
	for _, f := range g.Filled {
		filled[f] = true
	}

	w := math.Pi / float64(g.Teeth)
	pts := make([]image.Point, 0, 2*g.Teeth*perRun)
	add := func(theta, r float64) {
		pts = append(pts, image.Pt(
			g.Center.X+int(math.Round(r*math.Cos(theta))),
			g.Center.Y+int(math.Round(r*math.Sin(theta))),
		))
	}
	for u := 0; u < g.Teeth; u++ {
		start := 2 * w * float64(u)
		for j := 0; j < perRun; j++ {
			add(start+w*float64(j)/float64(perRun), g.Outer)
		}
		root := g.Inner
		if filled[u] {
			root = g.Outer
		}
		for j := 0; j < perRun; j++ {
			add(start+w+w*float64(j)/float64(perRun), root)
		}
	}
	return pts
}

// Frame renders the gear in GearColor on a BackgroundColor canvas. The
// caller closes the returned Mat.
func (g Gear) Frame(width, height int) gocv.Mat {
	frame := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(float64(BackgroundColor.B), float64(BackgroundColor.G), float64(BackgroundColor.R), 0))

	outline := gocv.NewPointsVectorFromPoints([][]image.Point{g.Outline()})
	defer outline.Close()
	gocv.FillPoly(&frame, outline, GearColor)

	if g.Hole > 0 {
		gocv.Circle(&frame, g.Center, int(g.Hole), BackgroundColor, -1)
	}
	return frame
}

// WriteFrame renders the gear and saves it to path (format by extension).
func (g Gear) WriteFrame(path string, width, height int) error {
	frame := g.Frame(width, height)
	defer frame.Close()

	if ok := gocv.IMWrite(path, frame); !ok {
		return fmt.Errorf("write frame %s", path)
	}
	return nil
}

// Blank returns a frame with only background. The caller closes it.
func Blank(width, height int) gocv.Mat {
	frame := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(float64(BackgroundColor.B), float64(BackgroundColor.G), float64(BackgroundColor.R), 0))
	return frame
}
