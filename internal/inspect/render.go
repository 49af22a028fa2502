package inspect

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"gocv.io/x/gocv"

	"github.com/ayusman/gearcount/internal/gear"
)

// Overlay colors, as RGB.
var (
	contourColor  = color.RGBA{R: 255, A: 255}
	centroidColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	arcArrowColor = color.RGBA{R: 127, G: 255, B: 255, A: 255}
	gapColor      = color.RGBA{R: 255, G: 160, A: 255}
	goodTextColor = color.RGBA{R: 200, G: 255, B: 200, A: 255}
	badTextColor  = color.RGBA{R: 255, G: 40, B: 40, A: 255}
	shadowColor   = color.RGBA{A: 255}
)

const (
	centroidRadius = 8
	countFont      = gocv.FontHersheySimplex
	countFontScale = 1.0
	countThickness = 2
	shadowOffset   = 2
)

// RenderResults draws the analysis of result onto out. The selected contour
// is outlined whenever one was found; everything else is drawn only for an
// accepted gear.
func RenderResults(out *gocv.Mat, result gear.Result) {
	if out == nil || out.Empty() {
		return
	}

	if result.HasContour() {
		outline := gocv.NewPointsVectorFromPoints([][]image.Point{result.Contour})
		gocv.Polylines(out, outline, true, contourColor, 1)
		outline.Close()
	}

	if !result.HasGear() {
		return
	}

	center := result.Centroid.Pixel
	gocv.Circle(out, center, centroidRadius, centroidColor, -1)

	for i, tooth := range result.Teeth {
		if i >= len(result.Anomalies) {
			break
		}
		flags := result.Anomalies[i]
		if flags.Has(gear.AnomalyArc) {
			drawToothArrow(out, result.Centroid.Exact, tooth)
		}
		if flags.Has(gear.AnomalyGap) {
			next := result.Teeth[(i+1)%len(result.Teeth)]
			drawGap(out, result.Contour, tooth.HighLowIdx, next.LowHighIdx)
		}
	}

	textColor := goodTextColor
	if result.HasAnomalies() {
		textColor = badTextColor
	}
	drawCenteredText(out, strconv.Itoa(result.ToothCount()), center, textColor)
}

// ArrowSegments returns the three segments of the marker pointing at a
// tooth: a shaft from half to 95% of the tooth's inner radius at the tooth's
// mid-angle, and two barbs from 90% of the radius at ±π/40.
func ArrowSegments(center gear.Point2D, tooth gear.ToothMeasurement) [3][2]image.Point {
	r := tooth.MinDistance
	angle := tooth.StartingAngle + gear.ArcLength(tooth.StartingAngle, tooth.EndingAngle)/2

	at := func(scale, theta float64) image.Point {
		return image.Pt(
			int(math.Round(center.X+scale*r*math.Cos(theta))),
			int(math.Round(center.Y+scale*r*math.Sin(theta))),
		)
	}

	tip := at(0.95, angle)
	return [3][2]image.Point{
		{at(0.5, angle), tip},
		{at(0.9, angle-math.Pi/40), tip},
		{at(0.9, angle+math.Pi/40), tip},
	}
}

func drawToothArrow(out *gocv.Mat, center gear.Point2D, tooth gear.ToothMeasurement) {
	for _, seg := range ArrowSegments(center, tooth) {
		gocv.Line(out, seg[0], seg[1], arcArrowColor, 2)
	}
}

// drawGap traces the contour from one tooth's falling edge to the next
// tooth's rising edge.
func drawGap(out *gocv.Mat, contour gear.Contour, from, to int) {
	n := len(contour)
	if n == 0 {
		return
	}
	for i := from % n; i != to%n; i = (i + 1) % n {
		gocv.Line(out, contour[i], contour[(i+1)%n], gapColor, 2)
	}
}

func drawCenteredText(out *gocv.Mat, text string, center image.Point, c color.RGBA) {
	size := gocv.GetTextSize(text, countFont, countFontScale, countThickness)
	origin := center.Sub(image.Pt(size.X/2, size.Y/2))

	gocv.PutTextWithParams(out, text, origin.Add(image.Pt(shadowOffset, shadowOffset)),
		countFont, countFontScale, shadowColor, countThickness, gocv.LineAA, false)
	gocv.PutTextWithParams(out, text, origin,
		countFont, countFontScale, c, countThickness, gocv.LineAA, false)
}
