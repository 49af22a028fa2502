package gear

import (
	"image"
	"math"
)

// Point2D is a double precision coordinate.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point2F is a single precision coordinate.
type Point2F struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Centroid carries the area-weighted center of a contour in the precisions
// its consumers need: Exact for moment math, profiling and angles, Float for
// single precision consumers, Pixel (rounded) for drawing.
type Centroid struct {
	Exact Point2D     `json:"exact"`
	Float Point2F     `json:"float"`
	Pixel image.Point `json:"pixel"`
}

// ComputeCentroid derives the centroid from the polygon moments m00, m10 and
// m01. It returns ErrDegenerateContour for zero-area contours.
func ComputeCentroid(c Contour) (Centroid, error) {
	n := len(c)
	if n < 3 {
		return Centroid{}, ErrDegenerateContour
	}

	var m00, m10, m01 float64
	for i := 0; i < n; i++ {
		p, q := c[i], c[(i+1)%n]
		x0, y0 := float64(p.X), float64(p.Y)
		x1, y1 := float64(q.X), float64(q.Y)
		cross := x0*y1 - x1*y0
		m00 += cross
		m10 += (x0 + x1) * cross
		m01 += (y0 + y1) * cross
	}
	m00 /= 2
	m10 /= 6
	m01 /= 6

	if m00 == 0 {
		return Centroid{}, ErrDegenerateContour
	}

	exact := Point2D{X: m10 / m00, Y: m01 / m00}
	if math.IsNaN(exact.X) || math.IsNaN(exact.Y) || math.IsInf(exact.X, 0) || math.IsInf(exact.Y, 0) {
		return Centroid{}, ErrDegenerateContour
	}

	return Centroid{
		Exact: exact,
		Float: Point2F{X: float32(exact.X), Y: float32(exact.Y)},
		Pixel: image.Point{X: int(math.Round(exact.X)), Y: int(math.Round(exact.Y))},
	}, nil
}
