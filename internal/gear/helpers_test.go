package gear

import (
	"image"
	"math"
)

// gearOutline builds a square-wave gear outline centred on (cx, cy). Each of
// the n units is an outer run at radius outer followed by an inner run at
// radius inner, each spanning π/n and sampled with perRun points. Units
// listed in filled keep the outer radius for their inner run, which merges
// two neighbouring gaps.
func gearOutline(cx, cy float64, n, perRun int, outer, inner float64, filled ...int) Contour {
	skip := make(map[int]bool, len(filled))
	for _, f := range filled {
		skip[f] = true
	}

	w := math.Pi / float64(n)
	c := make(Contour, 0, 2*n*perRun)
	add := func(theta, r float64) {
		c = append(c, image.Point{
			X: int(math.Round(cx + r*math.Cos(theta))),
			Y: int(math.Round(cy + r*math.Sin(theta))),
		})
	}

	for u := 0; u < n; u++ {
		start := 2 * w * float64(u)
		for j := 0; j < perRun; j++ {
			add(start+w*float64(j)/float64(perRun), outer)
		}
		r := inner
		if skip[u] {
			r = outer
		}
		for j := 0; j < perRun; j++ {
			add(start+w+w*float64(j)/float64(perRun), r)
		}
	}
	return c
}

// ringFixture returns a circular contour of n points, a profile whose values
// follow mask and a centroid at the origin, for driving CountAndMeasureTeeth
// directly from a mask.
func ringFixture(mask ToothMask) (Contour, RadialProfile, Centroid) {
	n := len(mask)
	c := make(Contour, n)
	profile := make(RadialProfile, n)
	for i := range mask {
		theta := 2 * math.Pi * float64(i) / float64(n)
		c[i] = image.Point{X: int(math.Round(1000 * math.Cos(theta))), Y: int(math.Round(1000 * math.Sin(theta)))}
		profile[i] = 100
		if mask[i] == 1 {
			profile[i] = 50 + float64(i)
		}
	}
	return c, profile, Centroid{}
}

// uniformTeeth returns n evenly spaced teeth of the given arc, starting at 0.
func uniformTeeth(n int, arc float64) []ToothMeasurement {
	teeth := make([]ToothMeasurement, n)
	step := 2 * math.Pi / float64(n)
	for i := range teeth {
		start := step * float64(i)
		teeth[i] = ToothMeasurement{
			Index:         i + 1,
			StartingAngle: NormalizeAngle(start),
			EndingAngle:   NormalizeAngle(start + arc),
		}
	}
	return teeth
}

// risingEdges counts circular 0 -> 1 transitions.
func risingEdges(mask ToothMask) int {
	n := len(mask)
	count := 0
	for i := range mask {
		if mask[i] == 0 && mask[(i+1)%n] == 1 {
			count++
		}
	}
	return count
}
