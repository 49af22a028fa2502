package gear

import (
	"image"
	"math"
)

// MinimumToothCount is the smallest tooth count accepted as a gear.
const MinimumToothCount = 8

// FindToothOrigin returns the first index i where the mask rises from 0 at i
// to 1 at i+1 (circularly). It reports false for an empty or uniform mask.
func FindToothOrigin(mask ToothMask) (int, bool) {
	n := len(mask)
	if n == 0 {
		return 0, false
	}

	r := ring(n)
	for i := 0; i < n; i++ {
		if mask[i] == 0 && mask[r.next(i)] == 1 {
			return i, true
		}
	}

	if mask[n-1] == 0 && mask[0] == 1 {
		return n - 1, true
	}

	return 0, false
}

// CountAndMeasureTeeth walks the circular mask once, starting at origin, and
// returns one measurement per rising edge. Each measurement is closed by the
// following falling edge, which fixes its ending angle and the min/max radial
// distance over LowHighIdx+1 .. HighLowIdx.
//
// When origin is not a rising edge the tooth straddling it is opened at the
// end of the circuit and closed by walking on past the origin.
func CountAndMeasureTeeth(origin int, mask ToothMask, c Contour, profile RadialProfile, centroid Centroid) []ToothMeasurement {
	n := len(mask)
	if n == 0 || len(c) < n || len(profile) < n {
		return nil
	}

	r := ring(n)
	teeth := make([]ToothMeasurement, 0)
	open := false

	closeTooth := func(i int) {
		m := &teeth[len(teeth)-1]
		m.HighLowIdx = i
		m.EndingAngle = pointAngle(c[i], centroid)
		r.span(r.next(m.LowHighIdx), i, func(j int) {
			m.MinDistance = math.Min(m.MinDistance, profile[j])
			m.MaxDistance = math.Max(m.MaxDistance, profile[j])
		})
		open = false
	}

	for step := 0; step < n; step++ {
		i := r.wrap(origin + step)
		current, next := mask[i], mask[r.next(i)]

		switch {
		case current == 0 && next == 1:
			if open {
				// unreachable for a well-formed mask: two rises without a fall
				teeth = teeth[:len(teeth)-1]
			}
			teeth = append(teeth, ToothMeasurement{
				Index:         len(teeth) + 1,
				LowHighIdx:    i,
				StartingAngle: pointAngle(c[i], centroid),
				MinDistance:   math.MaxFloat64,
				MaxDistance:   -math.MaxFloat64,
			})
			open = true

		case current == 1 && next == 0 && open:
			closeTooth(i)
		}
	}

	for step := n; open && step < 2*n; step++ {
		i := r.wrap(origin + step)
		if mask[i] == 1 && mask[r.next(i)] == 0 {
			closeTooth(i)
		}
	}

	return teeth
}

// pointAngle is the angle of p around the centroid, normalized into [0, 2π).
func pointAngle(p image.Point, centroid Centroid) float64 {
	return NormalizeAngle(math.Atan2(float64(p.Y)-centroid.Exact.Y, float64(p.X)-centroid.Exact.X))
}

// NormalizeAngle maps any angle in radians into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}
