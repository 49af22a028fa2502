package gear

import "math"

// ContourArea returns the unsigned polygon area of c (shoelace formula).
func ContourArea(c Contour) float64 {
	return math.Abs(signedArea(c))
}

func signedArea(c Contour) float64 {
	n := len(c)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		p, q := c[i], c[(i+1)%n]
		sum += float64(p.X)*float64(q.Y) - float64(q.X)*float64(p.Y)
	}
	return sum / 2
}

// SelectLargestContour walks the top-level sibling list starting at index 0
// and returns the index of the contour with the largest area. It reports
// false when the contour set is empty.
//
// When the hierarchy does not line up with the contour set every contour is
// considered top level. The walk stops on out-of-range or repeated indices.
func SelectLargestContour(contours []Contour, hierarchy Hierarchy) (int, bool) {
	if len(contours) == 0 {
		return -1, false
	}

	best := 0
	maxArea := 0.0
	consider := func(idx int) {
		if area := ContourArea(contours[idx]); area > maxArea {
			maxArea = area
			best = idx
		}
	}

	if len(hierarchy) != len(contours) {
		for idx := range contours {
			consider(idx)
		}
		return best, true
	}

	visited := make([]bool, len(contours))
	for idx := 0; idx >= 0 && idx < len(contours) && !visited[idx]; idx = hierarchy[idx].Next {
		visited[idx] = true
		consider(idx)
	}

	return best, true
}
