package inspect

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/gearcount/internal/gear"
)

// ExtractContours traces the outer boundaries of mask and their holes
// (two-level hierarchy) with collinear points removed.
func ExtractContours(mask gocv.Mat) ([]gear.Contour, gear.Hierarchy) {
	if mask.Empty() {
		return nil, nil
	}

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()

	found := gocv.FindContoursWithParams(mask, &hierarchy, gocv.RetrievalCComp, gocv.ChainApproxSimple)
	defer found.Close()

	n := found.Size()
	contours := make([]gear.Contour, n)
	for i := 0; i < n; i++ {
		contours[i] = gear.Contour(found.At(i).ToPoints())
	}

	if hierarchy.Empty() || hierarchy.Cols() != n {
		return contours, nil
	}

	links := make(gear.Hierarchy, n)
	for i := 0; i < n; i++ {
		v := hierarchy.GetVeciAt(0, i)
		links[i] = gear.HierarchyEntry{
			Next:       int(v[0]),
			Previous:   int(v[1]),
			FirstChild: int(v[2]),
			Parent:     int(v[3]),
		}
	}
	return contours, links
}
