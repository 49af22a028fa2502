package gear

import "math"

// BuildRadialProfile returns the distance of every contour point to the
// centroid, aligned by index with the contour.
func BuildRadialProfile(c Contour, centroid Centroid) RadialProfile {
	profile := make(RadialProfile, len(c))
	for i, p := range c {
		profile[i] = math.Hypot(float64(p.X)-centroid.Exact.X, float64(p.Y)-centroid.Exact.Y)
	}
	return profile
}

// ProfileThreshold returns the midpoint between the smallest and largest
// distance of the profile, or 0 for an empty profile.
func ProfileThreshold(profile RadialProfile) float64 {
	if len(profile) == 0 {
		return 0
	}
	lo, hi := profile[0], profile[0]
	for _, d := range profile[1:] {
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return (lo + hi) / 2
}

// DeriveToothMask thresholds the profile at ProfileThreshold: entries strictly
// below the threshold become 1, everything else 0.
//
// A single global threshold assumes a bimodal profile; worn or partially
// occluded gears can be misclassified.
func DeriveToothMask(profile RadialProfile) ToothMask {
	mask := make(ToothMask, len(profile))
	threshold := ProfileThreshold(profile)
	for i, d := range profile {
		if d < threshold {
			mask[i] = 1
		}
	}
	return mask
}
