package gear

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// strongAnomalySigmas is how many standard deviations a tooth may deviate
// from the gear mean before it is flagged.
const strongAnomalySigmas = 3.0

// anomalyTolerance absorbs floating point noise on perfectly regular gears.
const anomalyTolerance = 1e-9

// ArcLength returns the positive angular span from start to end, adding full
// turns while the difference is not positive.
func ArcLength(start, end float64) float64 {
	span := end - start
	for span <= 0 {
		span += 2 * math.Pi
	}
	return span
}

// DetectAnomalies flags teeth whose own arc, or whose gap to the next tooth,
// lies more than three population standard deviations from the mean. The
// result is aligned with teeth.
func DetectAnomalies(teeth []ToothMeasurement) []ToothAnomaly {
	n := len(teeth)
	flags := make([]ToothAnomaly, n)
	if n == 0 {
		return flags
	}

	arcs := make([]float64, n)
	gaps := make([]float64, n)
	for i, t := range teeth {
		next := teeth[ring(n).next(i)]
		arcs[i] = ArcLength(t.StartingAngle, t.EndingAngle)
		gaps[i] = ArcLength(t.EndingAngle, next.StartingAngle)
	}

	arcMean, arcStdDev := stat.PopMeanStdDev(arcs, nil)
	gapMean, gapStdDev := stat.PopMeanStdDev(gaps, nil)

	arcLimit := strongAnomalySigmas*arcStdDev + anomalyTolerance
	gapLimit := strongAnomalySigmas*gapStdDev + anomalyTolerance

	for i := range teeth {
		if math.Abs(gaps[i]-gapMean) > gapLimit {
			flags[i] |= AnomalyGap
		}
		if math.Abs(arcs[i]-arcMean) > arcLimit {
			flags[i] |= AnomalyArc
		}
	}

	return flags
}
