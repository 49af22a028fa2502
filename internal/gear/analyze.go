package gear

// Analyze runs the geometric stages on a contour set: selection, centroid,
// radial profile, tooth mask, tooth measurement and anomaly detection. It
// stops at the first stage that cannot continue and tags the result.
func Analyze(contours []Contour, hierarchy Hierarchy) Result {
	result := Result{ContourIndex: -1}

	idx, ok := SelectLargestContour(contours, hierarchy)
	if !ok {
		result.Outcome = OutcomeNoContour
		return result
	}
	result.ContourIndex = idx
	result.Contour = contours[idx]

	centroid, err := ComputeCentroid(result.Contour)
	if err != nil {
		result.Outcome = OutcomeDegenerateContour
		return result
	}
	result.Centroid = centroid

	return measure(result)
}

// AnalyzeContour runs Analyze on a single, already selected contour.
func AnalyzeContour(c Contour) Result {
	return Analyze([]Contour{c}, Hierarchy{{Next: -1, Previous: -1, FirstChild: -1, Parent: -1}})
}

func measure(result Result) Result {
	result.Profile = BuildRadialProfile(result.Contour, result.Centroid)
	result.Mask = DeriveToothMask(result.Profile)

	origin, ok := FindToothOrigin(result.Mask)
	if !ok {
		result.Outcome = OutcomeNoToothTransition
		return result
	}

	result.Teeth = CountAndMeasureTeeth(origin, result.Mask, result.Contour, result.Profile, result.Centroid)
	if len(result.Teeth) < MinimumToothCount {
		result.Outcome = OutcomeInsufficientTeeth
		return result
	}

	result.Anomalies = DetectAnomalies(result.Teeth)
	result.Outcome = OutcomeOK
	return result
}
