package gear

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_EmptyContourSet(t *testing.T) {
	r := Analyze(nil, nil)

	assert.Equal(t, OutcomeNoContour, r.Outcome)
	assert.ErrorIs(t, r.Err(), ErrNoContour)
	assert.Equal(t, -1, r.ContourIndex)
	assert.False(t, r.HasContour())
	assert.False(t, r.HasGear())
	assert.Zero(t, r.ToothCount())
}

func TestAnalyze_DegenerateContour(t *testing.T) {
	line := Contour{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 20}, {X: 10, Y: 10}}
	r := Analyze([]Contour{line}, Hierarchy{{Next: -1, Previous: -1, FirstChild: -1, Parent: -1}})

	assert.Equal(t, OutcomeDegenerateContour, r.Outcome)
	assert.ErrorIs(t, r.Err(), ErrDegenerateContour)
	assert.True(t, r.HasContour())
	assert.Nil(t, r.Profile)
	assert.Nil(t, r.Teeth)
	assert.False(t, math.IsNaN(r.Centroid.Exact.X))
}

func TestAnalyze_NoToothTransition(t *testing.T) {
	r := AnalyzeContour(square(0, 0, 40))

	assert.Equal(t, OutcomeNoToothTransition, r.Outcome)
	assert.ErrorIs(t, r.Err(), ErrNoToothTransition)
	assert.Len(t, r.Profile, 4)
	assert.Empty(t, r.Teeth)
}

func TestAnalyze_InsufficientTeeth(t *testing.T) {
	r := AnalyzeContour(gearOutline(300, 300, 6, 6, 200, 150))

	assert.Equal(t, OutcomeInsufficientTeeth, r.Outcome)
	assert.ErrorIs(t, r.Err(), ErrInsufficientTeeth)
	assert.Equal(t, 6, r.ToothCount())
	assert.Nil(t, r.Anomalies)
}

func TestAnalyze_Gear(t *testing.T) {
	tests := []struct {
		name  string
		teeth int
	}{
		{name: "minimum", teeth: MinimumToothCount},
		{name: "twelve", teeth: 12},
		{name: "twenty four", teeth: 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := gearOutline(320, 320, tt.teeth, 6, 200, 150)
			r := AnalyzeContour(c)

			require.NoError(t, r.Err())
			assert.True(t, r.HasGear())
			assert.Equal(t, tt.teeth, r.ToothCount())
			assert.Len(t, r.Anomalies, tt.teeth)
			assert.Len(t, r.Profile, len(c))
			assert.Len(t, r.Mask, len(c))
			assert.InDelta(t, 320, r.Centroid.Exact.X, 1)
			assert.InDelta(t, 320, r.Centroid.Exact.Y, 1)

			for _, m := range r.Teeth {
				assert.InDelta(t, 150, m.MinDistance, 1.5)
				assert.InDelta(t, 150, m.MaxDistance, 1.5)
			}
		})
	}
}

func TestAnalyze_GearWithFilledGap(t *testing.T) {
	c := gearOutline(320, 320, 24, 6, 200, 150, 9)
	r := AnalyzeContour(c)

	require.NoError(t, r.Err())
	assert.Equal(t, 23, r.ToothCount())
	assert.True(t, r.HasAnomalies())

	gaps := 0
	for _, a := range r.Anomalies {
		if a.Has(AnomalyGap) {
			gaps++
		}
	}
	assert.Equal(t, 1, gaps)
}

func TestAnalyze_PicksOuterContour(t *testing.T) {
	gearContour := gearOutline(400, 400, 10, 5, 200, 150)
	hole := gearOutline(400, 400, 10, 5, 60, 40)
	speck := square(5, 5, 3)

	r := Analyze([]Contour{speck, gearContour, hole}, Hierarchy{
		{Next: 1, Previous: -1, FirstChild: -1, Parent: -1},
		{Next: -1, Previous: 0, FirstChild: 2, Parent: -1},
		{Next: -1, Previous: -1, FirstChild: -1, Parent: 1},
	})

	require.NoError(t, r.Err())
	assert.Equal(t, 1, r.ContourIndex)
	assert.Equal(t, 10, r.ToothCount())
}

func TestResult_AnomalyCount(t *testing.T) {
	r := Result{Anomalies: []ToothAnomaly{AnomalyNone, AnomalyGap, AnomalyGap | AnomalyArc, AnomalyNone}}
	assert.Equal(t, 2, r.AnomalyCount())
	assert.True(t, r.HasAnomalies())

	assert.False(t, Result{}.HasAnomalies())
}

func TestOutcome_String(t *testing.T) {
	for o, name := range outcomeNames {
		parsed, ok := ParseOutcome(name)
		assert.True(t, ok)
		assert.Equal(t, o, parsed)
		assert.Equal(t, name, o.String())
	}
	assert.Equal(t, "unknown", Outcome(99).String())
	assert.NoError(t, OutcomeOK.Err())
}

func TestOutcome_JSON(t *testing.T) {
	data, err := json.Marshal(OutcomeInsufficientTeeth)
	require.NoError(t, err)
	assert.Equal(t, `"insufficient_teeth"`, string(data))

	var o Outcome
	require.NoError(t, json.Unmarshal(data, &o))
	assert.Equal(t, OutcomeInsufficientTeeth, o)

	assert.Error(t, json.Unmarshal([]byte(`"sideways"`), &o))
	assert.Error(t, json.Unmarshal([]byte(`3`), &o))
}
