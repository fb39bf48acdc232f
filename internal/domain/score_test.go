package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func testSegment() Segment {
	return Segment{
		ID:              "floyd-west",
		Name:            "Floyd Hill Westbound",
		Route:           "070",
		Direction:       "west",
		StartMM:         248,
		EndMM:           243,
		DataSourceKey:   "Floyd Hill to Idaho Springs",
		FreeFlowSeconds: 600,
		CriticalSeconds: 1800,
	}
}

func TestScore_FreeFlow(t *testing.T) {
	// 600s actual against 600s free-flow: ratio 1.0, top band.
	data := SegmentData{
		Segment:       testSegment(),
		TravelSeconds: floatPtr(600),
		SpeedMPH:      floatPtr(30),
	}

	res := Score(data)

	assert.Equal(t, 10.0, res.FlowScore)
	assert.Equal(t, 10.0, res.Score)
	assert.Equal(t, 0.0, res.IncidentPenalty)
	assert.Equal(t, 0.0, res.WeatherPenalty)
	assert.Equal(t, "Smooth sailing, the corridor is wide open.", res.Summary)
}

func TestScore_HeavyCongestionBand(t *testing.T) {
	// 2400s actual against 600s free-flow: ratio 0.25, lower interpolation band.
	data := SegmentData{
		Segment:       testSegment(),
		TravelSeconds: floatPtr(2400),
	}

	res := Score(data)

	assert.InDelta(t, 1.6667, res.FlowScore, 0.001)
	assert.Equal(t, 1.7, res.Score)
}

func TestScore_MidBandInterpolation(t *testing.T) {
	// ratio 0.7 is the midpoint of [0.5, 0.9): flow score 7.5.
	data := SegmentData{
		Segment:       testSegment(),
		TravelSeconds: floatPtr(600.0 / 0.7),
	}

	res := Score(data)
	assert.InDelta(t, 7.5, res.FlowScore, 0.001)
}

func TestScore_MissingTravelTimeIsNeutral(t *testing.T) {
	t.Run("nil travel time", func(t *testing.T) {
		res := Score(SegmentData{Segment: testSegment()})
		assert.Equal(t, 5.0, res.FlowScore)
		assert.Equal(t, 5.0, res.Score)
	})

	t.Run("non-positive travel time", func(t *testing.T) {
		res := Score(SegmentData{Segment: testSegment(), TravelSeconds: floatPtr(0)})
		assert.Equal(t, 5.0, res.FlowScore)
	})
}

func TestScore_AnomalyForcesMaxFlow(t *testing.T) {
	// 10.5 miles in 60 seconds implies 630 mph; the ratio alone would argue
	// for a terrible score, but anomalous data is not penalized.
	data := SegmentData{
		Segment:       testSegment(),
		TravelSeconds: floatPtr(60),
		SpeedMPH:      floatPtr(630),
		SpeedAnomaly:  true,
	}

	res := Score(data)

	assert.Equal(t, 10.0, res.FlowScore)
	assert.Equal(t, 10.0, res.Score)
	assert.NotContains(t, res.Summary, "630")
	assert.Contains(t, res.Summary, "unreliable")
}

func TestScore_IncidentPenalties(t *testing.T) {
	data := SegmentData{
		Segment:       testSegment(),
		TravelSeconds: floatPtr(600),
		Incidents: []NormalizedIncident{
			{ID: "inc-1", Penalty: 2},
			{ID: "inc-2", Penalty: 5},
		},
	}

	res := Score(data)

	assert.Equal(t, 7.0, res.IncidentPenalty)
	assert.Equal(t, 3.0, res.Score)
	assert.Equal(t, "Significant slowdown, major incident on this stretch.", res.Summary)
}

func TestScore_WeatherPenalty(t *testing.T) {
	tests := []struct {
		name     string
		road     string
		weather  string
		expected float64
	}{
		{"icy road", "Icy Spots", "", WeatherPenaltyPoints},
		{"snow surface sensor", "", "Snow Packed", WeatherPenaltyPoints},
		{"frozen", "Frozen slick spots", "", WeatherPenaltyPoints},
		{"wet only", "Wet", "", 0},
		{"clear", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := SegmentData{
				Segment:        testSegment(),
				TravelSeconds:  floatPtr(600),
				RoadCondition:  tt.road,
				WeatherSurface: tt.weather,
			}
			res := Score(data)
			assert.Equal(t, tt.expected, res.WeatherPenalty)
		})
	}
}

func TestScore_WeatherDominantSummary(t *testing.T) {
	data := SegmentData{
		Segment:       testSegment(),
		TravelSeconds: floatPtr(600),
		RoadCondition: "Icy Spots",
	}

	res := Score(data)

	assert.Equal(t, 8.0, res.Score)
	assert.Equal(t, "Moving well, but watch for slick spots.", res.Summary)
}

func TestScore_ClampsToZero(t *testing.T) {
	data := SegmentData{
		Segment:       testSegment(),
		TravelSeconds: floatPtr(2400),
		RoadCondition: "Icy",
		Incidents: []NormalizedIncident{
			{ID: "inc-1", Penalty: 6},
			{ID: "inc-2", Penalty: 6},
		},
	}

	res := Score(data)
	assert.Equal(t, 0.0, res.Score)
}

func TestScore_Bounds(t *testing.T) {
	// Score stays inside [0, 10] for a spread of inputs.
	cases := []SegmentData{
		{Segment: testSegment()},
		{Segment: testSegment(), TravelSeconds: floatPtr(1)},
		{Segment: testSegment(), TravelSeconds: floatPtr(1e9)},
		{Segment: testSegment(), SpeedAnomaly: true},
		{Segment: testSegment(), TravelSeconds: floatPtr(600), Incidents: []NormalizedIncident{{Penalty: 100}}},
	}

	for _, data := range cases {
		res := Score(data)
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 10.0)
	}
}

func TestScore_Idempotent(t *testing.T) {
	data := SegmentData{
		Segment:       testSegment(),
		TravelSeconds: floatPtr(900),
		RoadCondition: "Snow Packed",
		Incidents:     []NormalizedIncident{{ID: "inc-1", Penalty: 3}},
	}

	assert.Equal(t, Score(data), Score(data))
}

func TestScore_IncidentMonotonicity(t *testing.T) {
	base := SegmentData{
		Segment:       testSegment(),
		TravelSeconds: floatPtr(900),
	}
	baseScore := Score(base).Score

	for _, penalty := range []float64{0.5, 1, 3, 6, 10} {
		withIncident := base
		withIncident.Incidents = []NormalizedIncident{{ID: "inc-x", Penalty: penalty}}
		assert.LessOrEqual(t, Score(withIncident).Score, baseScore,
			"adding a positive-penalty incident must never raise the score")
	}
}

func TestScore_NegativePenaltyCannotRaiseScore(t *testing.T) {
	base := SegmentData{Segment: testSegment(), TravelSeconds: floatPtr(900)}
	withNegative := base
	withNegative.Incidents = []NormalizedIncident{{ID: "inc-neg", Penalty: -4}}

	assert.Equal(t, Score(base).Score, Score(withNegative).Score)
}

func TestScore_CleanSegmentNeverBelowFlowScore(t *testing.T) {
	// No incidents and no adverse surface: final score equals the rounded
	// flow sub-score.
	for _, travel := range []float64{600, 900, 1500, 2400, 4000} {
		data := SegmentData{Segment: testSegment(), TravelSeconds: floatPtr(travel)}
		res := Score(data)
		assert.GreaterOrEqual(t, res.Score, round1(res.FlowScore)-0.001)
	}
}

func TestScore_SummaryLengthBound(t *testing.T) {
	// Every decision-tree branch stays under the display bound.
	cases := []SegmentData{
		{Segment: testSegment(), TravelSeconds: floatPtr(600)},
		{Segment: testSegment(), TravelSeconds: floatPtr(600), RoadCondition: "Icy"},
		{Segment: testSegment(), TravelSeconds: floatPtr(600), Incidents: []NormalizedIncident{{Penalty: 1}}},
		{Segment: testSegment(), TravelSeconds: floatPtr(900), RoadCondition: "Snow"},
		{Segment: testSegment(), TravelSeconds: floatPtr(900), Incidents: []NormalizedIncident{{Penalty: 2}}},
		{Segment: testSegment(), TravelSeconds: floatPtr(900)},
		{Segment: testSegment(), TravelSeconds: floatPtr(1800), Incidents: []NormalizedIncident{{Penalty: 6}}},
		{Segment: testSegment(), TravelSeconds: floatPtr(1800), RoadCondition: "Icy"},
		{Segment: testSegment(), TravelSeconds: floatPtr(1800)},
		{Segment: testSegment(), TravelSeconds: floatPtr(2400), Incidents: []NormalizedIncident{{Penalty: 9}}},
		{Segment: testSegment(), TravelSeconds: floatPtr(2400), RoadCondition: "Icy", Incidents: []NormalizedIncident{{Penalty: 9}}},
		{Segment: testSegment(), SpeedAnomaly: true},
		{Segment: testSegment(), SpeedAnomaly: true, RoadCondition: "Icy"},
	}

	for _, data := range cases {
		res := Score(data)
		assert.NotEmpty(t, res.Summary)
		assert.LessOrEqual(t, len(res.Summary), MaxSummaryLen)
	}
}
