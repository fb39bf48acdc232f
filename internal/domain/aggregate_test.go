package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() RawSnapshot {
	return RawSnapshot{
		Destinations: []Destination{
			{Name: "Floyd Hill to Idaho Springs", TravelSeconds: 720, Route: "070W", Direction: "west"},
			{Name: "Idaho Springs to Georgetown", TravelSeconds: 840, Route: "070W", Direction: "west"},
		},
		Incidents: []Incident{
			{ID: "inc-1", Type: "Crash", Severity: "Moderate", Description: "Two vehicle crash near MM 245", Route: "I-70", Direction: "westbound", StartMM: 245, EndMM: 245},
			{ID: "inc-2", Type: "Lane Closure", Severity: "Minor", Description: "Right lane closed", Route: "I-70", Direction: "eastbound", StartMM: 246, EndMM: 247},
			{ID: "inc-3", Type: "Crash", Severity: "Major", Description: "Crash far away", Route: "I-70", Direction: "westbound", StartMM: 130, EndMM: 130},
		},
		Conditions: []RoadCondition{
			{Route: "I-70", StartMM: 240, EndMM: 250, Description: "Snow Packed"},
			{Route: "I-70", StartMM: 244, EndMM: 246, Description: "Icy Spots"},
			{Route: "US 40", StartMM: 240, EndMM: 250, Description: "Icy"},
		},
		Stations: []WeatherStation{
			{Name: "Eisenhower East", Route: "I-70", MileMarker: 214, SurfaceCondition: "Dry"},
			{Name: "Floyd Hill", Route: "I-70", MileMarker: 247, SurfaceCondition: "Snow"},
		},
	}
}

func testNormalized() map[string]NormalizedIncident {
	return map[string]NormalizedIncident{
		"inc-1": {ID: "inc-1", Summary: "Two-vehicle crash near MM 245.", Penalty: 3, Severity: "moderate", Source: "fallback"},
		"inc-2": {ID: "inc-2", Summary: "Right lane closed.", Penalty: 3, Severity: "minor", Source: "fallback"},
		"inc-3": {ID: "inc-3", Summary: "Crash far away.", Penalty: 5, Severity: "major", Source: "fallback"},
	}
}

func TestBuildSegmentData_TravelTimeAndSpeed(t *testing.T) {
	data := BuildSegmentData(testSegment(), testSnapshot(), testNormalized())

	require.NotNil(t, data.TravelSeconds)
	assert.Equal(t, 720.0, *data.TravelSeconds)

	// 5 miles in 720s = 25 mph.
	require.NotNil(t, data.SpeedMPH)
	assert.InDelta(t, 25.0, *data.SpeedMPH, 0.001)
	assert.False(t, data.SpeedAnomaly)
}

func TestBuildSegmentData_ExactDataSourceKeyMatchOnly(t *testing.T) {
	seg := testSegment()
	seg.DataSourceKey = "Floyd Hill to Idaho Springs (renamed)"

	data := BuildSegmentData(seg, testSnapshot(), testNormalized())

	// Renamed upstream destinations fail closed.
	assert.Nil(t, data.TravelSeconds)
	assert.Nil(t, data.SpeedMPH)
}

func TestBuildSegmentData_SpeedAnomaly(t *testing.T) {
	snap := testSnapshot()
	snap.Destinations[0].TravelSeconds = 60 // 5 miles in 60s = 300 mph

	data := BuildSegmentData(testSegment(), snap, testNormalized())

	assert.True(t, data.SpeedAnomaly)
	require.NotNil(t, data.SpeedMPH, "anomalous speed is still reported")
	assert.InDelta(t, 300.0, *data.SpeedMPH, 0.001)
}

func TestBuildSegmentData_IncidentMatching(t *testing.T) {
	data := BuildSegmentData(testSegment(), testSnapshot(), testNormalized())

	// inc-1 matches route, direction, and start marker. inc-2 is eastbound,
	// inc-3 starts outside the bounds.
	require.Len(t, data.Incidents, 1)
	assert.Equal(t, "inc-1", data.Incidents[0].ID)
	assert.Equal(t, 3.0, data.Incidents[0].Penalty)
}

func TestBuildSegmentData_IncidentDirectionFromRouteCode(t *testing.T) {
	snap := testSnapshot()
	snap.Incidents = []Incident{
		{ID: "inc-joint", Type: "Crash", Route: "070W", Direction: "", StartMM: 245, EndMM: 245},
	}
	normalized := map[string]NormalizedIncident{
		"inc-joint": {ID: "inc-joint", Penalty: 3},
	}

	data := BuildSegmentData(testSegment(), snap, normalized)

	require.Len(t, data.Incidents, 1)
	assert.Equal(t, "inc-joint", data.Incidents[0].ID)
}

func TestBuildSegmentData_UnnormalizedIncidentExcluded(t *testing.T) {
	normalized := testNormalized()
	delete(normalized, "inc-1")

	data := BuildSegmentData(testSegment(), testSnapshot(), normalized)
	assert.Empty(t, data.Incidents)
}

func TestBuildSegmentData_WorstRoadCondition(t *testing.T) {
	data := BuildSegmentData(testSegment(), testSnapshot(), testNormalized())

	// Both I-70 condition spans overlap the segment; ice outranks snow.
	// The US 40 report matches neither.
	assert.Equal(t, "Icy Spots", data.RoadCondition)
}

func TestBuildSegmentData_WeatherSurfaceCorridorWide(t *testing.T) {
	data := BuildSegmentData(testSegment(), testSnapshot(), testNormalized())

	// First notable station reading wins; the dry station is skipped.
	assert.Equal(t, "Snow", data.WeatherSurface)
}

func TestBuildSegmentData_EmptySnapshotDegradesToNulls(t *testing.T) {
	data := BuildSegmentData(testSegment(), RawSnapshot{}, nil)

	assert.Nil(t, data.TravelSeconds)
	assert.Nil(t, data.SpeedMPH)
	assert.False(t, data.SpeedAnomaly)
	assert.Empty(t, data.Incidents)
	assert.Empty(t, data.RoadCondition)
	assert.Empty(t, data.WeatherSurface)

	// Scoring must treat absence as unknown, not zero.
	assert.Equal(t, 5.0, Score(data).Score)
}
