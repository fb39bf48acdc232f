package domain

import (
	"math"
	"strings"
)

// WeatherPenaltyPoints is subtracted once when the combined surface text
// carries winter vocabulary.
const WeatherPenaltyPoints = 2.0

// majorIncidentPenalty is the total incident penalty at which the summary
// calls out a major incident rather than generic congestion.
const majorIncidentPenalty = 5.0

// VibeResult is the scored output for one segment: the final 0-10 score,
// its breakdown, and a human-readable summary bounded for mobile display.
type VibeResult struct {
	Score           float64 `json:"score"`
	FlowScore       float64 `json:"flow_score"`
	IncidentPenalty float64 `json:"incident_penalty"`
	WeatherPenalty  float64 `json:"weather_penalty"`
	Summary         string  `json:"summary"`
}

// Score computes the vibe score for one reconciled segment. Pure function:
// no I/O, no randomness, identical inputs always yield identical results.
func Score(data SegmentData) VibeResult {
	flow := flowScore(data)
	incidents := incidentPenalty(data.Incidents)
	weather := weatherPenalty(data.RoadCondition, data.WeatherSurface)

	final := round1(clamp(flow-incidents-weather, 0, 10))

	res := VibeResult{
		Score:           final,
		FlowScore:       flow,
		IncidentPenalty: incidents,
		WeatherPenalty:  weather,
	}
	res.Summary = buildSummary(data, res)
	return res
}

// flowScore maps the travel-time ratio onto 0-10. The anomaly flag forces the
// maximum: implausible data means "trust nothing", not "penalize".
func flowScore(data SegmentData) float64 {
	if data.SpeedAnomaly {
		return 10
	}
	if data.TravelSeconds == nil || *data.TravelSeconds <= 0 {
		return 5
	}

	ratio := data.Segment.FreeFlowSeconds / *data.TravelSeconds
	switch {
	case ratio >= 0.9:
		return 10
	case ratio >= 0.5:
		return 5 + (ratio-0.5)/0.4*5
	case ratio >= 0.2:
		return 1 + (ratio-0.2)/0.3*4
	default:
		return 1
	}
}

// incidentPenalty sums individual penalties. Negative penalties are clamped
// so no incident can ever reduce the total.
func incidentPenalty(incidents []NormalizedIncident) float64 {
	total := 0.0
	for _, inc := range incidents {
		total += math.Max(0, inc.Penalty)
	}
	return total
}

var winterVocabulary = []string{"icy", "ice", "snow", "frozen"}

func weatherPenalty(roadCondition, weatherSurface string) float64 {
	combined := strings.ToLower(roadCondition + " " + weatherSurface)
	for _, w := range winterVocabulary {
		if strings.Contains(combined, w) {
			return WeatherPenaltyPoints
		}
	}
	return 0
}

// buildSummary is a deterministic decision tree on the final score band
// crossed with the dominant penalty contributor. Every branch stays under
// the summary length bound; the anomaly branch never implies a literal
// speed since the figure is known-unreliable.
func buildSummary(data SegmentData, res VibeResult) string {
	if data.SpeedAnomaly {
		if res.IncidentPenalty > 0 || res.WeatherPenalty > 0 {
			return "Speed readings are unreliable right now; incidents or weather may slow you down."
		}
		return "Looks clear, though speed readings are unreliable right now."
	}

	weatherDominant := res.WeatherPenalty > res.IncidentPenalty

	switch {
	case res.Score >= 9:
		return "Smooth sailing, the corridor is wide open."
	case res.Score >= 7:
		if weatherDominant {
			return "Moving well, but watch for slick spots."
		}
		if res.IncidentPenalty > 0 {
			return "Moving well despite minor incident activity."
		}
		return "Traffic is flowing with light friction."
	case res.Score >= 5:
		if weatherDominant {
			return "Slower going with winter surface conditions."
		}
		if res.IncidentPenalty > 0 {
			return "Moderate delays around incident activity."
		}
		return "Moderate congestion, budget extra time."
	case res.Score >= 3:
		if res.IncidentPenalty >= majorIncidentPenalty {
			return "Significant slowdown, major incident on this stretch."
		}
		if weatherDominant {
			return "Rough going, snow and ice are slowing traffic."
		}
		return "Heavy congestion, expect a slow crawl."
	default:
		if weatherDominant {
			return "Severe conditions, travel is not advised right now."
		}
		return "Severe delays, consider waiting it out or rerouting."
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
