package domain

import (
	"sort"
	"time"
)

// Trend classifies the recent score direction for one segment.
type Trend string

const (
	TrendImproving Trend = "IMPROVING"
	TrendWorsening Trend = "WORSENING"
	TrendStable    Trend = "STABLE"
)

// Sample is one historical score observation drawn from the rolling
// retention window.
type Sample struct {
	SegmentID string
	SpeedMPH  *float64
	Score     *float64
	Timestamp time.Time
}

const (
	// minTrendSamples is the floor below which the classifier refuses to
	// guess and reports STABLE.
	minTrendSamples = 6

	// trendThreshold is the score-mean delta a trend must exceed.
	trendThreshold = 0.5

	// neutralScore substitutes for missing score values so a burst of null
	// samples does not bias the comparison.
	neutralScore = 5.0
)

// ClassifyTrend compares the most-recent third of the window against the
// oldest third, discarding the middle. Input order is irrelevant; the
// function sorts by recency itself.
func ClassifyTrend(samples []Sample) Trend {
	if len(samples) < minTrendSamples {
		return TrendStable
	}

	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	third := len(sorted) / 3
	recent := meanScore(sorted[:third])
	older := meanScore(sorted[len(sorted)-third:])

	switch {
	case recent-older > trendThreshold:
		return TrendImproving
	case older-recent > trendThreshold:
		return TrendWorsening
	default:
		return TrendStable
	}
}

func meanScore(samples []Sample) float64 {
	sum := 0.0
	for _, s := range samples {
		if s.Score != nil {
			sum += *s.Score
		} else {
			sum += neutralScore
		}
	}
	return sum / float64(len(samples))
}
