package domain

import "math"

// Segment is one configured logical section of the monitored corridor.
// Configuration is immutable within a run; the pipeline reloads it from the
// segment file between runs.
type Segment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Subtitle  string `json:"subtitle,omitempty"`
	Route     string `json:"route"`
	Direction string `json:"direction"`

	// Mile-marker bounds. Not guaranteed start < end: segments running in
	// the decreasing-marker direction list them reversed.
	StartMM float64 `json:"startMM"`
	EndMM   float64 `json:"endMM"`

	// DataSourceKey is the upstream destination feed name this segment's
	// travel time is published under. Matching is exact: if the feed renames
	// a destination, matching fails closed instead of guessing.
	DataSourceKey string `json:"dataSourceKey"`

	FreeFlowSeconds float64 `json:"freeFlowSeconds"`
	CriticalSeconds float64 `json:"criticalSeconds"`
}

// Bounds returns the segment's mile-marker span in its configured orientation.
func (s Segment) Bounds() MarkerRange {
	return MarkerRange{Start: s.StartMM, End: s.EndMM}
}

// LengthMiles is the geographic length of the segment regardless of the
// orientation its bounds were configured in.
func (s Segment) LengthMiles() float64 {
	return math.Abs(s.StartMM - s.EndMM)
}
