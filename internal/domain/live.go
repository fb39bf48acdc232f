package domain

import "time"

// LiveStatus is the persisted per-segment snapshot consumed by downstream
// display. The storage collaborator guarantees at most one live row per
// segment id; this type only fixes the field semantics (nullability, score
// bounds).
type LiveStatus struct {
	SegmentID string    `json:"segment_id"`
	Name      string    `json:"name"`
	SpeedMPH  *float64  `json:"speed_mph"`
	Score     *float64  `json:"score"`
	Summary   string    `json:"summary"`
	Trend     Trend     `json:"trend"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLiveStatus assembles the live record for one scored segment, stamped
// with the package clock.
func NewLiveStatus(data SegmentData, res VibeResult, trend Trend) LiveStatus {
	score := res.Score
	return LiveStatus{
		SegmentID: data.Segment.ID,
		Name:      data.Segment.Name,
		SpeedMPH:  data.SpeedMPH,
		Score:     &score,
		Summary:   res.Summary,
		Trend:     trend,
		UpdatedAt: clock.Now(),
	}
}
