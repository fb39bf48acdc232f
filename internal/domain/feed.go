package domain

import "time"

// Destination is one named travel-time entry from the destinations feed.
type Destination struct {
	Name          string  `json:"name"`
	TravelSeconds float64 `json:"travel_seconds"`
	Route         string  `json:"route"`
	Direction     string  `json:"direction"`
}

// Incident is a raw free-text incident report from the incidents feed.
type Incident struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Route       string  `json:"route"`
	Direction   string  `json:"direction"`
	StartMM     float64 `json:"start_mm"`
	EndMM       float64 `json:"end_mm"`
}

// RoadCondition is a surface-state report covering a mile-marker span.
type RoadCondition struct {
	Route       string  `json:"route"`
	StartMM     float64 `json:"start_mm"`
	EndMM       float64 `json:"end_mm"`
	Description string  `json:"description"`
}

// WeatherStation is a single sensor station reading.
type WeatherStation struct {
	Name             string  `json:"name"`
	Route            string  `json:"route"`
	MileMarker       float64 `json:"mile_marker"`
	SurfaceCondition string  `json:"surface_condition"`
}

// RawSnapshot is one fetch cycle's data from all four feeds. It is created
// fresh each run, never mutated, and persisted verbatim for audit. A feed
// that failed upstream contributes an empty slice, not an error.
type RawSnapshot struct {
	FetchedAt    time.Time        `json:"fetched_at"`
	Destinations []Destination    `json:"destinations"`
	Incidents    []Incident       `json:"incidents"`
	Conditions   []RoadCondition  `json:"conditions"`
	Stations     []WeatherStation `json:"stations"`
}
