package domain

// SpeedAnomalyThresholdMPH is the implied-speed ceiling above which upstream
// data is assumed bad rather than genuinely free-flowing.
const SpeedAnomalyThresholdMPH = 85.0

// SegmentData is the reconciled view of one segment for one run. Every field
// degrades to nil/empty when the source data is missing or fails to match;
// scoring treats absence as "unknown", never as zero.
type SegmentData struct {
	Segment Segment

	TravelSeconds *float64
	SpeedMPH      *float64
	SpeedAnomaly  bool

	Incidents      []NormalizedIncident
	RoadCondition  string
	WeatherSurface string
}

// BuildSegmentData reconciles one run's snapshot onto a configured segment.
// normalized is the run's already-normalized incident set keyed by incident
// id; only incidents that spatially match the segment are kept.
func BuildSegmentData(seg Segment, snap RawSnapshot, normalized map[string]NormalizedIncident) SegmentData {
	data := SegmentData{Segment: seg}

	matchTravelTime(&data, seg, snap.Destinations)
	matchIncidents(&data, seg, snap.Incidents, normalized)
	matchConditions(&data, seg, snap.Conditions)
	matchWeather(&data, snap.Stations)

	return data
}

// matchTravelTime selects the destination whose feed name exactly equals the
// segment's data-source key and derives the implied speed. A speed above the
// anomaly threshold sets the flag but still reports the number; hiding it is
// a presentation concern.
func matchTravelTime(data *SegmentData, seg Segment, destinations []Destination) {
	for _, d := range destinations {
		if d.Name != seg.DataSourceKey {
			continue
		}
		secs := d.TravelSeconds
		data.TravelSeconds = &secs

		if secs > 0 && seg.LengthMiles() > 0 {
			speed := seg.LengthMiles() / (secs / 3600.0)
			data.SpeedMPH = &speed
			data.SpeedAnomaly = speed > SpeedAnomalyThresholdMPH
		}
		return
	}
}

// matchIncidents keeps incidents whose route, direction, and start marker all
// match the segment. Incidents lacking an explicit direction may carry it in
// a joint route+direction code instead.
func matchIncidents(data *SegmentData, seg Segment, incidents []Incident, normalized map[string]NormalizedIncident) {
	bounds := seg.Bounds()
	for _, inc := range incidents {
		if !RouteMatches(inc.Route, seg.Route) {
			continue
		}
		dir := inc.Direction
		if dir == "" {
			_, dir = SplitRouteDirection(inc.Route)
		}
		if !DirectionMatches(dir, seg.Direction) {
			continue
		}
		if !bounds.Contains(inc.StartMM) {
			continue
		}
		if norm, ok := normalized[inc.ID]; ok {
			data.Incidents = append(data.Incidents, norm)
		}
	}
}

func matchConditions(data *SegmentData, seg Segment, conditions []RoadCondition) {
	bounds := seg.Bounds()
	var observed []string
	for _, c := range conditions {
		if !RouteMatches(c.Route, seg.Route) {
			continue
		}
		if !bounds.Overlaps(MarkerRange{Start: c.StartMM, End: c.EndMM}) {
			continue
		}
		observed = append(observed, c.Description)
	}
	data.RoadCondition = WorstCondition(observed)
}

// matchWeather resolves the weather surface corridor-wide: the first station
// reading with a notable surface condition wins, regardless of segment.
// Deliberate simplification; see DESIGN.md before tightening to per-segment
// resolution.
func matchWeather(data *SegmentData, stations []WeatherStation) {
	for _, st := range stations {
		if WorstCondition([]string{st.SurfaceCondition}) != "" {
			data.WeatherSurface = st.SurfaceCondition
			return
		}
	}
}
