// Command validate performs end-to-end integrity checks over a mock fixture
// set produced by genmock: the segments file and the four feed JSON files.
// It verifies fixture well-formedness, replays reconciliation and scoring
// through the actual domain packages, and checks the results against the
// live-status contract downstream consumers depend on.
//
// Usage:
//
//	go run ./cmd/validate -fixtures data/mock
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/peakline/corridor-vibes/internal/config"
	"github.com/peakline/corridor-vibes/internal/domain"
)

// baseTime matches genmock's fixed clock so replayed timestamps line up.
var baseTime = time.Date(2026, time.February, 10, 8, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	fixtures := flag.String("fixtures", "", "directory containing genmock fixture files")
	flag.Parse()

	if *fixtures == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*fixtures); code != 0 {
		os.Exit(code)
	}
}

func run(dir string) int {
	domain.SetClock(clockwork.NewFakeClockAt(baseTime))
	defer domain.SetClock(nil)

	fmt.Println("=== Corridor Fixture Integrity Validation ===")
	fmt.Println()

	segments, err := config.LoadSegments(filepath.Join(dir, "segments.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load segments: %v\n", err)
		return 1
	}

	snap, err := loadSnapshot(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load feed fixtures: %v\n", err)
		return 1
	}

	normalizer := domain.NewIncidentNormalizer(nil, nil, 0, slog.Default())
	normalized, _ := normalizer.NormalizeAll(context.Background(), snap.Incidents)

	phases := []*phase{
		validateFixtureIntegrity(segments, snap),
		validateReconciliation(segments, snap, normalized),
		validateScoreContract(segments, snap, normalized),
		validateStatusSchema(segments, snap, normalized),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d segments, %d destinations, %d incidents, %d conditions, %d stations\n",
		len(segments), len(snap.Destinations), len(snap.Incidents), len(snap.Conditions), len(snap.Stations))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// Wire-format feed records, mirroring the upstream GeoJSON property shapes.

type wireDestination struct {
	Name       string  `json:"name"`
	TravelTime float64 `json:"travelTime"`
	Route      string  `json:"route"`
	Direction  string  `json:"direction"`
}

type wireIncident struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	Severity        string  `json:"severity"`
	TravelerMessage string  `json:"travelerInformationMessage"`
	Route           string  `json:"routeName"`
	Direction       string  `json:"direction"`
	StartMileMarker float64 `json:"startMileMarker"`
	EndMileMarker   float64 `json:"endMileMarker"`
}

type wireCondition struct {
	Route           string  `json:"routeName"`
	StartMileMarker float64 `json:"startMileMarker"`
	EndMileMarker   float64 `json:"endMileMarker"`
	Condition       string  `json:"currentConditions"`
}

type wireStation struct {
	Name             string  `json:"name"`
	Route            string  `json:"routeName"`
	MileMarker       float64 `json:"mileMarker"`
	SurfaceCondition string  `json:"surfaceCondition"`
}

type collection[P any] struct {
	Features []struct {
		Properties P `json:"properties"`
	} `json:"features"`
}

func loadCollection[P any](path string) ([]P, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c collection[P]
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	out := make([]P, 0, len(c.Features))
	for _, f := range c.Features {
		out = append(out, f.Properties)
	}
	return out, nil
}

func loadSnapshot(dir string) (domain.RawSnapshot, error) {
	snap := domain.RawSnapshot{FetchedAt: baseTime}

	destinations, err := loadCollection[wireDestination](filepath.Join(dir, "destinations.json"))
	if err != nil {
		return snap, err
	}
	for _, d := range destinations {
		snap.Destinations = append(snap.Destinations, domain.Destination{
			Name: d.Name, TravelSeconds: d.TravelTime, Route: d.Route, Direction: d.Direction,
		})
	}

	incidents, err := loadCollection[wireIncident](filepath.Join(dir, "incidents.json"))
	if err != nil {
		return snap, err
	}
	for _, i := range incidents {
		snap.Incidents = append(snap.Incidents, domain.Incident{
			ID: i.ID, Type: i.Type, Severity: i.Severity, Description: i.TravelerMessage,
			Route: i.Route, Direction: i.Direction, StartMM: i.StartMileMarker, EndMM: i.EndMileMarker,
		})
	}

	conditions, err := loadCollection[wireCondition](filepath.Join(dir, "roadConditions.json"))
	if err != nil {
		return snap, err
	}
	for _, c := range conditions {
		snap.Conditions = append(snap.Conditions, domain.RoadCondition{
			Route: c.Route, StartMM: c.StartMileMarker, EndMM: c.EndMileMarker, Description: c.Condition,
		})
	}

	stations, err := loadCollection[wireStation](filepath.Join(dir, "weatherStations.json"))
	if err != nil {
		return snap, err
	}
	for _, s := range stations {
		snap.Stations = append(snap.Stations, domain.WeatherStation{
			Name: s.Name, Route: s.Route, MileMarker: s.MileMarker, SurfaceCondition: s.SurfaceCondition,
		})
	}

	return snap, nil
}

// ── Phase 1: Fixture Integrity ──
// Validates the fixture files are internally consistent before replay.

func validateFixtureIntegrity(segments []domain.Segment, snap domain.RawSnapshot) *phase {
	p := &phase{name: "Phase 1: Fixture Integrity"}

	destNames := map[string]int{}
	for i, d := range snap.Destinations {
		destNames[d.Name]++
		if d.TravelSeconds <= 0 {
			p.errorf("destination %d (%s): non-positive travel time %g", i, d.Name, d.TravelSeconds)
		}
	}
	for name, n := range destNames {
		if n > 1 {
			p.errorf("destination %q appears %d times", name, n)
		}
	}

	for _, seg := range segments {
		if destNames[seg.DataSourceKey] == 0 {
			p.errorf("segment %s: data source key %q has no destination record", seg.ID, seg.DataSourceKey)
		}
	}

	incIDs := map[string]int{}
	for i, inc := range snap.Incidents {
		if inc.ID == "" {
			p.errorf("incident %d: missing id", i)
			continue
		}
		incIDs[inc.ID]++
		if inc.Description == "" {
			p.errorf("incident %s: empty traveler message", inc.ID)
		}
		if inc.StartMM < 0 || inc.EndMM < 0 {
			p.errorf("incident %s: negative mile marker", inc.ID)
		}
	}
	for id, n := range incIDs {
		if n > 1 {
			p.errorf("incident id %q appears %d times", id, n)
		}
	}

	for i, c := range snap.Conditions {
		if c.StartMM < 0 || c.EndMM < 0 {
			p.errorf("condition %d: negative mile marker", i)
		}
		if c.Description == "" {
			p.errorf("condition %d: empty description", i)
		}
	}

	return p
}

// ── Phase 2: Reconciliation ──
// Replays spatial matching and checks each segment resolved its feed data.

func validateReconciliation(segments []domain.Segment, snap domain.RawSnapshot,
	normalized map[string]domain.NormalizedIncident) *phase {
	p := &phase{name: "Phase 2: Reconciliation (spatial matching)"}

	for _, seg := range segments {
		data := domain.BuildSegmentData(seg, snap, normalized)

		if data.TravelSeconds == nil {
			p.errorf("segment %s: no travel time matched for key %q", seg.ID, seg.DataSourceKey)
		} else if data.SpeedMPH == nil {
			p.errorf("segment %s: travel time matched but no implied speed", seg.ID)
		} else if !data.SpeedAnomaly && *data.SpeedMPH > domain.SpeedAnomalyThresholdMPH {
			p.errorf("segment %s: speed %.1f above threshold but anomaly flag unset", seg.ID, *data.SpeedMPH)
		}

		bounds := seg.Bounds()
		for _, inc := range data.Incidents {
			raw, ok := findIncident(snap.Incidents, inc.ID)
			if !ok {
				p.errorf("segment %s: matched incident %s not in fixture", seg.ID, inc.ID)
				continue
			}
			if !bounds.Contains(raw.StartMM) {
				p.errorf("segment %s: incident %s at MM %g outside span %g-%g",
					seg.ID, inc.ID, raw.StartMM, seg.StartMM, seg.EndMM)
			}
		}
	}

	return p
}

func findIncident(incidents []domain.Incident, id string) (domain.Incident, bool) {
	for _, inc := range incidents {
		if inc.ID == id {
			return inc, true
		}
	}
	return domain.Incident{}, false
}

// ── Phase 3: Score Contract ──
// Validates scoring output bounds, precision, and determinism.

func validateScoreContract(segments []domain.Segment, snap domain.RawSnapshot,
	normalized map[string]domain.NormalizedIncident) *phase {
	p := &phase{name: "Phase 3: Score Contract"}

	for _, seg := range segments {
		data := domain.BuildSegmentData(seg, snap, normalized)
		res := domain.Score(data)

		if res.Score < 0 || res.Score > 10 {
			p.errorf("segment %s: score %g outside [0, 10]", seg.ID, res.Score)
		}
		if !tenthAligned(res.Score) {
			p.errorf("segment %s: score %g not rounded to one decimal", seg.ID, res.Score)
		}
		if res.IncidentPenalty < 0 || res.WeatherPenalty < 0 {
			p.errorf("segment %s: negative penalty (incident=%g, weather=%g)",
				seg.ID, res.IncidentPenalty, res.WeatherPenalty)
		}
		if res.Summary == "" {
			p.errorf("segment %s: empty summary", seg.ID)
		} else if n := len([]rune(res.Summary)); n > domain.MaxSummaryLen {
			p.errorf("segment %s: summary %d chars exceeds %d", seg.ID, n, domain.MaxSummaryLen)
		}

		// Scoring is pure; a second pass must agree exactly.
		again := domain.Score(domain.BuildSegmentData(seg, snap, normalized))
		if again.Score != res.Score || again.Summary != res.Summary {
			p.errorf("segment %s: scoring not deterministic (%g/%q vs %g/%q)",
				seg.ID, res.Score, res.Summary, again.Score, again.Summary)
		}
	}

	// An empty snapshot scores neutral everywhere.
	for _, seg := range segments {
		res := domain.Score(domain.BuildSegmentData(seg, domain.RawSnapshot{}, nil))
		if res.Score != 5.0 {
			p.errorf("segment %s: empty snapshot scored %g, expected neutral 5.0", seg.ID, res.Score)
		}
	}

	return p
}

func tenthAligned(v float64) bool {
	scaled := v * 10
	return math.Abs(scaled-math.Round(scaled)) < 1e-9
}

// ── Phase 4: Status Schema ──
// Validates the live-status records downstream consumers would receive.

var validTrends = map[domain.Trend]bool{
	domain.TrendImproving: true,
	domain.TrendWorsening: true,
	domain.TrendStable:    true,
}

func validateStatusSchema(segments []domain.Segment, snap domain.RawSnapshot,
	normalized map[string]domain.NormalizedIncident) *phase {
	p := &phase{name: "Phase 4: Status Schema (live contract)"}

	for _, seg := range segments {
		data := domain.BuildSegmentData(seg, snap, normalized)
		res := domain.Score(data)
		trend := domain.ClassifyTrend(syntheticHistory(seg.ID, res.Score))
		status := domain.NewLiveStatus(data, res, trend)

		if status.SegmentID != seg.ID {
			p.errorf("segment %s: status carries segment id %q", seg.ID, status.SegmentID)
		}
		if status.Name == "" {
			p.errorf("segment %s: status name is empty", seg.ID)
		}
		if status.Score == nil {
			p.errorf("segment %s: status score is nil", seg.ID)
		} else if *status.Score != res.Score {
			p.errorf("segment %s: status score %g differs from result %g", seg.ID, *status.Score, res.Score)
		}
		if !validTrends[status.Trend] {
			p.errorf("segment %s: trend %q not in {IMPROVING, WORSENING, STABLE}", seg.ID, status.Trend)
		}
		if status.UpdatedAt.IsZero() {
			p.errorf("segment %s: updated_at is zero", seg.ID)
		}
	}

	return p
}

// syntheticHistory builds a flat run history ending at the current score so
// trend classification exercises the full sample path.
func syntheticHistory(segmentID string, score float64) []domain.Sample {
	samples := make([]domain.Sample, 0, 6)
	for i := 0; i < 6; i++ {
		s := score
		samples = append(samples, domain.Sample{
			SegmentID: segmentID,
			Score:     &s,
			Timestamp: baseTime.Add(-time.Duration(i) * 5 * time.Minute),
		})
	}
	return samples
}
