// Command genmock generates deterministic mock feed fixtures for the corridor
// scoring pipeline. It writes a segments file plus the four traveler-information
// feed responses in wire format, then replays them through the actual domain
// packages so the printed scores match real pipeline behavior.
//
// The fixture files are named after the feed endpoints, so a stub file server
// pointed at the output directory can stand in for the upstream API.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -scenario storm
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/peakline/corridor-vibes/internal/domain"
)

// baseTime is the fixed fetch time stamped into every fixture run.
var baseTime = time.Date(2026, time.February, 10, 8, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for fixture files")
	scenarioName := flag.String("scenario", "storm", "fixture scenario: calm or storm")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	fix, ok := scenarios[*scenarioName]
	if !ok {
		return fmt.Errorf("unknown scenario %q (want calm or storm)", *scenarioName)
	}

	// Fix the clock so timestamps in the fixtures are reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(baseTime))
	defer domain.SetClock(nil)

	files := map[string]any{
		"segments.json":        corridorSegments,
		"destinations.json":    asCollection(fix.destinations),
		"incidents.json":       asCollection(fix.incidents),
		"roadConditions.json":  asCollection(fix.conditions),
		"weatherStations.json": asCollection(fix.stations),
	}
	for name, v := range files {
		path := filepath.Join(*outDir, name)
		if err := writeJSON(path, v); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		log.Printf("wrote %s", path)
	}

	printExpectations(*scenarioName, fix)
	return nil
}

// ── Fixture data ──

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

var corridorSegments = []domain.Segment{
	{
		ID: "floyd-west", Name: "Floyd Hill Westbound", Subtitle: "US 6 to Idaho Springs",
		Route: "070", Direction: "west", StartMM: 248, EndMM: 243,
		DataSourceKey: "Floyd Hill to Idaho Springs", FreeFlowSeconds: 300, CriticalSeconds: 900,
	},
	{
		ID: "georgetown-west", Name: "Georgetown Hill Westbound", Subtitle: "Empire Jct to Silver Plume",
		Route: "070", Direction: "west", StartMM: 232, EndMM: 226,
		DataSourceKey: "Georgetown to Silver Plume", FreeFlowSeconds: 340, CriticalSeconds: 1000,
	},
	{
		ID: "tunnel-west", Name: "Eisenhower Tunnel Approach Westbound", Subtitle: "Silver Plume to the tunnel",
		Route: "070", Direction: "west", StartMM: 226, EndMM: 213,
		DataSourceKey: "Silver Plume to Eisenhower Tunnel", FreeFlowSeconds: 720, CriticalSeconds: 2100,
	},
	{
		ID: "tunnel-east", Name: "Eisenhower Tunnel Eastbound", Subtitle: "Tunnel to Georgetown",
		Route: "070", Direction: "east", StartMM: 213, EndMM: 228,
		DataSourceKey: "Eisenhower Tunnel to Georgetown", FreeFlowSeconds: 820, CriticalSeconds: 2400,
	},
}

// fixtureSet holds one scenario's feed responses.
type fixtureSet struct {
	destinations []wireDestination
	incidents    []wireIncident
	conditions   []wireCondition
	stations     []wireStation
}

var scenarios = map[string]fixtureSet{
	// calm: light traffic, dry roads, no incidents.
	"calm": {
		destinations: []wireDestination{
			{Name: "Floyd Hill to Idaho Springs", TravelTime: 310, Route: "070", Direction: "west"},
			{Name: "Georgetown to Silver Plume", TravelTime: 350, Route: "070", Direction: "west"},
			{Name: "Silver Plume to Eisenhower Tunnel", TravelTime: 740, Route: "070", Direction: "west"},
			{Name: "Eisenhower Tunnel to Georgetown", TravelTime: 840, Route: "070", Direction: "east"},
		},
		conditions: []wireCondition{
			{Route: "I-70", StartMileMarker: 210, EndMileMarker: 250, Condition: "Dry"},
		},
		stations: []wireStation{
			{Name: "Floyd Hill", Route: "I-70", MileMarker: 247, SurfaceCondition: "Dry"},
			{Name: "Eisenhower Tunnel East Portal", Route: "I-70", MileMarker: 214, SurfaceCondition: "Dry"},
		},
	},
	// storm: a winter weekend mess. Crash on Floyd Hill, chain law at the
	// tunnel, icy surfaces above Georgetown.
	"storm": {
		destinations: []wireDestination{
			{Name: "Floyd Hill to Idaho Springs", TravelTime: 620, Route: "070", Direction: "west"},
			{Name: "Georgetown to Silver Plume", TravelTime: 700, Route: "070", Direction: "west"},
			{Name: "Silver Plume to Eisenhower Tunnel", TravelTime: 2400, Route: "070", Direction: "west"},
			{Name: "Eisenhower Tunnel to Georgetown", TravelTime: 900, Route: "070", Direction: "east"},
		},
		incidents: []wireIncident{
			{
				ID: "inc-4821", Type: "crash", Severity: "major",
				TravelerMessage: "Multi-vehicle crash westbound at mile marker 245. Left lane closed.",
				Route: "070W", Direction: "west", StartMileMarker: 244.5, EndMileMarker: 245.5,
			},
			{
				ID: "inc-4830", Type: "traction law", Severity: "minor",
				TravelerMessage: "Chain law in effect for commercial vehicles from Silver Plume to the tunnel.",
				Route: "070", Direction: "both", StartMileMarker: 213, EndMileMarker: 226,
			},
		},
		conditions: []wireCondition{
			{Route: "I-70", StartMileMarker: 243, EndMileMarker: 250, Condition: "Wet"},
			{Route: "I-70", StartMileMarker: 210, EndMileMarker: 232, Condition: "Icy Spots"},
		},
		stations: []wireStation{
			{Name: "Floyd Hill", Route: "I-70", MileMarker: 247, SurfaceCondition: "Wet"},
			{Name: "Eisenhower Tunnel East Portal", Route: "I-70", MileMarker: 214, SurfaceCondition: "Snow"},
		},
	},
}

// ── Output helpers ──

type feature struct {
	Type       string `json:"type"`
	Properties any    `json:"properties"`
}

type collection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// asCollection wraps feed records in the GeoJSON envelope the feed client
// decodes. Geometry is omitted; the pipeline never reads it.
func asCollection[T any](items []T) collection {
	c := collection{Type: "FeatureCollection", Features: []feature{}}
	for _, item := range items {
		c.Features = append(c.Features, feature{Type: "Feature", Properties: item})
	}
	return c
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// ── Expectation replay ──

// printExpectations runs the fixture through the real reconciliation and
// scoring path and prints per-segment results for updating test assertions.
// Normalization uses the keyword fallback only, so the numbers are stable
// without network access.
func printExpectations(name string, fix fixtureSet) {
	snap := toSnapshot(fix)
	normalizer := domain.NewIncidentNormalizer(nil, nil, 0, slog.Default())
	normalized, stats := normalizer.NormalizeAll(context.Background(), snap.Incidents)

	fmt.Printf("\n=== Expected results for scenario %q ===\n", name)
	fmt.Printf("Incidents: %d (fallback=%d)\n", len(snap.Incidents), stats.Fallback)

	for _, seg := range corridorSegments {
		data := domain.BuildSegmentData(seg, snap, normalized)
		res := domain.Score(data)

		speed := "n/a"
		if data.SpeedMPH != nil {
			speed = fmt.Sprintf("%.1f mph", *data.SpeedMPH)
		}
		fmt.Printf("\n%s (%s)\n", seg.ID, seg.Name)
		fmt.Printf("  Speed: %s\n", speed)
		fmt.Printf("  Score: %.1f (flow=%.1f, incident penalty=%.1f, weather penalty=%.1f)\n",
			res.Score, res.FlowScore, res.IncidentPenalty, res.WeatherPenalty)
		fmt.Printf("  Summary: %s\n", res.Summary)
	}
}

// toSnapshot converts wire fixture records into the domain snapshot the
// pipeline would build from live feed responses.
func toSnapshot(fix fixtureSet) domain.RawSnapshot {
	snap := domain.RawSnapshot{FetchedAt: baseTime}
	for _, d := range fix.destinations {
		snap.Destinations = append(snap.Destinations, domain.Destination{
			Name: d.Name, TravelSeconds: d.TravelTime, Route: d.Route, Direction: d.Direction,
		})
	}
	for _, i := range fix.incidents {
		snap.Incidents = append(snap.Incidents, domain.Incident{
			ID: i.ID, Type: i.Type, Severity: i.Severity, Description: i.TravelerMessage,
			Route: i.Route, Direction: i.Direction, StartMM: i.StartMileMarker, EndMM: i.EndMileMarker,
		})
	}
	for _, c := range fix.conditions {
		snap.Conditions = append(snap.Conditions, domain.RoadCondition{
			Route: c.Route, StartMM: c.StartMileMarker, EndMM: c.EndMileMarker, Description: c.Condition,
		})
	}
	for _, s := range fix.stations {
		snap.Stations = append(snap.Stations, domain.WeatherStation{
			Name: s.Name, Route: s.Route, MileMarker: s.MileMarker, SurfaceCondition: s.SurfaceCondition,
		})
	}
	return snap
}
