package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/peakline/corridor-vibes/internal/domain"
)

// LoadSegments reads and validates the corridor segment definitions from a
// JSON file. An invalid segment fails the whole load; a partially configured
// corridor would silently drop coverage.
func LoadSegments(path string) ([]domain.Segment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segments file: %w", err)
	}

	var segments []domain.Segment
	if err := json.Unmarshal(raw, &segments); err != nil {
		return nil, fmt.Errorf("parse segments file %s: %w", path, err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("segments file %s defines no segments", path)
	}

	seen := make(map[string]bool, len(segments))
	for i, seg := range segments {
		if err := validateSegment(seg); err != nil {
			return nil, fmt.Errorf("segment %d (%q): %w", i, seg.ID, err)
		}
		if seen[seg.ID] {
			return nil, fmt.Errorf("duplicate segment id %q", seg.ID)
		}
		seen[seg.ID] = true
	}

	return segments, nil
}

func validateSegment(seg domain.Segment) error {
	switch {
	case seg.ID == "":
		return fmt.Errorf("missing id")
	case seg.Name == "":
		return fmt.Errorf("missing name")
	case seg.Route == "":
		return fmt.Errorf("missing route")
	case seg.Direction == "":
		return fmt.Errorf("missing direction")
	case seg.DataSourceKey == "":
		return fmt.Errorf("missing dataSourceKey")
	case seg.StartMM == seg.EndMM:
		return fmt.Errorf("zero-length marker range")
	case seg.FreeFlowSeconds <= 0:
		return fmt.Errorf("freeFlowSeconds must be positive")
	}
	return nil
}

// SegmentFile re-reads segment definitions from disk on every call, so
// corridor changes take effect on the next run without a restart.
type SegmentFile struct {
	path string
}

// NewSegmentFile wraps a segments JSON file as a per-run segment source.
func NewSegmentFile(path string) *SegmentFile {
	return &SegmentFile{path: path}
}

// Segments loads the current segment definitions.
func (f *SegmentFile) Segments() ([]domain.Segment, error) {
	return LoadSegments(f.path)
}
