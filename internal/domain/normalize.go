package domain

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"
)

// MaxSummaryLen bounds incident summaries for downstream mobile display.
const MaxSummaryLen = 100

// Normalization is the cleaned form of a raw incident message: a short
// summary plus a numeric severity penalty subtracted from the flow score.
type Normalization struct {
	Summary string  `json:"summary"`
	Penalty float64 `json:"penalty"`
}

// NormalizedIncident ties a Normalization back to the raw incident it came
// from. Source records how the normalization was obtained: "remote",
// "cache", or "fallback".
type NormalizedIncident struct {
	ID       string  `json:"id"`
	Original string  `json:"original"`
	Summary  string  `json:"summary"`
	Penalty  float64 `json:"penalty"`
	Severity string  `json:"severity"`
	Source   string  `json:"source"`
}

// TextNormalizer cleans a raw incident message into a summary and penalty.
// Implementations may fail; callers fall back to the local heuristic.
type TextNormalizer interface {
	Normalize(ctx context.Context, rawText, incidentType, severity string) (Normalization, error)
}

// NormalizationCache stores normalizations keyed by message-content hash.
// Put must be an idempotent upsert; a Put failure is non-fatal to callers.
type NormalizationCache interface {
	Get(ctx context.Context, key string) (Normalization, bool, error)
	Put(ctx context.Context, key string, n Normalization) error
}

// MessageKey derives the content-addressed cache key for a raw incident
// message: FNV-64a over the canonicalized UTF-8 text. Keying on message
// content rather than incident id collapses repeated messages across runs
// even when upstream ids churn.
func MessageKey(rawText string) string {
	h := fnv.New64a()
	h.Write([]byte(canonicalMessage(rawText))) //nolint:errcheck // never fails
	return fmt.Sprintf("%016x", h.Sum64())
}

func canonicalMessage(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// CleanSummary collapses whitespace and hard-truncates a raw message to the
// summary length bound, marking truncation with an ellipsis.
func CleanSummary(rawText string) string {
	s := strings.Join(strings.Fields(rawText), " ")
	runes := []rune(s)
	if len(runes) <= MaxSummaryLen {
		return s
	}
	return string(runes[:MaxSummaryLen-3]) + "..."
}

// CanonicalSeverity folds a raw feed severity label into the three-level
// enum {major, moderate, minor}. Unclassified values rank as minor.
func CanonicalSeverity(s string) string {
	switch v := strings.ToLower(strings.TrimSpace(s)); {
	case strings.Contains(v, "major"), strings.Contains(v, "high"), strings.Contains(v, "critical"):
		return "major"
	case strings.Contains(v, "moderate"), strings.Contains(v, "medium"):
		return "moderate"
	default:
		return "minor"
	}
}

// FallbackPenalty assigns a deterministic incident penalty from type and
// severity keywords alone, for when remote normalization is unavailable.
// Partial closures are checked before full closures since "lane closure"
// contains "closure".
func FallbackPenalty(incidentType, severity string) float64 {
	t := strings.ToLower(incidentType)
	sev := CanonicalSeverity(severity)

	switch {
	case containsAny(t, "lane closure", "partial closure", "left lane", "right lane", "shoulder"):
		return 3
	case containsAny(t, "closure", "closed", "blocked"):
		return 6
	case containsAny(t, "crash", "accident", "collision"):
		if sev == "major" {
			return 5
		}
		return 3
	case containsAny(t, "chain", "traction"):
		return 1
	}

	switch sev {
	case "major":
		return 2
	case "moderate":
		return 1
	default:
		return 0
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ValidateNormalization strictly checks a remote normalization response.
// Schema violations are failures, not partial successes.
func ValidateNormalization(n Normalization) error {
	if strings.TrimSpace(n.Summary) == "" {
		return errors.New("empty summary")
	}
	if len([]rune(n.Summary)) > MaxSummaryLen {
		return fmt.Errorf("summary exceeds %d characters", MaxSummaryLen)
	}
	if n.Penalty < 0 || n.Penalty > 10 {
		return fmt.Errorf("penalty %.2f outside [0, 10]", n.Penalty)
	}
	return nil
}

// NormalizeStats counts how each incident in a run was normalized.
type NormalizeStats struct {
	Remote   int
	Cached   int
	Fallback int
}

// IncidentNormalizer runs each raw incident through the cache, the remote
// text normalizer, and the deterministic fallback, in that order. A nil
// remote disables external calls entirely; a nil cache disables caching.
// The pipeline never sees which path produced a result.
type IncidentNormalizer struct {
	remote      TextNormalizer
	cache       NormalizationCache
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewIncidentNormalizer wires the normalization chain. callTimeout bounds
// each remote call individually so one slow incident cannot stall the run.
func NewIncidentNormalizer(remote TextNormalizer, cache NormalizationCache, callTimeout time.Duration, logger *slog.Logger) *IncidentNormalizer {
	return &IncidentNormalizer{
		remote:      remote,
		cache:       cache,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// NormalizeAll normalizes a run's incident set, keyed by incident id.
// It never fails: every incident degrades to the fallback heuristic at worst.
func (n *IncidentNormalizer) NormalizeAll(ctx context.Context, incidents []Incident) (map[string]NormalizedIncident, NormalizeStats) {
	out := make(map[string]NormalizedIncident, len(incidents))
	var stats NormalizeStats

	for _, inc := range incidents {
		norm := n.normalizeOne(ctx, inc)
		out[inc.ID] = norm

		switch norm.Source {
		case "remote":
			stats.Remote++
		case "cache":
			stats.Cached++
		default:
			stats.Fallback++
		}
	}
	return out, stats
}

func (n *IncidentNormalizer) normalizeOne(ctx context.Context, inc Incident) NormalizedIncident {
	result := NormalizedIncident{
		ID:       inc.ID,
		Original: inc.Description,
		Severity: CanonicalSeverity(inc.Severity),
	}

	key := MessageKey(inc.Description)

	if n.cache != nil {
		cached, ok, err := n.cache.Get(ctx, key)
		if err != nil {
			n.logger.Warn("normalization cache read failed", "incident_id", inc.ID, "error", err)
		} else if ok {
			result.Summary = cached.Summary
			result.Penalty = cached.Penalty
			result.Source = "cache"
			return result
		}
	}

	if n.remote != nil {
		norm, err := n.callRemote(ctx, inc)
		if err != nil {
			n.logger.Warn("remote normalization failed, applying fallback",
				"incident_id", inc.ID, "error", err)
		} else {
			if n.cache != nil {
				if err := n.cache.Put(ctx, key, norm); err != nil {
					// Cache is a cost optimization, not source of truth.
					n.logger.Warn("normalization cache write failed", "incident_id", inc.ID, "error", err)
				}
			}
			result.Summary = norm.Summary
			result.Penalty = norm.Penalty
			result.Source = "remote"
			return result
		}
	}

	result.Summary = CleanSummary(inc.Description)
	result.Penalty = FallbackPenalty(inc.Type, inc.Severity)
	result.Source = "fallback"
	return result
}

func (n *IncidentNormalizer) callRemote(ctx context.Context, inc Incident) (Normalization, error) {
	callCtx := ctx
	if n.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, n.callTimeout)
		defer cancel()
	}

	norm, err := n.remote.Normalize(callCtx, inc.Description, inc.Type, inc.Severity)
	if err != nil {
		return Normalization{}, err
	}
	if err := ValidateNormalization(norm); err != nil {
		return Normalization{}, fmt.Errorf("invalid response: %w", err)
	}
	return norm, nil
}
