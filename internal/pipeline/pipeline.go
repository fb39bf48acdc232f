package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/peakline/corridor-vibes/internal/domain"
	"github.com/peakline/corridor-vibes/internal/observability"
)

// FeedSource reads the four upstream feeds. Implementations log transient
// failures and return empty slices; a missing feed degrades the run, it never
// aborts it.
type FeedSource interface {
	Destinations(ctx context.Context) []domain.Destination
	Incidents(ctx context.Context) []domain.Incident
	RoadConditions(ctx context.Context) []domain.RoadCondition
	WeatherStations(ctx context.Context) []domain.WeatherStation
}

// SegmentSource provides the corridor segment configuration for a run.
type SegmentSource interface {
	Segments() ([]domain.Segment, error)
}

// Store persists run output: live status, history samples, and raw snapshots.
type Store interface {
	UpsertLive(ctx context.Context, status domain.LiveStatus) error
	AppendSample(ctx context.Context, sample domain.Sample) error
	RecentSamples(ctx context.Context, segmentID string, since time.Time) ([]domain.Sample, error)
	PruneHistory(ctx context.Context, cutoff time.Time) error
	SaveSnapshot(ctx context.Context, snap domain.RawSnapshot) error
}

// LivePublisher pushes one run's live statuses to downstream consumers.
type LivePublisher interface {
	PublishLive(ctx context.Context, statuses []domain.LiveStatus) error
}

// Normalizer resolves a run's raw incidents into normalized form.
type Normalizer interface {
	NormalizeAll(ctx context.Context, incidents []domain.Incident) (map[string]domain.NormalizedIncident, domain.NormalizeStats)
}

// Report summarizes one run for logging and tests.
type Report struct {
	SegmentsProcessed int
	IncidentsTotal    int
	NormalizeStats    domain.NormalizeStats
	Errors            []string
	Duration          time.Duration
}

// Succeeded reports whether the run completed without any segment errors.
func (r Report) Succeeded() bool {
	return len(r.Errors) == 0
}

// Pipeline orchestrates the fetch-reconcile-score-persist cycle on a fixed
// interval. Runs are strictly serial; a slow run delays the next tick rather
// than overlapping it.
type Pipeline struct {
	feeds      FeedSource
	segments   SegmentSource
	store      Store
	publisher  LivePublisher // nil disables live publishing
	normalizer Normalizer
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock

	interval      time.Duration
	historyWindow time.Duration
	ready         atomic.Bool
}

// New creates a Pipeline with the given collaborators and observability.
func New(feeds FeedSource, segments SegmentSource, store Store, publisher LivePublisher,
	normalizer Normalizer, logger *slog.Logger, metrics *observability.Metrics,
	clock clockwork.Clock, interval, historyWindow time.Duration) *Pipeline {
	return &Pipeline{
		feeds:         feeds,
		segments:      segments,
		store:         store,
		publisher:     publisher,
		normalizer:    normalizer,
		logger:        logger,
		metrics:       metrics,
		clock:         clock,
		interval:      interval,
		historyWindow: historyWindow,
	}
}

// CheckReadiness returns nil once the pipeline has completed at least one run,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes one cycle immediately, then on every tick until the context is
// cancelled. Run-level failures are logged and retried at the next tick.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.runAndLog(ctx)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			p.runAndLog(ctx)
		}
	}
}

func (p *Pipeline) runAndLog(ctx context.Context) {
	report, err := p.RunOnce(ctx)
	if err != nil {
		p.logger.Error("run failed", "error", err)
		return
	}
	p.logger.Info("run complete",
		"segments", report.SegmentsProcessed,
		"incidents", report.IncidentsTotal,
		"normalized_remote", report.NormalizeStats.Remote,
		"normalized_cached", report.NormalizeStats.Cached,
		"normalized_fallback", report.NormalizeStats.Fallback,
		"errors", len(report.Errors),
		"duration", report.Duration,
	)
}

// RunOnce executes a single fetch-reconcile-score-persist cycle. A segment
// configuration failure is run-fatal; per-segment processing failures are
// isolated and collected in the report.
func (p *Pipeline) RunOnce(ctx context.Context) (Report, error) {
	start := p.clock.Now()
	p.metrics.RunsTotal.Inc()

	segments, err := p.segments.Segments()
	if err != nil {
		p.metrics.RunErrors.Inc()
		return Report{}, fmt.Errorf("load segments: %w", err)
	}

	snap := p.fetchSnapshot(ctx)
	if err := p.store.SaveSnapshot(ctx, snap); err != nil {
		// Audit trail only; the run proceeds on the in-memory snapshot.
		p.logger.Warn("save snapshot failed", "error", err)
	}

	normalized, stats := p.normalizer.NormalizeAll(ctx, snap.Incidents)
	p.metrics.IncidentsNormalized.WithLabelValues("remote").Add(float64(stats.Remote))
	p.metrics.IncidentsNormalized.WithLabelValues("cache").Add(float64(stats.Cached))
	p.metrics.IncidentsNormalized.WithLabelValues("fallback").Add(float64(stats.Fallback))

	report := Report{
		IncidentsTotal: len(snap.Incidents),
		NormalizeStats: stats,
	}

	var statuses []domain.LiveStatus
	for _, seg := range segments {
		status, err := p.processSegment(ctx, seg, snap, normalized)
		if err != nil {
			p.metrics.SegmentErrors.Inc()
			report.Errors = append(report.Errors, fmt.Sprintf("segment %s: %v", seg.ID, err))
			p.logger.Warn("segment processing failed", "segment", seg.ID, "error", err)
			continue
		}
		statuses = append(statuses, status)
		report.SegmentsProcessed++
		p.metrics.SegmentsProcessed.Inc()
		if status.Score != nil {
			p.metrics.SegmentScore.WithLabelValues(seg.ID).Set(*status.Score)
		}
	}

	if err := p.store.PruneHistory(ctx, start.Add(-p.historyWindow)); err != nil {
		p.logger.Warn("prune history failed", "error", err)
	}

	if p.publisher != nil && len(statuses) > 0 {
		if err := p.publisher.PublishLive(ctx, statuses); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("publish live: %v", err))
			p.logger.Warn("live publish failed", "error", err)
		}
	}

	report.Duration = p.clock.Since(start)
	p.metrics.RunDuration.Observe(report.Duration.Seconds())
	if report.SegmentsProcessed > 0 {
		p.ready.Store(true)
	}
	return report, nil
}

// fetchSnapshot issues the four feed reads concurrently. The feeds are
// mutually independent; only the join point matters.
func (p *Pipeline) fetchSnapshot(ctx context.Context) domain.RawSnapshot {
	snap := domain.RawSnapshot{FetchedAt: p.clock.Now()}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		snap.Destinations = p.feeds.Destinations(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.Incidents = p.feeds.Incidents(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.Conditions = p.feeds.RoadConditions(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.Stations = p.feeds.WeatherStations(ctx)
	}()
	wg.Wait()

	return snap
}

// processSegment reconciles, scores, and persists one segment. The trend is
// classified over the retained history window including this run's sample;
// a history read failure degrades the trend to STABLE rather than failing
// the segment.
func (p *Pipeline) processSegment(ctx context.Context, seg domain.Segment,
	snap domain.RawSnapshot, normalized map[string]domain.NormalizedIncident) (domain.LiveStatus, error) {

	data := domain.BuildSegmentData(seg, snap, normalized)
	res := domain.Score(data)

	score := res.Score
	current := domain.Sample{
		SegmentID: seg.ID,
		SpeedMPH:  data.SpeedMPH,
		Score:     &score,
		Timestamp: p.clock.Now(),
	}

	trend := domain.TrendStable
	history, err := p.store.RecentSamples(ctx, seg.ID, p.clock.Now().Add(-p.historyWindow))
	if err != nil {
		p.logger.Warn("history read failed, reporting stable trend", "segment", seg.ID, "error", err)
	} else {
		trend = domain.ClassifyTrend(append(history, current))
	}

	if err := p.store.AppendSample(ctx, current); err != nil {
		return domain.LiveStatus{}, fmt.Errorf("append sample: %w", err)
	}

	status := domain.NewLiveStatus(data, res, trend)
	if err := p.store.UpsertLive(ctx, status); err != nil {
		return domain.LiveStatus{}, fmt.Errorf("upsert live status: %w", err)
	}

	return status, nil
}
