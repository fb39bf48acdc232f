package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/peakline/corridor-vibes/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS live_status (
	segment_id TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	speed_mph  REAL,
	score      REAL,
	summary    TEXT NOT NULL,
	trend      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS status_history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	segment_id TEXT NOT NULL,
	speed_mph  REAL,
	score      REAL,
	recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_segment_time
	ON status_history (segment_id, recorded_at);

CREATE TABLE IF NOT EXISTS ai_cache (
	hash       TEXT PRIMARY KEY,
	summary    TEXT NOT NULL,
	penalty    REAL NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS raw_snapshots (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	fetched_at TIMESTAMP NOT NULL,
	payload    TEXT NOT NULL
);
`

// Store persists live segment status, score history, the incident
// normalization cache, and raw feed snapshots in a single SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets the ops HTTP surface read while a run is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertLive replaces the live status row for a segment.
func (s *Store) UpsertLive(ctx context.Context, status domain.LiveStatus) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO live_status (segment_id, name, speed_mph, score, summary, trend, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (segment_id) DO UPDATE SET
			name = excluded.name,
			speed_mph = excluded.speed_mph,
			score = excluded.score,
			summary = excluded.summary,
			trend = excluded.trend,
			updated_at = excluded.updated_at`,
		status.SegmentID, status.Name,
		nullableFloat(status.SpeedMPH), nullableFloat(status.Score),
		status.Summary, string(status.Trend), status.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert live status for %s: %w", status.SegmentID, err)
	}
	return nil
}

// LiveStatuses returns the current status of every segment, ordered by id.
func (s *Store) LiveStatuses(ctx context.Context) ([]domain.LiveStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT segment_id, name, speed_mph, score, summary, trend, updated_at
		FROM live_status ORDER BY segment_id`)
	if err != nil {
		return nil, fmt.Errorf("query live statuses: %w", err)
	}
	defer rows.Close()

	var out []domain.LiveStatus
	for rows.Next() {
		var st domain.LiveStatus
		var speed, score sql.NullFloat64
		var trend string
		if err := rows.Scan(&st.SegmentID, &st.Name, &speed, &score, &st.Summary, &trend, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan live status: %w", err)
		}
		st.SpeedMPH = floatPtr(speed)
		st.Score = floatPtr(score)
		st.Trend = domain.Trend(trend)
		out = append(out, st)
	}
	return out, rows.Err()
}

// AppendSample records one run's speed and score for a segment.
func (s *Store) AppendSample(ctx context.Context, sample domain.Sample) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO status_history (segment_id, speed_mph, score, recorded_at)
		VALUES (?, ?, ?, ?)`,
		sample.SegmentID, nullableFloat(sample.SpeedMPH), nullableFloat(sample.Score), sample.Timestamp)
	if err != nil {
		return fmt.Errorf("append history for %s: %w", sample.SegmentID, err)
	}
	return nil
}

// RecentSamples returns a segment's history samples recorded at or after
// since, newest first.
func (s *Store) RecentSamples(ctx context.Context, segmentID string, since time.Time) ([]domain.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT segment_id, speed_mph, score, recorded_at
		FROM status_history
		WHERE segment_id = ? AND recorded_at >= ?
		ORDER BY recorded_at DESC`,
		segmentID, since)
	if err != nil {
		return nil, fmt.Errorf("query history for %s: %w", segmentID, err)
	}
	defer rows.Close()

	var out []domain.Sample
	for rows.Next() {
		var sm domain.Sample
		var speed, score sql.NullFloat64
		if err := rows.Scan(&sm.SegmentID, &speed, &score, &sm.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history sample: %w", err)
		}
		sm.SpeedMPH = floatPtr(speed)
		sm.Score = floatPtr(score)
		out = append(out, sm)
	}
	return out, rows.Err()
}

// PruneHistory deletes history samples older than cutoff.
func (s *Store) PruneHistory(ctx context.Context, cutoff time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM status_history WHERE recorded_at < ?`, cutoff); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

// Get implements domain.NormalizationCache.
func (s *Store) Get(ctx context.Context, key string) (domain.Normalization, bool, error) {
	var n domain.Normalization
	err := s.db.QueryRowContext(ctx,
		`SELECT summary, penalty FROM ai_cache WHERE hash = ?`, key).
		Scan(&n.Summary, &n.Penalty)
	if err == sql.ErrNoRows {
		return domain.Normalization{}, false, nil
	}
	if err != nil {
		return domain.Normalization{}, false, fmt.Errorf("cache lookup: %w", err)
	}
	return n, true, nil
}

// Put implements domain.NormalizationCache as an idempotent upsert.
func (s *Store) Put(ctx context.Context, key string, n domain.Normalization) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_cache (hash, summary, penalty, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (hash) DO UPDATE SET
			summary = excluded.summary,
			penalty = excluded.penalty`,
		key, n.Summary, n.Penalty, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// SaveSnapshot persists one run's raw feed data verbatim for audit.
func (s *Store) SaveSnapshot(ctx context.Context, snap domain.RawSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO raw_snapshots (fetched_at, payload) VALUES (?, ?)`,
		snap.FetchedAt, string(payload)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
