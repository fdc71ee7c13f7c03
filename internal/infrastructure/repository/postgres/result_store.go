// Package postgres persists sealed analysis results. The cache is the hot
// path; this store is the durable record keyed by document fingerprint.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type ResultStore struct {
	db *sql.DB
}

func NewResultStore(db *sql.DB) *ResultStore {
	return &ResultStore{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS analysis_results (
	fingerprint TEXT PRIMARY KEY,
	source_url TEXT,
	source TEXT,
	title TEXT NOT NULL,
	scores JSONB NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	narrative_cluster TEXT,
	partial BOOLEAN NOT NULL DEFAULT FALSE,
	computed_at TIMESTAMPTZ NOT NULL,
	latency_ms DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analysis_results_computed_at ON analysis_results(computed_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *ResultStore) Save(ctx context.Context, result *domain.AnalysisResult) error {
	scores, err := json.Marshal(result.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	query, args, err := psql.
		Insert("analysis_results").
		Columns("fingerprint", "source_url", "source", "title", "scores", "confidence", "narrative_cluster", "partial", "computed_at", "latency_ms").
		Values(result.DocumentFingerprint, result.SourceURL, result.Source, result.Title, scores, result.Confidence, result.NarrativeCluster, result.Partial, result.ComputedAt, result.LatencyMs).
		Suffix(`ON CONFLICT (fingerprint) DO UPDATE SET
			scores = EXCLUDED.scores,
			confidence = EXCLUDED.confidence,
			narrative_cluster = EXCLUDED.narrative_cluster,
			partial = EXCLUDED.partial,
			computed_at = EXCLUDED.computed_at,
			latency_ms = EXCLUDED.latency_ms`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save analysis result: %w", err)
	}
	return nil
}

func (s *ResultStore) GetByFingerprint(ctx context.Context, fingerprint string) (*domain.AnalysisResult, error) {
	query, args, err := psql.
		Select("fingerprint", "source_url", "source", "title", "scores", "confidence", "narrative_cluster", "partial", "computed_at", "latency_ms").
		From("analysis_results").
		Where(sq.Eq{"fingerprint": fingerprint}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var (
		result    domain.AnalysisResult
		scoresRaw []byte
		sourceURL sql.NullString
		source    sql.NullString
		cluster   sql.NullString
	)
	row := s.db.QueryRowContext(ctx, query, args...)
	err = row.Scan(
		&result.DocumentFingerprint,
		&sourceURL,
		&source,
		&result.Title,
		&scoresRaw,
		&result.Confidence,
		&cluster,
		&result.Partial,
		&result.ComputedAt,
		&result.LatencyMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrResultNotFound, "get analysis result", err)
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis result: %w", err)
	}

	result.SourceURL = sourceURL.String
	result.Source = source.String
	result.NarrativeCluster = cluster.String
	if err := json.Unmarshal(scoresRaw, &result.Scores); err != nil {
		return nil, fmt.Errorf("unmarshal scores: %w", err)
	}
	return &result, nil
}
