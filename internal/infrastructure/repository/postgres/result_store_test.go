package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

func sampleResult(t *testing.T) *domain.AnalysisResult {
	t.Helper()
	return &domain.AnalysisResult{
		DocumentFingerprint: "fp-1",
		SourceURL:           "https://example.com/story",
		Source:              "Example",
		Title:               "Feature Under Fire",
		Scores: map[domain.DimensionKind]domain.DimensionScore{
			domain.DimensionEmotionalTone: {Kind: domain.DimensionEmotionalTone, Value: 72},
		},
		Confidence:       0.81,
		NarrativeCluster: "privacy-alarmist",
		ComputedAt:       time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
		LatencyMs:        1250.5,
		Partial:          false,
	}
}

func TestSaveUpsertsResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	result := sampleResult(t)
	scores, _ := json.Marshal(result.Scores)

	mock.ExpectExec("INSERT INTO analysis_results").
		WithArgs(
			result.DocumentFingerprint,
			result.SourceURL,
			result.Source,
			result.Title,
			scores,
			result.Confidence,
			result.NarrativeCluster,
			result.Partial,
			result.ComputedAt,
			result.LatencyMs,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewResultStore(db)
	if err := store.Save(context.Background(), result); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByFingerprintFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	want := sampleResult(t)
	scores, _ := json.Marshal(want.Scores)
	rows := sqlmock.NewRows([]string{
		"fingerprint", "source_url", "source", "title", "scores",
		"confidence", "narrative_cluster", "partial", "computed_at", "latency_ms",
	}).AddRow(
		want.DocumentFingerprint,
		want.SourceURL,
		want.Source,
		want.Title,
		scores,
		want.Confidence,
		want.NarrativeCluster,
		want.Partial,
		want.ComputedAt,
		want.LatencyMs,
	)

	mock.ExpectQuery("SELECT (.+) FROM analysis_results").
		WithArgs(want.DocumentFingerprint).
		WillReturnRows(rows)

	store := NewResultStore(db)
	got, err := store.GetByFingerprint(context.Background(), want.DocumentFingerprint)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DocumentFingerprint != want.DocumentFingerprint || got.Title != want.Title {
		t.Fatalf("unexpected result %+v", got)
	}
	if got.NarrativeCluster != want.NarrativeCluster {
		t.Fatalf("unexpected cluster %q", got.NarrativeCluster)
	}
	if got.Scores[domain.DimensionEmotionalTone].Value != 72 {
		t.Fatalf("scores did not round-trip: %+v", got.Scores)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByFingerprintNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM analysis_results").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"fingerprint", "source_url", "source", "title", "scores",
			"confidence", "narrative_cluster", "partial", "computed_at", "latency_ms",
		}))

	store := NewResultStore(db)
	_, err = store.GetByFingerprint(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrResultNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestEnsureSchemaRunsDDLInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS analysis_results").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	store := NewResultStore(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
