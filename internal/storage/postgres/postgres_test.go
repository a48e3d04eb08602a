package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/FranksOps/seogen/internal/storage"
	"github.com/google/uuid"
)

func TestPostgresBackend(t *testing.T) {
	// Only run this test if SEOGEN_TEST_PG_DSN is set
	dsn := os.Getenv("SEOGEN_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres backend test: SEOGEN_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	b, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create Postgres backend: %v", err)
	}
	defer b.Close()

	now := time.Now().UTC()
	runID := uuid.New().String()

	res := &storage.GenerationResult{
		ID:                uuid.New().String(),
		RunID:             runID,
		Keyword:           "best running shoes",
		GeneratedText:     "H1: Best Running Shoes",
		CompetitorSummary: "Analyzed 3 competitor results.\n",
		Status:            storage.StatusOK,
		CompetitorCount:   3,
		Attempts:          1,
		Duration:          50 * time.Millisecond,
		CreatedAt:         now,
	}
	failed := &storage.GenerationResult{
		ID:        uuid.New().String(),
		RunID:     runID,
		Position:  1,
		Keyword:   "trail shoes",
		Status:    storage.StatusFailed,
		Stage:     storage.StageFetch,
		Error:     "blocked by search engine",
		CreatedAt: now,
	}

	if err := b.Save(ctx, res); err != nil {
		t.Fatalf("Failed to save result: %v", err)
	}
	if err := b.Save(ctx, failed); err != nil {
		t.Fatalf("Failed to save failed result: %v", err)
	}

	results, err := b.Query(ctx, storage.Filter{RunID: runID})
	if err != nil {
		t.Fatalf("Failed to query results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].ID != res.ID || results[0].GeneratedText != res.GeneratedText {
		t.Errorf("Unexpected first result %+v", results[0])
	}
	if results[1].Stage != storage.StageFetch {
		t.Errorf("Expected stage fetch, got %q", results[1].Stage)
	}

	resultsFailed, err := b.Query(ctx, storage.Filter{RunID: runID, Status: storage.StatusFailed, Limit: 5})
	if err != nil {
		t.Fatalf("Failed to query failed results: %v", err)
	}
	if len(resultsFailed) != 1 {
		t.Fatalf("Expected 1 failed result, got %d", len(resultsFailed))
	}
}
