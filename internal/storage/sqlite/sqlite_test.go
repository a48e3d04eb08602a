package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/seogen/internal/storage"
)

func TestSQLiteBackend(t *testing.T) {
	b, err := New(filepath.Join(t.TempDir(), "seogen.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	res := &storage.GenerationResult{
		ID:                "test1234",
		RunID:             "run-a",
		Position:          0,
		Keyword:           "best running shoes",
		GeneratedText:     "H1: Best Running Shoes",
		CompetitorSummary: "Analyzed 3 competitor results.\n",
		Status:            storage.StatusOK,
		CompetitorCount:   3,
		Attempts:          2,
		Duration:          1500 * time.Millisecond,
		CreatedAt:         now,
	}
	failed := &storage.GenerationResult{
		ID:        "test5678",
		RunID:     "run-a",
		Position:  1,
		Keyword:   "trail shoes",
		Status:    storage.StatusFailed,
		Stage:     storage.StageSummarize,
		Error:     "no competitor results to summarize",
		CreatedAt: now,
	}

	if err := b.Save(ctx, res); err != nil {
		t.Fatalf("Failed to save result: %v", err)
	}
	if err := b.Save(ctx, failed); err != nil {
		t.Fatalf("Failed to save failed result: %v", err)
	}

	results, err := b.Query(ctx, storage.Filter{Keyword: "best running shoes"})
	if err != nil {
		t.Fatalf("Failed to query results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}

	got := results[0]
	if got.ID != res.ID || got.RunID != res.RunID {
		t.Errorf("Expected IDs %s/%s, got %s/%s", res.ID, res.RunID, got.ID, got.RunID)
	}
	if got.GeneratedText != res.GeneratedText {
		t.Errorf("Expected GeneratedText %q, got %q", res.GeneratedText, got.GeneratedText)
	}
	if got.CompetitorSummary != res.CompetitorSummary {
		t.Errorf("Expected CompetitorSummary %q, got %q", res.CompetitorSummary, got.CompetitorSummary)
	}
	if got.Status != storage.StatusOK || got.CompetitorCount != 3 || got.Attempts != 2 {
		t.Errorf("Unexpected fields %+v", got)
	}
	if got.Duration.Milliseconds() != res.Duration.Milliseconds() {
		t.Errorf("Expected Duration %v, got %v", res.Duration, got.Duration)
	}
	if got.CreatedAt.Unix() != res.CreatedAt.Unix() {
		t.Errorf("Expected CreatedAt %v, got %v", res.CreatedAt, got.CreatedAt)
	}

	// Saved order within a run
	all, err := b.Query(ctx, storage.Filter{RunID: "run-a"})
	if err != nil {
		t.Fatalf("Failed to query run: %v", err)
	}
	if len(all) != 2 || all[0].ID != res.ID || all[1].Stage != storage.StageSummarize {
		t.Fatalf("Unexpected run results %v", all)
	}

	// Since filter
	past := now.Add(-1 * time.Hour)
	resultsSince, err := b.Query(ctx, storage.Filter{Since: &past})
	if err != nil {
		t.Fatalf("Failed to query results with Since: %v", err)
	}
	if len(resultsSince) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(resultsSince))
	}

	// Status filter
	resultsFailed, err := b.Query(ctx, storage.Filter{Status: storage.StatusFailed})
	if err != nil {
		t.Fatalf("Failed to query failed results: %v", err)
	}
	if len(resultsFailed) != 1 || resultsFailed[0].ID != failed.ID {
		t.Fatalf("Expected only the failed result, got %v", resultsFailed)
	}

	// Offset without limit
	resultsOffset, err := b.Query(ctx, storage.Filter{Offset: 1})
	if err != nil {
		t.Fatalf("Failed to query with offset: %v", err)
	}
	if len(resultsOffset) != 1 || resultsOffset[0].ID != failed.ID {
		t.Fatalf("Expected second result for offset 1, got %v", resultsOffset)
	}
}
