package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/seogen/internal/storage"
)

func TestGenerateSummary(t *testing.T) {
	now := time.Now()

	results := []*storage.GenerationResult{
		{
			Keyword:         "best running shoes",
			Status:          storage.StatusOK,
			CompetitorCount: 10,
			Attempts:        1,
			Duration:        1 * time.Second,
			CreatedAt:       now,
		},
		{
			Keyword:         "trail shoes",
			Status:          storage.StatusFailed,
			Stage:           storage.StageGenerate,
			Error:           "generation failed",
			CompetitorCount: 8,
			Attempts:        3,
			Duration:        1 * time.Second,
			CreatedAt:       now.Add(1 * time.Second),
		},
		{
			Keyword:   "hiking boots",
			Status:    storage.StatusFailed,
			Stage:     storage.StageFetch,
			Error:     "blocked",
			Duration:  500 * time.Millisecond,
			CreatedAt: now.Add(2 * time.Second),
		},
	}

	summary := GenerateSummary("run-1", results)

	if summary.TotalKeywords != 3 {
		t.Errorf("expected 3 keywords, got %d", summary.TotalKeywords)
	}
	if summary.Succeeded != 1 || summary.Failed != 2 {
		t.Errorf("expected 1 succeeded and 2 failed, got %d/%d", summary.Succeeded, summary.Failed)
	}
	if summary.FailuresByStage[storage.StageGenerate] != 1 || summary.FailuresByStage[storage.StageFetch] != 1 {
		t.Errorf("unexpected failures by stage %v", summary.FailuresByStage)
	}
	if summary.AvgCompetitors != 6 {
		t.Errorf("expected 6 competitors on average, got %v", summary.AvgCompetitors)
	}
	if summary.TotalAttempts != 4 {
		t.Errorf("expected 4 attempts, got %d", summary.TotalAttempts)
	}
	if summary.Duration != 3*time.Second {
		t.Errorf("expected 3s duration, got %v", summary.Duration)
	}
	if len(summary.Keywords) != 3 || summary.Keywords[1].Keyword != "trail shoes" {
		t.Errorf("expected keyword lines in input order, got %v", summary.Keywords)
	}
}

func TestGenerateSummary_Empty(t *testing.T) {
	summary := GenerateSummary("run-0", nil)
	if summary.TotalKeywords != 0 || summary.AvgCompetitors != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
}

func TestWriteJSON(t *testing.T) {
	summary := Summary{
		TotalKeywords: 5,
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), `"TotalKeywords": 5`) {
		t.Errorf("expected JSON to contain TotalKeywords: 5")
	}
}

func TestWriteText(t *testing.T) {
	summary := Summary{
		TotalKeywords: 5,
		Failed:        1,
		FailuresByStage: map[storage.Stage]int{
			storage.StageFetch: 1,
		},
		Keywords: []KeywordLine{
			{Keyword: "trail shoes", Status: storage.StatusFailed, Stage: storage.StageFetch, Error: "blocked"},
		},
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Keywords:      5") {
		t.Errorf("expected text to contain Keywords: 5")
	}
	if !strings.Contains(out, "fetch: 1") {
		t.Errorf("expected text to contain fetch: 1")
	}
	if !strings.Contains(out, "[failed] trail shoes (fetch: blocked)") {
		t.Errorf("expected keyword line, got:\n%s", out)
	}
}

func TestWriteHTML(t *testing.T) {
	summary := Summary{
		TotalKeywords: 10,
		Failed:        2,
		FailuresByStage: map[storage.Stage]int{
			storage.StageSummarize: 2,
		},
		Keywords: []KeywordLine{{Keyword: "<script>x</script>", Status: storage.StatusOK}},
	}
	var buf bytes.Buffer
	if err := WriteHTML(&buf, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<title>SEO Element Generator Report</title>") {
		t.Errorf("expected HTML title")
	}
	if !strings.Contains(out, "summarize") {
		t.Errorf("expected HTML to contain summarize")
	}
	if strings.Contains(out, "<script>x</script>") {
		t.Errorf("expected keyword to be escaped")
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, "pdf", Summary{}); err == nil {
		t.Error("expected error for unknown format")
	}
}
