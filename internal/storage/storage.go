package storage

import (
	"context"
	"time"
)

// Status is the outcome of one keyword.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Stage names the step a keyword failed at.
type Stage string

const (
	StageNone      Stage = ""
	StageFetch     Stage = "fetch"
	StageSummarize Stage = "summarize"
	StageGenerate  Stage = "generate"
)

// GenerationResult is the outcome of processing one input keyword.
type GenerationResult struct {
	ID                string        `json:"id"`
	RunID             string        `json:"run_id"`
	Position          int           `json:"position"`
	Keyword           string        `json:"keyword"`
	GeneratedText     string        `json:"generated_text"`
	CompetitorSummary string        `json:"competitor_summary"`
	Status            Status        `json:"status"`
	Stage             Stage         `json:"stage,omitempty"`
	Error             string        `json:"error,omitempty"`
	CompetitorCount   int           `json:"competitor_count"`
	Attempts          int           `json:"attempts"`
	Duration          time.Duration `json:"duration"`
	CreatedAt         time.Time     `json:"created_at"`
}

// Failed reports whether the keyword did not produce generated text.
func (r *GenerationResult) Failed() bool {
	return r.Status == StatusFailed
}

// Filter allows querying for specific GenerationResults.
type Filter struct {
	RunID   string
	Keyword string
	Status  Status
	Since   *time.Time
	Limit   int
	Offset  int
}

// Match reports whether r passes every set field of f. Limit and Offset
// are not considered.
func (f Filter) Match(r *GenerationResult) bool {
	if f.RunID != "" && r.RunID != f.RunID {
		return false
	}
	if f.Keyword != "" && r.Keyword != f.Keyword {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Since != nil && r.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// Page applies Offset and Limit to an already filtered slice.
func (f Filter) Page(results []*GenerationResult) []*GenerationResult {
	if f.Offset > 0 {
		if f.Offset >= len(results) {
			return []*GenerationResult{}
		}
		results = results[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(results) {
		results = results[:f.Limit]
	}
	return results
}

// Backend defines the interface for result sinks. Query returns results in
// the order they were saved.
type Backend interface {
	Save(ctx context.Context, result *GenerationResult) error
	Query(ctx context.Context, filter Filter) ([]*GenerationResult, error)
	Close() error
}
