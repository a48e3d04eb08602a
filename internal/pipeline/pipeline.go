// Package pipeline runs the per-keyword fetch, summarize and generate
// stages and collects one result per keyword.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FranksOps/seogen/internal/analyzer"
	"github.com/FranksOps/seogen/internal/generator"
	"github.com/FranksOps/seogen/internal/metrics"
	"github.com/FranksOps/seogen/internal/serp"
	"github.com/FranksOps/seogen/internal/storage"
	"github.com/google/uuid"
)

// Generator produces SEO elements for a keyword from its competitor summary.
type Generator interface {
	Generate(ctx context.Context, keyword, summary string) (generator.Result, error)
}

// Pipeline wires the stages together. Provider and Generator are required;
// Sink is optional.
type Pipeline struct {
	Provider  serp.Provider
	Generator Generator
	// Sink receives every finished result as soon as it is complete.
	Sink storage.Backend
	// Results caps competitor results per keyword; zero means serp.DefaultLimit.
	Results int
	// OnResult, if set, sees each result as soon as it is final, in order.
	OnResult func(*storage.GenerationResult)
	Logger   *slog.Logger
}

// Run is the outcome of one batch.
type Run struct {
	ID         string
	Results    []*storage.GenerationResult
	SinkErrors int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Run processes keywords one at a time, in order. A failing keyword is
// recorded on its result and the batch moves on. The returned error is
// non-nil only when a required component is missing or ctx ends; the
// results gathered so far are returned either way.
func (p *Pipeline) Run(ctx context.Context, keywords []string) (*Run, error) {
	if p.Provider == nil {
		return nil, errors.New("search provider is nil")
	}
	if p.Generator == nil {
		return nil, errors.New("generator is nil")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	run := &Run{
		ID:        uuid.New().String(),
		Results:   make([]*storage.GenerationResult, 0, len(keywords)),
		StartedAt: time.Now().UTC(),
	}
	logger.Info("run started", "run_id", run.ID, "keywords", len(keywords))

	for i, kw := range keywords {
		if err := ctx.Err(); err != nil {
			run.FinishedAt = time.Now().UTC()
			return run, fmt.Errorf("run canceled after %d of %d keywords: %w", i, len(keywords), err)
		}

		res := p.process(ctx, logger, run.ID, i, kw)
		run.Results = append(run.Results, res)

		if p.Sink != nil {
			// The result is final even if ctx was canceled while producing it.
			if err := p.Sink.Save(context.WithoutCancel(ctx), res); err != nil {
				run.SinkErrors++
				logger.Error("saving result to sink failed", "keyword", kw, "err", err)
			}
		}
		if p.OnResult != nil {
			p.OnResult(res)
		}
	}

	run.FinishedAt = time.Now().UTC()
	if err := ctx.Err(); err != nil {
		return run, fmt.Errorf("run canceled: %w", err)
	}
	logger.Info("run finished", "run_id", run.ID, "duration", run.FinishedAt.Sub(run.StartedAt))
	return run, nil
}

func (p *Pipeline) process(ctx context.Context, logger *slog.Logger, runID string, pos int, kw string) *storage.GenerationResult {
	start := time.Now()
	res := &storage.GenerationResult{
		ID:       uuid.New().String(),
		RunID:    runID,
		Position: pos,
		Keyword:  kw,
		Status:   storage.StatusOK,
	}
	fail := func(stage storage.Stage, err error) *storage.GenerationResult {
		res.Status = storage.StatusFailed
		res.Stage = stage
		res.Error = err.Error()
		res.Duration = time.Since(start)
		res.CreatedAt = time.Now().UTC()
		metrics.RecordKeyword(string(res.Status), string(stage))
		logger.Warn("keyword failed", "keyword", kw, "stage", stage, "err", err)
		return res
	}

	logger.Info("analyzing competitors", "keyword", kw)
	competitors, err := p.Provider.Search(ctx, kw, p.Results)
	if err != nil {
		return fail(storage.StageFetch, err)
	}
	res.CompetitorCount = len(competitors)

	summary, err := analyzer.Summarize(competitors)
	if err != nil {
		return fail(storage.StageSummarize, err)
	}
	res.CompetitorSummary = summary

	logger.Info("generating elements", "keyword", kw, "competitors", len(competitors))
	gen, err := p.Generator.Generate(ctx, kw, summary)
	res.Attempts = gen.Attempts
	if err != nil {
		outcome := "error"
		var gerr *generator.Error
		if errors.As(err, &gerr) {
			outcome = string(gerr.Reason)
		}
		metrics.RecordGeneration(outcome, gen.Attempts, gen.Duration)
		return fail(storage.StageGenerate, err)
	}
	metrics.RecordGeneration("ok", gen.Attempts, gen.Duration)

	res.GeneratedText = gen.Text
	res.Duration = time.Since(start)
	res.CreatedAt = time.Now().UTC()
	metrics.RecordKeyword(string(res.Status), "")
	return res
}
