// Package generator turns a keyword and its competitor summary into
// on-page SEO elements through a chat-completion API.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FranksOps/seogen/internal/llm"
	"github.com/FranksOps/seogen/pkg/backoff"
)

// Reason classifies a generation failure.
type Reason string

const (
	// ReasonTransport means every attempt failed at the call level.
	ReasonTransport Reason = "transport"
	// ReasonEmptyResponse means the API answered without any choices.
	ReasonEmptyResponse Reason = "empty_response"
	// ReasonCanceled means the context ended before a response arrived.
	ReasonCanceled Reason = "canceled"
)

// Error is returned by Generate when no usable response was produced.
type Error struct {
	Reason   Reason
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generation failed (%s) after %d attempt(s): %v", e.Reason, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Option configures a Generator.
type Option func(*Generator)

// WithPolicy overrides the retry policy.
func WithPolicy(p backoff.Policy) Option {
	return func(g *Generator) { g.policy = p }
}

// WithSleep overrides how the generator waits between attempts.
func WithSleep(s backoff.SleepFunc) Option {
	return func(g *Generator) { g.sleep = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// Generator wraps a Completer with the fixed prompt and a retry policy.
type Generator struct {
	completer llm.Completer
	policy    backoff.Policy
	sleep     backoff.SleepFunc
	logger    *slog.Logger
}

// New returns a Generator using c. Defaults are backoff.DefaultPolicy and a
// real-clock sleep.
func New(c llm.Completer, opts ...Option) *Generator {
	g := &Generator{
		completer: c,
		policy:    backoff.DefaultPolicy,
		sleep:     backoff.Sleep,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Result is a successful generation.
type Result struct {
	Text     string
	Attempts int
	Duration time.Duration
}

// Generate asks for an H1, title tag and meta description for keyword.
// The response text is returned as-is.
func (g *Generator) Generate(ctx context.Context, keyword, summary string) (Result, error) {
	prompt, err := UserPrompt(keyword, summary)
	if err != nil {
		return Result{}, fmt.Errorf("render prompt: %w", err)
	}

	start := time.Now()
	var text string
	attempts, err := backoff.Do(ctx, g.policy, g.sleep, func(ctx context.Context, attempt int) error {
		out, err := g.completer.Complete(ctx, SystemPrompt, prompt)
		if err == nil {
			text = out
			return nil
		}
		if errors.Is(err, llm.ErrNoChoices) {
			return backoff.Permanent(err)
		}
		if attempt < g.policy.MaxAttempts-1 && ctx.Err() == nil {
			g.logger.Warn("completion failed, retrying",
				"keyword", keyword,
				"attempt", attempt+1,
				"delay", g.policy.Delay(attempt),
				"err", err,
			)
		}
		return err
	})
	res := Result{Text: text, Attempts: attempts, Duration: time.Since(start)}
	if err == nil {
		return res, nil
	}

	gerr := &Error{Reason: ReasonTransport, Attempts: attempts, Err: err}
	switch {
	case errors.Is(err, llm.ErrNoChoices):
		gerr.Reason = ReasonEmptyResponse
	case ctx.Err() != nil:
		gerr.Reason = ReasonCanceled
		gerr.Err = ctx.Err()
	}
	return res, gerr
}
