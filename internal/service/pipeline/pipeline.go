// Package pipeline runs one comparison: scan, extract, score, decide, notify.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"changewatch/internal/logger"
	"changewatch/internal/model"
	"changewatch/internal/report"
	"changewatch/internal/scanner"
	"changewatch/internal/service/notify"
	"changewatch/internal/similarity"

	"github.com/google/uuid"
)

// ErrExtractionFailed is recorded when fewer than two descriptor sets are available.
var ErrExtractionFailed = errors.New("could not extract descriptors")

// Outcome classifies how a run ended.
type Outcome string

const (
	OutcomeCompared          Outcome = "compared"
	OutcomeInsufficientInput Outcome = "insufficient_input"
	OutcomeExtractionFailed  Outcome = "extraction_failed"
)

// Result is everything one run produced. Verdict is nil unless Outcome is
// OutcomeCompared.
type Result struct {
	RunID     string           `json:"run_id"`
	Directory string           `json:"directory"`
	Newest    scanner.ImageRef `json:"newest"`
	Previous  scanner.ImageRef `json:"previous"`
	Strategy  string           `json:"strategy"`
	Verdict   *report.Verdict  `json:"verdict,omitempty"`
	Outcome   Outcome          `json:"outcome"`
	Failure   string           `json:"failure,omitempty"`
	Notified  bool             `json:"notified"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
}

// ChangeDetected reports whether the run produced a change verdict.
func (r *Result) ChangeDetected() bool {
	return r.Verdict != nil && r.Verdict.ChangeDetected
}

// Report prints the result in the fixed console format.
func (r *Result) Report(rep *report.Reporter) {
	rep.Directory(r.Directory)
	switch r.Outcome {
	case OutcomeInsufficientInput:
		rep.InsufficientInput()
		return
	case OutcomeExtractionFailed:
		rep.ExtractionFailed()
	case OutcomeCompared:
		rep.Comparison(r.Newest.Name, r.Previous.Name, *r.Verdict)
	}
	rep.Done()
}

type Pipeline struct {
	strategy similarity.Strategy
	notifier notify.Notifier
	logger   *logger.Logger
}

func New(strategy similarity.Strategy, notifier notify.Notifier, logger *logger.Logger) *Pipeline {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Pipeline{
		strategy: strategy,
		notifier: notifier,
		logger:   logger,
	}
}

// Strategy returns the configured strategy.
func (p *Pipeline) Strategy() similarity.Strategy {
	return p.strategy
}

// Run compares the two newest images in dir. Only directory errors are returned;
// insufficient input and extraction failures are reported through the Result.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		Directory: dir,
		Strategy:  p.strategy.Name,
		StartedAt: time.Now(),
	}
	defer func() { result.Duration = time.Since(result.StartedAt) }()

	newest, previous, err := scanner.LatestPair(dir)
	if errors.Is(err, scanner.ErrInsufficientImages) {
		p.logger.Info("Run %s: %v", result.RunID, err)
		result.Outcome = OutcomeInsufficientInput
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	result.Newest, result.Previous = newest, previous

	score, err := p.score(ctx, newest, previous)
	if err != nil {
		p.logger.Warning("Run %s: %v", result.RunID, err)
		result.Outcome = OutcomeExtractionFailed
		result.Failure = err.Error()
		return result, nil
	}

	verdict := report.Decide(score, p.strategy.Threshold)
	result.Verdict = &verdict
	result.Outcome = OutcomeCompared
	p.logger.Info("Run %s: %s vs %s scored %.3f with %s (threshold %.2f, change=%t)",
		result.RunID, newest.Name, previous.Name, score, p.strategy.Name, verdict.Threshold, verdict.ChangeDetected)

	if err := p.notifier.Notify(ctx, verdict.ChangeDetected); err != nil {
		p.logger.Warning("Run %s: notification failed: %v", result.RunID, err)
	} else {
		result.Notified = true
	}

	return result, nil
}

// score extracts both descriptor sets and applies the metric. Any extraction
// failure skips scoring entirely.
func (p *Pipeline) score(ctx context.Context, newest, previous scanner.ImageRef) (float64, error) {
	var sets []*similarity.DescriptorSet
	for _, ref := range []scanner.ImageRef{newest, previous} {
		set, err := p.strategy.Extractor.Extract(ctx, ref.Path)
		if err != nil {
			p.logger.Warning("Extraction failed for %s: %v", ref.Name, err)
			continue
		}
		if set == nil {
			p.logger.Warning("Extraction produced no descriptors for %s", ref.Name)
			continue
		}
		sets = append(sets, set)
	}

	if len(sets) < 2 {
		return 0, fmt.Errorf("%d of 2 images usable: %w", len(sets), ErrExtractionFailed)
	}

	score, err := p.strategy.Metric.Score(sets[0], sets[1])
	if err != nil {
		return 0, fmt.Errorf("%s: %v: %w", p.strategy.Metric.Name(), err, ErrExtractionFailed)
	}
	return score, nil
}

// Comparison converts the result into a history record.
func (r *Result) Comparison() *model.Comparison {
	c := &model.Comparison{
		RunID:      r.RunID,
		Directory:  r.Directory,
		Newest:     r.Newest.Name,
		Previous:   r.Previous.Name,
		Strategy:   r.Strategy,
		Outcome:    string(r.Outcome),
		Notified:   r.Notified,
		DurationMs: r.Duration.Milliseconds(),
		CreatedAt:  r.StartedAt,
	}
	if r.Verdict != nil {
		c.Score = r.Verdict.Score
		c.Threshold = r.Verdict.Threshold
		c.ChangeDetected = r.Verdict.ChangeDetected
	}
	return c
}
