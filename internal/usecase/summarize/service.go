// Package summarize is the fan-out stage: every candidate document
// becomes either a model-generated summary of its fulltext or a digest of
// its metadata fields. Per-document failures are absorbed into the
// results; nothing in this package aborts a batch.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matkb-cloud/matkb/internal/domain"
	"github.com/matkb-cloud/matkb/internal/logger"
	"github.com/matkb-cloud/matkb/internal/metrics"
	"github.com/matkb-cloud/matkb/internal/prompts"
)

// Config bounds the fan-out.
type Config struct {
	// MaxWorkers caps concurrent generation and probe calls.
	MaxWorkers int
	// MaxRetries caps attempts per generation call.
	MaxRetries int
	// MaxFulltextDocs caps how many documents get a full summary per
	// batch; excess fulltext candidates are dropped, not deferred.
	MaxFulltextDocs int
	// Backoff returns the pause before retrying after the given attempt
	// (1-based). Defaults to linear whole seconds.
	Backoff func(attempt int) time.Duration
}

// Orchestrator runs the summarization fan-out.
type Orchestrator struct {
	gen     Generator
	checker *AvailabilityChecker
	cfg     Config
}

// New creates an orchestrator.
func New(gen Generator, fulltext FulltextProvider, cfg Config) *Orchestrator {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.MaxFulltextDocs <= 0 {
		cfg.MaxFulltextDocs = 20
	}
	if cfg.Backoff == nil {
		cfg.Backoff = func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Second
		}
	}
	return &Orchestrator{
		gen:     gen,
		checker: NewAvailabilityChecker(fulltext, cfg.MaxWorkers),
		cfg:     cfg,
	}
}

// Run partitions candidates by fulltext availability, generates summaries
// for the fulltext side at bounded concurrency, and digests the rest.
// Ordering: full summaries in task-completion order, then digests in
// candidate order. Every candidate that survives the fulltext cap yields
// exactly one result.
func (o *Orchestrator) Run(
	ctx context.Context, question string, candidates []domain.DocumentCandidate,
) []domain.SummaryResult {
	if len(candidates) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)

	var probeIDs []string
	for _, c := range candidates {
		// synthetic rows have no real document behind them
		if !c.Synthetic {
			probeIDs = append(probeIDs, c.DocID)
		}
	}
	texts := o.checker.Check(ctx, probeIDs)

	var withText, withoutText []domain.DocumentCandidate
	for _, c := range candidates {
		if !c.Synthetic && texts[c.DocID] != "" {
			withText = append(withText, c)
		} else {
			withoutText = append(withoutText, c)
		}
	}

	if len(withText) > o.cfg.MaxFulltextDocs {
		log.Info("fulltext candidates over cap, dropping excess",
			zap.Int("candidates", len(withText)),
			zap.Int("cap", o.cfg.MaxFulltextDocs))
		withText = withText[:o.cfg.MaxFulltextDocs]
	}

	results := o.summarizeFulltext(ctx, question, withText, texts)

	for _, c := range withoutText {
		results = append(results, domain.SummaryResult{
			DocID: c.DocID,
			Text:  buildDigest(c),
			Kind:  domain.SummaryDigest,
		})
	}

	for _, r := range results {
		metrics.SummariesTotal.WithLabelValues(string(r.Kind)).Inc()
	}
	log.Info("summarization batch done",
		zap.Int("candidates", len(candidates)),
		zap.Int("fulltext", len(withText)),
		zap.Int("digests", len(withoutText)))
	return results
}

// summarizeFulltext fans out one generation task per document and
// collects results in completion order. A task that exhausts its retries
// contributes an error-text result instead of aborting the batch.
func (o *Orchestrator) summarizeFulltext(
	ctx context.Context,
	question string,
	candidates []domain.DocumentCandidate,
	texts map[string]string,
) []domain.SummaryResult {
	if len(candidates) == 0 {
		return nil
	}

	resCh := make(chan domain.SummaryResult, len(candidates))
	sem := make(chan struct{}, o.cfg.MaxWorkers)
	var wg sync.WaitGroup

	for _, c := range candidates {
		wg.Add(1)
		go func(docID, fulltext string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			user := prompts.LiteratureSummaryUser(question, fulltext)
			text, err := o.generateWithRetry(ctx, prompts.LiteratureSummarySystem, user)
			if err != nil {
				logger.FromContext(ctx).Warn("summary generation failed",
					zap.String("doc_id", docID), zap.Error(err))
				resCh <- domain.SummaryResult{
					DocID: docID,
					Text:  fmt.Sprintf("failed to summarize %s: %v", docID, err),
					Kind:  domain.SummaryFailed,
				}
				return
			}
			resCh <- domain.SummaryResult{DocID: docID, Text: text, Kind: domain.SummaryFull}
		}(c.DocID, texts[c.DocID])
	}
	wg.Wait()
	close(resCh)

	results := make([]domain.SummaryResult, 0, len(candidates))
	for r := range resCh {
		results = append(results, r)
	}
	return results
}

// generateWithRetry retries transient failures with linear backoff.
// Non-transient failures return immediately.
func (o *Orchestrator) generateWithRetry(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxRetries; attempt++ {
		text, err := o.gen.Generate(ctx, systemPrompt, userPrompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !errors.Is(err, domain.ErrProviderTransient) {
			return "", err
		}
		if attempt < o.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(o.cfg.Backoff(attempt)):
			}
		}
	}
	return "", lastErr
}
