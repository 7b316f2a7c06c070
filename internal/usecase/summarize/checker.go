package summarize

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/matkb-cloud/matkb/internal/logger"
)

// AvailabilityChecker probes the fulltext provider for a set of document
// ids at bounded concurrency.
type AvailabilityChecker struct {
	provider FulltextProvider
	workers  int
}

// NewAvailabilityChecker creates a checker with the given worker bound.
func NewAvailabilityChecker(provider FulltextProvider, workers int) *AvailabilityChecker {
	if workers <= 0 {
		workers = 1
	}
	return &AvailabilityChecker{provider: provider, workers: workers}
}

// Check fetches fulltext for every id concurrently and returns the texts
// found, keyed by id. Ids without fulltext are simply absent. Fetch
// failures are logged and treated as "no fulltext" — a flaky provider
// degrades a document to a digest rather than failing the batch.
func (a *AvailabilityChecker) Check(ctx context.Context, ids []string) map[string]string {
	texts := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return texts
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, a.workers)

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			text, err := a.provider.Fetch(ctx, id)
			if err != nil {
				logger.FromContext(ctx).Warn("fulltext probe failed",
					zap.String("doc_id", id), zap.Error(err))
				return
			}
			if text == "" {
				return
			}
			mu.Lock()
			texts[id] = text
			mu.Unlock()
		}(id)
	}
	wg.Wait()
	return texts
}
