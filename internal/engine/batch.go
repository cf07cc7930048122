package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/sprintdeck/prioritizer/internal/types"
)

// BatchRequest asks for one project's analysis within a batch run
type BatchRequest struct {
	ProjectID string
	Config    types.AnalysisConfig
}

// BatchResult is the outcome for one project. Report may be non-nil even
// when Err is set (persistence failed after computation succeeded).
type BatchResult struct {
	ProjectID string
	Report    *types.AnalysisReport
	Err       error
}

// RunBatch analyzes several projects concurrently with at most
// maxConcurrent analyses in flight. Invocations are independent and the
// score upserts are atomic, so no coordination beyond the semaphore is
// needed. Results come back in request order.
func (e *Engine) RunBatch(ctx context.Context, orgID string, requests []BatchRequest, maxConcurrent int64) []BatchResult {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	sem := semaphore.NewWeighted(maxConcurrent)
	results := make([]BatchResult, len(requests))

	var wg sync.WaitGroup
	for i, req := range requests {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = BatchResult{ProjectID: req.ProjectID, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, req BatchRequest) {
			defer wg.Done()
			defer sem.Release(1)
			report, err := e.RunAnalysis(ctx, orgID, req.ProjectID, req.Config)
			results[i] = BatchResult{ProjectID: req.ProjectID, Report: report, Err: err}
		}(i, req)
	}
	wg.Wait()
	return results
}
