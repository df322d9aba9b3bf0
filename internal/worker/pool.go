package worker

import (
	"context"
	"log/slog"
	"sync"
)

type gigResult struct {
	index   int
	outcome auditOutcome
	err     error
}

type gigJob struct {
	index int
	gigID string
}

// runPool fans ids out to the audit goroutines and gathers what they return.
// Ids left unsent when ctx ends produce no result.
func (a *Auditor) runPool(ctx context.Context, ids []string) []gigResult {
	workers := min(a.concurrency, len(ids))
	if workers == 0 {
		return nil
	}

	jobs := make(chan gigJob)
	results := make(chan gigResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go a.auditLoop(ctx, i, jobs, results, &wg)
	}

feed:
	for i, id := range ids {
		select {
		case jobs <- gigJob{index: i, gigID: id}:
		case <-ctx.Done():
			a.logger.Warn("Audit cycle deadline reached while dispatching",
				slog.Int("dispatched", i),
				slog.Int("total", len(ids)),
			)
			break feed
		}
	}
	close(jobs)

	wg.Wait()
	close(results)

	out := make([]gigResult, 0, len(ids))
	for r := range results {
		out = append(out, r)
	}
	return out
}

// auditLoop is the processing loop for each audit goroutine
func (a *Auditor) auditLoop(ctx context.Context, workerNum int, jobs <-chan gigJob, results chan<- gigResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case job, ok := <-jobs:
			if !ok {
				return
			}

			outcome, err := a.auditGig(ctx, job.gigID)
			if err != nil {
				a.logger.Error("Failed to audit gig",
					slog.Int("worker_num", workerNum),
					slog.String("gig_id", job.gigID),
					slog.Any("error", err),
				)
			}
			results <- gigResult{index: job.index, outcome: outcome, err: err}
		}
	}
}
