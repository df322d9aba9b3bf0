package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/cuongbtq/gigflow-be/internal/worker/domain"
)

type auditOutcome struct {
	checked  bool
	findings []domain.Finding
}

// auditGig loads one gig's snapshot and evaluates the rules against it
func (a *Auditor) auditGig(ctx context.Context, gigID string) (auditOutcome, error) {
	snap, err := a.store.Snapshot(ctx, gigID)
	if err != nil {
		if errors.Is(err, domain.ErrGigNotFound) {
			a.logger.Debug("Gig vanished before audit", slog.String("gig_id", gigID))
			return auditOutcome{}, nil
		}
		return auditOutcome{}, fmt.Errorf("snapshot %s: %w", gigID, err)
	}

	findings := domain.Evaluate(*snap)
	for _, f := range findings {
		a.logger.Warn("Consistency violation",
			slog.String("gig_id", f.GigID),
			slog.String("rule", f.Rule),
			slog.String("detail", f.Detail),
		)
	}

	return auditOutcome{checked: true, findings: findings}, nil
}

// collect folds pool results into the report in candidate order
func collect(report *domain.Report, results []gigResult) {
	slices.SortFunc(results, func(x, y gigResult) int { return x.index - y.index })

	for _, r := range results {
		if r.err != nil {
			report.Failures++
			continue
		}
		if r.outcome.checked {
			report.GigsChecked++
		}
		report.Findings = append(report.Findings, r.outcome.findings...)
	}
}
