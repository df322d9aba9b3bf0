package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cuongbtq/gigflow-be/internal/worker/domain"
)

const (
	defaultConcurrency  = 4
	defaultCycleTimeout = time.Minute
	defaultSchedule     = "@every 5m"
)

// Store is the read side the auditor needs
type Store interface {
	ListCandidates(ctx context.Context) ([]string, error)
	Snapshot(ctx context.Context, gigID string) (*domain.GigSnapshot, error)
}

// Config holds auditor configuration
type Config struct {
	Logger       *slog.Logger
	Store        Store
	Schedule     string
	Concurrency  int
	CycleTimeout time.Duration
	Clock        func() time.Time
}

// Auditor periodically checks stored gigs and bids against the marketplace rules.
// It never writes.
type Auditor struct {
	logger       *slog.Logger
	store        Store
	schedule     string
	concurrency  int
	cycleTimeout time.Duration
	now          func() time.Time

	running atomic.Bool

	mu   sync.Mutex
	cron *cron.Cron
	last *domain.Report
}

// NewAuditor creates a new auditor instance
func NewAuditor(cfg *Config) *Auditor {
	a := &Auditor{
		logger:       cfg.Logger,
		store:        cfg.Store,
		schedule:     cfg.Schedule,
		concurrency:  cfg.Concurrency,
		cycleTimeout: cfg.CycleTimeout,
		now:          cfg.Clock,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.schedule == "" {
		a.schedule = defaultSchedule
	}
	if a.concurrency <= 0 {
		a.concurrency = defaultConcurrency
	}
	if a.cycleTimeout <= 0 {
		a.cycleTimeout = defaultCycleTimeout
	}
	if a.now == nil {
		a.now = func() time.Time { return time.Now().UTC() }
	}
	return a
}

// Start schedules audit cycles and blocks until ctx is canceled
func (a *Auditor) Start(ctx context.Context) error {
	cronLog := newCronLogger(a.logger)
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := c.AddFunc(a.schedule, func() { a.runScheduled(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule audit %q: %w", a.schedule, err)
	}

	a.mu.Lock()
	a.cron = c
	a.mu.Unlock()

	a.logger.Info("Starting auditor",
		slog.String("schedule", a.schedule),
		slog.Int("concurrency", a.concurrency),
		slog.Duration("cycle_timeout", a.cycleTimeout),
	)
	c.Start()

	<-ctx.Done()
	a.logger.Info("Auditor context canceled, stopping...")
	return nil
}

// Stop halts the schedule and waits for a running cycle to return
func (a *Auditor) Stop() {
	a.mu.Lock()
	c := a.cron
	a.mu.Unlock()
	if c == nil {
		return
	}

	a.logger.Info("Stopping auditor...")
	<-c.Stop().Done()
	a.logger.Info("Auditor stopped")
}

// LastReport returns the report of the most recent completed cycle, or nil
func (a *Auditor) LastReport() *domain.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// RunCycle audits every candidate gig once under the cycle timeout. A report is
// returned alongside the error when the cycle was cut short.
func (a *Auditor) RunCycle(ctx context.Context) (*domain.Report, error) {
	if !a.running.CompareAndSwap(false, true) {
		return nil, domain.ErrAuditRunning
	}
	defer a.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, a.cycleTimeout)
	defer cancel()

	report := &domain.Report{StartedAt: a.now()}

	ids, err := a.store.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}

	results := a.runPool(ctx, ids)
	collect(report, results)
	report.FinishedAt = a.now()

	a.mu.Lock()
	a.last = report
	a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		unchecked := len(ids) - len(results)
		report.Failures += unchecked
		return report, fmt.Errorf("audit cycle cut short with %d gigs unchecked: %w", unchecked, err)
	}

	return report, nil
}

func (a *Auditor) runScheduled(ctx context.Context) {
	report, err := a.RunCycle(ctx)
	if err != nil {
		a.logger.Error("Audit cycle failed", slog.Any("error", err))
		if report == nil {
			return
		}
	}

	level := slog.LevelInfo
	if !report.Clean() {
		level = slog.LevelWarn
	}
	a.logger.Log(ctx, level, "Audit cycle complete",
		slog.Int("gigs_checked", report.GigsChecked),
		slog.Int("findings", len(report.Findings)),
		slog.Int("failures", report.Failures),
		slog.Duration("duration", report.Duration()),
	)
}
