package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuongbtq/gigflow-be/internal/worker"
	"github.com/cuongbtq/gigflow-be/internal/worker/domain"
	"github.com/cuongbtq/gigflow-be/internal/worker/storage"
)

// ErrFindings is returned by audit --strict when the report is not clean.
var ErrFindings = errors.New("audit found consistency violations")

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run one consistency audit cycle and print the report",
		Long: `Run one consistency audit cycle against the configured database.

The audit is read-only. It checks that assigned gigs have exactly one hired
bid and no pending bids, that open gigs carry no hired or rejected bids, and
that no owner has bid on their own gig.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, rootOpts, strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the report is not clean")

	return cmd
}

func runAudit(cmd *cobra.Command, opts *RootOptions, strict bool) error {
	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	auditor := worker.NewAuditor(&worker.Config{
		Logger:       e.log.Logger,
		Store:        storage.NewStorage(e.client, e.log.Logger),
		Concurrency:  e.cfg.Audit.Concurrency,
		CycleTimeout: e.cfg.Audit.CycleTimeout,
	})

	report, err := auditor.RunCycle(cmd.Context())
	if report == nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		if werr := writeJSON(out, report); werr != nil {
			return werr
		}
	} else if werr := writeReport(out, report); werr != nil {
		return werr
	}

	if err != nil {
		return err
	}
	if strict && !report.Clean() {
		return ErrFindings
	}
	return nil
}

func writeReport(w io.Writer, r *domain.Report) error {
	if _, err := fmt.Fprintf(w, "Checked %d gigs in %s\n", r.GigsChecked, r.Duration().Round(time.Millisecond)); err != nil {
		return err
	}

	if r.Failures > 0 {
		if _, err := fmt.Fprintf(w, "✗ %d gigs could not be checked\n", r.Failures); err != nil {
			return err
		}
	}

	if len(r.Findings) == 0 {
		_, err := fmt.Fprintln(w, "✓ No violations found")
		return err
	}

	if _, err := fmt.Fprintf(w, "✗ %d violations:\n", len(r.Findings)); err != nil {
		return err
	}
	for _, f := range r.Findings {
		if _, err := fmt.Fprintf(w, "  %s  %-22s %s\n", f.GigID, f.Rule, f.Detail); err != nil {
			return err
		}
	}
	return nil
}
