package domain

import (
	"fmt"
	"time"
)

// GigSnapshot is the per-gig aggregate the rules are evaluated against
type GigSnapshot struct {
	GigID    string `db:"gig_id"`
	OwnerID  string `db:"owner_id"`
	Status   string `db:"status"`
	Pending  int    `db:"pending"`
	Hired    int    `db:"hired"`
	Rejected int    `db:"rejected"`
	SelfBids int    `db:"self_bids"`
}

// Finding is one rule violation on one gig
type Finding struct {
	GigID  string `json:"gig_id"`
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

// Report summarizes one audit cycle
type Report struct {
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	GigsChecked int       `json:"gigs_checked"`
	Failures    int       `json:"failures"`
	Findings    []Finding `json:"findings"`
}

// Clean reports whether the cycle checked everything and found nothing
func (r *Report) Clean() bool {
	return r.Failures == 0 && len(r.Findings) == 0
}

// Duration is the wall time of the cycle
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Evaluate applies every rule to the snapshot. Findings come back in rule order.
func Evaluate(s GigSnapshot) []Finding {
	var findings []Finding
	add := func(rule, format string, args ...any) {
		findings = append(findings, Finding{GigID: s.GigID, Rule: rule, Detail: fmt.Sprintf(format, args...)})
	}

	switch s.Status {
	case GigStatusAssigned:
		if s.Hired != 1 {
			add(RuleAssignedHiredCount, "assigned gig has %d hired bids", s.Hired)
		}
		if s.Pending > 0 {
			add(RuleAssignedHasPending, "assigned gig has %d pending bids", s.Pending)
		}
	case GigStatusOpen:
		if s.Hired > 0 || s.Rejected > 0 {
			add(RuleOpenHasOutcome, "open gig has %d hired and %d rejected bids", s.Hired, s.Rejected)
		}
	default:
		add(RuleUnknownStatus, "gig status %q is not recognized", s.Status)
	}

	if s.SelfBids > 0 {
		add(RuleSelfBid, "owner %s has %d bids on the gig", s.OwnerID, s.SelfBids)
	}

	return findings
}
