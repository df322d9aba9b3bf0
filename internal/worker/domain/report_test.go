package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		snap  GigSnapshot
		rules []string
	}{
		{
			name: "open with pending bids",
			snap: GigSnapshot{Status: GigStatusOpen, Pending: 3},
		},
		{
			name: "open without bids",
			snap: GigSnapshot{Status: GigStatusOpen},
		},
		{
			name: "assigned with one hired and rejected siblings",
			snap: GigSnapshot{Status: GigStatusAssigned, Hired: 1, Rejected: 4},
		},
		{
			name:  "assigned without a hire",
			snap:  GigSnapshot{Status: GigStatusAssigned, Rejected: 2},
			rules: []string{RuleAssignedHiredCount},
		},
		{
			name:  "assigned with pending left behind",
			snap:  GigSnapshot{Status: GigStatusAssigned, Hired: 1, Pending: 1},
			rules: []string{RuleAssignedHasPending},
		},
		{
			name:  "open with a rejected bid",
			snap:  GigSnapshot{Status: GigStatusOpen, Pending: 1, Rejected: 1},
			rules: []string{RuleOpenHasOutcome},
		},
		{
			name:  "open with a hired bid and a self bid",
			snap:  GigSnapshot{Status: GigStatusOpen, Hired: 1, SelfBids: 1},
			rules: []string{RuleOpenHasOutcome, RuleSelfBid},
		},
		{
			name:  "unknown status",
			snap:  GigSnapshot{Status: "closed"},
			rules: []string{RuleUnknownStatus},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.snap.GigID = "gig-1"
			tt.snap.OwnerID = "owner-1"

			findings := Evaluate(tt.snap)

			var rules []string
			for _, f := range findings {
				assert.Equal(t, "gig-1", f.GigID)
				assert.NotEmpty(t, f.Detail)
				rules = append(rules, f.Rule)
			}
			assert.Equal(t, tt.rules, rules)
		})
	}
}

func TestReport(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := &Report{StartedAt: start, FinishedAt: start.Add(2 * time.Second)}

	assert.True(t, r.Clean())
	assert.Equal(t, 2*time.Second, r.Duration())

	r.Failures = 1
	assert.False(t, r.Clean())

	r = &Report{Findings: []Finding{{GigID: "g", Rule: RuleSelfBid}}}
	assert.False(t, r.Clean())
}
