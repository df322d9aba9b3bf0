package domain

// Audit rules
const (
	// RuleAssignedHiredCount fires when an assigned gig does not have exactly one hired bid
	RuleAssignedHiredCount = "assigned_hired_count"
	// RuleOpenHasOutcome fires when an open gig carries hired or rejected bids
	RuleOpenHasOutcome = "open_has_outcome"
	// RuleAssignedHasPending fires when an assigned gig still has pending bids
	RuleAssignedHasPending = "assigned_has_pending"
	// RuleSelfBid fires when the gig owner has a bid on their own gig
	RuleSelfBid = "self_bid"
	// RuleUnknownStatus fires when the stored gig status is not recognized
	RuleUnknownStatus = "unknown_status"
)

// Gig statuses as stored
const (
	GigStatusOpen     = "open"
	GigStatusAssigned = "assigned"
)
