// Package market holds the gig/bid domain and the two operations that carry
// cross-entity invariants: bid intake and hiring.
//
// Status graphs:
//
//	gig: open ──► assigned
//	bid: pending ──► hired
//	        └──────► rejected
//
// assigned, hired and rejected are terminal.
package market

import "fmt"

// GigStatus is the lifecycle state of a gig.
type GigStatus string

const (
	GigOpen     GigStatus = "open"
	GigAssigned GigStatus = "assigned"
)

// ParseGigStatus converts a stored value to a GigStatus.
func ParseGigStatus(s string) (GigStatus, error) {
	switch st := GigStatus(s); st {
	case GigOpen, GigAssigned:
		return st, nil
	}
	return "", fmt.Errorf("unknown gig status %q", s)
}

// CanTransition reports whether the gig may move from s to next.
func (s GigStatus) CanTransition(next GigStatus) bool {
	return s == GigOpen && next == GigAssigned
}

// BidStatus is the lifecycle state of a bid.
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidHired    BidStatus = "hired"
	BidRejected BidStatus = "rejected"
)

// ParseBidStatus converts a stored value to a BidStatus.
func ParseBidStatus(s string) (BidStatus, error) {
	switch st := BidStatus(s); st {
	case BidPending, BidHired, BidRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown bid status %q", s)
}

// CanTransition reports whether the bid may move from s to next.
func (s BidStatus) CanTransition(next BidStatus) bool {
	return s == BidPending && (next == BidHired || next == BidRejected)
}

// IsTerminal is true for hired and rejected.
func (s BidStatus) IsTerminal() bool { return s == BidHired || s == BidRejected }
