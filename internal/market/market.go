package market

import (
	"context"
	"time"
)

// Gig is a postable unit of work.
type Gig struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Budget      int64 // smallest currency unit
	Status      GigStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Bid is an offer from a non-owner to do a gig at a price.
type Bid struct {
	ID         string
	GigID      string
	GigTitle   string // read model only
	BidderID   string
	BidderName string
	Message    string
	Price      int64
	Status     BidStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Caller is the identity a request was authenticated as.
type Caller struct {
	ID   string
	Name string
}

// NewGig is the input to CreateGig.
type NewGig struct {
	Title       string
	Description string
	Budget      int64
}

// NewBid is the input to SubmitBid.
type NewBid struct {
	GigID   string
	Message string
	Price   int64
}

// HireResult is the state after a committed hire.
type HireResult struct {
	Gig      Gig
	Bid      Bid
	Rejected []Bid
}

// BidCursor is a keyset position in a newest-first bid listing.
type BidCursor struct {
	CreatedAt time.Time
	BidID     string
}

// BidFilter selects one page of a bidder's bids.
type BidFilter struct {
	BidderID string
	PageSize int
	Cursor   *BidCursor
}

// Store is single-document storage for gigs and bids. It enforces the
// (gig, bidder) uniqueness constraint and nothing else across entities.
type Store interface {
	CreateGig(ctx context.Context, gig *Gig) error
	GetGig(ctx context.Context, id string) (*Gig, error)
	ListGigsByOwner(ctx context.Context, ownerID string) ([]Gig, error)
	GetBid(ctx context.Context, id string) (*Bid, error)
	// FindBid returns nil, nil when the pair has no bid.
	FindBid(ctx context.Context, gigID, bidderID string) (*Bid, error)
	ListBidsForGig(ctx context.Context, gigID string) ([]Bid, error)
	// ListBidsByBidder returns up to PageSize+1 rows so callers can tell
	// whether another page exists.
	ListBidsByBidder(ctx context.Context, filter BidFilter) ([]Bid, error)

	// Transact runs fn in one transaction. It commits when fn returns nil and
	// rolls back otherwise, returning fn's error unchanged.
	Transact(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the primitives that must run inside one transaction.
type Tx interface {
	// LockGig reads the gig and holds it against concurrent status changes
	// until the transaction ends.
	LockGig(ctx context.Context, gigID string) (*Gig, error)
	FindBid(ctx context.Context, gigID, bidderID string) (*Bid, error)
	// InsertBid returns ErrDuplicateBid when the pair already has a bid.
	InsertBid(ctx context.Context, bid *Bid) error

	// BidWithGig loads a bid and its parent gig from one snapshot.
	BidWithGig(ctx context.Context, bidID string) (*Bid, *Gig, error)
	// AssignGig moves the gig from open to assigned. It reports false when
	// the gig was no longer open at write time.
	AssignGig(ctx context.Context, gigID string, at time.Time) (bool, error)
	// MarkHired moves the bid from pending to hired, false when not pending.
	MarkHired(ctx context.Context, bidID string, at time.Time) (bool, error)
	// RejectPending rejects every pending bid of the gig except keepBidID
	// and returns the bids it rejected.
	RejectPending(ctx context.Context, gigID, keepBidID string, at time.Time) ([]Bid, error)
}
