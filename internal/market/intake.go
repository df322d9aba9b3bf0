package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cuongbtq/gigflow-be/internal/notify"
)

// SubmitBid admits a pending bid from bidder on an open gig. The gig read,
// duplicate check and insert run in one transaction with the gig row held,
// so a racing hire either sees the new bid or the bid sees the assigned gig.
func (s *Service) SubmitBid(ctx context.Context, bidder Caller, in NewBid) (*Bid, error) {
	if bidder.ID == "" {
		return nil, newError(KindValidation, "bidder identity is required")
	}
	if err := validateID(in.GigID, "gig"); err != nil {
		return nil, err
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, newError(KindValidation, "message is required")
	}
	if in.Price < 0 {
		return nil, newError(KindValidation, "price must not be negative")
	}

	var (
		bid *Bid
		gig *Gig
	)
	err := s.store.Transact(ctx, func(tx Tx) error {
		var err error
		gig, err = tx.LockGig(ctx, in.GigID)
		if err != nil {
			return lookupError(err, "Gig not found", "failed to load gig")
		}

		if gig.Status != GigOpen {
			return newError(KindInvalidState, "This gig is no longer accepting bids")
		}
		if gig.OwnerID == bidder.ID {
			return newError(KindForbidden, "Cannot bid on your own gig")
		}

		existing, err := tx.FindBid(ctx, gig.ID, bidder.ID)
		if err != nil {
			return serverError("failed to check for an existing bid", err)
		}
		if existing != nil {
			return errDuplicateBid()
		}

		now := s.now()
		bid = &Bid{
			ID:         s.newID(),
			GigID:      gig.ID,
			GigTitle:   gig.Title,
			BidderID:   bidder.ID,
			BidderName: bidder.Name,
			Message:    message,
			Price:      in.Price,
			Status:     BidPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.InsertBid(ctx, bid); err != nil {
			if errors.Is(err, ErrDuplicateBid) {
				return errDuplicateBid()
			}
			return serverError("failed to create bid", err)
		}
		return nil
	})
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return nil, e
		}
		return nil, serverError("bid transaction failed", err)
	}

	s.logger.Info("Bid submitted",
		slog.String("bid_id", bid.ID),
		slog.String("gig_id", bid.GigID),
		slog.String("bidder_id", bid.BidderID),
		slog.Int64("price", bid.Price),
	)

	s.notifier.Publish(ctx, newBidEvent(gig, bid))
	return bid, nil
}

func errDuplicateBid() *Error {
	return newError(KindConflict, "You have already submitted a bid for this gig")
}

func newBidEvent(gig *Gig, bid *Bid) notify.Event {
	name := bid.BidderName
	if name == "" {
		name = bid.BidderID
	}
	return notify.Event{
		Kind:   notify.KindNewBid,
		Target: gig.OwnerID,
		Payload: notify.Payload{
			GigID:      gig.ID,
			GigTitle:   gig.Title,
			BidID:      bid.ID,
			BidderID:   bid.BidderID,
			BidderName: name,
			Price:      bid.Price,
			Message:    fmt.Sprintf("%s placed a bid of %d on %q", name, bid.Price, gig.Title),
			Timestamp:  bid.CreatedAt,
		},
	}
}
