package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/gigflow-be/internal/notify"
)

// Hire selects bidID as the winner of its gig. In one transaction it moves
// the gig open -> assigned with a compare-and-swap on the status column,
// moves the bid pending -> hired and rejects every other pending bid. Of two
// racing calls on the same gig exactly one commits; the other gets Conflict.
func (s *Service) Hire(ctx context.Context, requester Caller, bidID string) (*HireResult, error) {
	// A malformed ID cannot name any bid
	if validateID(bidID, "bid") != nil {
		return nil, newError(KindNotFound, "Bid not found")
	}

	txCtx, cancel := context.WithTimeout(ctx, s.hireTimeout)
	defer cancel()

	var result HireResult
	err := s.store.Transact(txCtx, func(tx Tx) error {
		bid, gig, err := tx.BidWithGig(txCtx, bidID)
		if err != nil {
			return lookupError(err, "Bid not found", "failed to load bid")
		}

		if gig.OwnerID != requester.ID {
			return newError(KindForbidden, "Not authorized to hire for this gig")
		}
		if gig.Status != GigOpen {
			return errAlreadyAssigned()
		}
		if !bid.Status.CanTransition(BidHired) {
			return newError(KindInvalidState, fmt.Sprintf("Bid is already %s", bid.Status))
		}

		now := s.now()

		assigned, err := tx.AssignGig(txCtx, gig.ID, now)
		if err != nil {
			return serverError("failed to assign gig", err)
		}
		if !assigned {
			// A competing hire committed between our read and our write
			return errAlreadyAssigned()
		}

		hired, err := tx.MarkHired(txCtx, bid.ID, now)
		if err != nil {
			return serverError("failed to mark bid hired", err)
		}
		if !hired {
			return newError(KindConflict, "Bid is no longer pending")
		}

		rejected, err := tx.RejectPending(txCtx, gig.ID, bid.ID, now)
		if err != nil {
			return serverError("failed to reject competing bids", err)
		}

		gig.Status, gig.UpdatedAt = GigAssigned, now
		bid.Status, bid.UpdatedAt = BidHired, now
		bid.GigTitle = gig.Title
		result = HireResult{Gig: *gig, Bid: *bid, Rejected: rejected}
		return nil
	})
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Kind != KindServer {
			s.logger.Info("Hire refused",
				slog.String("bid_id", bidID),
				slog.String("requester_id", requester.ID),
				slog.String("kind", string(e.Kind)),
			)
			return nil, e
		}
		if errors.Is(txCtx.Err(), context.DeadlineExceeded) {
			s.logger.Error("Hire timed out",
				slog.String("bid_id", bidID),
				slog.Duration("timeout", s.hireTimeout),
			)
			return nil, serverError("hire could not complete in time", err)
		}
		s.logger.Error("Hire transaction failed",
			slog.String("bid_id", bidID),
			slog.Any("error", err),
		)
		if e != nil {
			return nil, e
		}
		return nil, serverError("hire transaction failed", err)
	}

	s.logger.Info("Freelancer hired",
		slog.String("gig_id", result.Gig.ID),
		slog.String("bid_id", result.Bid.ID),
		slog.String("bidder_id", result.Bid.BidderID),
		slog.Int("rejected", len(result.Rejected)),
	)

	// Committed; delivery problems are the bus's to log
	s.notifier.Publish(ctx, hiredEvent(&result.Gig, &result.Bid))
	for i := range result.Rejected {
		s.notifier.Publish(ctx, rejectedEvent(&result.Gig, &result.Rejected[i]))
	}

	return &result, nil
}

func errAlreadyAssigned() *Error {
	return newError(KindConflict, "This gig has already been assigned")
}

func hiredEvent(gig *Gig, bid *Bid) notify.Event {
	return notify.Event{
		Kind:   notify.KindHired,
		Target: bid.BidderID,
		Payload: notify.Payload{
			GigID:     gig.ID,
			GigTitle:  gig.Title,
			BidID:     bid.ID,
			Price:     bid.Price,
			Message:   fmt.Sprintf("You have been hired for %q!", gig.Title),
			Timestamp: bid.UpdatedAt,
		},
	}
}

func rejectedEvent(gig *Gig, bid *Bid) notify.Event {
	return notify.Event{
		Kind:   notify.KindBidRejected,
		Target: bid.BidderID,
		Payload: notify.Payload{
			GigID:     gig.ID,
			GigTitle:  gig.Title,
			BidID:     bid.ID,
			Price:     bid.Price,
			Message:   fmt.Sprintf("Your bid for %q was not selected", gig.Title),
			Timestamp: bid.UpdatedAt,
		},
	}
}
