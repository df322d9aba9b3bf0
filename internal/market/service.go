package market

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cuongbtq/gigflow-be/internal/notify"
)

const (
	defaultHireTimeout = 5 * time.Second
	defaultPageSize    = 20
	maxPageSize        = 100
)

// Notifier receives events after a transition has committed. It must not
// report delivery failures back to the caller.
type Notifier interface {
	Publish(ctx context.Context, event notify.Event)
}

// Config holds the dependencies of a Service.
type Config struct {
	Store       Store
	Notifier    Notifier
	Logger      *slog.Logger
	HireTimeout time.Duration
	// PageSize and MaxPageSize bound ListMyBids.
	PageSize    int
	MaxPageSize int
	// Clock defaults to time.Now in UTC, truncated to microseconds.
	Clock func() time.Time
	// NewID defaults to random UUIDs.
	NewID func() string
}

// Service is the single enforcement point for gig/bid invariants.
type Service struct {
	store       Store
	notifier    Notifier
	logger      *slog.Logger
	hireTimeout time.Duration
	pageSize    int
	maxPageSize int
	now         func() time.Time
	newID       func() string
}

// NewService creates a Service.
func NewService(cfg Config) *Service {
	s := &Service{
		store:       cfg.Store,
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		hireTimeout: cfg.HireTimeout,
		pageSize:    cfg.PageSize,
		maxPageSize: cfg.MaxPageSize,
		now:         cfg.Clock,
		newID:       cfg.NewID,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.hireTimeout <= 0 {
		s.hireTimeout = defaultHireTimeout
	}
	if s.maxPageSize <= 0 {
		s.maxPageSize = maxPageSize
	}
	if s.pageSize <= 0 || s.pageSize > s.maxPageSize {
		s.pageSize = min(defaultPageSize, s.maxPageSize)
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	if s.notifier == nil {
		s.notifier = discardNotifier{}
	}
	return s
}

type discardNotifier struct{}

func (discardNotifier) Publish(context.Context, notify.Event) {}

// CreateGig posts a new open gig owned by the caller.
func (s *Service) CreateGig(ctx context.Context, owner Caller, in NewGig) (*Gig, error) {
	if owner.ID == "" {
		return nil, newError(KindValidation, "owner identity is required")
	}

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	switch {
	case title == "":
		return nil, newError(KindValidation, "title is required")
	case description == "":
		return nil, newError(KindValidation, "description is required")
	case in.Budget < 0:
		return nil, newError(KindValidation, "budget must not be negative")
	}

	now := s.now()
	gig := &Gig{
		ID:          s.newID(),
		OwnerID:     owner.ID,
		Title:       title,
		Description: description,
		Budget:      in.Budget,
		Status:      GigOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateGig(ctx, gig); err != nil {
		return nil, serverError("failed to create gig", err)
	}

	s.logger.Info("Gig created",
		slog.String("gig_id", gig.ID),
		slog.String("owner_id", gig.OwnerID),
		slog.Int64("budget", gig.Budget),
	)
	return gig, nil
}

// GetGig returns one gig.
func (s *Service) GetGig(ctx context.Context, gigID string) (*Gig, error) {
	if err := validateID(gigID, "gig"); err != nil {
		return nil, err
	}

	gig, err := s.store.GetGig(ctx, gigID)
	if err != nil {
		return nil, lookupError(err, "Gig not found", "failed to load gig")
	}
	return gig, nil
}

// ListMyGigs returns the gigs posted by owner, newest first.
func (s *Service) ListMyGigs(ctx context.Context, owner Caller) ([]Gig, error) {
	gigs, err := s.store.ListGigsByOwner(ctx, owner.ID)
	if err != nil {
		return nil, serverError("failed to list gigs", err)
	}
	return gigs, nil
}

// ListBidsForGig returns every bid of a gig, newest first. Only the owner may
// see them.
func (s *Service) ListBidsForGig(ctx context.Context, requester Caller, gigID string) ([]Bid, error) {
	gig, err := s.GetGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if gig.OwnerID != requester.ID {
		return nil, newError(KindForbidden, "Not authorized to view these bids")
	}

	bids, err := s.store.ListBidsForGig(ctx, gig.ID)
	if err != nil {
		return nil, serverError("failed to list bids", err)
	}
	return bids, nil
}

// BidPage is one page of a bidder's submissions.
type BidPage struct {
	Bids []Bid
	Next *BidCursor
}

// ListMyBids returns the caller's submitted bids, newest first.
func (s *Service) ListMyBids(ctx context.Context, bidder Caller, pageSize int, cursor *BidCursor) (*BidPage, error) {
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	bids, err := s.store.ListBidsByBidder(ctx, BidFilter{
		BidderID: bidder.ID,
		PageSize: pageSize,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, serverError("failed to list bids", err)
	}

	page := &BidPage{Bids: bids}
	if len(bids) > pageSize {
		page.Bids = bids[:pageSize]
		last := page.Bids[pageSize-1]
		page.Next = &BidCursor{CreatedAt: last.CreatedAt, BidID: last.ID}
	}
	return page, nil
}

func validateID(id, entity string) error {
	if _, err := uuid.Parse(id); err != nil {
		return newError(KindValidation, entity+" id must be a valid UUID")
	}
	return nil
}

// lookupError maps a store read failure to NotFound or ServerError.
func lookupError(err error, notFound, failed string) error {
	if errors.Is(err, ErrRecordNotFound) {
		return newError(KindNotFound, notFound)
	}
	return serverError(failed, err)
}
