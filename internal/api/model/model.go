package model

import (
	"fmt"
	"time"

	"github.com/cuongbtq/gigflow-be/internal/market"
)

// Gig is a row of the gigs table
type Gig struct {
	ID          string    `db:"id"`
	OwnerID     string    `db:"owner_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Budget      int64     `db:"budget"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// ToDomain parses the row into a market.Gig
func (g Gig) ToDomain() (market.Gig, error) {
	status, err := market.ParseGigStatus(g.Status)
	if err != nil {
		return market.Gig{}, fmt.Errorf("gig %s: %w", g.ID, err)
	}
	return market.Gig{
		ID:          g.ID,
		OwnerID:     g.OwnerID,
		Title:       g.Title,
		Description: g.Description,
		Budget:      g.Budget,
		Status:      status,
		CreatedAt:   g.CreatedAt.UTC(),
		UpdatedAt:   g.UpdatedAt.UTC(),
	}, nil
}

// Bid is a row of the bids table joined with its gig's title
type Bid struct {
	ID         string    `db:"id"`
	GigID      string    `db:"gig_id"`
	GigTitle   string    `db:"gig_title"`
	BidderID   string    `db:"bidder_id"`
	BidderName string    `db:"bidder_name"`
	Message    string    `db:"message"`
	Price      int64     `db:"price"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// ToDomain parses the row into a market.Bid
func (b Bid) ToDomain() (market.Bid, error) {
	status, err := market.ParseBidStatus(b.Status)
	if err != nil {
		return market.Bid{}, fmt.Errorf("bid %s: %w", b.ID, err)
	}
	return market.Bid{
		ID:         b.ID,
		GigID:      b.GigID,
		GigTitle:   b.GigTitle,
		BidderID:   b.BidderID,
		BidderName: b.BidderName,
		Message:    b.Message,
		Price:      b.Price,
		Status:     status,
		CreatedAt:  b.CreatedAt.UTC(),
		UpdatedAt:  b.UpdatedAt.UTC(),
	}, nil
}

// BidsToDomain converts a slice of rows
func BidsToDomain(rows []Bid) ([]market.Bid, error) {
	bids := make([]market.Bid, 0, len(rows))
	for _, row := range rows {
		bid, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	return bids, nil
}

// GigsToDomain converts a slice of rows
func GigsToDomain(rows []Gig) ([]market.Gig, error) {
	gigs := make([]market.Gig, 0, len(rows))
	for _, row := range rows {
		gig, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		gigs = append(gigs, gig)
	}
	return gigs, nil
}
