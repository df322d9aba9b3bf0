package dto

import (
	"time"

	"github.com/cuongbtq/gigflow-be/internal/market"
)

type CreateGigRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Budget      *int64 `json:"budget" binding:"required"`
}

type SubmitBidRequest struct {
	GigID   string `json:"gig_id" binding:"required"`
	Message string `json:"message" binding:"required"`
	Price   *int64 `json:"price" binding:"required"`
}

type ListMyBidsRequest struct {
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type GigDTO struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Budget      int64  `json:"budget"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type BidDTO struct {
	ID         string `json:"id"`
	GigID      string `json:"gig_id"`
	GigTitle   string `json:"gig_title,omitempty"`
	BidderID   string `json:"bidder_id"`
	BidderName string `json:"bidder_name,omitempty"`
	Message    string `json:"message"`
	Price      int64  `json:"price"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type ListGigsResponse struct {
	Count int      `json:"count"`
	Gigs  []GigDTO `json:"gigs"`
}

type ListBidsResponse struct {
	Count int      `json:"count"`
	Bids  []BidDTO `json:"bids"`
}

type ListMyBidsResponse struct {
	Bids       []BidDTO `json:"bids"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type HireResponse struct {
	Message       string `json:"message"`
	Bid           BidDTO `json:"bid"`
	Gig           GigDTO `json:"gig"`
	RejectedCount int    `json:"rejected_count"`
}

type ErrorResponse struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	Service      string `json:"service"`
	Database     string `json:"database"`
	LiveChannels int    `json:"live_channels"`
}

func NewGigDTO(g market.Gig) GigDTO {
	return GigDTO{
		ID:          g.ID,
		OwnerID:     g.OwnerID,
		Title:       g.Title,
		Description: g.Description,
		Budget:      g.Budget,
		Status:      string(g.Status),
		CreatedAt:   g.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   g.UpdatedAt.Format(time.RFC3339),
	}
}

func NewBidDTO(b market.Bid) BidDTO {
	return BidDTO{
		ID:         b.ID,
		GigID:      b.GigID,
		GigTitle:   b.GigTitle,
		BidderID:   b.BidderID,
		BidderName: b.BidderName,
		Message:    b.Message,
		Price:      b.Price,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  b.UpdatedAt.Format(time.RFC3339),
	}
}

func NewGigDTOs(gigs []market.Gig) []GigDTO {
	out := make([]GigDTO, len(gigs))
	for i, g := range gigs {
		out[i] = NewGigDTO(g)
	}
	return out
}

func NewBidDTOs(bids []market.Bid) []BidDTO {
	out := make([]BidDTO, len(bids))
	for i, b := range bids {
		out[i] = NewBidDTO(b)
	}
	return out
}
