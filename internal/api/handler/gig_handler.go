package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/gigflow-be/internal/api/dto"
	"github.com/cuongbtq/gigflow-be/internal/market"
)

// CreateGig handles POST /api/v1/gigs
func (h *MarketHandler) CreateGig(c *gin.Context) {
	caller, _ := CallerFrom(c)

	var req dto.CreateGigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid request body", slog.String("error", err.Error()))
		respondValidation(c, "Invalid request body")
		return
	}

	gig, err := h.service.CreateGig(c.Request.Context(), caller, market.NewGig{
		Title:       req.Title,
		Description: req.Description,
		Budget:      *req.Budget,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewGigDTO(*gig))
}

// GetGig handles GET /api/v1/gigs/:gig_id
func (h *MarketHandler) GetGig(c *gin.Context) {
	gig, err := h.service.GetGig(c.Request.Context(), c.Param("gig_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGigDTO(*gig))
}

// ListGigBids handles GET /api/v1/gigs/:gig_id/bids
// Only the gig owner may see its bids
func (h *MarketHandler) ListGigBids(c *gin.Context) {
	caller, _ := CallerFrom(c)

	bids, err := h.service.ListBidsForGig(c.Request.Context(), caller, c.Param("gig_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListBidsResponse{
		Count: len(bids),
		Bids:  dto.NewBidDTOs(bids),
	})
}

// ListMyGigs handles GET /api/v1/me/gigs
func (h *MarketHandler) ListMyGigs(c *gin.Context) {
	caller, _ := CallerFrom(c)

	gigs, err := h.service.ListMyGigs(c.Request.Context(), caller)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListGigsResponse{
		Count: len(gigs),
		Gigs:  dto.NewGigDTOs(gigs),
	})
}
