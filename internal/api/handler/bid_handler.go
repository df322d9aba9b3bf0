package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/gigflow-be/internal/api/dto"
	"github.com/cuongbtq/gigflow-be/internal/market"
)

// SubmitBid handles POST /api/v1/bids
func (h *MarketHandler) SubmitBid(c *gin.Context) {
	caller, _ := CallerFrom(c)

	var req dto.SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid request body", slog.String("error", err.Error()))
		respondValidation(c, "Invalid request body")
		return
	}

	bid, err := h.service.SubmitBid(c.Request.Context(), caller, market.NewBid{
		GigID:   req.GigID,
		Message: req.Message,
		Price:   *req.Price,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewBidDTO(*bid))
}

// HireBid handles PATCH /api/v1/bids/:bid_id/hire
func (h *MarketHandler) HireBid(c *gin.Context) {
	caller, _ := CallerFrom(c)

	result, err := h.service.Hire(c.Request.Context(), caller, c.Param("bid_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.HireResponse{
		Message:       "Freelancer hired successfully",
		Bid:           dto.NewBidDTO(result.Bid),
		Gig:           dto.NewGigDTO(result.Gig),
		RejectedCount: len(result.Rejected),
	})
}

// ListMyBids handles GET /api/v1/me/bids
// Cursor paginated, newest first
func (h *MarketHandler) ListMyBids(c *gin.Context) {
	caller, _ := CallerFrom(c)

	var req dto.ListMyBidsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondValidation(c, "Invalid query parameters")
		return
	}

	cursor, err := DecodeBidCursor(req.Cursor)
	if err != nil {
		h.logger.Debug("Invalid cursor", slog.String("error", err.Error()))
		respondValidation(c, "Invalid cursor")
		return
	}

	page, err := h.service.ListMyBids(c.Request.Context(), caller, req.PageSize, cursor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListMyBidsResponse{
		Bids:       dto.NewBidDTOs(page.Bids),
		NextCursor: EncodeBidCursor(page.Next),
	})
}
