package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/labs/fleamarket/internal/services"
	"github.com/labs/fleamarket/internal/utils"
)

type BidHandler struct {
	bidService *services.BidService
}

func NewBidHandler(bidService *services.BidService) *BidHandler {
	return &BidHandler{
		bidService: bidService,
	}
}

// POST /items/:id/bids
func (h *BidHandler) PlaceBid(c *gin.Context) {
	bidderID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.PlaceBidRequest
	if !bindJSON(c, &req) {
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	bid, err := h.bidService.PlaceBid(c.Request.Context(), itemID, bidderID, req.Amount)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, bid)
}

// GET /items/:id/bids
func (h *BidHandler) ListBids(c *gin.Context) {
	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	bids, err := h.bidService.ListBids(c.Request.Context(), itemID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, bids)
}

// GET /items/:id/bids/highest
// Answers with data null when the item has no bids yet.
func (h *BidHandler) HighestBid(c *gin.Context) {
	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	bid, err := h.bidService.HighestBid(c.Request.Context(), itemID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, bid)
}
