package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/labs/fleamarket/internal/apperrors"
	"github.com/labs/fleamarket/internal/services"
	"github.com/labs/fleamarket/internal/utils"
)

type ItemHandler struct {
	itemService *services.ItemService
	userService *services.UserService
}

func NewItemHandler(itemService *services.ItemService, userService *services.UserService) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
		userService: userService,
	}
}

// GET /items
func (h *ItemHandler) GetItems(c *gin.Context) {
	var filter services.ItemFilter

	if category := c.Query("category"); category != "" {
		categoryID, err := strconv.ParseUint(category, 10, 64)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid category", nil)
			return
		}
		id := uint(categoryID)
		filter.CategoryID = &id
	}

	if sellerIDStr := c.Query("sellerId"); sellerIDStr != "" {
		sellerID, err := uuid.Parse(sellerIDStr)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid sellerId", nil)
			return
		}
		filter.SellerID = &sellerID
	}

	filter.Search = c.Query("search")

	items, err := h.itemService.ListActive(c.Request.Context(), filter)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, items)
}

// GET /items/:id
func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	item, err := h.itemService.Get(c.Request.Context(), itemID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// POST /items
func (h *ItemHandler) CreateItem(c *gin.Context) {
	sellerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreateItemRequest
	if !bindJSON(c, &req) {
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	item, err := h.itemService.Create(c.Request.Context(), sellerID, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, item)
}

// PUT /items/:id
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.itemService.Update(c.Request.Context(), itemID, ownerID, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// DELETE /items/:id
// Admins may remove any listing, sellers only their own.
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	asAdmin := false
	actor, err := h.userService.GetUserByID(c.Request.Context(), actorID)
	switch {
	case err == nil:
		asAdmin = actor.IsAdmin()
	case !errors.Is(err, apperrors.ErrNotFound):
		utils.HandleError(c, err)
		return
	}

	if _, err := h.itemService.Delete(c.Request.Context(), itemID, actorID, asAdmin); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, "Item removed")
}
