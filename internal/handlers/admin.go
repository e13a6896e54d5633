package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/labs/fleamarket/internal/models"
	"github.com/labs/fleamarket/internal/services"
	"github.com/labs/fleamarket/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	filter := services.UserFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if status := c.Query("status"); status != "" {
		uStatus := models.UserStatus(status)
		filter.Status = &uStatus
	}
	if role := c.Query("role"); role != "" {
		uRole := models.UserRole(role)
		filter.Role = &uRole
	}

	users, total, err := h.adminService.GetUsers(c.Request.Context(), filter)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, filter.PaginationParams))
}

// PUT /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.adminService.UpdateUserStatus(c.Request.Context(), adminID, userID, models.UserStatus(req.Status))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, user)
}

// GET /admin/items
func (h *AdminHandler) GetItems(c *gin.Context) {
	filter := services.AdminItemFilter{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if status := c.Query("status"); status != "" {
		iStatus := models.ItemStatus(status)
		filter.Status = &iStatus
	}

	items, total, err := h.adminService.GetItems(c.Request.Context(), filter)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(items, total, filter.PaginationParams))
}

// PUT /admin/items/:id/status
func (h *AdminHandler) UpdateItemStatus(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.adminService.UpdateItemStatus(c.Request.Context(), adminID, itemID, models.ItemStatus(req.Status))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// DELETE /admin/items/:id
func (h *AdminHandler) RemoveItem(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.RemoveItem(c.Request.Context(), adminID, itemID); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, "Item removed")
}
