package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/labs/fleamarket/internal/services"
	"github.com/labs/fleamarket/internal/utils"
)

const maxImagesPerUpload = 10

type UploadHandler struct {
	storageService *services.StorageService
}

func NewUploadHandler(storageService *services.StorageService) *UploadHandler {
	return &UploadHandler{
		storageService: storageService,
	}
}

// POST /uploads
// Accepts multipart "images" parts and answers with their public URLs, which
// clients then put on a listing.
func (h *UploadHandler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Expected a multipart form", nil)
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, "No images provided", nil)
		return
	}
	if len(files) > maxImagesPerUpload {
		utils.BadRequestResponse(c, "Too many images", gin.H{"max": maxImagesPerUpload})
		return
	}

	results := make([]*services.UploadResult, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			utils.BadRequestResponse(c, "Unreadable file "+header.Filename, nil)
			return
		}

		result, err := h.storageService.UploadImage(c.Request.Context(), file)
		file.Close()
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		results = append(results, result)
	}

	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.URL)
	}

	utils.CreatedResponse(c, gin.H{
		"urls":  urls,
		"files": results,
	})
}
