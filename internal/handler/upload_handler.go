package handler

import (
	"net/http"
	"strconv"
	"strings"

	"punchcard/internal/middleware"
	"punchcard/internal/repository"
	"punchcard/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxLogoBytes caps logo uploads at 5 MB.
const maxLogoBytes = 5 << 20

type UploadHandler struct {
	cloud    cloudinary.Client
	cardRepo *repository.CardRepository
}

func NewUploadHandler(cloud cloudinary.Client, cardRepo *repository.CardRepository) *UploadHandler {
	return &UploadHandler{cloud: cloud, cardRepo: cardRepo}
}

// UploadLogo stores a branding image for a card and saves its delivery URL.
func (h *UploadHandler) UploadLogo(c *gin.Context) {
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads are not configured"})
		return
	}
	userID := middleware.GetUserID(c)
	card, err := h.cardRepo.GetOwnedBy(cardID(c), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if file.Size > maxLogoBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	folder := "punchcard/logos/" + strconv.FormatUint(uint64(userID), 10)
	publicID := "logo_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	url, err := h.cloud.UploadLogo(c.Request.Context(), f, folder, publicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	card.Logo = url
	if err := h.cardRepo.Update(card); err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logo": url})
}
