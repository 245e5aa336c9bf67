package handler

import (
	"errors"
	"net/http"
	"strconv"

	"punchcard/config"
	"punchcard/internal/auth"
	"punchcard/internal/domain"
	"punchcard/internal/middleware"
	"punchcard/internal/models"
	"punchcard/internal/repository"
	"punchcard/internal/service"
	"punchcard/pkg/qr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CardHandler struct {
	cfg        *config.Config
	cardRepo   *repository.CardRepository
	userRepo   *repository.UserRepository
	loyaltySvc *service.LoyaltyService
}

func NewCardHandler(cfg *config.Config, cardRepo *repository.CardRepository, userRepo *repository.UserRepository, loyaltySvc *service.LoyaltyService) *CardHandler {
	return &CardHandler{cfg: cfg, cardRepo: cardRepo, userRepo: userRepo, loyaltySvc: loyaltySvc}
}

func cardID(c *gin.Context) uint {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id)
}

// reissueToken mints a fresh access token after the active card changed, so
// the dashboard does not need a re-login.
func (h *CardHandler) reissueToken(u *models.User) string {
	var activeID uint
	if u.ActiveCardID != nil {
		activeID = *u.ActiveCardID
	}
	token, _ := auth.GenerateAccessToken(&h.cfg.JWT, u.ID, u.Email, u.Role, activeID)
	return token
}

// List returns the merchant's active cards, newest first.
func (h *CardHandler) List(c *gin.Context) {
	cards, err := h.cardRepo.ListActiveByOwner(middleware.GetUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

func (h *CardHandler) Get(c *gin.Context) {
	card, err := h.cardRepo.GetOwnedBy(cardID(c), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": card})
}

type cardRequest struct {
	Name              string `json:"name" binding:"required"`
	StampsRequired    int    `json:"stamps_required" binding:"required"`
	RewardDescription string `json:"reward_description" binding:"required"`
	Logo              string `json:"logo"`
	Color             string `json:"color"`
	Category          string `json:"category"`
}

func validateCardRequest(req *cardRequest) string {
	if req.StampsRequired < domain.MinStampsRequired || req.StampsRequired > domain.MaxStampsRequired {
		return "stamps_required must be between 1 and 20"
	}
	if req.RewardDescription == "" {
		return "reward_description must not be empty"
	}
	return ""
}

// Create makes a new loyalty card after the plan gate passes. The first card
// becomes the dashboard card and the response carries a re-issued token.
func (h *CardHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, stamps_required and reward_description are required"})
		return
	}
	if msg := validateCardRequest(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok, err := h.loyaltySvc.CanCreateCard(userID, u.SubscriptionPlan)
	if err != nil {
		serviceError(c, err)
		return
	}
	if !ok {
		serviceError(c, service.ErrUpgradeRequired)
		return
	}

	identity := uuid.NewString()
	card := &models.Card{
		OwnerID:           userID,
		Name:              req.Name,
		Logo:              req.Logo,
		Color:             req.Color,
		Category:          req.Category,
		StampsRequired:    req.StampsRequired,
		RewardDescription: req.RewardDescription,
		QRIdentity:        &identity,
		Active:            true,
	}
	if err := h.cardRepo.Create(card); err != nil {
		serviceError(c, err)
		return
	}

	resp := gin.H{"card": card, "qr_identity": identity}
	if u.ActiveCardID == nil {
		if err := h.userRepo.SetActiveCard(userID, &card.ID); err == nil {
			u.ActiveCardID = &card.ID
			resp["access_token"] = h.reissueToken(u)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Update edits branding, threshold and reward text. Changing the threshold
// only affects future accruals; existing progress keeps counting against the
// new value.
func (h *CardHandler) Update(c *gin.Context) {
	card, err := h.cardRepo.GetOwnedBy(cardID(c), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		serviceError(c, err)
		return
	}
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, stamps_required and reward_description are required"})
		return
	}
	if msg := validateCardRequest(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	card.Name = req.Name
	card.StampsRequired = req.StampsRequired
	card.RewardDescription = req.RewardDescription
	card.Logo = req.Logo
	card.Color = req.Color
	card.Category = req.Category
	if err := h.cardRepo.Update(card); err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": card})
}

// Delete soft-deletes by flipping Active. Progress and reward history stay.
// When the dashboard card was deleted the oldest remaining card takes over.
func (h *CardHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	card, err := h.cardRepo.GetOwnedBy(cardID(c), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		serviceError(c, err)
		return
	}
	if err := h.cardRepo.Deactivate(card.ID); err != nil {
		serviceError(c, err)
		return
	}

	resp := gin.H{"message": "card deleted"}
	u, err := h.userRepo.GetByID(userID)
	if err == nil && u.ActiveCardID != nil && *u.ActiveCardID == card.ID {
		next, _ := h.cardRepo.FirstActiveByOwner(userID)
		var nextID *uint
		if next != nil {
			nextID = &next.ID
		}
		if err := h.userRepo.SetActiveCard(userID, nextID); err == nil {
			u.ActiveCardID = nextID
			resp["access_token"] = h.reissueToken(u)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// SetActive switches the dashboard card and re-issues the token.
func (h *CardHandler) SetActive(c *gin.Context) {
	userID := middleware.GetUserID(c)
	card, err := h.cardRepo.GetOwnedBy(cardID(c), userID)
	if err != nil || !card.Active {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found or not yours"})
		return
	}
	if err := h.userRepo.SetActiveCard(userID, &card.ID); err != nil {
		serviceError(c, err)
		return
	}
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": card, "access_token": h.reissueToken(u)})
}

// RegenerateQR replaces the card's QR identity. Every previously printed QR
// image stops working the moment this returns.
func (h *CardHandler) RegenerateQR(c *gin.Context) {
	identity, err := h.loyaltySvc.RegenerateQR(cardID(c), middleware.GetUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"qr_identity": identity})
}

// DownloadQR renders the current QR identity as a printable PNG.
func (h *CardHandler) DownloadQR(c *gin.Context) {
	card, err := h.cardRepo.GetOwnedBy(cardID(c), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		serviceError(c, err)
		return
	}
	if card.QRIdentity == nil {
		serviceError(c, service.ErrQRNeverIssued)
		return
	}
	png, err := qr.RenderPNG(card.ID, *card.QRIdentity)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="card-qr.png"`)
	c.Data(http.StatusOK, "image/png", png)
}
