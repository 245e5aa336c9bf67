package handler

import (
	"net/http"
	"strconv"

	"punchcard/internal/middleware"
	"punchcard/internal/repository"
	"punchcard/internal/service"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsSvc *service.AnalyticsService
	cardRepo     *repository.CardRepository
}

func NewAnalyticsHandler(analyticsSvc *service.AnalyticsService, cardRepo *repository.CardRepository) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc, cardRepo: cardRepo}
}

// Dashboard returns the headline counters for the merchant account.
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	counts, err := h.analyticsSvc.Dashboard(middleware.GetUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// ownedCard resolves the :id card and checks it belongs to the caller.
func (h *AnalyticsHandler) ownedCard(c *gin.Context) (uint, bool) {
	card, err := h.cardRepo.GetOwnedBy(cardID(c), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return 0, false
	}
	return card.ID, true
}

func days(c *gin.Context) int {
	d, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || d < 1 || d > 365 {
		return 30
	}
	return d
}

// StampActivity returns stamps granted per day for chart rendering.
func (h *AnalyticsHandler) StampActivity(c *gin.Context) {
	id, ok := h.ownedCard(c)
	if !ok {
		return
	}
	rows, err := h.analyticsSvc.StampActivity(id, days(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// NewCustomers returns first-time joins per day.
func (h *AnalyticsHandler) NewCustomers(c *gin.Context) {
	id, ok := h.ownedCard(c)
	if !ok {
		return
	}
	rows, err := h.analyticsSvc.NewCustomers(id, days(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// TopCustomers ranks customers by rewards earned.
func (h *AnalyticsHandler) TopCustomers(c *gin.Context) {
	id, ok := h.ownedCard(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}
	rows, aerr := h.analyticsSvc.TopCustomers(id, limit)
	if aerr != nil {
		serviceError(c, aerr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}
