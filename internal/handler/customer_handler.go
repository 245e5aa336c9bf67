package handler

import (
	"net/http"
	"strconv"

	"punchcard/internal/middleware"
	"punchcard/internal/repository"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	cardRepo     *repository.CardRepository
	progressRepo *repository.ProgressRepository
	rewardRepo   *repository.RewardRepository
}

func NewCustomerHandler(cardRepo *repository.CardRepository, progressRepo *repository.ProgressRepository, rewardRepo *repository.RewardRepository) *CustomerHandler {
	return &CustomerHandler{cardRepo: cardRepo, progressRepo: progressRepo, rewardRepo: rewardRepo}
}

// List returns customers with their progress on one of the merchant's cards,
// most recently active first.
func (h *CustomerHandler) List(c *gin.Context) {
	card, err := h.cardRepo.GetOwnedBy(cardID(c), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	rows, err := h.progressRepo.ListByCard(card.ID, limit, offset)
	if err != nil {
		serviceError(c, err)
		return
	}
	total, err := h.progressRepo.CountByCard(card.ID)
	if err != nil {
		serviceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, p := range rows {
		out = append(out, gin.H{
			"customer_id":      p.CustomerID,
			"name":             p.Customer.Name,
			"email":            p.Customer.Email,
			"current_stamps":   p.CurrentStamps,
			"total_rewards":    p.TotalRewardsEarned,
			"joined_at":        p.JoinedAt,
			"last_activity_at": p.LastActivityAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"customers": out, "total": total})
}

// Rewards lists a customer's rewards on one of the merchant's cards.
func (h *CustomerHandler) Rewards(c *gin.Context) {
	card, err := h.cardRepo.GetOwnedBy(cardID(c), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}
	customerID, err := strconv.ParseUint(c.Param("customerId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}
	rewards, err := h.rewardRepo.ListByCardCustomer(card.ID, uint(customerID))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": rewards})
}
