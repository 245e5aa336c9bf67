package handler

import (
	"net/http"
	"strconv"

	"punchcard/internal/domain"
	"punchcard/internal/repository"
	"punchcard/internal/service"
	"punchcard/internal/ws"

	"github.com/gin-gonic/gin"
)

// ScanHandler serves the customer-app side of a scan: QR validation, stamp
// accrual and reward redemption. After a successful mutation it invalidates
// the analytics cache and pushes events onto the merchant's live feed.
type ScanHandler struct {
	loyaltySvc   *service.LoyaltyService
	analyticsSvc *service.AnalyticsService
	cardRepo     *repository.CardRepository
	feed         *ws.FeedHub
}

func NewScanHandler(loyaltySvc *service.LoyaltyService, analyticsSvc *service.AnalyticsService, cardRepo *repository.CardRepository, feed *ws.FeedHub) *ScanHandler {
	return &ScanHandler{loyaltySvc: loyaltySvc, analyticsSvc: analyticsSvc, cardRepo: cardRepo, feed: feed}
}

// ValidateQR checks a scanned (card, token) pair and returns the card's
// public display fields when current.
func (h *ScanHandler) ValidateQR(c *gin.Context) {
	var req struct {
		CardID   uint   `json:"card_id" binding:"required"`
		Identity string `json:"identity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card_id and identity are required", "code": "INVALID_INPUT"})
		return
	}
	info, err := h.loyaltySvc.ValidateQR(req.CardID, req.Identity)
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": info})
}

// ApplyStamp grants stamps to a customer on a card. Amount defaults to 1
// when the event source does not specify one. An optional idempotency key
// makes resubmitted scans no-ops.
func (h *ScanHandler) ApplyStamp(c *gin.Context) {
	var req struct {
		CardID         uint   `json:"card_id" binding:"required"`
		CustomerID     uint   `json:"customer_id" binding:"required"`
		Amount         *int   `json:"amount"`
		IdempotencyKey string `json:"idempotency_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card_id and customer_id are required", "code": "INVALID_INPUT"})
		return
	}
	amount := 1
	if req.Amount != nil {
		amount = *req.Amount
	}
	result, err := h.loyaltySvc.ApplyStamp(req.CardID, req.CustomerID, amount, req.IdempotencyKey)
	if err != nil {
		serviceError(c, err)
		return
	}

	if !result.Duplicate {
		if card, cerr := h.cardRepo.GetByID(req.CardID); cerr == nil {
			h.analyticsSvc.Invalidate(card.OwnerID, card.ID)
			h.feed.Publish(card.OwnerID, domain.FeedEventStamp, card.ID, req.CustomerID, amount, 0)
			for _, rw := range result.RewardsIssued {
				h.feed.Publish(card.OwnerID, domain.FeedEventReward, card.ID, req.CustomerID, 0, rw.ID)
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"progress":       result.Progress,
		"rewards_issued": result.RewardsIssued,
		"duplicate":      result.Duplicate,
	})
}

// RedeemReward marks a reward used at the register.
func (h *ScanHandler) RedeemReward(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reward id", "code": "INVALID_INPUT"})
		return
	}
	reward, rerr := h.loyaltySvc.RedeemReward(uint(id))
	if rerr != nil {
		serviceError(c, rerr)
		return
	}
	if card, cerr := h.cardRepo.GetByID(reward.CardID); cerr == nil {
		h.analyticsSvc.Invalidate(card.OwnerID, card.ID)
		h.feed.Publish(card.OwnerID, domain.FeedEventRedeem, card.ID, reward.CustomerID, 0, reward.ID)
	}
	c.JSON(http.StatusOK, gin.H{"reward": reward})
}
