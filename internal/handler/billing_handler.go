package handler

import (
	"errors"
	"io"
	"net/http"

	"punchcard/internal/middleware"
	"punchcard/internal/service"

	"github.com/gin-gonic/gin"
)

// BillingHandler serves the subscription endpoints.
type BillingHandler struct {
	billingSvc *service.BillingService
}

func NewBillingHandler(billingSvc *service.BillingService) *BillingHandler {
	return &BillingHandler{billingSvc: billingSvc}
}

// CreateCheckout opens a Razorpay order for a plan upgrade.
func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	var req struct {
		Plan string `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan is required"})
		return
	}
	order, err := h.billingSvc.CreateCheckout(middleware.GetUserID(c), req.Plan)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPlan) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// VerifyPayment confirms a completed checkout and activates the plan.
func (h *BillingHandler) VerifyPayment(c *gin.Context) {
	var req struct {
		OrderID   string `json:"razorpay_order_id" binding:"required"`
		PaymentID string `json:"razorpay_payment_id" binding:"required"`
		Signature string `json:"razorpay_signature" binding:"required"`
		Plan      string `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order, payment, signature and plan are required"})
		return
	}
	userID := middleware.GetUserID(c)
	err := h.billingSvc.VerifyPayment(userID, req.OrderID, req.PaymentID, req.Signature, req.Plan)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlan):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrPaymentSignature):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			serviceError(c, err)
		}
		return
	}
	// A returning subscriber may have cards switched off from a lapsed
	// grace period.
	if err := h.billingSvc.ReactivateCards(userID); err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "subscription activated", "plan": req.Plan})
}

// Webhook receives provider notifications. Unauthenticated; trust comes from
// the body signature alone.
func (h *BillingHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	signature := c.GetHeader("X-Razorpay-Signature")
	if err := h.billingSvc.HandleWebhook(body, signature); err != nil {
		if errors.Is(err, service.ErrPaymentSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Cancel stops the subscription and starts the grace window.
func (h *BillingHandler) Cancel(c *gin.Context) {
	end, err := h.billingSvc.Cancel(middleware.GetUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "subscription canceled",
		"active_until": end,
	})
}

// GracePeriod reports where a canceled subscription stands.
func (h *BillingHandler) GracePeriod(c *gin.Context) {
	status, err := h.billingSvc.CheckGracePeriod(middleware.GetUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// CardCount reports the plan-limit standing shown on the card page.
func (h *BillingHandler) CardCount(c *gin.Context) {
	info, err := h.billingSvc.CardCount(middleware.GetUserID(c))
	if err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
