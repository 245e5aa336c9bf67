package handler

import (
	"errors"
	"log"
	"net/http"

	"punchcard/internal/service"

	"github.com/gin-gonic/gin"
)

// serviceError maps business outcomes to distinct status codes and stable
// error codes so clients can render a specific message for each case.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_INPUT"})
	case errors.Is(err, service.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_AMOUNT"})
	case errors.Is(err, service.ErrQRNeverIssued):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "QR_NEVER_ISSUED"})
	case errors.Is(err, service.ErrCardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "CARD_NOT_FOUND"})
	case errors.Is(err, service.ErrRewardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "REWARD_NOT_FOUND"})
	case errors.Is(err, service.ErrCardInactive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "CARD_INACTIVE"})
	case errors.Is(err, service.ErrIdentityMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "IDENTITY_MISMATCH"})
	case errors.Is(err, service.ErrAlreadyRedeemed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "ALREADY_REDEEMED"})
	case errors.Is(err, service.ErrUpgradeRequired):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error(), "code": "UPGRADE_REQUIRED"})
	default:
		// Infrastructure failure; the caller retries with backoff.
		log.Printf("[handler] internal error: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable", "code": "UNAVAILABLE"})
	}
}
