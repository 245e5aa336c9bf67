package handler

import (
	"errors"
	"net/http"

	"punchcard/internal/middleware"
	"punchcard/internal/models"
	"punchcard/internal/repository"
	"punchcard/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authSvc  *service.AuthService
	userRepo *repository.UserRepository
	cardRepo *repository.CardRepository
}

func NewAuthHandler(authSvc *service.AuthService, userRepo *repository.UserRepository, cardRepo *repository.CardRepository) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, userRepo: userRepo, cardRepo: cardRepo}
}

func userResponse(u *models.User, activeCard *models.Card) gin.H {
	resp := gin.H{
		"id":                  u.ID,
		"email":               u.Email,
		"name":                u.Name,
		"business_name":       u.BusinessName,
		"subscription_plan":   u.SubscriptionPlan,
		"subscription_status": u.SubscriptionStatus,
		"created_at":          u.CreatedAt,
	}
	if activeCard != nil {
		resp["active_card"] = activeCard
	}
	return resp
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		BusinessName string `json:"business_name" binding:"required"`
		OwnerName    string `json:"owner_name" binding:"required"`
		Email        string `json:"email" binding:"required,email"`
		Password     string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business name, owner name, email and password are required"})
		return
	}
	u, access, refresh, err := h.authSvc.Register(req.Email, req.Password, req.OwnerName, req.BusinessName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
		case errors.Is(err, service.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			serviceError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          userResponse(u, nil),
		"access_token":  access,
		"refresh_token": refresh,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	u, access, refresh, err := h.authSvc.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		serviceError(c, err)
		return
	}
	var activeCard *models.Card
	if u.ActiveCardID != nil {
		activeCard, _ = h.cardRepo.GetOwnedBy(*u.ActiveCardID, u.ID)
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          userResponse(u, activeCard),
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Verify returns the authenticated account, proving the token is still good.
func (h *AuthHandler) Verify(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
		return
	}
	var activeCard *models.Card
	if u.ActiveCardID != nil {
		activeCard, _ = h.cardRepo.GetOwnedBy(*u.ActiveCardID, u.ID)
	}
	c.JSON(http.StatusOK, gin.H{"user": userResponse(u, activeCard)})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current and new password are required"})
		return
	}
	if err := h.authSvc.ChangePassword(middleware.GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "current password is incorrect"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}
	access, refresh, err := h.authSvc.RefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access, "refresh_token": refresh})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	if err := h.authSvc.RequestPasswordReset(req.Email); err != nil {
		serviceError(c, err)
		return
	}
	// Same response whether or not the email exists.
	c.JSON(http.StatusOK, gin.H{"message": "if the email is registered, a reset link has been sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and new password are required"})
		return
	}
	if err := h.authSvc.ResetPassword(req.Token, req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password has been reset"})
}
