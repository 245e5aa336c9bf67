package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"punchcard/config"
	"punchcard/internal/database"
	"punchcard/internal/models"
	"punchcard/internal/repository"
	"punchcard/internal/service"
	"punchcard/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	engine *gin.Engine
	userID uint
}

func setupHandlerTest(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	owner := models.User{Email: "owner@test.local", PasswordHash: "x", Role: "MERCHANT", SubscriptionPlan: "starter"}
	require.NoError(t, db.Create(&owner).Error)

	cfg := &config.Config{JWT: config.JWTConfig{AccessSecret: "s", RefreshSecret: "r", AccessExpiry: time.Minute, RefreshExpiry: time.Hour}}
	cardRepo := repository.NewCardRepository(db)
	userRepo := repository.NewUserRepository(db)
	loyaltySvc := service.NewLoyaltyService(db)
	analyticsSvc := service.NewAnalyticsService(repository.NewAnalyticsRepository(db), time.Minute, time.Minute)
	feed := ws.NewFeedHub()

	scanHandler := NewScanHandler(loyaltySvc, analyticsSvc, cardRepo, feed)
	cardHandler := NewCardHandler(cfg, cardRepo, userRepo, loyaltySvc)

	engine := gin.New()
	// Stand-in for the JWT middleware.
	engine.Use(func(c *gin.Context) {
		c.Set("user_id", owner.ID)
		c.Set("email", owner.Email)
		c.Set("role", owner.Role)
		c.Next()
	})
	engine.POST("/scan/validate", scanHandler.ValidateQR)
	engine.POST("/scan/stamp", scanHandler.ApplyStamp)
	engine.POST("/scan/redeem/:id", scanHandler.RedeemReward)
	engine.POST("/cards", cardHandler.Create)
	engine.GET("/cards/:id", cardHandler.Get)

	return &testEnv{db: db, engine: engine, userID: owner.ID}
}

func (e *testEnv) seedCard(t *testing.T, stampsRequired int) *models.Card {
	t.Helper()
	identity := uuid.NewString()
	card := models.Card{
		OwnerID:           e.userID,
		Name:              "Coffee Card",
		StampsRequired:    stampsRequired,
		RewardDescription: "Free coffee",
		QRIdentity:        &identity,
		Active:            true,
	}
	require.NoError(t, e.db.Create(&card).Error)
	return &card
}

func (e *testEnv) postJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func TestScanValidateEndpoint(t *testing.T) {
	env := setupHandlerTest(t)
	card := env.seedCard(t, 10)

	w := env.postJSON(t, "/scan/validate", gin.H{"card_id": card.ID, "identity": *card.QRIdentity})
	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Card models.CardPublicInfo `json:"card"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Coffee Card", resp.Card.Name)
	assert.Equal(t, 10, resp.Card.StampsRequired)

	w = env.postJSON(t, "/scan/validate", gin.H{"card_id": card.ID, "identity": "stale-token"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "IDENTITY_MISMATCH")

	w = env.postJSON(t, "/scan/validate", gin.H{"card_id": 999, "identity": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "CARD_NOT_FOUND")
}

func TestScanStampEndpoint(t *testing.T) {
	env := setupHandlerTest(t)
	card := env.seedCard(t, 3)

	// Amount defaults to 1.
	w := env.postJSON(t, "/scan/stamp", gin.H{"card_id": card.ID, "customer_id": 7})
	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Progress struct {
			CurrentStamps int `json:"current_stamps"`
		} `json:"progress"`
		RewardsIssued []models.Reward `json:"rewards_issued"`
		Duplicate     bool            `json:"duplicate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Progress.CurrentStamps)
	assert.Empty(t, resp.RewardsIssued)

	amount := 2
	w = env.postJSON(t, "/scan/stamp", gin.H{"card_id": card.ID, "customer_id": 7, "amount": amount})
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Progress.CurrentStamps)
	assert.Len(t, resp.RewardsIssued, 1)

	zero := 0
	w = env.postJSON(t, "/scan/stamp", gin.H{"card_id": card.ID, "customer_id": 7, "amount": zero})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_AMOUNT")
}

func TestScanStampIdempotencyEndpoint(t *testing.T) {
	env := setupHandlerTest(t)
	card := env.seedCard(t, 10)
	key := uuid.NewString()

	w := env.postJSON(t, "/scan/stamp", gin.H{"card_id": card.ID, "customer_id": 7, "idempotency_key": key})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"duplicate":false`)

	w = env.postJSON(t, "/scan/stamp", gin.H{"card_id": card.ID, "customer_id": 7, "idempotency_key": key})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"duplicate":true`)

	var events int64
	require.NoError(t, env.db.Model(&models.StampEvent{}).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestScanRedeemEndpoint(t *testing.T) {
	env := setupHandlerTest(t)
	card := env.seedCard(t, 2)

	w := env.postJSON(t, "/scan/stamp", gin.H{"card_id": card.ID, "customer_id": 7, "amount": 2})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		RewardsIssued []models.Reward `json:"rewards_issued"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.RewardsIssued, 1)
	rewardID := resp.RewardsIssued[0].ID

	w = env.postJSON(t, fmt.Sprintf("/scan/redeem/%d", rewardID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The register refuses the second free coffee.
	w = env.postJSON(t, fmt.Sprintf("/scan/redeem/%d", rewardID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_REDEEMED")

	w = env.postJSON(t, "/scan/redeem/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCardCreatePlanGate(t *testing.T) {
	env := setupHandlerTest(t)

	body := gin.H{"name": "Card A", "stamps_required": 10, "reward_description": "Free item"}
	w := env.postJSON(t, "/cards", body)
	assert.Equal(t, http.StatusOK, w.Code)
	// The first card becomes the dashboard card and re-issues the token.
	assert.Contains(t, w.Body.String(), "access_token")
	assert.Contains(t, w.Body.String(), "qr_identity")

	body["name"] = "Card B"
	w = env.postJSON(t, "/cards", body)
	assert.Equal(t, http.StatusOK, w.Code)

	// Starter caps out at two active cards.
	body["name"] = "Card C"
	w = env.postJSON(t, "/cards", body)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "UPGRADE_REQUIRED")
}

func TestCardCreateValidation(t *testing.T) {
	env := setupHandlerTest(t)

	w := env.postJSON(t, "/cards", gin.H{"name": "Bad", "stamps_required": 21, "reward_description": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.postJSON(t, "/cards", gin.H{"name": "Bad", "stamps_required": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
