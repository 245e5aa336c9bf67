package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"punchcard/config"
	"punchcard/internal/domain"
	"punchcard/internal/models"
	"punchcard/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBillingService(t *testing.T) (*BillingService, *gorm.DB, *models.User) {
	t.Helper()
	db := setupTestDB(t)
	cfg := &config.RazorpayConfig{Key: "rzp_test_key", Secret: "rzp_test_secret"}
	svc := NewBillingService(cfg, repository.NewUserRepository(db), repository.NewCardRepository(db))

	u := &models.User{Email: uuid.NewString() + "@test.local", PasswordHash: "x", SubscriptionPlan: domain.PlanNone, SubscriptionStatus: domain.SubscriptionNone}
	require.NoError(t, db.Create(u).Error)
	return svc, db, u
}

func signPayment(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPayment(t *testing.T) {
	svc, db, u := newBillingService(t)

	sig := signPayment("rzp_test_secret", "order_1", "pay_1")
	require.NoError(t, svc.VerifyPayment(u.ID, "order_1", "pay_1", sig, domain.PlanStarter))

	var fresh models.User
	require.NoError(t, db.First(&fresh, u.ID).Error)
	assert.Equal(t, domain.PlanStarter, fresh.SubscriptionPlan)
	assert.Equal(t, domain.SubscriptionActive, fresh.SubscriptionStatus)
	assert.Equal(t, "pay_1", fresh.SubscriptionID)
	require.NotNil(t, fresh.SubscriptionStartAt)
	assert.Nil(t, fresh.SubscriptionEndAt)
}

func TestVerifyPaymentRejectsBadSignature(t *testing.T) {
	svc, db, u := newBillingService(t)

	err := svc.VerifyPayment(u.ID, "order_1", "pay_1", "forged", domain.PlanStarter)
	assert.ErrorIs(t, err, ErrPaymentSignature)

	// A valid signature over a different order is just as forged.
	sig := signPayment("rzp_test_secret", "order_other", "pay_1")
	err = svc.VerifyPayment(u.ID, "order_1", "pay_1", sig, domain.PlanStarter)
	assert.ErrorIs(t, err, ErrPaymentSignature)

	err = svc.VerifyPayment(u.ID, "order_1", "pay_1", signPayment("rzp_test_secret", "order_1", "pay_1"), "platinum")
	assert.ErrorIs(t, err, ErrInvalidPlan)

	var fresh models.User
	require.NoError(t, db.First(&fresh, u.ID).Error)
	assert.Equal(t, domain.PlanNone, fresh.SubscriptionPlan)
}

func TestCancelStartsGraceWindow(t *testing.T) {
	svc, db, u := newBillingService(t)
	sig := signPayment("rzp_test_secret", "order_1", "pay_1")
	require.NoError(t, svc.VerifyPayment(u.ID, "order_1", "pay_1", sig, domain.PlanPro))

	end, err := svc.Cancel(u.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), end, time.Minute)

	var fresh models.User
	require.NoError(t, db.First(&fresh, u.ID).Error)
	assert.Equal(t, domain.SubscriptionCanceled, fresh.SubscriptionStatus)

	status, err := svc.CheckGracePeriod(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "grace_period", status.Status)
	assert.Equal(t, 14, status.DaysRemaining)
}

func TestGracePeriodExpiryDeactivatesCards(t *testing.T) {
	svc, db, u := newBillingService(t)
	cardRepo := repository.NewCardRepository(db)
	for i := 0; i < 2; i++ {
		require.NoError(t, cardRepo.Create(&models.Card{OwnerID: u.ID, Name: "Card", StampsRequired: 10, RewardDescription: "R", Active: true}))
	}

	past := time.Now().AddDate(0, 0, -1)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"subscription_status": domain.SubscriptionCanceled,
		"subscription_end_at": &past,
	}).Error)

	status, err := svc.CheckGracePeriod(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "expired", status.Status)

	count, err := cardRepo.CountActiveByOwner(u.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Resubscribing switches them back on.
	require.NoError(t, svc.ReactivateCards(u.ID))
	count, err = cardRepo.CountActiveByOwner(u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestHandleWebhook(t *testing.T) {
	svc, db, u := newBillingService(t)
	svc.cfg.WebhookSecret = "whsec_test"

	body := []byte(fmt.Sprintf(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_9","notes":{"user_id":"%d","plan":"pro"}}}}}`, u.ID))
	mac := hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	assert.ErrorIs(t, svc.HandleWebhook(body, "forged"), ErrPaymentSignature)

	require.NoError(t, svc.HandleWebhook(body, sig))
	var fresh models.User
	require.NoError(t, db.First(&fresh, u.ID).Error)
	assert.Equal(t, domain.PlanPro, fresh.SubscriptionPlan)
	assert.Equal(t, domain.SubscriptionActive, fresh.SubscriptionStatus)
	assert.Equal(t, "pay_9", fresh.SubscriptionID)

	// Other event types are acknowledged without effect.
	other := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_x","notes":{"user_id":"1","plan":"starter"}}}}}`)
	mac = hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write(other)
	require.NoError(t, svc.HandleWebhook(other, hex.EncodeToString(mac.Sum(nil))))
	require.NoError(t, db.First(&fresh, u.ID).Error)
	assert.Equal(t, domain.PlanPro, fresh.SubscriptionPlan)
}

func TestCardCountInfo(t *testing.T) {
	svc, db, u := newBillingService(t)

	info, err := svc.CardCount(u.ID)
	require.NoError(t, err)
	assert.False(t, info.CanCreateMore)
	assert.Equal(t, domain.PlanNone, info.Plan)

	sig := signPayment("rzp_test_secret", "order_1", "pay_1")
	require.NoError(t, svc.VerifyPayment(u.ID, "order_1", "pay_1", sig, domain.PlanStarter))

	cardRepo := repository.NewCardRepository(db)
	require.NoError(t, cardRepo.Create(&models.Card{OwnerID: u.ID, Name: "Card", StampsRequired: 10, RewardDescription: "R", Active: true}))

	info, err = svc.CardCount(u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, info.CardCount)
	require.NotNil(t, info.MaxCards)
	assert.Equal(t, 2, *info.MaxCards)
	assert.True(t, info.CanCreateMore)
	assert.False(t, info.NeedsUpgrade)

	require.NoError(t, cardRepo.Create(&models.Card{OwnerID: u.ID, Name: "Card 2", StampsRequired: 10, RewardDescription: "R", Active: true}))
	info, err = svc.CardCount(u.ID)
	require.NoError(t, err)
	assert.False(t, info.CanCreateMore)
	assert.True(t, info.NeedsUpgrade)
}
