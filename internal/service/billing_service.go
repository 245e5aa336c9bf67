package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"punchcard/config"
	"punchcard/internal/domain"
	"punchcard/internal/repository"

	razorpay "github.com/razorpay/razorpay-go"
)

var (
	ErrInvalidPlan       = errors.New("invalid plan selected")
	ErrPaymentSignature  = errors.New("payment verification failed")
	ErrBillingRepository = errors.New("billing account not found")
)

// Monthly subscription prices in the smallest currency unit.
var planAmounts = map[string]int{
	domain.PlanStarter: 49900,
	domain.PlanPro:     99900,
}

// graceDays is how long a canceled merchant keeps active cards before they
// are switched off.
const graceDays = 14

// BillingService manages subscription plans. It talks to Razorpay for
// checkout and signature verification; the plan tier it persists is what the
// card-creation gate consults.
type BillingService struct {
	cfg      *config.RazorpayConfig
	userRepo *repository.UserRepository
	cardRepo *repository.CardRepository
}

func NewBillingService(cfg *config.RazorpayConfig, userRepo *repository.UserRepository, cardRepo *repository.CardRepository) *BillingService {
	return &BillingService{cfg: cfg, userRepo: userRepo, cardRepo: cardRepo}
}

type CheckoutOrder struct {
	OrderID  string `json:"order_id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
	Plan     string `json:"plan"`
}

// CreateCheckout opens a payment order for a plan upgrade.
func (s *BillingService) CreateCheckout(userID uint, plan string) (*CheckoutOrder, error) {
	amount, ok := planAmounts[plan]
	if !ok {
		return nil, ErrInvalidPlan
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, ErrBillingRepository
	}
	client := razorpay.NewClient(s.cfg.Key, s.cfg.Secret)
	order, err := client.Order.Create(map[string]interface{}{
		"amount":          amount,
		"currency":        "INR",
		"receipt":         fmt.Sprintf("sub_%s_%d_%s", plan, u.ID, time.Now().Format("20060102150405")),
		"payment_capture": 1,
		"notes": map[string]interface{}{
			"user_id": fmt.Sprintf("%d", u.ID),
			"plan":    plan,
		},
	}, nil)
	if err != nil {
		return nil, err
	}
	return &CheckoutOrder{
		OrderID:  fmt.Sprintf("%v", order["id"]),
		Amount:   amount,
		Currency: "INR",
		Key:      s.cfg.Key,
		Plan:     plan,
	}, nil
}

// VerifyPayment checks the provider signature over order|payment and, when
// genuine, activates the subscription.
func (s *BillingService) VerifyPayment(userID uint, orderID, paymentID, signature, plan string) error {
	if _, ok := planAmounts[plan]; !ok {
		return ErrInvalidPlan
	}
	mac := hmac.New(sha256.New, []byte(s.cfg.Secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrPaymentSignature
	}
	now := time.Now()
	return s.userRepo.UpdateSubscription(userID, map[string]interface{}{
		"subscription_plan":     plan,
		"subscription_status":   domain.SubscriptionActive,
		"subscription_id":       paymentID,
		"subscription_start_at": &now,
		"subscription_end_at":   nil,
	})
}

// Cancel marks the subscription canceled and starts the grace window. Cards
// stay active until the window lapses.
func (s *BillingService) Cancel(userID uint) (time.Time, error) {
	end := time.Now().AddDate(0, 0, graceDays)
	err := s.userRepo.UpdateSubscription(userID, map[string]interface{}{
		"subscription_status": domain.SubscriptionCanceled,
		"subscription_end_at": &end,
	})
	return end, err
}

type GraceStatus struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	DaysRemaining int    `json:"days_remaining"`
}

// CheckGracePeriod reports where a canceled subscription stands and switches
// every card off once the window has lapsed.
func (s *BillingService) CheckGracePeriod(userID uint) (*GraceStatus, error) {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, ErrBillingRepository
	}
	if u.SubscriptionStatus != domain.SubscriptionCanceled || u.SubscriptionEndAt == nil {
		return &GraceStatus{Status: "active", Message: "Subscription is active"}, nil
	}
	now := time.Now()
	if now.After(*u.SubscriptionEndAt) {
		if err := s.cardRepo.SetActiveAllByOwner(userID, false); err != nil {
			return nil, err
		}
		return &GraceStatus{
			Status:  "expired",
			Message: "Grace period expired. Cards have been deactivated.",
		}, nil
	}
	days := int(math.Ceil(u.SubscriptionEndAt.Sub(now).Hours() / 24))
	return &GraceStatus{
		Status:        "grace_period",
		Message:       fmt.Sprintf("Your cards will be deactivated in %d days. Subscribe to keep them active.", days),
		DaysRemaining: days,
	}, nil
}

// ReactivateCards flips every card of a merchant back on after resubscribing.
func (s *BillingService) ReactivateCards(userID uint) error {
	return s.cardRepo.SetActiveAllByOwner(userID, true)
}

// webhookEvent is the slice of the provider payload the portal cares about.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Notes   struct {
					UserID string `json:"user_id"`
					Plan   string `json:"plan"`
				} `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook processes a provider notification: the signature is an
// HMAC-SHA256 of the raw body under the webhook secret. Only captured
// payments move the subscription; everything else is acknowledged and
// dropped.
func (s *BillingService) HandleWebhook(body []byte, signature string) error {
	mac := hmac.New(sha256.New, []byte(s.cfg.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrPaymentSignature
	}
	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return err
	}
	if ev.Event != "payment.captured" {
		return nil
	}
	entity := ev.Payload.Payment.Entity
	var userID uint
	fmt.Sscanf(entity.Notes.UserID, "%d", &userID)
	plan := entity.Notes.Plan
	if userID == 0 {
		return nil
	}
	if _, ok := planAmounts[plan]; !ok {
		return ErrInvalidPlan
	}
	now := time.Now()
	if err := s.userRepo.UpdateSubscription(userID, map[string]interface{}{
		"subscription_plan":     plan,
		"subscription_status":   domain.SubscriptionActive,
		"subscription_id":       entity.ID,
		"subscription_start_at": &now,
		"subscription_end_at":   nil,
	}); err != nil {
		return err
	}
	return s.cardRepo.SetActiveAllByOwner(userID, true)
}

type CardCountInfo struct {
	CardCount     int64  `json:"card_count"`
	MaxCards      *int   `json:"max_cards"` // nil means unlimited
	CanCreateMore bool   `json:"can_create_more"`
	Plan          string `json:"plan"`
	NeedsUpgrade  bool   `json:"needs_upgrade"`
}

// CardCount reports the plan-limit standing shown on the card-management page.
func (s *BillingService) CardCount(userID uint) (*CardCountInfo, error) {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, ErrBillingRepository
	}
	count, err := s.cardRepo.CountActiveByOwner(userID)
	if err != nil {
		return nil, err
	}
	info := &CardCountInfo{CardCount: count, Plan: u.SubscriptionPlan}
	max, unlimited := MaxActiveCards(u.SubscriptionPlan)
	if unlimited {
		info.CanCreateMore = true
		return info, nil
	}
	info.MaxCards = &max
	info.CanCreateMore = count < int64(max)
	info.NeedsUpgrade = !info.CanCreateMore
	return info, nil
}
