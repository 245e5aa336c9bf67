package service

import (
	"errors"
	"time"

	"punchcard/internal/models"
	"punchcard/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// accrualRetries bounds the optimistic-concurrency retry loop. Each conflict
// means another writer committed, so the loop always makes global progress.
const accrualRetries = 5

// LoyaltyService is the accrual and reward engine. It owns the whole
// lifecycle of a scan: QR identity check, progress mutation, reward
// issuance, history append. It holds the raw DB handle because accrual must
// run as one transaction with a compare-and-swap on the progress row.
type LoyaltyService struct {
	db *gorm.DB
}

func NewLoyaltyService(db *gorm.DB) *LoyaltyService {
	return &LoyaltyService{db: db}
}

// StampResult is what one accepted scan produced.
type StampResult struct {
	Progress      *models.CustomerProgress `json:"progress"`
	RewardsIssued []models.Reward          `json:"rewards_issued"`
	// Duplicate is set when an idempotency key was replayed and the stored
	// outcome was returned without touching state.
	Duplicate bool `json:"duplicate,omitempty"`
}

// ValidateQR confirms that a scanned (card, token) pair presents the card's
// current QR identity. Pure read; a mismatch means the QR image is stale
// (regenerated since it was printed) or forged.
func (s *LoyaltyService) ValidateQR(cardID uint, presented string) (*models.CardPublicInfo, error) {
	if cardID == 0 || presented == "" {
		return nil, ErrInvalidInput
	}
	card, err := repository.NewCardRepository(s.db).GetByID(cardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	if !card.Active {
		return nil, ErrCardNotFound
	}
	if card.QRIdentity == nil {
		return nil, ErrQRNeverIssued
	}
	// Exact, case-sensitive equality. No fuzzy matching.
	if *card.QRIdentity != presented {
		return nil, ErrIdentityMismatch
	}
	info := card.PublicInfo()
	return &info, nil
}

// RegenerateQR issues a fresh QR identity for a merchant's card, atomically
// replacing the old one. Every previously issued QR image stops validating
// immediately; concurrent regenerations resolve last-writer-wins.
func (s *LoyaltyService) RegenerateQR(cardID, ownerID uint) (string, error) {
	cardRepo := repository.NewCardRepository(s.db)
	card, err := cardRepo.GetOwnedBy(cardID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrCardNotFound
		}
		return "", err
	}
	if !card.Active {
		return "", ErrCardInactive
	}
	identity := uuid.NewString()
	if err := cardRepo.SetQRIdentity(card.ID, identity); err != nil {
		return "", err
	}
	return identity, nil
}

// ApplyStamp applies one stamp event to a customer's progress on a card.
// A single event may cross the reward threshold several times (bulk grants);
// one reward is minted per crossing and the remainder carries over, so the
// progress invariant 0 <= stamps < required holds at rest.
//
// The mutation runs as one transaction per attempt: CAS on the progress
// version, then reward rows, then the history event. A version conflict
// rolls back and retries against fresh state, so two simultaneous scans of
// the same customer serialize instead of double-issuing.
//
// idemKey is optional. A repeated key returns the outcome recorded for the
// first submission and changes nothing.
func (s *LoyaltyService) ApplyStamp(cardID, customerID uint, amount int, idemKey string) (*StampResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if idemKey != "" {
		if res, err := s.replayIdempotent(idemKey); err != nil {
			return nil, err
		} else if res != nil {
			return res, nil
		}
	}

	var result *StampResult
	var lastErr error
	for attempt := 0; attempt < accrualRetries; attempt++ {
		result, lastErr = s.applyStampOnce(cardID, customerID, amount, idemKey)
		if !errors.Is(lastErr, repository.ErrVersionConflict) {
			break
		}
	}
	if lastErr != nil {
		// A duplicate-key failure on the event insert means a concurrent call
		// with the same idempotency key committed first; answer from its record.
		if idemKey != "" {
			if res, rerr := s.replayIdempotent(idemKey); rerr == nil && res != nil {
				return res, nil
			}
		}
		return nil, lastErr
	}
	return result, nil
}

func (s *LoyaltyService) applyStampOnce(cardID, customerID uint, amount int, idemKey string) (*StampResult, error) {
	var result StampResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cardRepo := repository.NewCardRepository(tx)
		progressRepo := repository.NewProgressRepository(tx)
		rewardRepo := repository.NewRewardRepository(tx)
		eventRepo := repository.NewStampEventRepository(tx)

		card, err := cardRepo.GetByID(cardID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCardNotFound
			}
			return err
		}
		if !card.Active {
			return ErrCardInactive
		}
		if _, err := repository.NewCustomerRepository(tx).GetOrCreate(customerID); err != nil {
			return err
		}

		now := time.Now()
		progress, err := progressRepo.GetByCardCustomer(cardID, customerID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			progress = &models.CustomerProgress{
				CardID:         cardID,
				CustomerID:     customerID,
				JoinedAt:       now,
				LastActivityAt: now,
			}
			if err := progressRepo.Create(progress); err != nil {
				// Lost the creation race; load the winner's row.
				progress, err = progressRepo.GetByCardCustomer(cardID, customerID)
				if err != nil {
					return err
				}
			}
		}

		newTotal := progress.CurrentStamps + amount
		issued := 0
		for newTotal >= card.StampsRequired {
			issued++
			newTotal -= card.StampsRequired
		}

		if err := progressRepo.ApplyAccrual(progress, newTotal, progress.TotalRewardsEarned+issued, now); err != nil {
			return err
		}

		event := &models.StampEvent{
			CardID:             cardID,
			CustomerID:         customerID,
			Amount:             amount, // original amount, not the remainder
			ResultStamps:       progress.CurrentStamps,
			ResultTotalRewards: progress.TotalRewardsEarned,
			OccurredAt:         now,
		}
		if idemKey != "" {
			event.IdempotencyKey = &idemKey
		}
		if err := eventRepo.Create(event); err != nil {
			return err
		}

		rewards := make([]models.Reward, 0, issued)
		for i := 0; i < issued; i++ {
			rw := models.Reward{
				CardID:       cardID,
				CustomerID:   customerID,
				StampEventID: &event.ID,
				IssuedAt:     now,
			}
			if err := rewardRepo.Create(&rw); err != nil {
				return err
			}
			rewards = append(rewards, rw)
		}

		result = StampResult{Progress: progress, RewardsIssued: rewards}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// replayIdempotent answers an already-seen idempotency key from the snapshot
// stored on its stamp event. Returns (nil, nil) when the key is new.
func (s *LoyaltyService) replayIdempotent(key string) (*StampResult, error) {
	event, err := repository.NewStampEventRepository(s.db).GetByIdempotencyKey(key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rewards, err := repository.NewRewardRepository(s.db).ListByStampEvent(event.ID)
	if err != nil {
		return nil, err
	}
	progress := &models.CustomerProgress{
		CardID:             event.CardID,
		CustomerID:         event.CustomerID,
		CurrentStamps:      event.ResultStamps,
		TotalRewardsEarned: event.ResultTotalRewards,
		LastActivityAt:     event.OccurredAt,
	}
	return &StampResult{Progress: progress, RewardsIssued: rewards, Duplicate: true}, nil
}

// RedeemReward marks an issued reward as used at the register. Replays are
// rejected, not absorbed: the merchant relies on the error to refuse a
// second free coffee.
func (s *LoyaltyService) RedeemReward(rewardID uint) (*models.Reward, error) {
	rewardRepo := repository.NewRewardRepository(s.db)
	reward, err := rewardRepo.GetByID(rewardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, err
	}
	if reward.IsRedeemed {
		return nil, ErrAlreadyRedeemed
	}
	now := time.Now()
	affected, err := rewardRepo.MarkRedeemed(rewardID, now)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Lost a race with another register.
		return nil, ErrAlreadyRedeemed
	}
	reward.IsRedeemed = true
	reward.RedeemedAt = &now
	return reward, nil
}
