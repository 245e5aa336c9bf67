package service

import (
	"punchcard/internal/domain"
	"punchcard/internal/repository"
)

// MaxActiveCards returns the active-card ceiling for a plan tier and whether
// the tier is unlimited.
func MaxActiveCards(planTier string) (max int, unlimited bool) {
	switch planTier {
	case domain.PlanPro:
		return 0, true
	case domain.PlanStarter:
		return domain.StarterMaxCards, false
	default:
		return 0, false
	}
}

// CanCreateCard decides whether a merchant may create another card. Only
// active cards count, so deleting one frees a slot.
//
// This is check-then-act: two simultaneous creations can both pass and leave
// the merchant one card over the limit. Accepted trade-off; the overshoot is
// rare, harmless, and self-corrects on the next delete, so no lock is taken.
func (s *LoyaltyService) CanCreateCard(ownerID uint, planTier string) (bool, error) {
	max, unlimited := MaxActiveCards(planTier)
	if unlimited {
		return true, nil
	}
	if max == 0 {
		return false, nil
	}
	count, err := repository.NewCardRepository(s.db).CountActiveByOwner(ownerID)
	if err != nil {
		return false, err
	}
	return count < int64(max), nil
}
