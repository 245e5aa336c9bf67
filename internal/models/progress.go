package models

import "time"

// CustomerProgress tracks one customer's stamps on one card.
// Invariant at rest: 0 <= CurrentStamps < the card's StampsRequired.
// Version is the optimistic-concurrency token; every accrual bumps it, and a
// stale write loses and retries.
type CustomerProgress struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	CardID             uint      `gorm:"not null;uniqueIndex:idx_card_customer" json:"card_id"`
	CustomerID         uint      `gorm:"not null;uniqueIndex:idx_card_customer" json:"customer_id"`
	CurrentStamps      int       `gorm:"not null;default:0" json:"current_stamps"`
	TotalRewardsEarned int       `gorm:"not null;default:0" json:"total_rewards_earned"`
	Version            uint      `gorm:"not null;default:0" json:"-"`
	JoinedAt           time.Time `json:"joined_at"`
	LastActivityAt     time.Time `json:"last_activity_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	Card     Card     `gorm:"foreignKey:CardID" json:"-"`
	Customer Customer `gorm:"foreignKey:CustomerID" json:"-"`
}

func (CustomerProgress) TableName() string { return "customer_progress" }
