package models

import "time"

// Reward is one earned entitlement, minted exactly once per threshold
// crossing. IsRedeemed goes false to true once and never back.
type Reward struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CardID       uint       `gorm:"index;not null" json:"card_id"`
	CustomerID   uint       `gorm:"index;not null" json:"customer_id"`
	StampEventID *uint      `gorm:"index" json:"-"`
	IssuedAt     time.Time  `json:"issued_at"`
	IsRedeemed   bool       `gorm:"not null;default:false" json:"is_redeemed"`
	RedeemedAt   *time.Time `json:"redeemed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Card     Card     `gorm:"foreignKey:CardID" json:"-"`
	Customer Customer `gorm:"foreignKey:CustomerID" json:"-"`
}

func (Reward) TableName() string { return "rewards" }
