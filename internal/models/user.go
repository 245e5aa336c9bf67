package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a merchant portal account. ActiveCardID points at the card shown
// on the dashboard; it is reassigned when that card is deleted.
type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Email        string  `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string  `gorm:"size:255" json:"-"`
	Name         string  `gorm:"size:120" json:"name"`
	BusinessName string  `gorm:"size:120" json:"business_name"`
	GoogleID     *string `gorm:"uniqueIndex;size:64" json:"-"`
	AvatarURL    string  `gorm:"size:500" json:"avatar_url"`
	Role         string  `gorm:"size:20;default:'MERCHANT'" json:"role"`
	ActiveCardID *uint   `json:"active_card_id"`

	SubscriptionPlan    string     `gorm:"size:20;default:'none'" json:"subscription_plan"`
	SubscriptionStatus  string     `gorm:"size:20;default:'none'" json:"subscription_status"`
	SubscriptionID      string     `gorm:"size:64" json:"-"`
	ProviderCustomerID  string     `gorm:"size:64" json:"-"`
	SubscriptionStartAt *time.Time `json:"subscription_start_at"`
	SubscriptionEndAt   *time.Time `json:"subscription_end_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
