package models

import "time"

// Card is a merchant's loyalty program definition. Deleting a card only
// flips Active; progress and reward history stay queryable, so there is no
// gorm soft-delete column here.
type Card struct {
	ID                uint    `gorm:"primaryKey" json:"id"`
	OwnerID           uint    `gorm:"index;not null" json:"owner_id"`
	Name              string  `gorm:"size:120;not null" json:"name"`
	Logo              string  `gorm:"size:500" json:"logo"`
	Color             string  `gorm:"size:20" json:"color"`
	Category          string  `gorm:"size:60" json:"category"`
	StampsRequired    int     `gorm:"not null" json:"stamps_required"`
	RewardDescription string  `gorm:"size:255;not null" json:"reward_description"`
	// QRIdentity is the single currently valid QR token. Nil means a QR code
	// was never issued for this card. Replaced wholesale on regeneration;
	// old values are never reused.
	QRIdentity *string   `gorm:"size:64;index" json:"-"`
	Active     bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Owner User `gorm:"foreignKey:OwnerID" json:"-"`
}

func (Card) TableName() string { return "cards" }

// PublicInfo is what a scanning customer app sees after QR validation.
type CardPublicInfo struct {
	ID                uint   `json:"id"`
	Name              string `json:"name"`
	Logo              string `json:"logo"`
	Color             string `json:"color"`
	Category          string `json:"category"`
	StampsRequired    int    `json:"stamps_required"`
	RewardDescription string `json:"reward_description"`
}

func (c *Card) PublicInfo() CardPublicInfo {
	return CardPublicInfo{
		ID:                c.ID,
		Name:              c.Name,
		Logo:              c.Logo,
		Color:             c.Color,
		Category:          c.Category,
		StampsRequired:    c.StampsRequired,
		RewardDescription: c.RewardDescription,
	}
}
