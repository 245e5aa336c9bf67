package repository

import (
	"punchcard/internal/models"

	"gorm.io/gorm"
)

type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) GetByID(id uint) (*models.Card, error) {
	var card models.Card
	if err := r.db.First(&card, id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// GetOwnedBy fetches a card only if it belongs to the given merchant,
// regardless of active flag.
func (r *CardRepository) GetOwnedBy(id, ownerID uint) (*models.Card, error) {
	var card models.Card
	if err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *CardRepository) ListActiveByOwner(ownerID uint) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.Where("owner_id = ? AND active = ?", ownerID, true).
		Order("created_at DESC").Find(&cards).Error
	return cards, err
}

func (r *CardRepository) CountActiveByOwner(ownerID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Card{}).
		Where("owner_id = ? AND active = ?", ownerID, true).Count(&n).Error
	return n, err
}

// FirstActiveByOwner returns the oldest remaining active card, or nil.
// Used to reassign the dashboard card after a delete.
func (r *CardRepository) FirstActiveByOwner(ownerID uint) (*models.Card, error) {
	var card models.Card
	err := r.db.Where("owner_id = ? AND active = ?", ownerID, true).
		Order("created_at ASC").First(&card).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

func (r *CardRepository) Create(card *models.Card) error {
	return r.db.Create(card).Error
}

func (r *CardRepository) Update(card *models.Card) error {
	return r.db.Save(card).Error
}

// SetQRIdentity replaces the card's current QR token. One writer wins; the
// previous value becomes permanently invalid.
func (r *CardRepository) SetQRIdentity(cardID uint, identity string) error {
	return r.db.Model(&models.Card{}).Where("id = ?", cardID).Update("qr_identity", identity).Error
}

func (r *CardRepository) Deactivate(cardID uint) error {
	return r.db.Model(&models.Card{}).Where("id = ?", cardID).Update("active", false).Error
}

func (r *CardRepository) SetActiveAllByOwner(ownerID uint, active bool) error {
	return r.db.Model(&models.Card{}).Where("owner_id = ?", ownerID).Update("active", active).Error
}
