package repository

import (
	"punchcard/internal/models"

	"gorm.io/gorm"
)

type StampEventRepository struct {
	db *gorm.DB
}

func NewStampEventRepository(db *gorm.DB) *StampEventRepository {
	return &StampEventRepository{db: db}
}

// Create appends one history row. Events are immutable; there is no update
// or delete method on purpose.
func (r *StampEventRepository) Create(e *models.StampEvent) error {
	return r.db.Create(e).Error
}

func (r *StampEventRepository) GetByIdempotencyKey(key string) (*models.StampEvent, error) {
	var e models.StampEvent
	if err := r.db.Where("idempotency_key = ?", key).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// SumAmount totals all stamps ever granted for one (card, customer) pair.
// Together with the card threshold this reconstructs rewards and remainder.
func (r *StampEventRepository) SumAmount(cardID, customerID uint) (int64, error) {
	var sum int64
	err := r.db.Model(&models.StampEvent{}).
		Where("card_id = ? AND customer_id = ?", cardID, customerID).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return sum, err
}
