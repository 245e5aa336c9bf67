package repository

import (
	"time"

	"punchcard/internal/models"

	"gorm.io/gorm"
)

type RewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

func (r *RewardRepository) GetByID(id uint) (*models.Reward, error) {
	var rw models.Reward
	if err := r.db.First(&rw, id).Error; err != nil {
		return nil, err
	}
	return &rw, nil
}

func (r *RewardRepository) Create(rw *models.Reward) error {
	return r.db.Create(rw).Error
}

// MarkRedeemed flips IsRedeemed with a guard on the current value so a
// replayed redemption can never succeed twice.
func (r *RewardRepository) MarkRedeemed(id uint, at time.Time) (int64, error) {
	res := r.db.Model(&models.Reward{}).
		Where("id = ? AND is_redeemed = ?", id, false).
		Updates(map[string]interface{}{"is_redeemed": true, "redeemed_at": at})
	return res.RowsAffected, res.Error
}

func (r *RewardRepository) ListByCardCustomer(cardID, customerID uint) ([]models.Reward, error) {
	var rows []models.Reward
	err := r.db.Where("card_id = ? AND customer_id = ?", cardID, customerID).
		Order("issued_at ASC").Find(&rows).Error
	return rows, err
}

func (r *RewardRepository) ListByStampEvent(eventID uint) ([]models.Reward, error) {
	var rows []models.Reward
	err := r.db.Where("stamp_event_id = ?", eventID).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *RewardRepository) CountByCardCustomer(cardID, customerID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Reward{}).
		Where("card_id = ? AND customer_id = ?", cardID, customerID).Count(&n).Error
	return n, err
}
