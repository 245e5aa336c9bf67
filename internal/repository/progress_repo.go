package repository

import (
	"errors"
	"time"

	"punchcard/internal/models"

	"gorm.io/gorm"
)

// ErrVersionConflict means a concurrent accrual won the optimistic write.
// The caller reloads and retries.
var ErrVersionConflict = errors.New("progress row changed concurrently")

type ProgressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) GetByCardCustomer(cardID, customerID uint) (*models.CustomerProgress, error) {
	var p models.CustomerProgress
	err := r.db.Where("card_id = ? AND customer_id = ?", cardID, customerID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) Create(p *models.CustomerProgress) error {
	return r.db.Create(p).Error
}

// ApplyAccrual writes the computed post-accrual state with a compare-and-swap
// on Version. Returns ErrVersionConflict when another writer got there first.
func (r *ProgressRepository) ApplyAccrual(p *models.CustomerProgress, newStamps, newTotalRewards int, at time.Time) error {
	res := r.db.Model(&models.CustomerProgress{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"current_stamps":       newStamps,
			"total_rewards_earned": newTotalRewards,
			"last_activity_at":     at,
			"version":              p.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	p.CurrentStamps = newStamps
	p.TotalRewardsEarned = newTotalRewards
	p.LastActivityAt = at
	p.Version++
	return nil
}

func (r *ProgressRepository) ListByCard(cardID uint, limit, offset int) ([]models.CustomerProgress, error) {
	var rows []models.CustomerProgress
	q := r.db.Preload("Customer").Where("card_id = ?", cardID).Order("last_activity_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (r *ProgressRepository) CountByCard(cardID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.CustomerProgress{}).Where("card_id = ?", cardID).Count(&n).Error
	return n, err
}
