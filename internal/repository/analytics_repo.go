package repository

import (
	"time"

	"punchcard/internal/models"

	"gorm.io/gorm"
)

// AnalyticsRepository serves the dashboard rollup queries. Read-only.
type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

type DashboardCounts struct {
	ActiveCards     int64 `json:"active_cards"`
	TotalCustomers  int64 `json:"total_customers"`
	TotalRewards    int64 `json:"total_rewards"`
	RedeemedRewards int64 `json:"redeemed_rewards"`
	PendingRewards  int64 `json:"pending_rewards"`
}

func (r *AnalyticsRepository) Dashboard(ownerID uint) (*DashboardCounts, error) {
	var out DashboardCounts
	if err := r.db.Model(&models.Card{}).
		Where("owner_id = ? AND active = ?", ownerID, true).
		Count(&out.ActiveCards).Error; err != nil {
		return nil, err
	}
	ownedCards := r.db.Model(&models.Card{}).Select("id").Where("owner_id = ?", ownerID)
	if err := r.db.Model(&models.CustomerProgress{}).
		Where("card_id IN (?)", ownedCards).
		Count(&out.TotalCustomers).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Reward{}).
		Where("card_id IN (?)", ownedCards).
		Count(&out.TotalRewards).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Reward{}).
		Where("card_id IN (?) AND is_redeemed = ?", ownedCards, true).
		Count(&out.RedeemedRewards).Error; err != nil {
		return nil, err
	}
	out.PendingRewards = out.TotalRewards - out.RedeemedRewards
	return &out, nil
}

type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// StampsPerDay sums stamp amounts per calendar day over the trailing window.
func (r *AnalyticsRepository) StampsPerDay(cardID uint, days int) ([]DayCount, error) {
	since := time.Now().AddDate(0, 0, -days)
	var rows []DayCount
	err := r.db.Model(&models.StampEvent{}).
		Select("DATE(occurred_at) AS date, SUM(amount) AS count").
		Where("card_id = ? AND occurred_at >= ?", cardID, since).
		Group("DATE(occurred_at)").
		Order("date ASC").
		Scan(&rows).Error
	return rows, err
}

// NewCustomersPerDay counts first-time joins per calendar day.
func (r *AnalyticsRepository) NewCustomersPerDay(cardID uint, days int) ([]DayCount, error) {
	since := time.Now().AddDate(0, 0, -days)
	var rows []DayCount
	err := r.db.Model(&models.CustomerProgress{}).
		Select("DATE(joined_at) AS date, COUNT(*) AS count").
		Where("card_id = ? AND joined_at >= ?", cardID, since).
		Group("DATE(joined_at)").
		Order("date ASC").
		Scan(&rows).Error
	return rows, err
}

type TopCustomer struct {
	CustomerID    uint   `json:"customer_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	CurrentStamps int    `json:"current_stamps"`
	TotalRewards  int    `json:"total_rewards"`
}

func (r *AnalyticsRepository) TopCustomers(cardID uint, limit int) ([]TopCustomer, error) {
	var rows []TopCustomer
	err := r.db.Model(&models.CustomerProgress{}).
		Select("customer_progress.customer_id, customers.name, customers.email, customer_progress.current_stamps, customer_progress.total_rewards_earned AS total_rewards").
		Joins("JOIN customers ON customers.id = customer_progress.customer_id").
		Where("customer_progress.card_id = ?", cardID).
		Order("total_rewards DESC, customer_progress.last_activity_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
