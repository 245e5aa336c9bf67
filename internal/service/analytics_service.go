package service

import (
	"fmt"
	"strings"
	"time"

	"punchcard/internal/repository"

	gocache "github.com/patrickmn/go-cache"
)

// AnalyticsService serves dashboard rollups through a bounded-TTL cache.
// The cache is an explicit, injected component: staleness is a constructor
// parameter and Invalidate is the one way to cut it short. The accrual
// engine never reads from here; it always works on live rows.
type AnalyticsService struct {
	repo  *repository.AnalyticsRepository
	cache *gocache.Cache
}

func NewAnalyticsService(repo *repository.AnalyticsRepository, ttl, cleanup time.Duration) *AnalyticsService {
	return &AnalyticsService{
		repo:  repo,
		cache: gocache.New(ttl, cleanup),
	}
}

func dashKey(ownerID uint) string      { return fmt.Sprintf("dash:%d", ownerID) }
func cardKeyPrefix(cardID uint) string { return fmt.Sprintf("card:%d:", cardID) }

func cardKey(cardID uint, metric string, arg int) string {
	return fmt.Sprintf("card:%d:%s:%d", cardID, metric, arg)
}

func (s *AnalyticsService) Dashboard(ownerID uint) (*repository.DashboardCounts, error) {
	if v, ok := s.cache.Get(dashKey(ownerID)); ok {
		return v.(*repository.DashboardCounts), nil
	}
	out, err := s.repo.Dashboard(ownerID)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(dashKey(ownerID), out)
	return out, nil
}

func (s *AnalyticsService) StampActivity(cardID uint, days int) ([]repository.DayCount, error) {
	key := cardKey(cardID, "stamps", days)
	if v, ok := s.cache.Get(key); ok {
		return v.([]repository.DayCount), nil
	}
	rows, err := s.repo.StampsPerDay(cardID, days)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, rows)
	return rows, nil
}

func (s *AnalyticsService) NewCustomers(cardID uint, days int) ([]repository.DayCount, error) {
	key := cardKey(cardID, "joins", days)
	if v, ok := s.cache.Get(key); ok {
		return v.([]repository.DayCount), nil
	}
	rows, err := s.repo.NewCustomersPerDay(cardID, days)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, rows)
	return rows, nil
}

func (s *AnalyticsService) TopCustomers(cardID uint, limit int) ([]repository.TopCustomer, error) {
	key := cardKey(cardID, "top", limit)
	if v, ok := s.cache.Get(key); ok {
		return v.([]repository.TopCustomer), nil
	}
	rows, err := s.repo.TopCustomers(cardID, limit)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, rows)
	return rows, nil
}

// Invalidate drops every cached rollup touching the given merchant and card.
// Called after accrual and redemption so the dashboard catches up early.
func (s *AnalyticsService) Invalidate(ownerID, cardID uint) {
	s.cache.Delete(dashKey(ownerID))
	prefix := cardKeyPrefix(cardID)
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
}
