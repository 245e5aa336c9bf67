package repository

import (
	"fmt"
	"testing"
	"time"

	"punchcard/internal/database"
	"punchcard/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestApplyAccrualVersionConflict(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewProgressRepository(db)

	now := time.Now()
	p := &models.CustomerProgress{CardID: 1, CustomerID: 1, JoinedAt: now, LastActivityAt: now}
	require.NoError(t, repo.Create(p))

	// Two readers with the same snapshot. Only one write may land.
	stale, err := repo.GetByCardCustomer(1, 1)
	require.NoError(t, err)

	require.NoError(t, repo.ApplyAccrual(p, 3, 0, now))
	assert.Equal(t, 3, p.CurrentStamps)
	assert.EqualValues(t, 1, p.Version)

	err = repo.ApplyAccrual(stale, 5, 0, now)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// The losing write changed nothing.
	fresh, err := repo.GetByCardCustomer(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.CurrentStamps)
	assert.EqualValues(t, 1, fresh.Version)
}

func TestProgressUniquePerCardCustomer(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewProgressRepository(db)

	now := time.Now()
	require.NoError(t, repo.Create(&models.CustomerProgress{CardID: 1, CustomerID: 1, JoinedAt: now, LastActivityAt: now}))
	err := repo.Create(&models.CustomerProgress{CardID: 1, CustomerID: 1, JoinedAt: now, LastActivityAt: now})
	assert.Error(t, err)

	// A different customer on the same card is fine.
	require.NoError(t, repo.Create(&models.CustomerProgress{CardID: 1, CustomerID: 2, JoinedAt: now, LastActivityAt: now}))
}

func TestMarkRedeemedGuard(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRewardRepository(db)

	rw := &models.Reward{CardID: 1, CustomerID: 1, IssuedAt: time.Now()}
	require.NoError(t, repo.Create(rw))

	affected, err := repo.MarkRedeemed(rw.ID, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	affected, err = repo.MarkRedeemed(rw.ID, time.Now())
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestStampEventIdempotencyKeyUnique(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewStampEventRepository(db)

	key := uuid.NewString()
	now := time.Now()
	require.NoError(t, repo.Create(&models.StampEvent{CardID: 1, CustomerID: 1, Amount: 1, IdempotencyKey: &key, OccurredAt: now}))
	err := repo.Create(&models.StampEvent{CardID: 1, CustomerID: 1, Amount: 1, IdempotencyKey: &key, OccurredAt: now})
	assert.Error(t, err)

	// Events without a key never collide with each other.
	require.NoError(t, repo.Create(&models.StampEvent{CardID: 1, CustomerID: 1, Amount: 1, OccurredAt: now}))
	require.NoError(t, repo.Create(&models.StampEvent{CardID: 1, CustomerID: 1, Amount: 1, OccurredAt: now}))

	got, err := repo.GetByIdempotencyKey(key)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Amount)
}
