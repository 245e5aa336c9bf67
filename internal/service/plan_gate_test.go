package service

import (
	"testing"

	"punchcard/internal/domain"
	"punchcard/internal/models"
	"punchcard/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxActiveCards(t *testing.T) {
	max, unlimited := MaxActiveCards(domain.PlanNone)
	assert.Equal(t, 0, max)
	assert.False(t, unlimited)

	max, unlimited = MaxActiveCards(domain.PlanStarter)
	assert.Equal(t, 2, max)
	assert.False(t, unlimited)

	_, unlimited = MaxActiveCards(domain.PlanPro)
	assert.True(t, unlimited)

	// Unknown tiers get no cards, same as unsubscribed.
	max, unlimited = MaxActiveCards("enterprise")
	assert.Equal(t, 0, max)
	assert.False(t, unlimited)
}

func TestCanCreateCard(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLoyaltyService(db)

	owner := models.User{Email: uuid.NewString() + "@test.local", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)

	ok, err := svc.CanCreateCard(owner.ID, domain.PlanNone)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CanCreateCard(owner.ID, domain.PlanStarter)
	require.NoError(t, err)
	assert.True(t, ok)

	cardRepo := repository.NewCardRepository(db)
	cards := make([]models.Card, 2)
	for i := range cards {
		cards[i] = models.Card{
			OwnerID:           owner.ID,
			Name:              "Card",
			StampsRequired:    10,
			RewardDescription: "Reward",
			Active:            true,
		}
		require.NoError(t, cardRepo.Create(&cards[i]))
	}

	ok, err = svc.CanCreateCard(owner.ID, domain.PlanStarter)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deactivating a card frees its slot; only active cards count.
	require.NoError(t, cardRepo.Deactivate(cards[0].ID))
	ok, err = svc.CanCreateCard(owner.ID, domain.PlanStarter)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanCreateCard(owner.ID, domain.PlanPro)
	require.NoError(t, err)
	assert.True(t, ok)
}
