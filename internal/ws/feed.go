package ws

import "time"

// FeedEvent is one live dashboard entry: a stamp landing, a reward being
// minted, or a redemption at the register.
type FeedEvent struct {
	Type       string `json:"type"`
	CardID     uint   `json:"card_id"`
	CustomerID uint   `json:"customer_id"`
	Amount     int    `json:"amount,omitempty"`
	RewardID   uint   `json:"reward_id,omitempty"`
	OccurredAt int64  `json:"occurred_at"`
}

// FeedHub streams accrual activity to merchant dashboards.
type FeedHub struct {
	*Hub
}

func NewFeedHub() *FeedHub {
	return &FeedHub{Hub: NewHub()}
}

// Publish pushes one event to the card owner's open dashboards.
func (f *FeedHub) Publish(ownerID uint, eventType string, cardID, customerID uint, amount int, rewardID uint) {
	f.BroadcastToUser(ownerID, FeedEvent{
		Type:       eventType,
		CardID:     cardID,
		CustomerID: customerID,
		Amount:     amount,
		RewardID:   rewardID,
		OccurredAt: time.Now().Unix(),
	})
}
