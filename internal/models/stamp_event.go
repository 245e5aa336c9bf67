package models

import "time"

// StampEvent is the append-only accrual history. Amount is the original
// amount of the scan, not the post-threshold remainder, so summing amounts
// reconstructs rewards earned and current stamps.
//
// ResultStamps and ResultTotalRewards snapshot the progress row right after
// the event applied; a replayed idempotency key answers from the snapshot
// without touching state. Rows are never updated or deleted.
type StampEvent struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	CardID             uint      `gorm:"not null;index:idx_event_card_customer" json:"card_id"`
	CustomerID         uint      `gorm:"not null;index:idx_event_card_customer" json:"customer_id"`
	Amount             int       `gorm:"not null" json:"amount"`
	IdempotencyKey     *string   `gorm:"uniqueIndex;size:64" json:"-"`
	ResultStamps       int       `gorm:"not null" json:"-"`
	ResultTotalRewards int       `gorm:"not null" json:"-"`
	OccurredAt         time.Time `gorm:"index" json:"occurred_at"`
	CreatedAt          time.Time `json:"created_at"`
}

func (StampEvent) TableName() string { return "stamp_events" }
