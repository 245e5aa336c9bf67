package service

import "errors"

// Business outcomes surfaced to callers. All are terminal: they mean bad
// input or a rule refusal, never a transient infrastructure failure, so
// nothing here is retried internally. Datastore errors pass through
// unwrapped so handlers can tell the two apart.
var (
	ErrInvalidInput     = errors.New("missing or malformed required field")
	ErrCardNotFound     = errors.New("card not found")
	ErrCardInactive     = errors.New("card is deactivated")
	ErrQRNeverIssued    = errors.New("card has no QR code issued")
	ErrIdentityMismatch = errors.New("qr code is stale or invalid")
	ErrInvalidAmount    = errors.New("stamp amount must be positive")
	ErrRewardNotFound   = errors.New("reward not found")
	ErrAlreadyRedeemed  = errors.New("reward already redeemed")
	ErrUpgradeRequired  = errors.New("plan limit reached, upgrade required")
)
