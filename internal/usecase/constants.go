package usecase

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// EscrowAccountID is the fixed custodial identity holding locked funds.
	EscrowAccountID = "RuntimeEscrowAddress4LockedFunds"

	// MinimumDeadlineHorizon is the minimum number of periods between
	// prefunding and the owner's reclaim deadline (48 hours of 15s periods).
	// It stops an owner locking funds and reclaiming them immediately.
	MinimumDeadlineHorizon uint64 = 11520

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour
)

// ExistentialReserve is the balance an owner must retain beyond the
// prefunded amount, so the deposit cannot empty the paying account.
var ExistentialReserve = decimal.NewFromInt(1618)
