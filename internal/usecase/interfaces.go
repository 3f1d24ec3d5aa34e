package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/escrowledger/internal/domain"
)

// BalanceRepository holds per-(identity, account) balances, the global
// per-account balances, and the touched-accounts index. Balances are only
// created through seeding; reads report absence explicitly.
type BalanceRepository interface {
	Balance(ctx context.Context, identity string, account domain.Account) (decimal.Decimal, bool, error)
	SetBalance(ctx context.Context, identity string, account domain.Account, balance decimal.Decimal) error
	GlobalBalance(ctx context.Context, account domain.Account) (decimal.Decimal, bool, error)
	SetGlobalBalance(ctx context.Context, account domain.Account, balance decimal.Decimal) error
	AccountsByIdentity(ctx context.Context, identity string) ([]domain.Account, error)
	// TouchAccount moves account to the end of the identity's touched list,
	// appending it if absent.
	TouchAccount(ctx context.Context, identity string, account domain.Account) error
}

// PostingRepository holds the global posting counter, per-(identity, account)
// posting index lists and the write-once audit records.
type PostingRepository interface {
	Counter(ctx context.Context) (domain.PostingIndex, bool, error)
	SetCounter(ctx context.Context, index domain.PostingIndex) error
	AppendIndex(ctx context.Context, identity string, account domain.Account, index domain.PostingIndex) error
	Indexes(ctx context.Context, identity string, account domain.Account) ([]domain.PostingIndex, error)
	PutRecord(ctx context.Context, identity string, account domain.Account, index domain.PostingIndex, rec domain.PostingRecord) error
	Record(ctx context.Context, identity string, account domain.Account, index domain.PostingIndex) (*domain.PostingRecord, error)
}

// EscrowRepository holds the lock, deposit and status records keyed by
// reference hash, plus the per-owner reference index.
type EscrowRepository interface {
	Lock(ctx context.Context, reference string) (*domain.EscrowLock, error)
	PutLock(ctx context.Context, reference string, lock domain.EscrowLock) error
	DeleteLock(ctx context.Context, reference string) error
	Deposit(ctx context.Context, reference string) (*domain.PrefundingDeposit, error)
	PutDeposit(ctx context.Context, reference string, deposit domain.PrefundingDeposit) error
	DeleteDeposit(ctx context.Context, reference string) error
	Status(ctx context.Context, reference string) (domain.ReferenceStatus, bool, error)
	SetStatus(ctx context.Context, reference string, status domain.ReferenceStatus) error
	OwnerReferences(ctx context.Context, owner string) ([]string, error)
	AppendOwnerReference(ctx context.Context, owner, reference string) error
	RemoveOwnerReference(ctx context.Context, owner, reference string) error
}

// LockID identifies a custody lock. Derived from the reference hash.
type LockID [8]byte

// Custody is the external currency-custody primitive. It is the one piece of
// state outside this core's exclusive ownership.
type Custody interface {
	SetLock(ctx context.Context, id LockID, account string, amount decimal.Decimal, until uint64) error
	ExtendLock(ctx context.Context, id LockID, account string, amount decimal.Decimal, until uint64) error
	RemoveLock(ctx context.Context, id LockID, account string) error
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error
	FreeBalance(ctx context.Context, account string) (decimal.Decimal, error)
}

// PeriodSource supplies the monotonically increasing current period.
type PeriodSource interface {
	Current() uint64
}

// Entropy supplies seed material for reference hash derivation. The hashes
// only need to be unique enough for correlation, never unpredictable.
type Entropy interface {
	Seed() [32]byte
}

// EventSink receives fire-and-forget domain events. Failures are logged by
// the caller and never influence core logic.
type EventSink interface {
	Publish(ctx context.Context, event domain.Event) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage for the transport layer.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
