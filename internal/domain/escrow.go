package domain

import "github.com/shopspring/decimal"

// LockState is one party's flag on an escrow lock.
type LockState uint8

const (
	Unlocked LockState = 0
	Locked   LockState = 1
)

func (s LockState) String() string {
	if s == Locked {
		return "locked"
	}
	return "unlocked"
}

// EscrowLock is the pairwise lock record for a reference. The four
// (OwnerLock, BeneficiaryLock) combinations drive the release protocol:
//
//	(Locked, Unlocked)   owner deposited; beneficiary not yet accepted
//	(Locked, Locked)     mutually held; each party may only unlock itself
//	(Unlocked, Locked)   owner released; beneficiary may claim
//	(Unlocked, Unlocked) beneficiary authorised cancellation; terminal
type EscrowLock struct {
	Owner           string    `json:"owner"`
	OwnerLock       LockState `json:"owner_lock"`
	Beneficiary     string    `json:"beneficiary"`
	BeneficiaryLock LockState `json:"beneficiary_lock"`
}

// PrefundingDeposit records the locked amount and its reclaim deadline.
type PrefundingDeposit struct {
	Amount   decimal.Decimal `json:"amount"` // external-currency units, always positive
	Deadline uint64          `json:"deadline"`
}

// DeadlinePassed reports whether the owner's reclaim deadline is behind the
// given period.
func (d PrefundingDeposit) DeadlinePassed(currentPeriod uint64) bool {
	return d.Deadline < currentPeriod
}

// ReferenceStatus is the lifecycle code of a reference hash.
type ReferenceStatus uint16

const (
	StatusSubmitted ReferenceStatus = 1   // locked by owner, awaiting acceptance
	StatusCancelled ReferenceStatus = 50  // abandoned or cancelled
	StatusInvoiced  ReferenceStatus = 400 // obligation recognised, no funds moved yet
	StatusSettled   ReferenceStatus = 500 // funds transferred, lock torn down
)

// Live reports whether the reference still accepts escrow operations.
// Cancelled and Settled references stay readable but are terminal.
func (s ReferenceStatus) Live() bool {
	switch s {
	case StatusSubmitted, StatusInvoiced:
		return true
	}
	return false
}

func (s ReferenceStatus) String() string {
	switch s {
	case StatusSubmitted:
		return "submitted"
	case StatusCancelled:
		return "cancelled"
	case StatusInvoiced:
		return "invoiced"
	case StatusSettled:
		return "settled"
	default:
		return "unknown"
	}
}
