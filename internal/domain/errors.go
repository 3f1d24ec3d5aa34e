package domain

import "errors"

var (
	// Account / balance errors
	ErrInvalidAccount    = errors.New("invalid account number")
	ErrBalanceOutOfRange = errors.New("balance out of ledger range")

	// Posting engine errors. Balances are pre-seeded by configuration, so a
	// missing entry is a fatal setup fault, not a new-account case.
	ErrBalanceNotSeeded           = errors.New("no balance seeded for identity and account")
	ErrGlobalBalanceNotSeeded     = errors.New("no global balance seeded for account")
	ErrPostingIndexOverflow       = errors.New("posting index overflowed")
	ErrBalanceValueOverflow       = errors.New("balance value overflowed")
	ErrGlobalBalanceValueOverflow = errors.New("global balance value overflowed")

	// ErrAmountOverflow reports a multiposting set that failed and was fully
	// reversed: the ledger is unchanged.
	ErrAmountOverflow = errors.New("amount overflow, postings reversed")
	// ErrSystemFailure reports that reversal replay itself failed. The ledger
	// is asymmetric; callers must halt related operations rather than retry.
	ErrSystemFailure = errors.New("system failure: ledger reversal incomplete")

	// Escrow reference errors
	ErrReferenceExists   = errors.New("reference hash already exists")
	ErrReferenceNotFound = errors.New("reference hash does not exist")
	ErrReferenceNotLive  = errors.New("reference is cancelled or settled")
	ErrNotOwner          = errors.New("caller is not the owner of the reference")
	ErrNotBeneficiary    = errors.New("caller is not the beneficiary of the reference")
	ErrNotParty          = errors.New("caller is neither owner nor beneficiary")
	ErrSameParty         = errors.New("owner and beneficiary must differ")

	// Prefunding errors
	ErrShortDeadline        = errors.New("deadline below the minimum prefunding horizon")
	ErrInsufficientPrefunds = errors.New("insufficient funds to prefund")
	ErrPrefundNotSet        = errors.New("prefunding deposit was not taken")
	ErrDeadlineInPlay       = errors.New("deadline has not passed yet")

	// Lock transition errors. Every rejected (state, caller, flag)
	// combination maps to its own sentinel so nothing falls through quietly.
	ErrOwnerRelock              = errors.New("owner already holds the lock")
	ErrBeneficiaryUnlockNotHeld = errors.New("beneficiary holds no lock to release")
	ErrRelockForbidden          = errors.New("mutually held lock can only be released")
	ErrReleaseRelock            = errors.New("released lock cannot be re-armed")
	ErrOwnerReleased            = errors.New("owner already released the lock")
	ErrLockExhausted            = errors.New("lock fully released, reference awaits cancellation")

	// Release / settlement errors
	ErrAwaitingAcceptance = errors.New("beneficiary has not accepted the lock")
	ErrOwnerNotReleased   = errors.New("owner has not released the funds")
	ErrFundsInPlay        = errors.New("funds locked by both parties")
	ErrBeneficiaryClaim   = errors.New("funds are claimable by the beneficiary only")
	ErrNotInvoiced        = errors.New("reference has not been invoiced")
)
