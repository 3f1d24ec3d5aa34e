package usecase

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/escrowledger/internal/domain"
	"github.com/iho/escrowledger/internal/infrastructure/metrics"
)

// EscrowUseCase owns the escrow lock state machine: a per-reference pairwise
// lock, a prefunding deposit with a reclaim deadline, and a lifecycle status.
// Every operation resolves into posting recipes on the engine, and posting
// failure unwinds before any escrow state is committed.
//
// It shares the posting engine's mutex, so an escrow operation and its
// postings form a single sequential step.
type EscrowUseCase struct {
	engine  *PostingEngine
	escrows EscrowRepository
	custody Custody
	periods PeriodSource
	events  EventSink
	idGen   IDGenerator
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewEscrowUseCase creates a new EscrowUseCase.
func NewEscrowUseCase(
	engine *PostingEngine,
	escrows EscrowRepository,
	custody Custody,
	periods PeriodSource,
	events EventSink,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *EscrowUseCase {
	return &EscrowUseCase{
		engine:  engine,
		escrows: escrows,
		custody: custody,
		periods: periods,
		events:  events,
		idGen:   idGen,
		metrics: m,
		logger:  logger.With().Str("component", "escrow").Logger(),
	}
}

// PrefundingFor locks amount of the owner's currency against reference until
// deadline, for the named beneficiary, and books the deposit into the ledger.
//
// The custody lock is placed before the postings. If the postings then fail
// the lock is deliberately left in place, matching the long-standing
// behavior of this protocol; the condition is logged and counted so
// operators can release it by hand.
func (uc *EscrowUseCase) PrefundingFor(ctx context.Context, owner, beneficiary string, amount decimal.Decimal, deadline uint64, reference, correlationID string) error {
	uc.engine.mu.Lock()
	defer uc.engine.mu.Unlock()

	start := time.Now()
	defer uc.observe(start)

	if owner == beneficiary {
		return domain.ErrSameParty
	}
	if amount.Sign() <= 0 || !domain.InLedgerRange(amount) {
		return domain.ErrBalanceOutOfRange
	}

	period := uc.periods.Current()
	if deadline < period+MinimumDeadlineHorizon {
		return domain.ErrShortDeadline
	}

	if err := uc.setPrefunding(ctx, owner, amount, deadline, reference); err != nil {
		return err
	}

	// The deposit is taken: from here a posting failure leaves the custody
	// lock orphaned (see above).
	increase := amount
	decrease := amount.Neg()
	forward := []domain.Leg{
		{Identity: owner, Account: domain.AccountPrefundingDeposit, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: owner, Account: domain.AccountFunctionalCurrency, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: owner, Account: domain.AccountInternalLedger, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: owner, Account: domain.AccountInternalControl, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
	}
	reversal := []domain.Leg{
		{Identity: owner, Account: domain.AccountPrefundingDeposit, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: owner, Account: domain.AccountFunctionalCurrency, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: owner, Account: domain.AccountInternalLedger, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: owner, Account: domain.AccountInternalControl, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
	}

	if err := uc.engine.handleMultipostingAmounts(ctx, forward, reversal, nil); err != nil {
		if uc.metrics != nil {
			uc.metrics.OrphanedLocks.Inc()
		}
		uc.logger.Error().
			Err(err).
			Str("reference", reference).
			Str("owner", owner).
			Msg("prefunding postings failed after custody lock placed; lock left orphaned")
		return fmt.Errorf("prefunding postings: %w", err)
	}

	if err := uc.escrows.PutLock(ctx, reference, domain.EscrowLock{
		Owner:           owner,
		OwnerLock:       domain.Locked,
		Beneficiary:     beneficiary,
		BeneficiaryLock: domain.Unlocked,
	}); err != nil {
		return err
	}
	if err := uc.escrows.PutDeposit(ctx, reference, domain.PrefundingDeposit{Amount: amount, Deadline: deadline}); err != nil {
		return err
	}
	if err := uc.escrows.AppendOwnerReference(ctx, owner, reference); err != nil {
		return err
	}
	if err := uc.escrows.SetStatus(ctx, reference, domain.StatusSubmitted); err != nil {
		return fmt.Errorf("prefunding status: %w", err)
	}

	if uc.metrics != nil {
		uc.metrics.PrefundsCreated.Inc()
	}
	uc.publish(ctx, domain.Event{
		ID:         uc.idGen.Generate(),
		Type:       domain.EventTypePrefundingCompleted,
		Reference:  correlationID,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]any{
			"reference":   reference,
			"owner":       owner,
			"beneficiary": beneficiary,
			"amount":      amount.String(),
			"deadline":    deadline,
		},
	})

	return nil
}

// setPrefunding validates the deposit and places the custody lock.
func (uc *EscrowUseCase) setPrefunding(ctx context.Context, owner string, amount decimal.Decimal, deadline uint64, reference string) error {
	if _, ok, err := uc.escrows.Status(ctx, reference); err != nil {
		return err
	} else if ok {
		return domain.ErrReferenceExists
	}

	// The deposit must leave the owner at least the existential reserve, so
	// prefunding can never destroy the paying account.
	free, err := uc.custody.FreeBalance(ctx, owner)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPrefundNotSet, err)
	}
	if free.LessThan(amount.Add(ExistentialReserve)) {
		return domain.ErrInsufficientPrefunds
	}

	lockID, err := lockIDForReference(reference)
	if err != nil {
		return err
	}
	if err := uc.custody.SetLock(ctx, lockID, owner, amount, deadline); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPrefundNotSet, err)
	}

	return nil
}

// SendSimpleInvoice recognises the obligation against a prefunded reference:
// receivable, revenue and sales control legs for the issuer; payable, expense
// and purchase control legs for the payer. No funds move here.
//
// A negative amount is a credit note. The postings are identical in shape;
// only the signs flip.
func (uc *EscrowUseCase) SendSimpleInvoice(ctx context.Context, issuer, payer string, amount decimal.Decimal, reference, correlationID string) error {
	uc.engine.mu.Lock()
	defer uc.engine.mu.Unlock()

	start := time.Now()
	defer uc.observe(start)

	if !domain.InLedgerRange(amount) {
		return domain.ErrBalanceOutOfRange
	}
	if err := uc.checkBeneficiary(ctx, issuer, reference); err != nil {
		return err
	}

	increase := amount
	decrease := amount.Neg()
	period := uc.periods.Current()

	forward := []domain.Leg{
		// Issuer
		{Identity: issuer, Account: domain.AccountReceivable, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: issuer, Account: domain.AccountSalesRevenue, Amount: increase, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: issuer, Account: domain.AccountSalesLedger, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: issuer, Account: domain.AccountSalesControl, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		// Payer
		{Identity: payer, Account: domain.AccountPayable, Amount: increase, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: payer, Account: domain.AccountLabourExpense, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: payer, Account: domain.AccountPurchaseLedger, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: payer, Account: domain.AccountPurchaseControl, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
	}
	// The final forward leg needs no reversal: if it fails it was never
	// posted.
	reversal := []domain.Leg{
		{Identity: issuer, Account: domain.AccountReceivable, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: issuer, Account: domain.AccountSalesRevenue, Amount: decrease, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: issuer, Account: domain.AccountSalesLedger, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: issuer, Account: domain.AccountSalesControl, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: payer, Account: domain.AccountPayable, Amount: decrease, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: payer, Account: domain.AccountLabourExpense, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: payer, Account: domain.AccountPurchaseLedger, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
	}

	if err := uc.engine.handleMultipostingAmounts(ctx, forward, reversal, nil); err != nil {
		return fmt.Errorf("invoice postings: %w", err)
	}

	if err := uc.escrows.SetStatus(ctx, reference, domain.StatusInvoiced); err != nil {
		return fmt.Errorf("invoice status: %w", err)
	}

	if uc.metrics != nil {
		uc.metrics.InvoicesIssued.Inc()
	}
	uc.publish(ctx, domain.Event{
		ID:         uc.idGen.Generate(),
		Type:       domain.EventTypeInvoiceIssued,
		Reference:  correlationID,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]any{
			"reference": reference,
			"issuer":    issuer,
			"payer":     payer,
			"amount":    amount.String(),
		},
	})

	return nil
}

// SettlePrefundedInvoice pays an invoiced, mutually held reference: the
// accounting is unwound leg for leg (payable, escrow deposit and control
// ledgers for the payer; currency, receivable and sales ledgers for the
// beneficiary), the owner's side of the lock is released, and the funds
// transfer to the beneficiary.
//
// Accounts are updated before payment so a posting error can still roll back.
func (uc *EscrowUseCase) SettlePrefundedInvoice(ctx context.Context, caller, reference, correlationID string) error {
	uc.engine.mu.Lock()
	defer uc.engine.mu.Unlock()

	start := time.Now()
	defer uc.observe(start)

	lock, err := uc.escrows.Lock(ctx, reference)
	if err != nil {
		return err
	}

	switch [2]domain.LockState{lock.OwnerLock, lock.BeneficiaryLock} {
	case [2]domain.LockState{domain.Locked, domain.Unlocked}:
		return domain.ErrAwaitingAcceptance
	case [2]domain.LockState{domain.Unlocked, domain.Locked}:
		return domain.ErrOwnerReleased
	case [2]domain.LockState{domain.Unlocked, domain.Unlocked}:
		return domain.ErrLockExhausted
	case [2]domain.LockState{domain.Locked, domain.Locked}:
		// fall through to settlement
	default:
		return domain.ErrFundsInPlay
	}

	if lock.Owner != caller {
		return domain.ErrNotOwner
	}

	// Settlement is only defined for an invoiced reference. Checked up front
	// so a refused settlement leaves no postings behind.
	status, ok, err := uc.escrows.Status(ctx, reference)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrReferenceNotFound
	}
	if status != domain.StatusInvoiced {
		return domain.ErrNotInvoiced
	}

	deposit, err := uc.escrows.Deposit(ctx, reference)
	if err != nil {
		return err
	}

	increase := deposit.Amount
	decrease := deposit.Amount.Neg()
	period := uc.periods.Current()
	beneficiary := lock.Beneficiary

	forward := []domain.Leg{
		// Payer
		{Identity: caller, Account: domain.AccountPayable, Amount: decrease, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: caller, Account: domain.AccountPrefundingDeposit, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: caller, Account: domain.AccountInternalLedger, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: caller, Account: domain.AccountInternalControl, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: caller, Account: domain.AccountPurchaseLedger, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: caller, Account: domain.AccountPurchaseControl, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		// Beneficiary
		{Identity: beneficiary, Account: domain.AccountFunctionalCurrency, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: beneficiary, Account: domain.AccountReceivable, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: beneficiary, Account: domain.AccountSalesLedger, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: beneficiary, Account: domain.AccountSalesControl, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
	}
	reversal := []domain.Leg{
		// Payer
		{Identity: caller, Account: domain.AccountPayable, Amount: increase, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: caller, Account: domain.AccountPrefundingDeposit, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: caller, Account: domain.AccountInternalLedger, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: caller, Account: domain.AccountInternalControl, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: caller, Account: domain.AccountPurchaseLedger, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: caller, Account: domain.AccountPurchaseControl, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		// Beneficiary
		{Identity: beneficiary, Account: domain.AccountFunctionalCurrency, Amount: decrease, Indicator: domain.Credit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: beneficiary, Account: domain.AccountReceivable, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
		{Identity: beneficiary, Account: domain.AccountSalesLedger, Amount: increase, Indicator: domain.Debit, Reference: reference, Recorded: period, AppliesTo: period},
	}

	if err := uc.engine.handleMultipostingAmounts(ctx, forward, reversal, nil); err != nil {
		return fmt.Errorf("settlement postings: %w", err)
	}

	// Release the payer's side of the lock. This may already have happened
	// independently, but settlement requires it before funds can move.
	if err := uc.setReleaseState(ctx, caller, domain.Unlocked, reference); err != nil {
		return fmt.Errorf("settlement release state: %w", err)
	}

	if err := uc.unlockFundsForBeneficiary(ctx, beneficiary, reference); err != nil {
		return fmt.Errorf("settlement payout: %w", err)
	}

	if uc.metrics != nil {
		uc.metrics.InvoicesSettled.Inc()
	}
	uc.publish(ctx, domain.Event{
		ID:         uc.idGen.Generate(),
		Type:       domain.EventTypeInvoiceSettled,
		Reference:  correlationID,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]any{
			"reference":   reference,
			"owner":       caller,
			"beneficiary": beneficiary,
			"amount":      deposit.Amount.String(),
		},
	})

	return nil
}

// SetReleaseState moves the caller's own flag on the pairwise lock.
func (uc *EscrowUseCase) SetReleaseState(ctx context.Context, caller string, requested domain.LockState, reference, correlationID string) error {
	uc.engine.mu.Lock()
	defer uc.engine.mu.Unlock()

	return uc.setReleaseState(ctx, caller, requested, reference)
}

// setReleaseState is the exhaustive transition table. Every (state, caller,
// requested flag) combination either produces a well-defined new state or one
// of the distinct rejection errors; the default arm fails closed.
func (uc *EscrowUseCase) setReleaseState(ctx context.Context, caller string, requested domain.LockState, reference string) error {
	lock, err := uc.escrows.Lock(ctx, reference)
	if err != nil {
		return err
	}

	owner, beneficiary := lock.Owner, lock.Beneficiary
	next := *lock

	switch [2]domain.LockState{lock.OwnerLock, lock.BeneficiaryLock} {

	// Owner created the lock; not yet accepted. The beneficiary may accept,
	// or the owner may withdraw (deadline gating happens in the reclaim
	// operation, not here).
	case [2]domain.LockState{domain.Locked, domain.Unlocked}:
		switch {
		case requested == domain.Locked && caller == owner:
			return domain.ErrOwnerRelock
		case requested == domain.Locked && caller == beneficiary:
			next.BeneficiaryLock = domain.Locked
		case requested == domain.Unlocked && caller == owner:
			next.OwnerLock = domain.Unlocked
		case requested == domain.Unlocked && caller == beneficiary:
			return domain.ErrBeneficiaryUnlockNotHeld
		default:
			return domain.ErrNotParty
		}

	// Mutually held: each party may release only its own flag.
	case [2]domain.LockState{domain.Locked, domain.Locked}:
		switch {
		case requested == domain.Locked:
			return domain.ErrRelockForbidden
		case caller == owner:
			next.OwnerLock = domain.Unlocked
		case caller == beneficiary:
			next.BeneficiaryLock = domain.Unlocked
		default:
			return domain.ErrNotParty
		}

	// Owner released: only the beneficiary may move, and only to unlock.
	case [2]domain.LockState{domain.Unlocked, domain.Locked}:
		switch {
		case requested == domain.Locked:
			return domain.ErrReleaseRelock
		case caller == owner:
			return domain.ErrOwnerReleased
		case caller == beneficiary:
			next.BeneficiaryLock = domain.Unlocked
		default:
			return domain.ErrNotParty
		}

	// Fully released: terminal, torn down by cancellation, never re-armed.
	case [2]domain.LockState{domain.Unlocked, domain.Unlocked}:
		return domain.ErrLockExhausted

	default:
		return domain.ErrLockExhausted
	}

	if err := uc.escrows.PutLock(ctx, reference, next); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.LockStateChanges.WithLabelValues(next.OwnerLock.String(), next.BeneficiaryLock.String()).Inc()
	}
	uc.publish(ctx, domain.Event{
		ID:         uc.idGen.Generate(),
		Type:       domain.EventTypePrefundingLockSet,
		Reference:  reference,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]any{
			"reference":        reference,
			"owner_lock":       next.OwnerLock.String(),
			"beneficiary_lock": next.BeneficiaryLock.String(),
		},
	})

	return nil
}

// unlockFundsForBeneficiary completes settlement: valid only once the owner
// has released, the beneficiary still holds, and the reference is invoiced.
// Tears down the lock and deposit, marks the reference settled, and moves the
// currency from owner to beneficiary.
func (uc *EscrowUseCase) unlockFundsForBeneficiary(ctx context.Context, beneficiary, reference string) error {
	if err := uc.requireLive(ctx, reference); err != nil {
		return err
	}
	if err := uc.checkBeneficiary(ctx, beneficiary, reference); err != nil {
		return err
	}

	lock, err := uc.escrows.Lock(ctx, reference)
	if err != nil {
		return err
	}

	switch [2]domain.LockState{lock.OwnerLock, lock.BeneficiaryLock} {
	case [2]domain.LockState{domain.Locked, domain.Unlocked}:
		return domain.ErrOwnerNotReleased
	case [2]domain.LockState{domain.Locked, domain.Locked}:
		return domain.ErrFundsInPlay
	case [2]domain.LockState{domain.Unlocked, domain.Unlocked}:
		return domain.ErrLockExhausted
	case [2]domain.LockState{domain.Unlocked, domain.Locked}:
		// claimable
	default:
		return domain.ErrFundsInPlay
	}

	status, ok, err := uc.escrows.Status(ctx, reference)
	if err != nil {
		return err
	}
	if !ok || status != domain.StatusInvoiced {
		return domain.ErrNotInvoiced
	}

	deposit, err := uc.escrows.Deposit(ctx, reference)
	if err != nil {
		return err
	}

	if err := uc.cancelPrefundingLock(ctx, lock.Owner, reference, domain.StatusSettled); err != nil {
		return err
	}

	// The accounting moved with the settlement postings; this is the actual
	// currency handover.
	if err := uc.custody.Transfer(ctx, lock.Owner, beneficiary, deposit.Amount); err != nil {
		return fmt.Errorf("custody transfer: %w", err)
	}

	return nil
}

// UnlockFundsForOwner returns locked currency to the owner: either a reclaim
// after the deadline while the beneficiary never accepted, or a cancellation
// the beneficiary has authorised by fully releasing the lock.
func (uc *EscrowUseCase) UnlockFundsForOwner(ctx context.Context, owner, reference, correlationID string) error {
	uc.engine.mu.Lock()
	defer uc.engine.mu.Unlock()

	start := time.Now()
	defer uc.observe(start)

	if err := uc.requireLive(ctx, reference); err != nil {
		return err
	}
	if err := uc.checkOwner(ctx, owner, reference); err != nil {
		return err
	}

	lock, err := uc.escrows.Lock(ctx, reference)
	if err != nil {
		return err
	}

	switch [2]domain.LockState{lock.OwnerLock, lock.BeneficiaryLock} {

	// Submitted but never accepted: reclaim, gated by the deadline.
	case [2]domain.LockState{domain.Locked, domain.Unlocked}:
		deposit, err := uc.escrows.Deposit(ctx, reference)
		if err != nil {
			return err
		}
		if !deposit.DeadlinePassed(uc.periods.Current()) {
			return domain.ErrDeadlineInPlay
		}
		return uc.cancelPrefundingLock(ctx, owner, reference, domain.StatusCancelled)

	case [2]domain.LockState{domain.Locked, domain.Locked}:
		return domain.ErrFundsInPlay

	case [2]domain.LockState{domain.Unlocked, domain.Locked}:
		return domain.ErrBeneficiaryClaim

	// Beneficiary authorised the owner to retake funds regardless of
	// deadline.
	case [2]domain.LockState{domain.Unlocked, domain.Unlocked}:
		return uc.cancelPrefundingLock(ctx, owner, reference, domain.StatusCancelled)

	default:
		return domain.ErrFundsInPlay
	}
}

// cancelPrefundingLock releases the custody lock back to the owner and tears
// down the escrow records. The reference keeps its terminal status so it
// stays readable.
func (uc *EscrowUseCase) cancelPrefundingLock(ctx context.Context, owner, reference string, status domain.ReferenceStatus) error {
	lockID, err := lockIDForReference(reference)
	if err != nil {
		return err
	}
	if err := uc.custody.RemoveLock(ctx, lockID, owner); err != nil {
		return fmt.Errorf("custody unlock: %w", err)
	}

	if err := uc.escrows.DeleteDeposit(ctx, reference); err != nil {
		return err
	}
	if err := uc.escrows.DeleteLock(ctx, reference); err != nil {
		return err
	}
	if err := uc.escrows.SetStatus(ctx, reference, status); err != nil {
		return err
	}
	if err := uc.escrows.RemoveOwnerReference(ctx, owner, reference); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.PrefundsCancelled.Inc()
	}
	uc.publish(ctx, domain.Event{
		ID:         uc.idGen.Generate(),
		Type:       domain.EventTypePrefundingCancelled,
		Reference:  reference,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]any{
			"reference": reference,
			"owner":     owner,
			"status":    status.String(),
		},
	})

	return nil
}

// CheckRefOwner reports whether identity owns the reference.
func (uc *EscrowUseCase) CheckRefOwner(ctx context.Context, identity, reference string) bool {
	lock, err := uc.escrows.Lock(ctx, reference)
	return err == nil && lock.Owner == identity
}

// CheckRefBeneficiary reports whether identity is the reference's beneficiary.
func (uc *EscrowUseCase) CheckRefBeneficiary(ctx context.Context, identity, reference string) bool {
	lock, err := uc.escrows.Lock(ctx, reference)
	return err == nil && lock.Beneficiary == identity
}

// LockRecord returns the lock record for a reference.
func (uc *EscrowUseCase) LockRecord(ctx context.Context, reference string) (*domain.EscrowLock, error) {
	return uc.escrows.Lock(ctx, reference)
}

// DepositRecord returns the prefunding deposit for a reference.
func (uc *EscrowUseCase) DepositRecord(ctx context.Context, reference string) (*domain.PrefundingDeposit, error) {
	return uc.escrows.Deposit(ctx, reference)
}

// StatusOf returns the lifecycle status for a reference.
func (uc *EscrowUseCase) StatusOf(ctx context.Context, reference string) (domain.ReferenceStatus, error) {
	status, ok, err := uc.escrows.Status(ctx, reference)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, domain.ErrReferenceNotFound
	}
	return status, nil
}

// OwnerReferences lists the references an owner has prefunded.
func (uc *EscrowUseCase) OwnerReferences(ctx context.Context, owner string) ([]string, error) {
	return uc.escrows.OwnerReferences(ctx, owner)
}

func (uc *EscrowUseCase) checkOwner(ctx context.Context, identity, reference string) error {
	lock, err := uc.escrows.Lock(ctx, reference)
	if err != nil {
		return err
	}
	if lock.Owner != identity {
		return domain.ErrNotOwner
	}
	return nil
}

func (uc *EscrowUseCase) checkBeneficiary(ctx context.Context, identity, reference string) error {
	lock, err := uc.escrows.Lock(ctx, reference)
	if err != nil {
		return err
	}
	if lock.Beneficiary != identity {
		return domain.ErrNotBeneficiary
	}
	return nil
}

// requireLive fails for unknown references and for terminal ones.
func (uc *EscrowUseCase) requireLive(ctx context.Context, reference string) error {
	status, ok, err := uc.escrows.Status(ctx, reference)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrReferenceNotFound
	}
	if !status.Live() {
		return domain.ErrReferenceNotLive
	}
	return nil
}

func (uc *EscrowUseCase) observe(start time.Time) {
	if uc.metrics != nil {
		uc.metrics.EscrowDuration.Observe(time.Since(start).Seconds())
	}
}

func (uc *EscrowUseCase) publish(ctx context.Context, event domain.Event) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, event); err != nil {
		if uc.metrics != nil {
			uc.metrics.EventErrors.Inc()
		}
		uc.logger.Warn().Err(err).Str("event_type", event.Type).Msg("event sink rejected event")
	}
}

// lockIDForReference derives the custody lock identifier from the first eight
// bytes of the reference hash.
func lockIDForReference(reference string) (LockID, error) {
	var id LockID
	raw, err := hex.DecodeString(reference)
	if err != nil || len(raw) < len(id) {
		return id, domain.ErrReferenceNotFound
	}
	copy(id[:], raw[:len(id)])
	return id, nil
}
