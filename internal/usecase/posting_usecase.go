package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/escrowledger/internal/domain"
	"github.com/iho/escrowledger/internal/infrastructure/metrics"
)

// PostingEngine is the only path by which ledger balances change. It applies
// signed deltas to (identity, account) and global balances, assigns posting
// indices and writes the audit records.
//
// All top-level operations serialize on the engine mutex: one operation runs
// to completion against the store before the next begins. The escrow use case
// shares this mutex, so its posting recipes and their own state changes form
// one sequential step.
type PostingEngine struct {
	mu       sync.Mutex
	balances BalanceRepository
	postings PostingRepository
	periods  PeriodSource
	entropy  Entropy
	events   EventSink
	idGen    IDGenerator
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	sequence atomic.Uint64
}

// NewPostingEngine creates a new PostingEngine.
func NewPostingEngine(
	balances BalanceRepository,
	postings PostingRepository,
	periods PeriodSource,
	entropy Entropy,
	events EventSink,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *PostingEngine {
	return &PostingEngine{
		balances: balances,
		postings: postings,
		periods:  periods,
		entropy:  entropy,
		events:   events,
		idGen:    idGen,
		metrics:  m,
		logger:   logger.With().Str("component", "posting_engine").Logger(),
	}
}

// PostAmounts applies a single leg. All storage checks run before any
// mutation, so an overflowing leg leaves no trace.
//
// Warning: a single leg can unbalance the ledger. Callers are expected to
// post corresponding debit and credit legs, normally through
// HandleMultipostingAmounts, which also reverses on partial failure.
func (e *PostingEngine) PostAmounts(ctx context.Context, leg domain.Leg) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.postAmounts(ctx, leg)
}

// postAmounts is the unexported body; the caller holds the engine mutex.
func (e *PostingEngine) postAmounts(ctx context.Context, leg domain.Leg) error {
	// Get and increment the posting number. The very first posting in the
	// ledger's life uses index 0.
	var index domain.PostingIndex
	current, seeded, err := e.postings.Counter(ctx)
	if err != nil {
		return fmt.Errorf("posting counter: %w", err)
	}
	if seeded {
		if current == math.MaxUint64 {
			return domain.ErrPostingIndexOverflow
		}
		index = current + 1
	}

	balance, ok, err := e.balances.Balance(ctx, leg.Identity, leg.Account)
	if err != nil {
		return fmt.Errorf("balance fetch: %w", err)
	}
	if !ok {
		return domain.ErrBalanceNotSeeded
	}
	global, ok, err := e.balances.GlobalBalance(ctx, leg.Account)
	if err != nil {
		return fmt.Errorf("global balance fetch: %w", err)
	}
	if !ok {
		return domain.ErrGlobalBalanceNotSeeded
	}

	// Amounts arrive already signed, so both updates are plain checked sums.
	// Nothing below may touch storage until both succeed.
	newBalance, err := domain.AddChecked(balance, leg.Amount)
	if err != nil {
		return domain.ErrBalanceValueOverflow
	}
	newGlobal, err := domain.AddChecked(global, leg.Amount)
	if err != nil {
		return domain.ErrGlobalBalanceValueOverflow
	}

	if err := e.postings.SetCounter(ctx, index); err != nil {
		return fmt.Errorf("posting counter update: %w", err)
	}
	if err := e.postings.AppendIndex(ctx, leg.Identity, leg.Account, index); err != nil {
		return fmt.Errorf("posting index list: %w", err)
	}
	if err := e.balances.TouchAccount(ctx, leg.Identity, leg.Account); err != nil {
		return fmt.Errorf("touched accounts: %w", err)
	}
	if err := e.balances.SetBalance(ctx, leg.Identity, leg.Account, newBalance); err != nil {
		return fmt.Errorf("balance update: %w", err)
	}
	record := domain.PostingRecord{
		Recorded:  leg.Recorded,
		Amount:    leg.Amount.Abs(),
		Indicator: leg.Indicator,
		Reference: leg.Reference,
		AppliesTo: leg.AppliesTo,
	}
	if err := e.postings.PutRecord(ctx, leg.Identity, leg.Account, index, record); err != nil {
		return fmt.Errorf("posting record: %w", err)
	}
	if err := e.balances.SetGlobalBalance(ctx, leg.Account, newGlobal); err != nil {
		return fmt.Errorf("global balance update: %w", err)
	}

	if e.metrics != nil {
		e.metrics.PostingsApplied.Inc()
	}

	e.publish(ctx, domain.Event{
		ID:         e.idGen.Generate(),
		Type:       domain.EventTypeLedgerPosted,
		Reference:  leg.Reference,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]any{
			"identity":      leg.Identity,
			"account":       leg.Account.String(),
			"amount":        leg.Amount.String(),
			"posting_index": uint64(index),
		},
	})

	return nil
}

// HandleMultipostingAmounts applies forward legs strictly in order. After each
// successful leg the matching reversal leg, when one exists, is appended to
// tracked. On the first failure every tracked leg is replayed to put balances
// back; a replay failure is ErrSystemFailure, otherwise the caller sees
// ErrAmountOverflow and an unchanged ledger.
//
// forward[i] and reversal[i] must be exact inverses for every i in range of
// both slices. That pairing is trusted caller input and is not verified here.
// The last forward leg needs no reversal: if it errors it was never posted.
func (e *PostingEngine) HandleMultipostingAmounts(ctx context.Context, forward, reversal, tracked []domain.Leg) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.handleMultipostingAmounts(ctx, forward, reversal, tracked)
}

func (e *PostingEngine) handleMultipostingAmounts(ctx context.Context, forward, reversal, tracked []domain.Leg) error {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.PostingDuration.Observe(time.Since(start).Seconds())
		}
	}()

	for pos, leg := range forward {
		err := e.postAmounts(ctx, leg)
		if err == nil {
			if pos < len(reversal) {
				tracked = append(tracked, reversal[pos])
			}
			continue
		}

		// The failing leg itself changed nothing, but earlier legs did.
		// Replay the tracked reversals, raw deltas only, no re-validation.
		for _, rev := range tracked {
			if replayErr := e.postAmounts(ctx, rev); replayErr != nil {
				if e.metrics != nil {
					e.metrics.SystemFailures.Inc()
				}
				e.logger.Error().
					Err(replayErr).
					Str("identity", rev.Identity).
					Str("account", rev.Account.String()).
					Msg("reversal replay failed, ledger is asymmetric")
				return domain.ErrSystemFailure
			}
			if e.metrics != nil {
				e.metrics.PostingsReversed.Inc()
			}
		}
		if e.metrics != nil {
			e.metrics.PostingErrors.WithLabelValues("amount_overflow").Inc()
		}
		return fmt.Errorf("%w: leg %d: %v", domain.ErrAmountOverflow, pos, err)
	}

	return nil
}

// AccountForFees books a transaction fee against the payer: a debit to the
// fee expense account matched by a credit to the functional currency account.
func (e *PostingEngine) AccountForFees(ctx context.Context, fee decimal.Decimal, payer string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	increase := fee
	decrease := fee.Neg()
	period := e.periods.Current()
	// The fee hash has no order behind it; it only lets the postings share a
	// correlation key.
	feeHash := e.pseudoRandomHash(payer, payer)

	forward := []domain.Leg{
		{Identity: payer, Account: domain.AccountTransactionFees, Amount: increase, Indicator: domain.Debit, Reference: feeHash, Recorded: period, AppliesTo: period},
		{Identity: payer, Account: domain.AccountFunctionalCurrency, Amount: decrease, Indicator: domain.Credit, Reference: feeHash, Recorded: period, AppliesTo: period},
	}
	reversal := []domain.Leg{
		{Identity: payer, Account: domain.AccountTransactionFees, Amount: decrease, Indicator: domain.Credit, Reference: feeHash, Recorded: period, AppliesTo: period},
		{Identity: payer, Account: domain.AccountFunctionalCurrency, Amount: increase, Indicator: domain.Debit, Reference: feeHash, Recorded: period, AppliesTo: period},
	}

	return e.handleMultipostingAmounts(ctx, forward, reversal, make([]domain.Leg, 0, 2))
}

// EscrowAccount returns the fixed custodial identity for locked funds.
func (e *PostingEngine) EscrowAccount() string {
	return EscrowAccountID
}

// PseudoRandomHash derives a reference hash from the two parties, the wall
// clock, external entropy, a per-engine sequence and the current period. Good
// enough to be unique, not unpredictable; never use it as a security token.
func (e *PostingEngine) PseudoRandomHash(partyA, partyB string) string {
	return e.pseudoRandomHash(partyA, partyB)
}

func (e *PostingEngine) pseudoRandomHash(partyA, partyB string) string {
	seed := e.entropy.Seed()

	var buf [8]byte
	h := sha256.New()
	h.Write([]byte(partyA))
	h.Write([]byte(partyB))
	binary.BigEndian.PutUint64(buf[:], uint64(time.Now().UnixNano()))
	h.Write(buf[:])
	h.Write(seed[:])
	binary.BigEndian.PutUint64(buf[:], e.sequence.Add(1))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], e.periods.Current())
	h.Write(buf[:])

	return hex.EncodeToString(h.Sum(nil))
}

// publish hands an event to the sink. Sink failures are logged and dropped;
// event delivery never feeds back into ledger logic.
func (e *PostingEngine) publish(ctx context.Context, event domain.Event) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, event); err != nil {
		if e.metrics != nil {
			e.metrics.EventErrors.Inc()
		}
		e.logger.Warn().Err(err).Str("event_type", event.Type).Msg("event sink rejected event")
	}
}
