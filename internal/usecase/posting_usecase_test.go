package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/escrowledger/internal/domain"
	"github.com/iho/escrowledger/internal/usecase"
	"github.com/iho/escrowledger/internal/usecase/mocks"
)

func newEngine(t *testing.T) (*usecase.PostingEngine, *mocks.MockBalanceRepository, *mocks.MockPostingRepository, *mocks.MockEventSink) {
	t.Helper()
	balances := mocks.NewMockBalanceRepository()
	postings := mocks.NewMockPostingRepository()
	events := mocks.NewMockEventSink()
	engine := usecase.NewPostingEngine(
		balances,
		postings,
		mocks.NewMockPeriodSource(5),
		mocks.NewMockEntropy(),
		events,
		mocks.NewMockIDGenerator(),
		nil,
		zerolog.Nop(),
	)
	return engine, balances, postings, events
}

func seedAccount(t *testing.T, balances *mocks.MockBalanceRepository, identity string, account domain.Account) {
	t.Helper()
	ctx := context.Background()
	if err := balances.SetBalance(ctx, identity, account, decimal.Zero); err != nil {
		t.Fatalf("seed balance: %v", err)
	}
	if _, ok, _ := balances.GlobalBalance(ctx, account); !ok {
		if err := balances.SetGlobalBalance(ctx, account, decimal.Zero); err != nil {
			t.Fatalf("seed global balance: %v", err)
		}
	}
}

func leg(identity string, account domain.Account, amount string, ind domain.Indicator) domain.Leg {
	return domain.Leg{
		Identity:  identity,
		Account:   account,
		Amount:    decimal.RequireFromString(amount),
		Indicator: ind,
		Reference: "cafebabe00000000",
		Recorded:  5,
		AppliesTo: 5,
	}
}

func TestPostAmounts_IndexStartsAtZero(t *testing.T) {
	engine, balances, postings, _ := newEngine(t)
	ctx := context.Background()
	seedAccount(t, balances, "alice", domain.AccountFunctionalCurrency)

	for i := 0; i < 3; i++ {
		if err := engine.PostAmounts(ctx, leg("alice", domain.AccountFunctionalCurrency, "10", domain.Debit)); err != nil {
			t.Fatalf("posting %d: %v", i, err)
		}
	}

	indexes, err := postings.Indexes(ctx, "alice", domain.AccountFunctionalCurrency)
	if err != nil {
		t.Fatalf("indexes: %v", err)
	}
	want := []domain.PostingIndex{0, 1, 2}
	if len(indexes) != len(want) {
		t.Fatalf("expected %d indexes, got %d", len(want), len(indexes))
	}
	for i, idx := range indexes {
		if idx != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], idx)
		}
	}

	balance, _, _ := balances.Balance(ctx, "alice", domain.AccountFunctionalCurrency)
	if balance.String() != "30" {
		t.Errorf("expected balance 30, got %s", balance)
	}
	global, _, _ := balances.GlobalBalance(ctx, domain.AccountFunctionalCurrency)
	if global.String() != "30" {
		t.Errorf("expected global balance 30, got %s", global)
	}
}

func TestPostAmounts_UnseededBalance(t *testing.T) {
	engine, balances, _, _ := newEngine(t)
	ctx := context.Background()

	err := engine.PostAmounts(ctx, leg("alice", domain.AccountFunctionalCurrency, "10", domain.Debit))
	if !errors.Is(err, domain.ErrBalanceNotSeeded) {
		t.Fatalf("expected ErrBalanceNotSeeded, got %v", err)
	}

	// Identity balance seeded, global missing
	if err := balances.SetBalance(ctx, "alice", domain.AccountFunctionalCurrency, decimal.Zero); err != nil {
		t.Fatal(err)
	}
	err = engine.PostAmounts(ctx, leg("alice", domain.AccountFunctionalCurrency, "10", domain.Debit))
	if !errors.Is(err, domain.ErrGlobalBalanceNotSeeded) {
		t.Fatalf("expected ErrGlobalBalanceNotSeeded, got %v", err)
	}
}

func TestPostAmounts_OverflowLeavesNoTrace(t *testing.T) {
	engine, balances, postings, _ := newEngine(t)
	ctx := context.Background()
	seedAccount(t, balances, "alice", domain.AccountFunctionalCurrency)
	if err := balances.SetBalance(ctx, "alice", domain.AccountFunctionalCurrency, domain.MaxLedgerBalance); err != nil {
		t.Fatal(err)
	}

	err := engine.PostAmounts(ctx, leg("alice", domain.AccountFunctionalCurrency, "1", domain.Debit))
	if !errors.Is(err, domain.ErrBalanceValueOverflow) {
		t.Fatalf("expected ErrBalanceValueOverflow, got %v", err)
	}

	// The counter must not have been consumed
	if _, seeded, _ := postings.Counter(ctx); seeded {
		t.Error("failed posting must not consume a posting index")
	}
	balance, _, _ := balances.Balance(ctx, "alice", domain.AccountFunctionalCurrency)
	if !balance.Equal(domain.MaxLedgerBalance) {
		t.Errorf("balance changed on failed posting: %s", balance)
	}
}

func TestHandleMultipostingAmounts_DoubleEntryInvariant(t *testing.T) {
	engine, balances, _, _ := newEngine(t)
	ctx := context.Background()
	seedAccount(t, balances, "alice", domain.AccountPrefundingDeposit)
	seedAccount(t, balances, "alice", domain.AccountFunctionalCurrency)
	seedAccount(t, balances, "bob", domain.AccountFunctionalCurrency)

	forward := []domain.Leg{
		leg("alice", domain.AccountPrefundingDeposit, "100", domain.Debit),
		leg("alice", domain.AccountFunctionalCurrency, "-100", domain.Credit),
		leg("bob", domain.AccountFunctionalCurrency, "40", domain.Debit),
	}
	reversal := []domain.Leg{
		forward[0].Inverse(),
		forward[1].Inverse(),
	}

	if err := engine.HandleMultipostingAmounts(ctx, forward, reversal, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Global balance per account equals the sum over identities
	alice, _, _ := balances.Balance(ctx, "alice", domain.AccountFunctionalCurrency)
	bob, _, _ := balances.Balance(ctx, "bob", domain.AccountFunctionalCurrency)
	global, _, _ := balances.GlobalBalance(ctx, domain.AccountFunctionalCurrency)
	if !global.Equal(alice.Add(bob)) {
		t.Errorf("global %s != alice %s + bob %s", global, alice, bob)
	}
	if global.String() != "-60" {
		t.Errorf("expected global -60, got %s", global)
	}
}

func TestHandleMultipostingAmounts_ReversesOnFailure(t *testing.T) {
	engine, balances, postings, _ := newEngine(t)
	ctx := context.Background()
	seedAccount(t, balances, "alice", domain.AccountPrefundingDeposit)
	// AccountFunctionalCurrency deliberately unseeded: the second leg fails

	forward := []domain.Leg{
		leg("alice", domain.AccountPrefundingDeposit, "100", domain.Debit),
		leg("alice", domain.AccountFunctionalCurrency, "-100", domain.Credit),
	}
	reversal := []domain.Leg{
		forward[0].Inverse(),
		forward[1].Inverse(),
	}

	err := engine.HandleMultipostingAmounts(ctx, forward, reversal, nil)
	if !errors.Is(err, domain.ErrAmountOverflow) {
		t.Fatalf("expected ErrAmountOverflow, got %v", err)
	}

	// The forward leg was undone by a compensating posting
	balance, _, _ := balances.Balance(ctx, "alice", domain.AccountPrefundingDeposit)
	if !balance.IsZero() {
		t.Errorf("expected reversed balance 0, got %s", balance)
	}
	global, _, _ := balances.GlobalBalance(ctx, domain.AccountPrefundingDeposit)
	if !global.IsZero() {
		t.Errorf("expected reversed global 0, got %s", global)
	}

	// Reversal postings are new postings with fresh indexes, not deletions
	indexes, _ := postings.Indexes(ctx, "alice", domain.AccountPrefundingDeposit)
	if len(indexes) != 2 {
		t.Fatalf("expected forward plus reversal index, got %d", len(indexes))
	}
	if indexes[0] != 0 || indexes[1] != 1 {
		t.Errorf("expected indexes [0 1], got %v", indexes)
	}
}

func TestHandleMultipostingAmounts_ReplayFailureIsSystemFailure(t *testing.T) {
	engine, _, _, _ := newEngine(t)
	ctx := context.Background()

	// First leg fails at once (nothing seeded); the tracked reversal hits an
	// unseeded account too, so the replay itself fails.
	forward := []domain.Leg{
		leg("alice", domain.AccountFunctionalCurrency, "10", domain.Debit),
	}
	tracked := []domain.Leg{
		leg("ghost", domain.AccountPayable, "10", domain.Debit),
	}

	err := engine.HandleMultipostingAmounts(ctx, forward, nil, tracked)
	if !errors.Is(err, domain.ErrSystemFailure) {
		t.Fatalf("expected ErrSystemFailure, got %v", err)
	}
}

func TestAccountForFees(t *testing.T) {
	engine, balances, _, events := newEngine(t)
	ctx := context.Background()
	seedAccount(t, balances, "alice", domain.AccountTransactionFees)
	seedAccount(t, balances, "alice", domain.AccountFunctionalCurrency)

	if err := engine.AccountForFees(ctx, decimal.RequireFromString("3"), "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fees, _, _ := balances.Balance(ctx, "alice", domain.AccountTransactionFees)
	if fees.String() != "3" {
		t.Errorf("expected fee balance 3, got %s", fees)
	}
	currency, _, _ := balances.Balance(ctx, "alice", domain.AccountFunctionalCurrency)
	if currency.String() != "-3" {
		t.Errorf("expected currency balance -3, got %s", currency)
	}

	// Both legs share one correlation reference
	published := events.Events()
	if len(published) != 2 {
		t.Fatalf("expected 2 posted events, got %d", len(published))
	}
	if published[0].Payload["account"] == published[1].Payload["account"] {
		t.Error("fee legs must hit different accounts")
	}
}

func TestPseudoRandomHash(t *testing.T) {
	engine, _, _, _ := newEngine(t)

	a := engine.PseudoRandomHash("alice", "bob")
	b := engine.PseudoRandomHash("alice", "bob")

	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a == b {
		t.Error("consecutive hashes for the same parties must differ")
	}
}
