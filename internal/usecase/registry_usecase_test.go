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

func newRegistry(t *testing.T) (*usecase.RegistryUseCase, *mocks.MockBalanceRepository, *mocks.MockPostingRepository) {
	t.Helper()
	balances := mocks.NewMockBalanceRepository()
	postings := mocks.NewMockPostingRepository()
	engine := usecase.NewPostingEngine(balances, postings, mocks.NewMockPeriodSource(1), mocks.NewMockEntropy(), mocks.NewMockEventSink(), mocks.NewMockIDGenerator(), nil, zerolog.Nop())
	return usecase.NewRegistryUseCase(engine, balances, postings, nil, zerolog.Nop()), balances, postings
}

func TestSeedBalance_Idempotent(t *testing.T) {
	uc, balances, _ := newRegistry(t)
	ctx := context.Background()

	if err := uc.SeedBalance(ctx, "alice", domain.AccountFunctionalCurrency); err != nil {
		t.Fatalf("seed: %v", err)
	}

	balance, err := uc.Balance(ctx, "alice", domain.AccountFunctionalCurrency)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("expected zero balance, got %s", balance)
	}

	// A live balance survives a repeated seed
	if err := balances.SetBalance(ctx, "alice", domain.AccountFunctionalCurrency, decimal.NewFromInt(42)); err != nil {
		t.Fatal(err)
	}
	if err := balances.SetGlobalBalance(ctx, domain.AccountFunctionalCurrency, decimal.NewFromInt(42)); err != nil {
		t.Fatal(err)
	}
	if err := uc.SeedBalance(ctx, "alice", domain.AccountFunctionalCurrency); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	balance, err = uc.Balance(ctx, "alice", domain.AccountFunctionalCurrency)
	if err != nil {
		t.Fatal(err)
	}
	if balance.String() != "42" {
		t.Errorf("reseed clobbered the balance: %s", balance)
	}
	global, err := uc.GlobalBalance(ctx, domain.AccountFunctionalCurrency)
	if err != nil {
		t.Fatal(err)
	}
	if global.String() != "42" {
		t.Errorf("reseed clobbered the global balance: %s", global)
	}
}

func TestSeedEscrowRecipes(t *testing.T) {
	uc, _, _ := newRegistry(t)
	ctx := context.Background()

	if err := uc.SeedEscrowRecipes(ctx, "alice", "bob"); err != nil {
		t.Fatalf("seed recipes: %v", err)
	}

	// Both parties and the custodial identity get the full recipe chart
	for _, identity := range []string{"alice", "bob", usecase.EscrowAccountID} {
		for _, account := range recipeAccounts {
			if _, err := uc.Balance(ctx, identity, account); err != nil {
				t.Errorf("identity %s account %s not seeded: %v", identity, account, err)
			}
		}
		if _, err := uc.GlobalBalance(ctx, domain.AccountTransactionFees); err != nil {
			t.Errorf("global fee account not seeded: %v", err)
		}
	}
}

func TestBalance_NotSeeded(t *testing.T) {
	uc, _, _ := newRegistry(t)
	ctx := context.Background()

	if _, err := uc.Balance(ctx, "nobody", domain.AccountFunctionalCurrency); !errors.Is(err, domain.ErrBalanceNotSeeded) {
		t.Errorf("expected ErrBalanceNotSeeded, got %v", err)
	}
	if _, err := uc.GlobalBalance(ctx, domain.AccountFunctionalCurrency); !errors.Is(err, domain.ErrGlobalBalanceNotSeeded) {
		t.Errorf("expected ErrGlobalBalanceNotSeeded, got %v", err)
	}
}

func TestPostingIndexesAndDetail(t *testing.T) {
	uc, balances, postings := newRegistry(t)
	ctx := context.Background()

	if err := balances.SetBalance(ctx, "alice", domain.AccountFunctionalCurrency, decimal.Zero); err != nil {
		t.Fatal(err)
	}
	rec := domain.PostingRecord{
		Reference: testReference,
		Amount:    decimal.NewFromInt(7),
		Indicator: domain.Debit,
		Recorded:  3,
		AppliesTo: 3,
	}
	if err := postings.AppendIndex(ctx, "alice", domain.AccountFunctionalCurrency, 0); err != nil {
		t.Fatal(err)
	}
	if err := postings.PutRecord(ctx, "alice", domain.AccountFunctionalCurrency, 0, rec); err != nil {
		t.Fatal(err)
	}

	indexes, err := uc.PostingIndexes(ctx, "alice", domain.AccountFunctionalCurrency)
	if err != nil || len(indexes) != 1 || indexes[0] != 0 {
		t.Fatalf("expected [0], got %v err %v", indexes, err)
	}

	detail, err := uc.PostingDetail(ctx, "alice", domain.AccountFunctionalCurrency, 0)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Reference != testReference || detail.Amount.String() != "7" {
		t.Errorf("unexpected record: %+v", detail)
	}

	if _, err := uc.PostingDetail(ctx, "alice", domain.AccountFunctionalCurrency, 99); !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Errorf("expected ErrReferenceNotFound for missing index, got %v", err)
	}
}

func TestAccountsByIdentity_Order(t *testing.T) {
	uc, balances, _ := newRegistry(t)
	ctx := context.Background()

	for _, account := range []domain.Account{domain.AccountFunctionalCurrency, domain.AccountPayable, domain.AccountFunctionalCurrency} {
		if err := balances.TouchAccount(ctx, "alice", account); err != nil {
			t.Fatal(err)
		}
	}

	accounts, err := uc.AccountsByIdentity(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	want := []domain.Account{domain.AccountPayable, domain.AccountFunctionalCurrency}
	if len(accounts) != len(want) {
		t.Fatalf("expected %v, got %v", want, accounts)
	}
	for i := range want {
		if accounts[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, accounts)
		}
	}
}
