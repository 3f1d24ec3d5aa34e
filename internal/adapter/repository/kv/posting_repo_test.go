package kv_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/escrowledger/internal/adapter/repository/kv"
	"github.com/iho/escrowledger/internal/adapter/repository/kv/memory"
	"github.com/iho/escrowledger/internal/domain"
)

func TestPostingRepository_Counter(t *testing.T) {
	repo := kv.NewPostingRepository(memory.NewStore())
	ctx := context.Background()

	_, found, err := repo.Counter(ctx)
	if err != nil || found {
		t.Fatalf("expected unset counter, found=%v err=%v", found, err)
	}

	// Index zero is a real value, distinct from "never set"
	if err := repo.SetCounter(ctx, 0); err != nil {
		t.Fatal(err)
	}
	counter, found, err := repo.Counter(ctx)
	if err != nil || !found || counter != 0 {
		t.Fatalf("expected counter 0, got %d found=%v err=%v", counter, found, err)
	}

	if err := repo.SetCounter(ctx, 41); err != nil {
		t.Fatal(err)
	}
	counter, _, _ = repo.Counter(ctx)
	if counter != 41 {
		t.Fatalf("expected counter 41, got %d", counter)
	}
}

func TestPostingRepository_Indexes(t *testing.T) {
	repo := kv.NewPostingRepository(memory.NewStore())
	ctx := context.Background()

	indexes, err := repo.Indexes(ctx, "alice", domain.AccountFunctionalCurrency)
	if err != nil || len(indexes) != 0 {
		t.Fatalf("expected no indexes, got %v err %v", indexes, err)
	}

	for _, index := range []domain.PostingIndex{0, 1, 7} {
		if err := repo.AppendIndex(ctx, "alice", domain.AccountFunctionalCurrency, index); err != nil {
			t.Fatal(err)
		}
	}

	indexes, err = repo.Indexes(ctx, "alice", domain.AccountFunctionalCurrency)
	if err != nil {
		t.Fatal(err)
	}
	want := []domain.PostingIndex{0, 1, 7}
	if len(indexes) != len(want) {
		t.Fatalf("expected %v, got %v", want, indexes)
	}
	for i := range want {
		if indexes[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, indexes)
		}
	}

	// Another account's list stays empty
	other, _ := repo.Indexes(ctx, "alice", domain.AccountPayable)
	if len(other) != 0 {
		t.Fatalf("expected empty list for untouched account, got %v", other)
	}
}

func TestPostingRepository_Records(t *testing.T) {
	repo := kv.NewPostingRepository(memory.NewStore())
	ctx := context.Background()

	rec := domain.PostingRecord{
		Recorded:  12,
		Amount:    decimal.RequireFromString("99.5"),
		Indicator: domain.Credit,
		Reference: "cafebabe00000000",
		AppliesTo: 12,
	}
	if err := repo.PutRecord(ctx, "alice", domain.AccountFunctionalCurrency, 3, rec); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Record(ctx, "alice", domain.AccountFunctionalCurrency, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got.Recorded != 12 || !got.Amount.Equal(rec.Amount) || got.Indicator != domain.Credit || got.Reference != rec.Reference {
		t.Errorf("unexpected record: %+v", got)
	}

	if _, err := repo.Record(ctx, "alice", domain.AccountFunctionalCurrency, 4); !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
}
