package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/escrowledger/internal/adapter/repository/kv"
	"github.com/iho/escrowledger/internal/adapter/repository/kv/memory"
)

func TestStore_GetPutDelete(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	if err := store.Put(ctx, "a", []byte("one")); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, "a")
	if err != nil || string(got) != "one" {
		t.Fatalf("expected one, got %q err %v", got, err)
	}

	// Overwrite
	if err := store.Put(ctx, "a", []byte("two")); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Get(ctx, "a")
	if string(got) != "two" {
		t.Fatalf("expected two, got %q", got)
	}

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}

	// Deleting an absent key is a no-op
	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	if err := store.Put(ctx, "k", []byte("abc")); err != nil {
		t.Fatal(err)
	}
	got, _ := store.Get(ctx, "k")
	got[0] = 'x'

	again, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value mutated through the returned slice: %q", again)
	}
}

func TestStore_List(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	for _, key := range []string{"balance/b", "balance/a", "global/a"} {
		if err := store.Put(ctx, key, []byte("0")); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := store.List(ctx, "balance/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "balance/a" || keys[1] != "balance/b" {
		t.Fatalf("expected sorted balance keys, got %v", keys)
	}

	keys, _ = store.List(ctx, "nosuch/")
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}

	if store.Len() != 3 {
		t.Fatalf("expected 3 keys stored, got %d", store.Len())
	}
}
