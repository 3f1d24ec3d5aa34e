// Package kv implements the ledger repositories over a plain key-value
// store. The store only needs get/put/delete/list with read-your-writes
// consistency inside one operation; the sequential execution discipline of
// the use case layer provides the rest.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/iho/escrowledger/internal/domain"
)

// ErrKeyNotFound is returned by Store.Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// Store is the minimal key-value contract the repositories build on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// List returns the keys under prefix, in unspecified order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Key layout. One namespace per record kind; the reference hash or the
// (identity, account) pair completes the key.
const (
	keyPostingCounter = "posting/counter"
	keyBalance        = "balance/"     // balance/<identity>/<account>
	keyGlobal         = "global/"      // global/<account>
	keyPostingList    = "postinglist/" // postinglist/<identity>/<account>
	keyAccounts       = "accounts/"    // accounts/<identity>
	keyDetail         = "detail/"      // detail/<identity>/<account>/<index>
	keyEscrowLock     = "escrow/lock/"
	keyEscrowDeposit  = "escrow/deposit/"
	keyEscrowStatus   = "escrow/status/"
	keyOwnerRefs      = "escrow/refs/"
)

func balanceKey(identity string, account domain.Account) string {
	return keyBalance + identity + "/" + account.String()
}

func globalKey(account domain.Account) string {
	return keyGlobal + account.String()
}

func postingListKey(identity string, account domain.Account) string {
	return keyPostingList + identity + "/" + account.String()
}

func accountsKey(identity string) string {
	return keyAccounts + identity
}

func detailKey(identity string, account domain.Account, index domain.PostingIndex) string {
	return keyDetail + identity + "/" + account.String() + "/" + strconv.FormatUint(uint64(index), 10)
}

// getJSON loads and decodes a JSON value; found=false for absent keys.
func getJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func putJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, raw)
}
