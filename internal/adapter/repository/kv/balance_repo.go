package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/escrowledger/internal/domain"
)

// BalanceRepository implements usecase.BalanceRepository over a Store.
type BalanceRepository struct {
	store Store
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(store Store) *BalanceRepository {
	return &BalanceRepository{store: store}
}

// Balance returns the (identity, account) balance; found=false when unseeded.
func (r *BalanceRepository) Balance(ctx context.Context, identity string, account domain.Account) (decimal.Decimal, bool, error) {
	return r.readBalance(ctx, balanceKey(identity, account))
}

// SetBalance stores the (identity, account) balance.
func (r *BalanceRepository) SetBalance(ctx context.Context, identity string, account domain.Account, balance decimal.Decimal) error {
	return r.store.Put(ctx, balanceKey(identity, account), []byte(balance.String()))
}

// GlobalBalance returns the ledger-wide balance for an account.
func (r *BalanceRepository) GlobalBalance(ctx context.Context, account domain.Account) (decimal.Decimal, bool, error) {
	return r.readBalance(ctx, globalKey(account))
}

// SetGlobalBalance stores the ledger-wide balance for an account.
func (r *BalanceRepository) SetGlobalBalance(ctx context.Context, account domain.Account, balance decimal.Decimal) error {
	return r.store.Put(ctx, globalKey(account), []byte(balance.String()))
}

// AccountsByIdentity lists the accounts an identity has posted to.
func (r *BalanceRepository) AccountsByIdentity(ctx context.Context, identity string) ([]domain.Account, error) {
	var accounts []domain.Account
	if _, err := getJSON(ctx, r.store, accountsKey(identity), &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// TouchAccount moves account to the end of the identity's touched list.
func (r *BalanceRepository) TouchAccount(ctx context.Context, identity string, account domain.Account) error {
	accounts, err := r.AccountsByIdentity(ctx, identity)
	if err != nil {
		return err
	}
	kept := accounts[:0]
	for _, a := range accounts {
		if a != account {
			kept = append(kept, a)
		}
	}
	kept = append(kept, account)
	return putJSON(ctx, r.store, accountsKey(identity), kept)
}

func (r *BalanceRepository) readBalance(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	raw, err := r.store.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return decimal.Decimal{}, false, nil
	}
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	balance, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return balance, true, nil
}
