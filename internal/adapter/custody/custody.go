// Package custody adapts the currency-custody primitive the escrow core
// depends on: named locks over per-account free balances, plus transfers.
// It is the one collaborator that mutates state outside the ledger core's
// exclusive ownership.
package custody

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/escrowledger/internal/adapter/repository/kv"
	"github.com/iho/escrowledger/internal/usecase"
)

// ErrInsufficientFunds reports a transfer or withdrawal the account's
// unlocked balance cannot cover.
var ErrInsufficientFunds = errors.New("insufficient unlocked funds")

const (
	keyBalance = "custody/balance/" // custody/balance/<account>
	keyLock    = "custody/lock/"    // custody/lock/<account>/<lock id>
)

type lockRecord struct {
	Amount decimal.Decimal `json:"amount"`
	Until  uint64          `json:"until"`
}

// Service implements usecase.Custody over a kv.Store.
type Service struct {
	store kv.Store
}

// NewService creates a new custody Service.
func NewService(store kv.Store) *Service {
	return &Service{store: store}
}

// Deposit credits an account's custody balance. Used to fund accounts from
// outside the escrow protocol; not part of the core's Custody interface.
func (s *Service) Deposit(ctx context.Context, account string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("deposit amount must be positive")
	}
	balance, err := s.balance(ctx, account)
	if err != nil {
		return err
	}
	return s.setBalance(ctx, account, balance.Add(amount))
}

// Balance returns an account's total custody balance, locked funds included.
func (s *Service) Balance(ctx context.Context, account string) (decimal.Decimal, error) {
	return s.balance(ctx, account)
}

// FreeBalance returns the unlocked portion of an account's balance.
func (s *Service) FreeBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	balance, err := s.balance(ctx, account)
	if err != nil {
		return decimal.Decimal{}, err
	}
	locked, err := s.lockedTotal(ctx, account)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return balance.Sub(locked), nil
}

// SetLock places (or replaces) the named lock on an account.
func (s *Service) SetLock(ctx context.Context, id usecase.LockID, account string, amount decimal.Decimal, until uint64) error {
	free, err := s.FreeBalance(ctx, account)
	if err != nil {
		return err
	}
	if free.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return s.putLock(ctx, id, account, lockRecord{Amount: amount, Until: until})
}

// ExtendLock raises the named lock to at least amount and until. A missing
// lock is simply created.
func (s *Service) ExtendLock(ctx context.Context, id usecase.LockID, account string, amount decimal.Decimal, until uint64) error {
	var current lockRecord
	found, err := s.getLock(ctx, id, account, &current)
	if err != nil {
		return err
	}
	if found {
		if current.Amount.GreaterThan(amount) {
			amount = current.Amount
		}
		if current.Until > until {
			until = current.Until
		}
	}
	return s.putLock(ctx, id, account, lockRecord{Amount: amount, Until: until})
}

// RemoveLock releases the named lock.
func (s *Service) RemoveLock(ctx context.Context, id usecase.LockID, account string) error {
	return s.store.Delete(ctx, lockKey(id, account))
}

// Transfer moves amount between custody accounts. The sender's unlocked
// balance must cover it.
func (s *Service) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("transfer amount must be positive")
	}

	free, err := s.FreeBalance(ctx, from)
	if err != nil {
		return err
	}
	if free.LessThan(amount) {
		return ErrInsufficientFunds
	}

	fromBalance, err := s.balance(ctx, from)
	if err != nil {
		return err
	}
	toBalance, err := s.balance(ctx, to)
	if err != nil {
		return err
	}

	if err := s.setBalance(ctx, from, fromBalance.Sub(amount)); err != nil {
		return err
	}
	return s.setBalance(ctx, to, toBalance.Add(amount))
}

func (s *Service) balance(ctx context.Context, account string) (decimal.Decimal, error) {
	raw, err := s.store.Get(ctx, keyBalance+account)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Decimal{}, err
	}
	balance, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode custody balance %s: %w", account, err)
	}
	return balance, nil
}

func (s *Service) setBalance(ctx context.Context, account string, balance decimal.Decimal) error {
	return s.store.Put(ctx, keyBalance+account, []byte(balance.String()))
}

func (s *Service) lockedTotal(ctx context.Context, account string) (decimal.Decimal, error) {
	keys, err := s.store.List(ctx, keyLock+account+"/")
	if err != nil {
		return decimal.Decimal{}, err
	}
	total := decimal.Zero
	for _, key := range keys {
		raw, err := s.store.Get(ctx, key)
		if err != nil {
			return decimal.Decimal{}, err
		}
		var rec lockRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return decimal.Decimal{}, fmt.Errorf("decode custody lock %s: %w", key, err)
		}
		total = total.Add(rec.Amount)
	}
	return total, nil
}

func (s *Service) getLock(ctx context.Context, id usecase.LockID, account string, out *lockRecord) (bool, error) {
	raw, err := s.store.Get(ctx, lockKey(id, account))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode custody lock: %w", err)
	}
	return true, nil
}

func (s *Service) putLock(ctx context.Context, id usecase.LockID, account string, rec lockRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, lockKey(id, account), raw)
}

func lockKey(id usecase.LockID, account string) string {
	return keyLock + account + "/" + hex.EncodeToString(id[:])
}
