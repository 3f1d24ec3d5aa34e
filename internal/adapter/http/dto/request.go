package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/escrowledger/internal/domain"
)

// CreatePrefundRequest represents a request to place escrowed prefunds.
type CreatePrefundRequest struct {
	Owner       string          `json:"owner"`
	Beneficiary string          `json:"beneficiary"`
	Amount      decimal.Decimal `json:"amount"`
	Deadline    uint64          `json:"deadline"`
	Reference   string          `json:"reference"`
}

// Validate checks structural fields the use case does not.
func (r *CreatePrefundRequest) Validate() error {
	if r.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if r.Beneficiary == "" {
		return fmt.Errorf("beneficiary is required")
	}
	if r.Reference == "" {
		return fmt.Errorf("reference is required")
	}
	return nil
}

// InvoiceRequest represents a request to invoice against a prefund.
type InvoiceRequest struct {
	Issuer string          `json:"issuer"`
	Payer  string          `json:"payer"`
	Amount decimal.Decimal `json:"amount"`
}

// Validate checks structural fields the use case does not.
func (r *InvoiceRequest) Validate() error {
	if r.Issuer == "" {
		return fmt.Errorf("issuer is required")
	}
	if r.Payer == "" {
		return fmt.Errorf("payer is required")
	}
	return nil
}

// SettleRequest represents a request to settle an invoiced prefund.
type SettleRequest struct {
	Caller string `json:"caller"`
}

// ReleaseRequest represents a request to change a party's release state.
type ReleaseRequest struct {
	Caller string `json:"caller"`
	State  string `json:"state"` // "locked" or "unlocked"
}

// LockState parses the requested state.
func (r *ReleaseRequest) LockState() (domain.LockState, error) {
	switch r.State {
	case "locked":
		return domain.Locked, nil
	case "unlocked":
		return domain.Unlocked, nil
	default:
		return domain.Unlocked, fmt.Errorf("state must be %q or %q", "locked", "unlocked")
	}
}

// ReclaimRequest represents an owner's request to reclaim unspent prefunds.
type ReclaimRequest struct {
	Owner string `json:"owner"`
}

// SeedBalanceRequest represents a request to seed a ledger balance.
type SeedBalanceRequest struct {
	Account uint64 `json:"account"`
}

// SeedRecipesRequest represents a request to seed the escrow recipe accounts.
type SeedRecipesRequest struct {
	Identities []string `json:"identities"`
}

// FeeRequest represents a request to post a transaction fee.
type FeeRequest struct {
	Payer  string          `json:"payer"`
	Amount decimal.Decimal `json:"amount"`
}

// DepositRequest represents a request to fund a custody account.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
