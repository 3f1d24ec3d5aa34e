package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/escrowledger/internal/domain"
)

// EscrowResponse represents an escrow reference in API responses.
type EscrowResponse struct {
	Reference       string           `json:"reference"`
	Owner           string           `json:"owner"`
	OwnerLock       string           `json:"owner_lock"`
	Beneficiary     string           `json:"beneficiary"`
	BeneficiaryLock string           `json:"beneficiary_lock"`
	Status          uint16           `json:"status"`
	StatusText      string           `json:"status_text"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Deadline        *uint64          `json:"deadline,omitempty"`
}

// EscrowFromDomain converts an escrow lock plus its deposit and status.
func EscrowFromDomain(reference string, lock *domain.EscrowLock, deposit *domain.PrefundingDeposit, status domain.ReferenceStatus) *EscrowResponse {
	resp := &EscrowResponse{
		Reference:       reference,
		Owner:           lock.Owner,
		OwnerLock:       lock.OwnerLock.String(),
		Beneficiary:     lock.Beneficiary,
		BeneficiaryLock: lock.BeneficiaryLock.String(),
		Status:          uint16(status),
		StatusText:      status.String(),
	}
	if deposit != nil {
		resp.Amount = &deposit.Amount
		resp.Deadline = &deposit.Deadline
	}
	return resp
}

// BalanceResponse represents a ledger balance in API responses.
type BalanceResponse struct {
	Identity string          `json:"identity,omitempty"`
	Account  uint64          `json:"account"`
	Name     string          `json:"name"`
	Balance  decimal.Decimal `json:"balance"`
}

// AccountListResponse lists the accounts an identity has postings against.
type AccountListResponse struct {
	Identity string            `json:"identity"`
	Accounts []AccountResponse `json:"accounts"`
}

// AccountResponse represents a chart account in API responses.
type AccountResponse struct {
	Account   uint64 `json:"account"`
	Name      string `json:"name"`
	Statement string `json:"statement"`
}

// AccountsFromDomain converts chart accounts to responses.
func AccountsFromDomain(accounts []domain.Account) []AccountResponse {
	result := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountResponse{
			Account:   uint64(a),
			Name:      a.Label(),
			Statement: statementName(a.StatementType()),
		}
	}
	return result
}

func statementName(t uint8) string {
	switch t {
	case 1:
		return "balance sheet"
	case 2:
		return "profit and loss"
	case 3:
		return "memorandum"
	default:
		return "unknown"
	}
}

// PostingIndexesResponse lists posting indexes for an identity and account.
type PostingIndexesResponse struct {
	Identity string   `json:"identity"`
	Account  uint64   `json:"account"`
	Indexes  []uint64 `json:"indexes"`
}

// PostingResponse represents a recorded posting in API responses.
type PostingResponse struct {
	Index     uint64          `json:"index"`
	Amount    decimal.Decimal `json:"amount"`
	Indicator string          `json:"indicator"`
	Reference string          `json:"reference"`
	Recorded  uint64          `json:"recorded"`
	AppliesTo uint64          `json:"applies_to"`
}

// PostingFromDomain converts a posting record to a response.
func PostingFromDomain(index domain.PostingIndex, rec *domain.PostingRecord) *PostingResponse {
	return &PostingResponse{
		Index:     uint64(index),
		Amount:    rec.Amount,
		Indicator: rec.Indicator.String(),
		Reference: rec.Reference,
		Recorded:  rec.Recorded,
		AppliesTo: rec.AppliesTo,
	}
}

// ReferencesResponse lists escrow references held by an owner.
type ReferencesResponse struct {
	Owner      string   `json:"owner"`
	References []string `json:"references"`
}

// CustodyBalanceResponse represents a custody balance in API responses.
type CustodyBalanceResponse struct {
	Account string          `json:"account"`
	Balance decimal.Decimal `json:"balance"`
	Free    decimal.Decimal `json:"free"`
}

// StatusResponse acknowledges a state-changing request.
type StatusResponse struct {
	Reference string `json:"reference,omitempty"`
	Status    string `json:"status"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
