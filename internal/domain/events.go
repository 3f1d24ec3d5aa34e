package domain

import "time"

// Event types emitted by the ledger core. Events are fire-and-forget
// notifications; nothing in the core depends on their delivery.
const (
	EventTypeLedgerPosted        = "ledger.posted"
	EventTypePrefundingCompleted = "escrow.prefunded"
	EventTypePrefundingLockSet   = "escrow.lock_set"
	EventTypePrefundingCancelled = "escrow.cancelled"
	EventTypeInvoiceIssued       = "escrow.invoiced"
	EventTypeInvoiceSettled      = "escrow.settled"
)

// Event is a domain notification handed to the event sink.
type Event struct {
	ID         string
	Type       string
	Reference  string
	OccurredAt time.Time
	Payload    map[string]any
}

// LedgerPostedEvent payload
type LedgerPostedEvent struct {
	Identity     string `json:"identity"`
	Account      string `json:"account"`
	Amount       string `json:"amount"`
	PostingIndex uint64 `json:"posting_index"`
}

// PrefundingCompletedEvent payload
type PrefundingCompletedEvent struct {
	Reference   string `json:"reference"`
	Owner       string `json:"owner"`
	Beneficiary string `json:"beneficiary"`
	Amount      string `json:"amount"`
	Deadline    uint64 `json:"deadline"`
}

// PrefundingLockSetEvent payload
type PrefundingLockSetEvent struct {
	Reference       string `json:"reference"`
	OwnerLock       string `json:"owner_lock"`
	BeneficiaryLock string `json:"beneficiary_lock"`
}

// PrefundingCancelledEvent payload
type PrefundingCancelledEvent struct {
	Reference string `json:"reference"`
	Owner     string `json:"owner"`
	Status    string `json:"status"`
}

// InvoiceIssuedEvent payload
type InvoiceIssuedEvent struct {
	Reference string `json:"reference"`
	Issuer    string `json:"issuer"`
	Payer     string `json:"payer"`
	Amount    string `json:"amount"`
}

// InvoiceSettledEvent payload
type InvoiceSettledEvent struct {
	Reference   string `json:"reference"`
	Owner       string `json:"owner"`
	Beneficiary string `json:"beneficiary"`
	Amount      string `json:"amount"`
}
