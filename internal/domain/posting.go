package domain

import "github.com/shopspring/decimal"

// Indicator marks a posting leg as a debit or a credit. Whether that grows or
// shrinks the balance depends on the account, so legs always carry a signed
// amount alongside the indicator.
type Indicator uint8

const (
	Debit  Indicator = 0
	Credit Indicator = 1
)

func (i Indicator) String() string {
	if i == Credit {
		return "credit"
	}
	return "debit"
}

// PostingIndex is a global monotonically increasing counter. Each applied leg
// consumes one index; a reversal is a new posting with its own index, never a
// reuse.
type PostingIndex uint64

// Leg is one signed balance mutation against one (identity, account) pair.
type Leg struct {
	Identity  string
	Account   Account
	Amount    decimal.Decimal // signed
	Indicator Indicator
	Reference string // reference hash correlating related postings
	Recorded  uint64 // period in which the leg is recorded
	AppliesTo uint64 // period the entry is recognised in (accruals re-target this)
}

// Inverse returns the exact reversal of the leg: same identity, account and
// reference, negated amount, flipped indicator.
func (l Leg) Inverse() Leg {
	inv := l
	inv.Amount = l.Amount.Neg()
	if l.Indicator == Debit {
		inv.Indicator = Credit
	} else {
		inv.Indicator = Debit
	}
	return inv
}

// PostingRecord is the immutable audit tuple written once per applied leg,
// keyed by (identity, account, posting index).
type PostingRecord struct {
	Recorded  uint64          `json:"recorded"`
	Amount    decimal.Decimal `json:"amount"` // absolute value; sign lives in the indicator
	Indicator Indicator       `json:"indicator"`
	Reference string          `json:"reference"`
	AppliesTo uint64          `json:"applies_to"`
}
