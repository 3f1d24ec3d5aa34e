package domain

import "github.com/shopspring/decimal"

// Ledger balances are signed integers confined to the 128-bit two's-complement
// range. Additions that would leave the range are rejected, never wrapped.
var (
	// MaxLedgerBalance is 2^127 - 1.
	MaxLedgerBalance = decimal.RequireFromString("170141183460469231731687303715884105727")
	// MinLedgerBalance is -2^127.
	MinLedgerBalance = decimal.RequireFromString("-170141183460469231731687303715884105728")
)

// AddChecked returns balance + delta, or an error when the sum leaves the
// ledger balance range. The inputs themselves are assumed in range.
func AddChecked(balance, delta decimal.Decimal) (decimal.Decimal, error) {
	sum := balance.Add(delta)
	if sum.GreaterThan(MaxLedgerBalance) || sum.LessThan(MinLedgerBalance) {
		return decimal.Decimal{}, ErrBalanceOutOfRange
	}
	return sum, nil
}

// InLedgerRange reports whether v fits a ledger balance.
func InLedgerRange(v decimal.Decimal) bool {
	return !v.GreaterThan(MaxLedgerBalance) && !v.LessThan(MinLedgerBalance)
}
