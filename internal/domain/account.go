package domain

import "strconv"

// Account is a chart-of-accounts number. The digit structure encodes a
// hierarchy (statement type, category, category group, accounting group,
// subgroup), but the ledger core treats it as an opaque key; the hierarchy
// only matters for presentation.
//
// Example: 250500120000011
//
//	Statement type:     Profit and Loss (2)
//	Account category:   Expenses (5)
//	Category group:     Operating expenses (0)
//	Accounting group:   Services (50012000)
//	Subgroup:           Technical assistance (0011)
type Account uint64

// Chart entries used by the built-in posting recipes. Everything else in the
// account number space is available to callers.
const (
	AccountFunctionalCurrency Account = 110100040000000 // spendable currency balance
	AccountPrefundingDeposit  Account = 110100050000000 // escrowed deposits held by the runtime
	AccountReceivable         Account = 110100080000000 // accounts receivable (sales control)
	AccountPayable            Account = 120200030000000 // accounts payable
	AccountSalesRevenue       Account = 240400010000000 // product or service sales
	AccountLabourExpense      Account = 250500120000013 // labour purchased
	AccountTransactionFees    Account = 250500290000000 // network transaction fees
	AccountSalesLedger        Account = 360600010000000 // sales ledger by payer
	AccountInternalLedger     Account = 360600020000000 // internal ledger by module
	AccountPurchaseLedger     Account = 360600030000000 // purchase ledger by vendor
	AccountSalesControl       Account = 360600050000000 // sales ledger control
	AccountInternalControl    Account = 360600060000000 // internal ledger control
	AccountPurchaseControl    Account = 360600070000000 // purchase ledger control
)

// String renders the full account number.
func (a Account) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// Label returns the chart name for accounts the posting recipes use, or the
// account number for anything else.
func (a Account) Label() string {
	switch a {
	case AccountFunctionalCurrency:
		return "Functional currency"
	case AccountPrefundingDeposit:
		return "Prefunding deposits"
	case AccountReceivable:
		return "Accounts receivable"
	case AccountPayable:
		return "Accounts payable"
	case AccountSalesRevenue:
		return "Sales of products and services"
	case AccountLabourExpense:
		return "Labour"
	case AccountTransactionFees:
		return "Network transaction fees"
	case AccountSalesLedger:
		return "Sales ledger"
	case AccountInternalLedger:
		return "Internal ledger"
	case AccountPurchaseLedger:
		return "Purchase ledger"
	case AccountSalesControl:
		return "Sales ledger control"
	case AccountInternalControl:
		return "Internal ledger control"
	case AccountPurchaseControl:
		return "Purchase ledger control"
	default:
		return a.String()
	}
}

// StatementType returns the leading digit of the account number (balance
// sheet, profit and loss, memorandum). Presentation helper only.
func (a Account) StatementType() uint8 {
	n := uint64(a)
	for n >= 10 {
		n /= 10
	}
	return uint8(n)
}

// ParseAccount parses a decimal account number.
func ParseAccount(s string) (Account, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAccount
	}
	return Account(n), nil
}
