package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a ledger entry. It drives the sign and category rules
// applied at export time.
type Kind string

const (
	KindNormal          Kind = "NORMAL"
	KindIncome          Kind = "INCOME"
	KindBalanceTransfer Kind = "BALANCE_TRANSFER"
)

// UncategorizedCategory is the stored category the remote service uses for
// entries without a category.
const UncategorizedCategory = "UNCATEGORIZED"

// TransferCategory labels balance transfers in every export format.
const TransferCategory = "Transfer"

const dateFormat = "2006-01-02"

// ParseKind maps a type_transaction value to a Kind. The service reports
// transfers as "BALANCE". Unknown values are returned verbatim.
func ParseKind(raw string) Kind {
	switch raw {
	case "BALANCE", string(KindBalanceTransfer):
		return KindBalanceTransfer
	case "":
		return KindNormal
	default:
		return Kind(raw)
	}
}

// Share is the magnitude one member owes for a transaction.
type Share struct {
	Member string
	Amount decimal.Decimal // never negative
}

// Transaction is one normalized ledger entry.
type Transaction struct {
	Kind        Kind
	Payer       string
	Amount      decimal.Decimal // negation of the raw amount: positive = payer paid out
	Currency    string
	Description string
	Timestamp   time.Time
	Shares      []Share // allocation order
	Category    string
	Attachments []string // receipt URLs
	FileNames   []string // local names of downloaded attachments, same order as Attachments
}

// Date returns the calendar date of the transaction as YYYY-MM-DD.
func (t Transaction) Date() string {
	return t.Timestamp.Format(dateFormat)
}

// Share returns the share of member and whether the member has an allocation.
func (t Transaction) Share(member string) (decimal.Decimal, bool) {
	for _, s := range t.Shares {
		if s.Member == member {
			return s.Amount, true
		}
	}
	return decimal.Zero, false
}

// Involved returns the members with a positive share, in allocation order.
func (t Transaction) Involved() []string {
	var names []string
	for _, s := range t.Shares {
		if s.Amount.IsPositive() {
			names = append(names, s.Member)
		}
	}
	return names
}

// SignedShare returns the share of member as placed in paid-for columns.
// Income entries flip the sign; members without an allocation get zero.
func (t Transaction) SignedShare(member string) decimal.Decimal {
	amount, _ := t.Share(member)
	if t.Kind == KindIncome {
		return amount.Neg()
	}
	return amount
}

// ExportCategory returns the category written to exports.
func (t Transaction) ExportCategory() string {
	if t.Kind == KindBalanceTransfer {
		return TransferCategory
	}
	if t.Category == UncategorizedCategory {
		return ""
	}
	return t.Category
}
