package model

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Member is a participant in a ledger. Name is unique within a ledger.
type Member struct {
	Name     string
	Balance  decimal.Decimal
	Currency string
}

// Ledger is a normalized registry: its title, roster and entries.
type Ledger struct {
	Title        string
	Members      []Member
	Transactions []Transaction
}

// MemberNames returns the roster names sorted lexicographically.
func (l *Ledger) MemberNames() []string {
	names := make([]string, len(l.Members))
	for i, m := range l.Members {
		names[i] = m.Name
	}
	slices.Sort(names)
	return names
}

// HasMember reports whether name is on the roster.
func (l *Ledger) HasMember(name string) bool {
	for _, m := range l.Members {
		if m.Name == name {
			return true
		}
	}
	return false
}
