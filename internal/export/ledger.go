package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/tricount-export/tricount-export/internal/model"
)

// LedgerRenderer writes the multi-member table: one "Paid by" and one
// "Paid for" column per member, members sorted by name.
type LedgerRenderer struct {
	Delimiter rune
}

// Format returns the renderer name.
func (l *LedgerRenderer) Format() string { return "ledger" }

// Extension returns the output file extension.
func (l *LedgerRenderer) Extension() string { return delimitedExtension(l.Delimiter) }

// LedgerHeader returns the multi-member header for the given sorted names.
func LedgerHeader(names []string) []string {
	header := make([]string, 0, 4+2*len(names))
	header = append(header, "Date", "Title")
	for _, n := range names {
		header = append(header, "Paid by "+n)
	}
	for _, n := range names {
		header = append(header, "Paid for "+n)
	}
	return append(header, "Currency", "Category")
}

// Render writes the header and one row per transaction. A payer or share
// member missing from the roster aborts with *UnknownMemberError before
// that row is written.
func (l *LedgerRenderer) Render(w io.Writer, ledger *model.Ledger) error {
	names := ledger.MemberNames()

	cw := csv.NewWriter(w)
	cw.Comma = l.Delimiter

	if err := cw.Write(LedgerHeader(names)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, txn := range ledger.Transactions {
		row, err := LedgerRow(i, txn, names)
		if err != nil {
			cw.Flush()
			return err
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LedgerRow builds the row of transaction i for the sorted roster names.
func LedgerRow(i int, txn model.Transaction, names []string) ([]string, error) {
	index := make(map[string]int, len(names))
	for pos, n := range names {
		index[n] = pos
	}

	paidBy := make([]decimal.Decimal, len(names))
	paidFor := make([]decimal.Decimal, len(names))

	pos, ok := index[txn.Payer]
	if !ok {
		return nil, &UnknownMemberError{Member: txn.Payer, Entry: i}
	}
	paidBy[pos] = txn.Amount

	for _, s := range txn.Shares {
		pos, ok := index[s.Member]
		if !ok {
			return nil, &UnknownMemberError{Member: s.Member, Entry: i}
		}
		paidFor[pos] = txn.SignedShare(s.Member)
	}

	row := make([]string, 0, 4+2*len(names))
	row = append(row, txn.Date(), txn.Description)
	for _, v := range paidBy {
		row = append(row, formatAmount(v))
	}
	for _, v := range paidFor {
		row = append(row, formatAmount(v))
	}
	return append(row, txn.Currency, txn.ExportCategory()), nil
}
