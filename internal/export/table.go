package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tricount-export/tricount-export/internal/model"
)

// TableHeader is the header of the one-row-per-transaction formats.
var TableHeader = []string{
	"Who Paid",
	"Total",
	"Currency",
	"Description",
	"When",
	"Involved",
	"File Names",
	"Attachment URLs",
	"Category",
}

const listSeparator = ", "

// TableRenderer writes one delimited row per transaction.
type TableRenderer struct {
	Name      string
	Delimiter rune
	Ext       string
}

// Format returns the renderer name.
func (t *TableRenderer) Format() string { return t.Name }

// Extension returns the output file extension.
func (t *TableRenderer) Extension() string { return t.Ext }

// Render writes the header and one row per transaction.
func (t *TableRenderer) Render(w io.Writer, ledger *model.Ledger) error {
	cw := csv.NewWriter(w)
	cw.Comma = t.Delimiter

	if err := cw.Write(TableHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, txn := range ledger.Transactions {
		if err := cw.Write(tableRow(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// tableRow returns the TableHeader columns for txn.
func tableRow(txn model.Transaction) []string {
	return []string{
		txn.Payer,
		formatAmount(txn.Amount),
		txn.Currency,
		txn.Description,
		txn.Date(),
		strings.Join(txn.Involved(), listSeparator),
		strings.Join(txn.FileNames, listSeparator),
		strings.Join(txn.Attachments, listSeparator),
		txn.ExportCategory(),
	}
}

// formatAmount renders at least two decimals without dropping any digits
// of v.
func formatAmount(v decimal.Decimal) string {
	return v.StringFixed(max(2, -v.Exponent()))
}
