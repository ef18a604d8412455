package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tricount-export/tricount-export/internal/model"
)

// SheetName is the single sheet of the workbook export.
const SheetName = "Transactions"

const colTotal = 1

// WorkbookRenderer writes the table columns to an xlsx workbook.
type WorkbookRenderer struct{}

// Format returns the renderer name.
func (WorkbookRenderer) Format() string { return "xlsx" }

// Extension returns the output file extension.
func (WorkbookRenderer) Extension() string { return ".xlsx" }

// Render writes a workbook with one sheet. Totals are numeric cells.
func (WorkbookRenderer) Render(w io.Writer, ledger *model.Ledger) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(TableHeader))
	for i, h := range TableHeader {
		header[i] = h
	}
	if err := setRow(f, 1, header); err != nil {
		return err
	}

	for i, txn := range ledger.Transactions {
		cols := tableRow(txn)
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = c
		}
		row[colTotal] = txn.Amount.InexactFloat64()
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}
