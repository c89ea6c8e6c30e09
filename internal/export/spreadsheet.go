package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the expense rows
const SheetName = "Despesas"

// Columns are the report headers in order
var Columns = []string{"Projeto", "Profissional", "Data", "Despesa", "Atividade", "Valor", "Observações"}

const currencyFormat = `"R$ "#,##0.00`

// Spreadsheet writes the entries, in the order given, to an .xlsx workbook
func Spreadsheet(entries []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Columns); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	numFmt := currencyFormat
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, fmt.Errorf("creating amount style: %w", err)
	}

	for i, e := range entries {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			e.Project,
			e.Professional,
			FormatReportDate(e.Date),
			e.Category,
			e.Activity,
			e.Amount.Round(2).InexactFloat64(),
			e.Notes,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", row, err)
		}
	}

	if len(entries) > 0 {
		last := fmt.Sprintf("F%d", len(entries)+1)
		if err := f.SetCellStyle(SheetName, "F2", last, amountStyle); err != nil {
			return nil, fmt.Errorf("styling amounts: %w", err)
		}
	}
	if err := f.SetColWidth(SheetName, "A", "B", 30); err != nil {
		return nil, fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(SheetName, "D", "E", 28); err != nil {
		return nil, fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(SheetName, "G", "G", 60); err != nil {
		return nil, fmt.Errorf("sizing columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
