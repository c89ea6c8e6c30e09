// Package export renders recorded expenses as an .xlsx report and a PDF of receipts.
package export

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrNoReceipts is returned when a document is requested but no expense has a receipt attached
var ErrNoReceipts = errors.New("no receipts attached")

// Row is one expense as it appears in the exports
type Row struct {
	Project          string
	Professional     string
	Date             time.Time
	Category         string
	Activity         string
	Amount           decimal.Decimal
	Notes            string
	Image            []byte
	ImageContentType string
}

var printer = message.NewPrinter(language.BrazilianPortuguese)

// ptMonths are the pt-BR month abbreviations used in the report date column
var ptMonths = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// FormatNumber formats an amount with pt-BR separators, e.g. 1.234,56
func FormatNumber(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// FormatCurrency formats an amount in reais, e.g. R$ 1.234,56
func FormatCurrency(d decimal.Decimal) string {
	return "R$ " + FormatNumber(d)
}

// FormatReportDate formats a date as day-month abbreviation-year, e.g. 15-mar-24
func FormatReportDate(t time.Time) string {
	return fmt.Sprintf("%02d-%s-%02d", t.Day(), ptMonths[t.Month()-1], t.Year()%100)
}

// SpreadsheetFilename is the download name of the report generated at t
func SpreadsheetFilename(t time.Time) string {
	return fmt.Sprintf("Relatorio_Despesas_%s.xlsx", t.Format("20060102"))
}

// DocumentFilename is the download name of the receipts PDF generated at t
func DocumentFilename(t time.Time) string {
	return fmt.Sprintf("Comprovantes_%s.pdf", t.Format("20060102"))
}
