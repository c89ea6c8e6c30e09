package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a recorded expense. It is never modified after being added to a session.
type Expense struct {
	ID                 string          `json:"id"`
	Project            string          `json:"project"`
	Professional       string          `json:"professional"`
	Date               time.Time       `json:"date"`
	Category           string          `json:"category"`
	Activity           string          `json:"activity"`
	Amount             decimal.Decimal `json:"amount"`
	Notes              string          `json:"notes"`
	IsClientLunch      bool            `json:"is_client_lunch"`
	ReceiptImage       []byte          `json:"-"`
	ReceiptContentType string          `json:"-"`
	HasReceipt         bool            `json:"has_receipt"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Candidate holds the submitted form fields before the daily cap is applied
type Candidate struct {
	Project            string
	Professional       string
	Date               time.Time
	Category           string
	Activity           string
	Amount             decimal.Decimal
	Notes              string
	IsClientLunch      bool
	ReceiptImage       []byte
	ReceiptContentType string
}

// civilDate drops the time of day so expenses on the same calendar day compare equal
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sameDay reports whether two times fall on the same calendar date
func sameDay(a, b time.Time) bool {
	return civilDate(a).Equal(civilDate(b))
}
