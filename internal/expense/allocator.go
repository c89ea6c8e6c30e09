package expense

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DailyCap is the most that can be spent on non-exempt meals per calendar day
var DailyCap = decimal.NewFromInt(70)

// Outcome is the result of applying the daily cap to a candidate
type Outcome string

const (
	Accepted       Outcome = "accepted"
	AcceptedCapped Outcome = "accepted_capped"
	Rejected       Outcome = "rejected"
)

// Decision describes what to record for a candidate
type Decision struct {
	Outcome         Outcome         `json:"outcome"`
	Amount          decimal.Decimal `json:"amount"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	Notes           string          `json:"notes"`
}

// Allocate applies the daily meal cap to a candidate given the expenses already recorded.
// It has no side effects; the caller records the expense when the outcome is not Rejected.
func Allocate(c Candidate, recorded []Expense) Decision {
	decision := Decision{
		Outcome:         Accepted,
		Amount:          c.Amount,
		RequestedAmount: c.Amount,
		Notes:           c.Notes,
	}
	if c.Category != CategoryMeals || c.IsClientLunch {
		return decision
	}

	daySum := cappedDaySum(c, recorded)
	if daySum.GreaterThanOrEqual(DailyCap) {
		decision.Outcome = Rejected
		decision.Amount = decimal.Zero
		return decision
	}

	remaining := DailyCap.Sub(daySum)
	if c.Amount.GreaterThan(remaining) {
		decision.Outcome = AcceptedCapped
		decision.Amount = remaining
		decision.Notes = appendNote(c.Notes, adjustmentNote(c.Amount, remaining))
	}
	return decision
}

// cappedDaySum totals the non-exempt meal expenses recorded on the candidate's date
func cappedDaySum(c Candidate, recorded []Expense) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range recorded {
		if e.Category == CategoryMeals && !e.IsClientLunch && sameDay(e.Date, c.Date) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

func adjustmentNote(requested, approved decimal.Decimal) string {
	return fmt.Sprintf("Valor original R$ %s ajustado para R$ %s (teto diário).",
		requested.StringFixed(2), approved.StringFixed(2))
}

// appendNote joins the system note to whatever the user wrote
func appendNote(userNote, systemNote string) string {
	if userNote == "" {
		return systemNote
	}
	return strings.TrimSpace(userNote + " | " + systemNote)
}
