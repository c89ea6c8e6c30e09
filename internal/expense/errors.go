package expense

import (
	"errors"
	"fmt"
	"time"

	"github.com/zombor/expense-report/internal/export"
)

var (
	ErrInvalidExpense     = errors.New("invalid expense")
	ErrUnsupportedReceipt = errors.New("unsupported receipt file")
	ErrDailyCapReached    = errors.New("daily cap reached")
)

// CapReachedError is returned when a meal expense is submitted for a day whose cap is already spent
type CapReachedError struct {
	Date time.Time
}

func (e *CapReachedError) Error() string {
	return fmt.Sprintf("Não é possível adicionar. Limite de %s para o dia %s atingido.",
		export.FormatCurrency(DailyCap), e.Date.Format("02/01/2006"))
}

func (e *CapReachedError) Unwrap() error {
	return ErrDailyCapReached
}
