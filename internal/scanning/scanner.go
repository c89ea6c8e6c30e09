package scanning

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultAmount is offered to the form when no total could be read from the receipt
var DefaultAmount = decimal.RequireFromString("0.01")

// ExtractionResult contains the fields read from a receipt.
// A nil field means the value was not found.
type ExtractionResult struct {
	Date   *time.Time       `json:"date,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// Defaults returns the values the form should start with, substituting today and
// DefaultAmount for missing fields
func (r ExtractionResult) Defaults(today time.Time) (time.Time, decimal.Decimal) {
	date, amount := today, DefaultAmount
	if r.Date != nil {
		date = *r.Date
	}
	if r.Amount != nil {
		amount = *r.Amount
	}
	return date, amount
}

// Recognizer turns a receipt image into text
type Recognizer interface {
	// Recognize returns the text found in a PNG image
	Recognize(ctx context.Context, png []byte) (string, error)
	// Close releases any resources held by the recognizer
	Close() error
}

// Scanner reads the date and total from receipt images
type Scanner struct {
	recognizer Recognizer
	prep       Preprocessing
	priority   LabelPriority
}

// NewScanner creates a Scanner around a text recognizer
func NewScanner(recognizer Recognizer, prep Preprocessing, priority LabelPriority) *Scanner {
	return &Scanner{
		recognizer: recognizer,
		prep:       prep,
		priority:   priority,
	}
}

// Scan recognizes the receipt and extracts its fields. It never fails: any problem
// is logged and results in empty fields so the form stays usable.
func (s *Scanner) Scan(ctx context.Context, data []byte, contentType string) ExtractionResult {
	pngData, err := s.prep.Apply(data, contentType)
	if err != nil {
		slog.Warn("Failed to prepare receipt image",
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return ExtractionResult{}
	}

	text, err := s.recognizer.Recognize(ctx, pngData)
	if err != nil {
		slog.Warn("Failed to recognize receipt text", "error", err)
		return ExtractionResult{}
	}

	result := Extract(text, s.priority)
	slog.Debug("Scanned receipt",
		"chars", len(text),
		"date_found", result.Date != nil,
		"amount_found", result.Amount != nil,
	)
	return result
}

// Close closes the underlying recognizer
func (s *Scanner) Close() error {
	return s.recognizer.Close()
}
