package scanning

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LabelPriority decides which total wins when several due labels appear in a receipt
type LabelPriority int

const (
	// PriorityFirstInText takes whichever labelled total appears first in the text
	PriorityFirstInText LabelPriority = iota
	// PriorityLabelRank prefers the most specific label regardless of position
	PriorityLabelRank
)

// ParseLabelPriority maps a config value ("text" or "label") to a LabelPriority
func ParseLabelPriority(s string) (LabelPriority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return PriorityFirstInText, true
	case "label":
		return PriorityLabelRank, true
	}
	return PriorityFirstInText, false
}

var (
	dateRe = regexp.MustCompile(`\d{2}[/.\-]\d{2}[/.\-](?:\d{4}|\d{2})`)

	// TOTAL A PAGAR must be tried before TOTAL since both match at the same offset.
	amountRe = regexp.MustCompile(`(?i)(VALOR TOTAL|TOTAL A PAGAR|TOTAL|SUBTOTAL|Valor a pagar)[\s:]*(?:R\$)?\s*(\d+(?:\.\d{3})*,\d{2}|\d+\.\d{2})\b`)

	dateSeparators = strings.NewReplacer(".", "/", "-", "/")
)

// labelRank orders due labels from most to least trustworthy
var labelRank = map[string]int{
	"VALOR TOTAL":   0,
	"TOTAL A PAGAR": 1,
	"VALOR A PAGAR": 2,
	"TOTAL":         3,
	"SUBTOTAL":      4,
}

// ExtractDate returns the first dd/mm/yyyy or dd/mm/yy date found in the text
func ExtractDate(text string) (time.Time, bool) {
	match := dateRe.FindString(text)
	if match == "" {
		return time.Time{}, false
	}
	normalized := dateSeparators.Replace(match)

	if d, err := time.Parse("02/01/2006", normalized); err == nil {
		return d, true
	}
	if d, err := time.Parse("02/01/06", normalized); err == nil {
		return d, true
	}
	return time.Time{}, false
}

// ExtractAmount returns the labelled total found in the text
func ExtractAmount(text string, priority LabelPriority) (decimal.Decimal, bool) {
	matches := amountRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return decimal.Zero, false
	}

	best := matches[0]
	if priority == PriorityLabelRank {
		for _, m := range matches[1:] {
			if labelRank[strings.ToUpper(m[1])] < labelRank[strings.ToUpper(best[1])] {
				best = m
			}
		}
	}

	amount, err := parseAmount(best[2])
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

// parseAmount converts "1.234,56" or "1234.56" into a decimal
func parseAmount(s string) (decimal.Decimal, error) {
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

// Extract pulls the transaction date and total out of recognized receipt text.
// Either field is nil when nothing usable was found.
func Extract(text string, priority LabelPriority) ExtractionResult {
	var result ExtractionResult
	if d, ok := ExtractDate(text); ok {
		result.Date = &d
	}
	if a, ok := ExtractAmount(text, priority); ok {
		result.Amount = &a
	}
	return result
}
