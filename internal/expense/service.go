package expense

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/zombor/expense-report/internal/export"
	"github.com/zombor/expense-report/internal/scanning"
)

// IDGenerator generates unique IDs for expenses
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// Scanner reads the date and total from a receipt image
type Scanner interface {
	Scan(ctx context.Context, data []byte, contentType string) scanning.ExtractionResult
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// receiptTypes maps accepted receipt extensions to content types
var receiptTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".heic": "image/heic",
	".heif": "image/heif",
	".pdf":  "application/pdf",
}

// Service handles expense operations for a session
type Service struct {
	scanner     Scanner
	options     Options
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(scanner Scanner, options Options) *Service {
	return &Service{
		scanner:     scanner,
		options:     options,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(scanner Scanner, options Options, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		scanner:     scanner,
		options:     options,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Options returns the choices offered by the form
func (s *Service) Options() Options {
	return s.options
}

// Today returns the current calendar date
func (s *Service) Today() time.Time {
	return civilDate(s.timeSource.Now())
}

// ReceiptContentType validates a receipt filename and returns the content type to use.
// The declared content type wins when present.
func ReceiptContentType(filename, declared string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	inferred, ok := receiptTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedReceipt, filename)
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared == "" || declared == "application/octet-stream" {
		return inferred, nil
	}
	return declared, nil
}

// Prefill scans a receipt and remembers the extracted fields as the session's form defaults.
// Scanning problems never fail the call; the returned result simply has empty fields.
func (s *Service) Prefill(ctx context.Context, session *Session, filename string, data []byte, contentType string) (scanning.ExtractionResult, error) {
	contentType, err := ReceiptContentType(filename, contentType)
	if err != nil {
		return scanning.ExtractionResult{}, err
	}

	result := s.scanner.Scan(ctx, data, contentType)
	if result.Date != nil {
		d := civilDate(*result.Date)
		result.Date = &d
	}
	session.SetPrefill(result)

	slog.Info("Scanned receipt",
		"session", session.ID,
		"filename", filename,
		"date_found", result.Date != nil,
		"amount_found", result.Amount != nil,
	)
	return result, nil
}

// Submit validates a candidate, applies the daily cap and records the resulting expense.
// A candidate over an exhausted cap is discarded and a *CapReachedError is returned.
func (s *Service) Submit(session *Session, c Candidate) (*Expense, Decision, error) {
	if err := s.options.Validate(c); err != nil {
		return nil, Decision{}, err
	}
	c.Date = civilDate(c.Date)

	if len(c.ReceiptImage) == 0 {
		c.ReceiptImage, c.ReceiptContentType = nil, ""
	}

	e, decision := session.record(c, func(d Decision) Expense {
		return Expense{
			ID:                 s.idGenerator.Generate(),
			Project:            c.Project,
			Professional:       c.Professional,
			Date:               c.Date,
			Category:           c.Category,
			Activity:           c.Activity,
			Amount:             d.Amount,
			Notes:              d.Notes,
			IsClientLunch:      c.IsClientLunch,
			ReceiptImage:       c.ReceiptImage,
			ReceiptContentType: c.ReceiptContentType,
			HasReceipt:         len(c.ReceiptImage) > 0,
			CreatedAt:          s.timeSource.Now(),
		}
	})

	if decision.Outcome == Rejected {
		slog.Info("Expense rejected by daily cap", "session", session.ID, "date", c.Date.Format("2006-01-02"))
		return nil, decision, &CapReachedError{Date: c.Date}
	}

	slog.Info("Expense recorded",
		"session", session.ID,
		"id", e.ID,
		"category", e.Category,
		"outcome", decision.Outcome,
		"amount", e.Amount.StringFixed(2),
	)
	return e, decision, nil
}

// List returns the session's expenses ordered by date
func (s *Service) List(session *Session) []Expense {
	return session.Expenses()
}

// Reset clears the session
func (s *Service) Reset(session *Session) {
	session.Reset()
	slog.Info("Session reset", "session", session.ID)
}

// ExportSpreadsheet renders the session's expenses as an .xlsx report and returns its download name
func (s *Service) ExportSpreadsheet(session *Session) ([]byte, string, error) {
	data, err := export.Spreadsheet(rows(session.Expenses()))
	if err != nil {
		return nil, "", fmt.Errorf("exporting spreadsheet: %w", err)
	}
	return data, export.SpreadsheetFilename(s.timeSource.Now()), nil
}

// ExportDocument renders the session's receipts as a PDF, one page per receipt in the
// order the expenses were added, and returns its download name
func (s *Service) ExportDocument(session *Session) ([]byte, string, error) {
	data, err := export.Document(documentRows(session))
	if err != nil {
		return nil, "", fmt.Errorf("exporting document: %w", err)
	}
	return data, export.DocumentFilename(s.timeSource.Now()), nil
}

// documentRows lists the receipts pages in the order the expenses were added;
// only the spreadsheet is sorted by date
func documentRows(session *Session) []export.Row {
	return rows(session.Added())
}

func rows(expenses []Expense) []export.Row {
	out := make([]export.Row, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, export.Row{
			Project:          e.Project,
			Professional:     e.Professional,
			Date:             e.Date,
			Category:         e.Category,
			Activity:         e.Activity,
			Amount:           e.Amount,
			Notes:            e.Notes,
			Image:            e.ReceiptImage,
			ImageContentType: e.ReceiptContentType,
		})
	}
	return out
}
