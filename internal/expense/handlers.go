package expense

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zombor/expense-report/internal/export"
	"github.com/zombor/expense-report/internal/scanning"
)

// maxFormSize bounds uploads (high-resolution phone photos)
const maxFormSize = int64(50 << 20)

const formDateLayout = "2006-01-02"

// prefillResponse is what the form starts with after a scan
type prefillResponse struct {
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	DateFound     bool            `json:"date_found"`
	AmountFound   bool            `json:"amount_found"`
	FromReceipt   bool            `json:"from_receipt"`
	DisplayAmount string          `json:"display_amount"`
}

// addExpenseResponse is returned after a successful submission
type addExpenseResponse struct {
	Expense  *Expense `json:"expense"`
	Decision Decision `json:"decision"`
	Message  string   `json:"message"`
}

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}

// handleOptions returns the choices for the form's select fields
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Options())
}

// handleScanReceipt reads a receipt upload and returns the values to prefill the form with
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, formErrorMessage(err), http.StatusBadRequest)
		return
	}

	filename, data, contentType, err := readUpload(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if data == nil {
		jsonError(w, "Nenhum arquivo selecionado.", http.StatusBadRequest)
		return
	}

	result, err := s.service.Prefill(r.Context(), session, filename, data, contentType)
	if err != nil {
		if errors.Is(err, ErrUnsupportedReceipt) {
			jsonError(w, "Formato de arquivo não suportado. Use JPG, PNG, HEIC ou PDF.", http.StatusBadRequest)
			return
		}
		slog.Error("Error scanning receipt", "filename", filename, "error", err)
		jsonError(w, "Erro ao ler o comprovante.", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, s.prefill(result, true))
}

// handlePrefill returns the defaults for a new form
func (s *Server) handlePrefill(w http.ResponseWriter, r *http.Request) {
	result, ok := sessionFrom(r).Prefill()
	writeJSON(w, http.StatusOK, s.prefill(result, ok))
}

func (s *Server) prefill(result scanning.ExtractionResult, fromReceipt bool) prefillResponse {
	date, amount := result.Defaults(s.service.Today())
	return prefillResponse{
		Date:          date.Format(formDateLayout),
		Amount:        amount,
		DateFound:     result.Date != nil,
		AmountFound:   result.Amount != nil,
		FromReceipt:   fromReceipt,
		DisplayAmount: export.FormatNumber(amount),
	}
}

// handleListExpenses returns the session's expenses ordered by date
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses := s.service.List(sessionFrom(r))

	// Ensure we always return an array, not nil
	if expenses == nil {
		expenses = []Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

// handleAddExpense validates a submitted form and records it subject to the daily cap
func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	// Plain url-encoded forms are fine when no receipt is attached
	if err := r.ParseMultipartForm(maxFormSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		slog.Error("Error parsing multipart form", "error", err)
		jsonError(w, formErrorMessage(err), http.StatusBadRequest)
		return
	}

	c, err := candidateFromForm(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, decision, err := s.service.Submit(session, c)
	if err != nil {
		var capErr *CapReachedError
		switch {
		case errors.As(err, &capErr):
			jsonError(w, capErr.Error(), http.StatusConflict)
		case errors.Is(err, ErrInvalidExpense):
			jsonError(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("Error adding expense", "error", err)
			jsonError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, addExpenseResponse{
		Expense:  e,
		Decision: decision,
		Message:  fmt.Sprintf("Despesa de R$ %s adicionada!", e.Amount.StringFixed(2)),
	})
}

// handleResetExpenses clears the session
func (s *Server) handleResetExpenses(w http.ResponseWriter, r *http.Request) {
	s.service.Reset(sessionFrom(r))
	w.WriteHeader(http.StatusNoContent)
}

// handleExportSpreadsheet downloads the .xlsx report
func (s *Server) handleExportSpreadsheet(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.service.ExportSpreadsheet(sessionFrom(r))
	if err != nil {
		slog.Error("Error exporting spreadsheet", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	attachment(w, filename, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// handleExportDocument downloads the PDF of receipts
func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.service.ExportDocument(sessionFrom(r))
	if err != nil {
		if errors.Is(err, export.ErrNoReceipts) {
			jsonError(w, "Nenhum comprovante anexado.", http.StatusNotFound)
			return
		}
		slog.Error("Error exporting document", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	attachment(w, filename, "application/pdf", data)
}

func attachment(w http.ResponseWriter, filename, contentType string, data []byte) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// readUpload returns the optional "file" part of a multipart form.
// A missing file yields nil data and no error.
func readUpload(r *http.Request) (string, []byte, string, error) {
	if r.MultipartForm == nil {
		return "", nil, "", nil
	}
	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil, "", nil
	}
	if err != nil {
		return "", nil, "", fmt.Errorf("reading upload: %w", err)
	}
	defer f.Close()

	if header.Size > maxFormSize {
		return "", nil, "", errors.New("Arquivo muito grande. O tamanho máximo é 50MB.")
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, "", fmt.Errorf("reading upload: %w", err)
	}
	return header.Filename, data, header.Header.Get("Content-Type"), nil
}

// candidateFromForm reads the expense fields of a submitted form
func candidateFromForm(r *http.Request) (Candidate, error) {
	date, err := time.Parse(formDateLayout, strings.TrimSpace(r.FormValue("date")))
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: invalid date %q", ErrInvalidExpense, r.FormValue("date"))
	}

	amount, err := parseFormAmount(r.FormValue("amount"))
	if err != nil {
		return Candidate{}, err
	}

	c := Candidate{
		Project:       r.FormValue("project"),
		Professional:  r.FormValue("professional"),
		Date:          date,
		Category:      r.FormValue("category"),
		Activity:      r.FormValue("activity"),
		Amount:        amount,
		Notes:         strings.TrimSpace(r.FormValue("notes")),
		IsClientLunch: isChecked(r.FormValue("is_client_lunch")),
	}

	filename, data, contentType, err := readUpload(r)
	if err != nil {
		return Candidate{}, err
	}
	if data != nil {
		contentType, err = ReceiptContentType(filename, contentType)
		if err != nil {
			return Candidate{}, err
		}
		c.ReceiptImage = data
		c.ReceiptContentType = contentType
	}
	return c, nil
}

// parseFormAmount accepts both 12.34 and 12,34. With a comma present, dots are thousands
// separators (1.234,56); without one, a dot is the decimal point, as sent by the browser's
// number input, so 1.234 reads as 1.23 after rounding to cents.
func parseFormAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", ErrInvalidExpense, s)
	}
	return amount.Round(2), nil
}

func isChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes", "sim":
		return true
	}
	return false
}

func formErrorMessage(err error) string {
	if strings.Contains(err.Error(), "request body too large") {
		return "Arquivo muito grande. O tamanho máximo é 50MB."
	}
	return "Erro ao processar o formulário."
}
