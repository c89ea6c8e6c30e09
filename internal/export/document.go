package export

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"log/slog"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/zombor/expense-report/internal/scanning"
)

const (
	// receiptMaxEdge bounds embedded receipt images; phone photos are far larger than an A4 page needs
	receiptMaxEdge = 1600
	receiptQuality = 80

	pageMargin = 10.0
	imageTop   = 30.0
)

// Document builds a PDF with one page per entry that has a receipt image.
// Each page is titled with the category, date and amount of the expense.
func Document(entries []Row) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreator("expense-report", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	for i, e := range entries {
		if len(e.Image) == 0 {
			continue
		}

		jpg, err := recompress(e.Image, e.ImageContentType)
		if err != nil {
			slog.Warn("Skipping unreadable receipt image", "category", e.Category, "date", e.Date, "error", err)
			continue
		}

		name := fmt.Sprintf("receipt-%d", i)
		info := pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(jpg))
		if pdf.Err() {
			return nil, fmt.Errorf("registering receipt image: %w", pdf.Error())
		}

		pdf.AddPage()
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(pageW-2*pageMargin, 10, tr(pageTitle(e)), "", 1, "C", false, 0, "")

		w, h := fitImage(info.Width(), info.Height(), pageW-2*pageMargin, pageH-imageTop-pageMargin)
		pdf.ImageOptions(name, pageMargin, imageTop, w, h, false, fpdf.ImageOptions{ImageType: "JPG"}, 0, "")
	}

	if pdf.PageCount() == 0 {
		return nil, ErrNoReceipts
	}

	var raw bytes.Buffer
	if err := pdf.Output(&raw); err != nil {
		return nil, fmt.Errorf("rendering PDF: %w", err)
	}

	var optimized bytes.Buffer
	if err := api.Optimize(bytes.NewReader(raw.Bytes()), &optimized, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("optimizing PDF: %w", err)
	}
	return optimized.Bytes(), nil
}

// PageCount returns the number of pages in a PDF
func PageCount(pdfData []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(pdfData), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	return n, nil
}

func pageTitle(e Row) string {
	return fmt.Sprintf("Despesa: %s - Data: %s - Valor: R$ %s",
		e.Category, e.Date.Format("02/01/2006"), e.Amount.StringFixed(2))
}

// recompress decodes a receipt and re-encodes it as a size-bounded JPEG
func recompress(data []byte, contentType string) ([]byte, error) {
	img, err := scanning.DecodeImage(data, contentType)
	if err != nil {
		return nil, err
	}
	img = scanning.BoundLongEdge(img, receiptMaxEdge)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: receiptQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// fitImage scales an image of size w x h to the page width, shrinking further if it
// would run past the bottom of the page
func fitImage(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, 0
	}
	outW, outH := maxW, h*maxW/w
	if outH > maxH {
		outW, outH = w*maxH/h, maxH
	}
	return outW, outH
}
